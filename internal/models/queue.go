// internal/models/queue.go
package models

import (
	"sync"
)

// DanmakuQueue 弹幕队列
// 摄入侧（transport goroutine）并发追加，stepper 单消费者读取/摘除，
// 锁保护，绝不作为裸共享切片暴露
type DanmakuQueue struct {
	mu    sync.Mutex
	items []*Danmaku
}

// NewDanmakuQueue 创建空队列
func NewDanmakuQueue() *DanmakuQueue {
	return &DanmakuQueue{}
}

// Push 追加一条弹幕（任意 goroutine 可调用）
func (q *DanmakuQueue) Push(dm *Danmaku) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, dm)
}

// Items 返回当前队列的快照（保持到达顺序）
func (q *DanmakuQueue) Items() []*Danmaku {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*Danmaku(nil), q.items...)
}

// Remove 摘除指定弹幕，返回是否命中
func (q *DanmakuQueue) Remove(target *Danmaku) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, dm := range q.items {
		if dm == target {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Drain 清空队列并返回全部元素
func (q *DanmakuQueue) Drain() []*Danmaku {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := q.items
	q.items = nil
	return drained
}

// Len 当前队列长度
func (q *DanmakuQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
