// internal/models/queue_test.go
package models

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePreservesArrivalOrder(t *testing.T) {
	queue := NewDanmakuQueue()
	first := NewDanmaku("第一条", "a")
	second := NewDanmaku("第二条", "b")
	queue.Push(first)
	queue.Push(second)

	items := queue.Items()
	require.Len(t, items, 2)
	assert.Same(t, first, items[0])
	assert.Same(t, second, items[1])
}

func TestQueueRemoveByIdentity(t *testing.T) {
	queue := NewDanmakuQueue()
	target := NewDanmaku("移除我", "a")
	twin := NewDanmaku("移除我", "a") // 内容相同但不是同一条
	queue.Push(target)
	queue.Push(twin)

	assert.True(t, queue.Remove(target))
	items := queue.Items()
	require.Len(t, items, 1)
	assert.Same(t, twin, items[0])

	assert.False(t, queue.Remove(target), "重复移除应返回 false")
}

func TestQueueItemsIsSnapshot(t *testing.T) {
	queue := NewDanmakuQueue()
	queue.Push(NewDanmaku("一条", "a"))

	items := queue.Items()
	queue.Push(NewDanmaku("两条", "b"))
	assert.Len(t, items, 1)
	assert.Equal(t, 2, queue.Len())
}

func TestQueueConcurrentPushDrain(t *testing.T) {
	queue := NewDanmakuQueue()

	var wg sync.WaitGroup
	const producers = 8
	const perProducer = 100

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				queue.Push(NewDanmaku(fmt.Sprintf("p%d-%d", p, i), "u"))
			}
		}(p)
	}

	// 消费方与生产方并发跑，靠 -race 捕获数据竞争
	stop := make(chan struct{})
	drained := make(chan int, 1)
	go func() {
		total := 0
		for {
			select {
			case <-stop:
				total += len(queue.Drain())
				drained <- total
				return
			default:
				total += len(queue.Drain())
			}
		}
	}()

	wg.Wait()
	close(stop)

	assert.Equal(t, producers*perProducer, <-drained)
}
