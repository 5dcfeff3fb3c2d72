// internal/models/memory.go
package models

import (
	"fmt"
	"strings"
	"sync"
)

// ScriptProgress 剧本进度
type ScriptProgress struct {
	CurrentLine     int      `json:"current_line"`
	TotalLines      int      `json:"total_lines"`
	CompletedStages []string `json:"completed_stages"`
	CurrentStage    string   `json:"current_stage"`
}

// ChatMemory 弹幕处理记录
type ChatMemory struct {
	Received         []string `json:"received"`
	Responded        []string `json:"responded"`
	Ignored          []string `json:"ignored"`
	PendingQuestions []string `json:"pending_questions"`
}

// Promise 主播许下的承诺；兑现后只打标记，不删除，保证历史可审计
type Promise struct {
	Content   string `json:"content"`
	Fulfilled bool   `json:"fulfilled"`
}

// StoryPoints 故事要点追踪
type StoryPoints struct {
	Mentioned []string `json:"mentioned"`
	Upcoming  []string `json:"upcoming"`
	Revealed  []string `json:"revealed"`
}

// EmotionEvent 情绪轨迹中的一个断点
type EmotionEvent struct {
	Level   int    `json:"level"`
	Trigger string `json:"trigger"`
}

// MemorySnapshot 记忆状态的只读投影（展示/遥测用）
type MemorySnapshot struct {
	ScriptProgress ScriptProgress `json:"script_progress"`
	ChatMemory     ChatMemory     `json:"chat_memory"`
	Promises       []Promise      `json:"promises"`
	StoryPoints    StoryPoints    `json:"story_points"`
	EmotionTrack   []EmotionEvent `json:"emotion_track"`
}

// ChatOutcome 弹幕处理结果
type ChatOutcome string

const (
	ChatResponded ChatOutcome = "responded"
	ChatIgnored   ChatOutcome = "ignored"
)

// PerformerMemory 连续性账本：纯记账，不做决策
// 仅由 PerformanceStepper 在每个 tick 后写入；Snapshot 可与读并发调用
type PerformerMemory struct {
	mu sync.RWMutex

	scriptProgress ScriptProgress
	chatMemory     ChatMemory
	promises       []Promise
	storyPoints    StoryPoints
	emotionTrack   []EmotionEvent
}

// NewPerformerMemory 按剧本初始化记忆：待讲要点来自各行 key_info
func NewPerformerMemory(script []ScriptLine) *PerformerMemory {
	m := &PerformerMemory{
		scriptProgress: ScriptProgress{
			TotalLines:   len(script),
			CurrentStage: StageHook,
		},
	}
	if len(script) > 0 {
		m.scriptProgress.CurrentStage = script[0].Stage
	}
	for _, line := range script {
		m.storyPoints.Upcoming = append(m.storyPoints.Upcoming, line.KeyInfo...)
	}
	return m
}

// RecordProgress 记录某一行讲完：推进行号、转移阶段、搬运故事要点
// mentioned 只增不减
func (m *PerformerMemory) RecordProgress(line *ScriptLine) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.scriptProgress.CurrentLine < m.scriptProgress.TotalLines {
		m.scriptProgress.CurrentLine++
	}

	if line.Stage != m.scriptProgress.CurrentStage {
		m.scriptProgress.CompletedStages = append(
			m.scriptProgress.CompletedStages, m.scriptProgress.CurrentStage)
		m.scriptProgress.CurrentStage = line.Stage
	}

	for _, info := range line.KeyInfo {
		m.storyPoints.Mentioned = append(m.storyPoints.Mentioned, info)
		m.storyPoints.Upcoming = removeFirst(m.storyPoints.Upcoming, info)
	}
}

// RecordChat 记录弹幕处理结果
func (m *PerformerMemory) RecordChat(dm *Danmaku, outcome ChatOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.chatMemory.Received = append(m.chatMemory.Received, dm.Text)
	switch outcome {
	case ChatResponded:
		m.chatMemory.Responded = append(m.chatMemory.Responded, dm.Text)
		m.chatMemory.PendingQuestions = removeFirst(m.chatMemory.PendingQuestions, dm.Text)
	case ChatIgnored:
		m.chatMemory.Ignored = append(m.chatMemory.Ignored, dm.Text)
		if dm.IsQuestion() {
			m.chatMemory.PendingQuestions = append(m.chatMemory.PendingQuestions, dm.Text)
		}
	}
}

// RecordEmotion 追加情绪断点
func (m *PerformerMemory) RecordEmotion(level int, trigger string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emotionTrack = append(m.emotionTrack, EmotionEvent{Level: level, Trigger: trigger})
}

// AddPromise 记录一条承诺
func (m *PerformerMemory) AddPromise(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promises = append(m.promises, Promise{Content: content})
}

// FulfillPromise 将匹配的承诺标记为已兑现，返回是否命中
// 承诺永不删除
func (m *PerformerMemory) FulfillPromise(matcher func(content string) bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.promises {
		if !m.promises[i].Fulfilled && matcher(m.promises[i].Content) {
			m.promises[i].Fulfilled = true
			return true
		}
	}
	return false
}

// Snapshot 返回当前记忆的深拷贝投影，无副作用，可并发调用
func (m *PerformerMemory) Snapshot() MemorySnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MemorySnapshot{
		ScriptProgress: ScriptProgress{
			CurrentLine:     m.scriptProgress.CurrentLine,
			TotalLines:      m.scriptProgress.TotalLines,
			CompletedStages: append([]string(nil), m.scriptProgress.CompletedStages...),
			CurrentStage:    m.scriptProgress.CurrentStage,
		},
		ChatMemory: ChatMemory{
			Received:         append([]string(nil), m.chatMemory.Received...),
			Responded:        append([]string(nil), m.chatMemory.Responded...),
			Ignored:          append([]string(nil), m.chatMemory.Ignored...),
			PendingQuestions: append([]string(nil), m.chatMemory.PendingQuestions...),
		},
		Promises: append([]Promise(nil), m.promises...),
		StoryPoints: StoryPoints{
			Mentioned: append([]string(nil), m.storyPoints.Mentioned...),
			Upcoming:  append([]string(nil), m.storyPoints.Upcoming...),
			Revealed:  append([]string(nil), m.storyPoints.Revealed...),
		},
		EmotionTrack: append([]EmotionEvent(nil), m.emotionTrack...),
	}
}

// ToContext 生成给生成协作方的上下文摘要
func (m *PerformerMemory) ToContext() string {
	snap := m.Snapshot()

	var parts []string
	parts = append(parts, fmt.Sprintf("剧本进度: %d/%d (%s)",
		snap.ScriptProgress.CurrentLine,
		snap.ScriptProgress.TotalLines,
		snap.ScriptProgress.CurrentStage))

	if mentioned := snap.StoryPoints.Mentioned; len(mentioned) > 0 {
		parts = append(parts, "已提到: "+strings.Join(lastN(mentioned, 5), ", "))
	}
	if pending := snap.ChatMemory.PendingQuestions; len(pending) > 0 {
		parts = append(parts, "待回答: "+strings.Join(lastN(pending, 3), ", "))
	}

	var unfulfilled []string
	for _, p := range snap.Promises {
		if !p.Fulfilled {
			unfulfilled = append(unfulfilled, p.Content)
		}
	}
	if len(unfulfilled) > 0 {
		parts = append(parts, "待兑现承诺: "+strings.Join(lastN(unfulfilled, 2), ", "))
	}

	return strings.Join(parts, " | ")
}

// ToDisplay 生成用户可见的记忆状态文本
func (m *PerformerMemory) ToDisplay() string {
	snap := m.Snapshot()

	var b strings.Builder
	b.WriteString("---- AI 记忆状态 ----\n")

	prog := snap.ScriptProgress
	if prog.TotalLines > 0 {
		filled := prog.CurrentLine * 10 / prog.TotalLines
		bar := strings.Repeat("#", filled) + strings.Repeat("-", 10-filled)
		fmt.Fprintf(&b, "剧本: [%s] %d/%d (%s)\n", bar, prog.CurrentLine, prog.TotalLines, prog.CurrentStage)
	}

	fmt.Fprintf(&b, "弹幕: 已回应%d条, 待回答%d个问题\n",
		len(snap.ChatMemory.Responded), len(snap.ChatMemory.PendingQuestions))

	for _, p := range snap.Promises {
		if !p.Fulfilled {
			fmt.Fprintf(&b, "待兑现: %s\n", p.Content)
		}
	}
	for _, e := range lastNEvents(snap.EmotionTrack, 2) {
		fmt.Fprintf(&b, "情绪断点: L%d %s\n", e.Level, e.Trigger)
	}

	return b.String()
}

func removeFirst(items []string, target string) []string {
	for i, item := range items {
		if item == target {
			return append(items[:i:i], items[i+1:]...)
		}
	}
	return items
}

func lastN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

func lastNEvents(items []EmotionEvent, n int) []EmotionEvent {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
