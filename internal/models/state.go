// internal/models/state.go
package models

// PerformanceState 单场表演的聚合状态
// 会话建立时创建一次，由唯一的 PerformanceStepper 独占持有；
// 除弹幕队列的摄入侧外，任何字段不得在 tick 之外被修改
type PerformanceState struct {
	// 身份设定
	Name       string `json:"name"`
	Persona    string `json:"persona"`
	Background string `json:"background"`
	Topic      string `json:"topic"`

	// 剧本与进度
	Script         []ScriptLine `json:"script"`
	CurrentLineIdx int          `json:"current_line_idx"`
	SegmentIdx     int          `json:"segment_idx"` // 当前行内已消费的段数
	CurrentStep    int          `json:"current_step"`

	// 运行时
	Queue        *DanmakuQueue    `json:"-"`
	Memory       *PerformerMemory `json:"-"`
	Catchphrases []string         `json:"catchphrases,omitempty"`
}

// NewPerformanceState 创建表演状态
func NewPerformanceState(name, persona, background, topic string, script []ScriptLine) *PerformanceState {
	return &PerformanceState{
		Name:       name,
		Persona:    persona,
		Background: background,
		Topic:      topic,
		Script:     script,
		Queue:      NewDanmakuQueue(),
		Memory:     NewPerformerMemory(script),
	}
}

// CurrentLine 当前剧本行；越界返回 nil
func (s *PerformanceState) CurrentLine() *ScriptLine {
	if s.CurrentLineIdx < 0 || s.CurrentLineIdx >= len(s.Script) {
		return nil
	}
	return &s.Script[s.CurrentLineIdx]
}

// NextLine 下一剧本行；不存在返回 nil
func (s *PerformanceState) NextLine() *ScriptLine {
	idx := s.CurrentLineIdx + 1
	if idx >= len(s.Script) {
		return nil
	}
	return &s.Script[idx]
}

// ElapsedRatio 当前行内进度（已消费段数 / 总段数）
func (s *PerformanceState) ElapsedRatio() float64 {
	line := s.CurrentLine()
	if line == nil {
		return 1.0
	}
	segments := line.Segments()
	if len(segments) == 0 {
		return 1.0
	}
	return float64(s.SegmentIdx) / float64(len(segments))
}

// Finished 剧本是否已全部消费
func (s *PerformanceState) Finished() bool {
	return s.CurrentLineIdx >= len(s.Script)
}
