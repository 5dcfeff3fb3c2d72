// internal/models/script.go
package models

import (
	"strings"
	"time"
)

// NarrativeStage 叙事阶段（有序集合，可扩展）
type NarrativeStage = string

const (
	StageHook       NarrativeStage = "Hook"
	StageBuildUp    NarrativeStage = "Build-up"
	StageClimax     NarrativeStage = "Climax"
	StageResolution NarrativeStage = "Resolution"
)

// ScriptLine 预生成剧本中的一行（不可变）
type ScriptLine struct {
	ID               int           `json:"id"`
	Text             string        `json:"text"`
	Stage            string        `json:"stage"`
	InterruptionCost float64       `json:"cost"` // [0,1] 被打断的叙事代价
	KeyInfo          []string      `json:"key_info"`
	Disfluencies     []string      `json:"disfluencies,omitempty"`
	EmotionBreak     *EmotionBreak `json:"emotion_break,omitempty"`
	Cue              *PerformerCue `json:"cue,omitempty"` // 预置指令，可缺省
}

// EmotionBreak 情绪断点标记（剧本生成阶段标注）
type EmotionBreak struct {
	Level   int    `json:"level"` // 1=微破防 2=明显破防 3=完全破防
	Trigger string `json:"trigger"`
}

// EffectiveCost 随行内进度衰减的实际打断代价
// 越接近行尾，插话的叙事损失越小
func (l *ScriptLine) EffectiveCost(elapsedRatio float64) float64 {
	if elapsedRatio > 0.8 {
		return l.InterruptionCost * 0.5
	}
	if elapsedRatio > 0.5 {
		return l.InterruptionCost * 0.8
	}
	return l.InterruptionCost
}

// Segments 按句读拆分台词，逐 tick 消费
// 空文本返回单个空段，保证行至少占用一个 tick
func (l *ScriptLine) Segments() []string {
	text := strings.TrimSpace(l.Text)
	if text == "" {
		return []string{""}
	}

	var segments []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		switch r {
		case '。', '！', '？', '；', '.', '!', '?', ';':
			if seg := strings.TrimSpace(current.String()); seg != "" {
				segments = append(segments, seg)
			}
			current.Reset()
		}
	}
	if seg := strings.TrimSpace(current.String()); seg != "" {
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return []string{text}
	}
	return segments
}

// ScriptArtifact 持久化的剧本工件（会话建立时产出一次，stepper 消费）
type ScriptArtifact struct {
	Metadata ScriptMetadata `json:"metadata"`
	Script   []ScriptLine   `json:"script"`
}

// ScriptMetadata 剧本元信息
type ScriptMetadata struct {
	Timestamp  time.Time `json:"timestamp"`
	Name       string    `json:"name"`
	Topic      string    `json:"topic"`
	TotalLines int       `json:"total_lines"`
}
