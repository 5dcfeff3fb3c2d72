// internal/cue/synthesizer.go
package cue

import (
	"github.com/Corphon/StreamPerformerMCP/internal/models"
	"github.com/Corphon/StreamPerformerMCP/internal/vrm"
)

// Synthesizer 把台词/阶段/决策合成为多通道表演指令
// 每个 tick 产出一个全新 Cue，不保留跨 tick 状态
type Synthesizer struct{}

// NewSynthesizer 创建合成器
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

// Synthesize 合成指令
// hint 为剧本行的预置指令，提供的通道优先；缺省通道按文本/阶段推导并补默认值
func (s *Synthesizer) Synthesize(text, stage string, action models.Action, hint *models.PerformerCue) *models.PerformerCue {
	out := &models.PerformerCue{}

	// 表情：优先预置，否则从文本推断
	if hint != nil && hint.Emotion != nil {
		out.Emotion = models.NewEmotionCue(string(hint.Emotion.Key), hint.Emotion.Intensity)
		out.Emotion.Attack = hint.Emotion.Attack
		out.Emotion.Release = hint.Emotion.Release
	} else {
		out.Emotion = InferEmotion(text, stage)
	}

	// 动作：优先预置，否则查目录（阶段+情绪 → 纯情绪 → 无）
	if hint != nil && hint.Gesture != nil {
		g := *hint.Gesture
		out.Gesture = models.NewGestureCue(g.Clip, g.Weight, g.Duration, g.Loop)
	} else if preset := vrm.GetGestureForStage(stage, string(out.Emotion.Key)); preset != nil {
		out.Gesture = models.NewGestureCue(preset.Name, out.Emotion.Intensity, preset.Duration, false)
	}

	// 视线：回应弹幕时看向弹幕区，其余看镜头；预置优先
	if hint != nil && hint.Look != nil {
		l := *hint.Look
		out.Look = &models.LookCue{Target: l.Target, Strength: l.Strength}
	} else if action == models.ActionRespond || action == models.ActionTease {
		out.Look = models.NewLookCue(string(models.LookChat), 1.0)
	} else {
		out.Look = models.NewLookCue(string(models.LookCamera), 1.0)
	}

	// 眨眼/口型：默认自动眨眼 + 同步开启
	if hint != nil && hint.Blink != nil {
		out.Blink = &models.BlinkCue{Mode: hint.Blink.Mode}
	} else {
		out.Blink = &models.BlinkCue{Mode: models.BlinkAuto}
	}
	if hint != nil && hint.Lipsync != nil {
		out.Lipsync = &models.LipsyncCue{Enabled: hint.Lipsync.Enabled}
	} else {
		out.Lipsync = &models.LipsyncCue{Enabled: true}
	}

	// 镜头：默认不覆盖，仅透传预置
	if hint != nil && hint.Camera != nil {
		out.Camera = models.NewCameraCue(hint.Camera.Preset, hint.Camera.Zoom)
	}
	if hint != nil && hint.Beat != nil {
		beat := *hint.Beat
		out.Beat = &beat
	}
	if hint != nil && hint.Pause != nil {
		pause := *hint.Pause
		out.Pause = &pause
	}

	return out
}
