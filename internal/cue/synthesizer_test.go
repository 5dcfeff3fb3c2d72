// internal/cue/synthesizer_test.go
package cue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StreamPerformerMCP/internal/models"
)

func TestSynthesizeInfersEmotionWhenNoHint(t *testing.T) {
	s := NewSynthesizer()
	cue := s.Synthesize("太开心了！", models.StageBuildUp, models.ActionContinue, nil)

	require.NotNil(t, cue.Emotion)
	assert.Equal(t, models.EmotionHappy, cue.Emotion.Key)
	require.NotNil(t, cue.Lipsync)
	assert.True(t, cue.Lipsync.Enabled)
	require.NotNil(t, cue.Blink)
}

func TestSynthesizeHintTakesPrecedence(t *testing.T) {
	s := NewSynthesizer()
	hint := &models.PerformerCue{
		Emotion: models.NewEmotionCue("angry", 0.9),
	}

	cue := s.Synthesize("太开心了！", models.StageBuildUp, models.ActionContinue, hint)
	require.NotNil(t, cue.Emotion)
	assert.Equal(t, models.EmotionAngry, cue.Emotion.Key)
	assert.Equal(t, 0.9, cue.Emotion.Intensity)
}

func TestSynthesizeLookFollowsAction(t *testing.T) {
	s := NewSynthesizer()

	responding := s.Synthesize("谢谢你的弹幕", models.StageBuildUp, models.ActionRespond, nil)
	require.NotNil(t, responding.Look)
	assert.Equal(t, models.LookChat, responding.Look.Target.Preset)

	continuing := s.Synthesize("继续讲故事", models.StageBuildUp, models.ActionContinue, nil)
	require.NotNil(t, continuing.Look)
	assert.Equal(t, models.LookCamera, continuing.Look.Target.Preset)
}

func TestSynthesizeDeterministic(t *testing.T) {
	s := NewSynthesizer()
	first := s.Synthesize("震惊的消息！", models.StageClimax, models.ActionContinue, nil)
	second := s.Synthesize("震惊的消息！", models.StageClimax, models.ActionContinue, nil)

	assert.Equal(t, first.ToDict(), second.ToDict())
}
