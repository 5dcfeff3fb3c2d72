// internal/models/cue_test.go
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmotionCueClampsIntensity(t *testing.T) {
	assert.Equal(t, 1.0, NewEmotionCue("happy", 1.5).Intensity)
	assert.Equal(t, 0.0, NewEmotionCue("happy", -0.5).Intensity)
	assert.Equal(t, 0.7, NewEmotionCue("happy", 0.7).Intensity)
}

func TestNewEmotionCueDefaults(t *testing.T) {
	cue := NewEmotionCue("happy", 0.8)
	assert.Equal(t, EmotionHappy, cue.Key)
	assert.Equal(t, 0.2, cue.Attack)
	assert.Equal(t, 0.3, cue.Release)
}

func TestNormalizeEmotionKeyUnknown(t *testing.T) {
	assert.Equal(t, EmotionNeutral, NormalizeEmotionKey("excited"))
	assert.Equal(t, EmotionHappy, NormalizeEmotionKey("happy"))
}

func TestNormalizeLookPresetUnknown(t *testing.T) {
	assert.Equal(t, LookCamera, NormalizeLookPreset("somewhere"))
	assert.Equal(t, LookChat, NormalizeLookPreset("chat"))
}

func TestCameraZoomClamped(t *testing.T) {
	assert.Equal(t, 3.0, NewCameraCue("default", 10.0).Zoom)
	assert.Equal(t, 0.5, NewCameraCue("default", 0.1).Zoom)
}

func TestPerformerCueToDictOmitsAbsentChannels(t *testing.T) {
	cue := &PerformerCue{
		Emotion: NewEmotionCue("happy", 0.8),
	}

	dict := cue.ToDict()
	assert.Contains(t, dict, "emotion")
	assert.NotContains(t, dict, "gesture")
	assert.NotContains(t, dict, "look")
	assert.NotContains(t, dict, "beat")
}

func TestPerformerCueRoundTrip(t *testing.T) {
	beat := 0.5
	original := &PerformerCue{
		Emotion: NewEmotionCue("sad", 0.6),
		Gesture: NewGestureCue("idle_sway", 1.0, 5.0, true),
		Blink:   &BlinkCue{Mode: BlinkAuto},
		Beat:    &beat,
	}

	restored := CueFromDict(original.ToDict())

	require.NotNil(t, restored.Emotion)
	assert.Equal(t, EmotionSad, restored.Emotion.Key)
	assert.Equal(t, 0.6, restored.Emotion.Intensity)

	require.NotNil(t, restored.Gesture)
	assert.Equal(t, "idle_sway", restored.Gesture.Clip)
	assert.True(t, restored.Gesture.Loop)

	require.NotNil(t, restored.Beat)
	assert.Equal(t, 0.5, *restored.Beat)

	// 未设置的通道在往返后仍然缺省
	assert.Nil(t, restored.Look)
	assert.Nil(t, restored.Camera)
	assert.Nil(t, restored.Pause)
}

func TestPerformerCueRoundTripDistinguishesDefaultFromAbsent(t *testing.T) {
	// 显式设置为默认值的通道必须在往返后保留
	withBlink := &PerformerCue{Blink: &BlinkCue{Mode: BlinkAuto}}
	restored := CueFromDict(withBlink.ToDict())
	require.NotNil(t, restored.Blink)
	assert.Equal(t, BlinkAuto, restored.Blink.Mode)

	// 完全未设置的通道必须保持 nil
	empty := &PerformerCue{}
	restored = CueFromDict(empty.ToDict())
	assert.Nil(t, restored.Blink)
}

func TestPerformerCueJSONRoundTrip(t *testing.T) {
	original := NeutralCue()
	data, err := json.Marshal(original)
	require.NoError(t, err)

	var restored PerformerCue
	require.NoError(t, json.Unmarshal(data, &restored))

	require.NotNil(t, restored.Emotion)
	assert.Equal(t, EmotionNeutral, restored.Emotion.Key)
	assert.Nil(t, restored.Gesture)
}

func TestNeutralCue(t *testing.T) {
	cue := NeutralCue()
	require.NotNil(t, cue.Emotion)
	assert.Equal(t, EmotionNeutral, cue.Emotion.Key)
	require.NotNil(t, cue.Look)
	assert.Equal(t, LookCamera, cue.Look.Target.Preset)
}
