// internal/vrm/mapper_test.go
package vrm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StreamPerformerMCP/internal/errors"
	"github.com/Corphon/StreamPerformerMCP/internal/models"
)

func TestMapEmotionVRM0(t *testing.T) {
	mapper := NewExpressionMapper(VRM0, nil)

	frame, err := mapper.MapEmotion(models.EmotionHappy, 0.8)
	require.NoError(t, err)
	assert.Equal(t, "Joy", frame.BlendShape)
	assert.Equal(t, 0.8, frame.Weight)

	frame, err = mapper.MapEmotion(models.EmotionSad, 0.5)
	require.NoError(t, err)
	assert.Equal(t, "Sorrow", frame.BlendShape)
}

func TestMapEmotionVRM1(t *testing.T) {
	mapper := NewExpressionMapper(VRM1, nil)

	frame, err := mapper.MapEmotion(models.EmotionHappy, 0.8)
	require.NoError(t, err)
	assert.Equal(t, "happy", frame.BlendShape)
}

func TestMapEmotionCustomOverride(t *testing.T) {
	mapper := NewExpressionMapper(VRM0, map[string]string{"happy": "CustomHappy"})

	frame, err := mapper.MapEmotion(models.EmotionHappy, 1.0)
	require.NoError(t, err)
	assert.Equal(t, "CustomHappy", frame.BlendShape)

	// 未覆盖的键仍走默认表
	frame, err = mapper.MapEmotion(models.EmotionAngry, 1.0)
	require.NoError(t, err)
	assert.Equal(t, "Angry", frame.BlendShape)
}

func TestMapEmotionUnknownKeyFails(t *testing.T) {
	mapper := NewExpressionMapper(VRM1, nil)

	_, err := mapper.MapEmotion(models.EmotionKey("ecstatic"), 0.5)
	require.Error(t, err)
	assert.True(t, errors.IsLookupError(err))
}

func TestMapViseme(t *testing.T) {
	vrm0 := NewExpressionMapper(VRM0, nil)
	vrm1 := NewExpressionMapper(VRM1, nil)

	frame, err := vrm0.MapViseme("aa", 1.0)
	require.NoError(t, err)
	assert.Equal(t, "A", frame.BlendShape)

	frame, err = vrm1.MapViseme("aa", 1.0)
	require.NoError(t, err)
	assert.Equal(t, "aa", frame.BlendShape)

	_, err = vrm0.MapViseme("zz", 1.0)
	require.Error(t, err)
	assert.True(t, errors.IsLookupError(err))
}

func TestMapWeightClamped(t *testing.T) {
	mapper := NewExpressionMapper(VRM1, nil)

	frame, err := mapper.MapEmotion(models.EmotionHappy, 1.7)
	require.NoError(t, err)
	assert.Equal(t, 1.0, frame.Weight)
}

func TestToCommand(t *testing.T) {
	mapper := NewExpressionMapper(VRM1, nil)

	command, err := mapper.ToCommand(models.EmotionHappy, 0.8)
	require.NoError(t, err)
	assert.Equal(t, "expression", command.Type)
	assert.Equal(t, "happy", command.BlendShape)
	assert.Equal(t, 0.8, command.Weight)
	assert.Equal(t, 0.2, command.FadeIn)
	assert.Equal(t, "vrm1", command.Version)
}

func TestToCommandUnknownKeyFails(t *testing.T) {
	mapper := NewExpressionMapper(VRM0, nil)
	_, err := mapper.ToCommand(models.EmotionKey("nope"), 0.5)
	assert.Error(t, err)
}
