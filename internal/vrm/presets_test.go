// internal/vrm/presets_test.go
package vrm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogSize(t *testing.T) {
	assert.GreaterOrEqual(t, len(GesturePresets), 15)
}

func TestCatalogEntriesWellFormed(t *testing.T) {
	valid := map[GestureCategory]bool{
		CategoryIdle: true, CategoryTalk: true, CategoryReact: true,
		CategoryEmote: true, CategoryPose: true,
	}

	seen := make(map[string]bool)
	for _, preset := range GesturePresets {
		assert.NotEmpty(t, preset.Name)
		assert.False(t, seen[preset.Name], "预设名重复: %s", preset.Name)
		seen[preset.Name] = true

		assert.True(t, valid[preset.Category], "未知类别: %s", preset.Category)
		assert.Greater(t, preset.Duration, 0.0)
		assert.NotEmpty(t, preset.CompatibleEmotions)
	}
}

func TestGetGestureByEmotion(t *testing.T) {
	preset := GetGestureByEmotion("surprised")
	require.NotNil(t, preset)
	assert.True(t, preset.Compatible("surprised"))

	assert.Nil(t, GetGestureByEmotion("nonexistent"))
}

func TestGetGestureByEmotionDeterministic(t *testing.T) {
	first := GetGestureByEmotion("happy")
	second := GetGestureByEmotion("happy")
	require.NotNil(t, first)
	assert.Equal(t, first.Name, second.Name)
}

func TestGetGestureForStagePrefersCategory(t *testing.T) {
	preset := GetGestureForStage("Climax", "surprised")
	require.NotNil(t, preset)
	// 高潮阶段偏好 react/pose 类动作
	assert.Contains(t, []GestureCategory{CategoryReact, CategoryPose}, preset.Category)
}

func TestGetGestureForStageFallsBackToEmotion(t *testing.T) {
	// 未知阶段下退化为纯情绪匹配
	preset := GetGestureForStage("Unknown-Stage", "happy")
	require.NotNil(t, preset)
	assert.True(t, preset.Compatible("happy"))
}
