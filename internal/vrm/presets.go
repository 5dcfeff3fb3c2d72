// internal/vrm/presets.go
package vrm

import (
	_ "embed"
	"fmt"

	"github.com/goccy/go-yaml"
)

//go:embed presets.yaml
var presetsYAML []byte

// GestureCategory 动作类别
type GestureCategory string

const (
	CategoryIdle  GestureCategory = "idle"
	CategoryTalk  GestureCategory = "talk"
	CategoryReact GestureCategory = "react"
	CategoryEmote GestureCategory = "emote"
	CategoryPose  GestureCategory = "pose"
)

// GesturePreset 动作预设目录条目（进程启动时加载一次，只读）
type GesturePreset struct {
	Name               string          `yaml:"name"`
	Category           GestureCategory `yaml:"category"`
	Duration           float64         `yaml:"duration"`
	CompatibleEmotions []string        `yaml:"emotions"`
}

// Compatible 预设是否与指定情绪兼容
func (p *GesturePreset) Compatible(emotion string) bool {
	for _, e := range p.CompatibleEmotions {
		if e == emotion {
			return true
		}
	}
	return false
}

type presetCatalog struct {
	Presets []GesturePreset `yaml:"presets"`
}

// GesturePresets 内置动作目录（保持 YAML 声明顺序，保证查询结果确定）
var GesturePresets []GesturePreset

func init() {
	var catalog presetCatalog
	if err := yaml.Unmarshal(presetsYAML, &catalog); err != nil {
		panic(fmt.Sprintf("内置动作目录解析失败: %v", err))
	}
	for _, p := range catalog.Presets {
		if p.Duration <= 0 {
			panic(fmt.Sprintf("动作预设 %s 的时长必须为正", p.Name))
		}
		if len(p.CompatibleEmotions) == 0 {
			panic(fmt.Sprintf("动作预设 %s 缺少兼容情绪", p.Name))
		}
	}
	GesturePresets = catalog.Presets
}

// 阶段到偏好动作类别的映射
var stageCategories = map[string][]GestureCategory{
	"Hook":       {CategoryEmote, CategoryTalk},
	"Build-up":   {CategoryTalk, CategoryIdle},
	"Climax":     {CategoryReact, CategoryPose},
	"Resolution": {CategoryEmote, CategoryIdle},
}

// GetGestureByEmotion 按情绪查询动作：返回首个兼容预设，无匹配返回 nil
func GetGestureByEmotion(emotion string) *GesturePreset {
	for i := range GesturePresets {
		if GesturePresets[i].Compatible(emotion) {
			return &GesturePresets[i]
		}
	}
	return nil
}

// GetGestureForStage 按阶段+情绪查询动作
// 先在阶段偏好类别内找，再退到纯情绪匹配
func GetGestureForStage(stage, emotion string) *GesturePreset {
	if categories, ok := stageCategories[stage]; ok {
		for _, category := range categories {
			for i := range GesturePresets {
				p := &GesturePresets[i]
				if p.Category == category && p.Compatible(emotion) {
					return p
				}
			}
		}
	}
	return GetGestureByEmotion(emotion)
}
