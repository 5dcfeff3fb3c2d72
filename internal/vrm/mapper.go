// internal/vrm/mapper.go
package vrm

import (
	"fmt"

	"github.com/Corphon/StreamPerformerMCP/internal/errors"
	"github.com/Corphon/StreamPerformerMCP/internal/models"
)

// Version 支持的 VRM 模型格式版本
type Version string

const (
	// VRM0 使用首字母大写的英文 BlendShape 命名
	VRM0 Version = "vrm0"
	// VRM1 使用全小写的规范表情命名
	VRM1 Version = "vrm1"
)

// 表情淡入时长（秒），与渲染端约定一致
const expressionFadeIn = 0.2

// 各版本默认表情映射表：抽象情绪键 → 原生 BlendShape 名
var vrm0Expressions = map[models.EmotionKey]string{
	models.EmotionNeutral:   "Neutral",
	models.EmotionHappy:     "Joy",
	models.EmotionAngry:     "Angry",
	models.EmotionSad:       "Sorrow",
	models.EmotionSurprised: "Surprised",
	models.EmotionRelaxed:   "Fun",
}

var vrm1Expressions = map[models.EmotionKey]string{
	models.EmotionNeutral:   "neutral",
	models.EmotionHappy:     "happy",
	models.EmotionAngry:     "angry",
	models.EmotionSad:       "sad",
	models.EmotionSurprised: "surprised",
	models.EmotionRelaxed:   "relaxed",
}

// 各版本口型映射表
var vrm0Visemes = map[string]string{
	"aa": "A",
	"ih": "I",
	"ou": "U",
	"ee": "E",
	"oh": "O",
}

var vrm1Visemes = map[string]string{
	"aa": "aa",
	"ih": "ih",
	"ou": "ou",
	"ee": "ee",
	"oh": "oh",
}

// BlendshapeFrame 单个 BlendShape 的权重帧
type BlendshapeFrame struct {
	BlendShape string  `json:"blendShape"`
	Weight     float64 `json:"weight"`
}

// Command 发送给渲染端的完整表情指令
type Command struct {
	Type       string  `json:"type"`
	BlendShape string  `json:"blendShape"`
	Weight     float64 `json:"weight"`
	FadeIn     float64 `json:"fadeIn"`
	Version    string  `json:"version"`
}

// ExpressionMapper 将语义表情/口型键翻译为目标 VRM 版本的渲染指令
// 调用方可提供覆盖表，覆盖表优先于版本默认表
type ExpressionMapper struct {
	version     Version
	expressions map[models.EmotionKey]string
	visemes     map[string]string
	custom      map[string]string
}

// NewExpressionMapper 创建指定版本的映射器
// custom 中的键为抽象情绪/口型键字符串，值为原生 BlendShape 名
func NewExpressionMapper(version Version, custom map[string]string) *ExpressionMapper {
	m := &ExpressionMapper{
		version: version,
		custom:  custom,
	}
	switch version {
	case VRM0:
		m.expressions = vrm0Expressions
		m.visemes = vrm0Visemes
	default:
		m.version = VRM1
		m.expressions = vrm1Expressions
		m.visemes = vrm1Visemes
	}
	return m
}

// Version 返回映射器声明的格式版本
func (m *ExpressionMapper) Version() Version {
	return m.version
}

// MapEmotion 映射情绪键为 BlendShape 帧
// 未知键属于调用方契约错误，返回命名明确的查询错误而非静默输出错误形状
func (m *ExpressionMapper) MapEmotion(key models.EmotionKey, intensity float64) (*BlendshapeFrame, error) {
	name, err := m.resolveEmotion(key)
	if err != nil {
		return nil, err
	}
	return &BlendshapeFrame{BlendShape: name, Weight: clamp01(intensity)}, nil
}

// MapViseme 映射口型键为 BlendShape 帧（lip-sync 帧的对应操作）
func (m *ExpressionMapper) MapViseme(viseme string, intensity float64) (*BlendshapeFrame, error) {
	if m.custom != nil {
		if name, ok := m.custom[viseme]; ok {
			return &BlendshapeFrame{BlendShape: name, Weight: clamp01(intensity)}, nil
		}
	}
	name, ok := m.visemes[viseme]
	if !ok {
		return nil, errors.NewLookupError(
			fmt.Sprintf("口型键 %q 在版本 %s 下没有映射", viseme, m.version))
	}
	return &BlendshapeFrame{BlendShape: name, Weight: clamp01(intensity)}, nil
}

// ToCommand 生成完整渲染指令（含固定淡入时长与版本标记）
func (m *ExpressionMapper) ToCommand(key models.EmotionKey, intensity float64) (*Command, error) {
	frame, err := m.MapEmotion(key, intensity)
	if err != nil {
		return nil, err
	}
	return &Command{
		Type:       "expression",
		BlendShape: frame.BlendShape,
		Weight:     frame.Weight,
		FadeIn:     expressionFadeIn,
		Version:    string(m.version),
	}, nil
}

func (m *ExpressionMapper) resolveEmotion(key models.EmotionKey) (string, error) {
	if m.custom != nil {
		if name, ok := m.custom[string(key)]; ok {
			return name, nil
		}
	}
	name, ok := m.expressions[key]
	if !ok {
		return "", errors.NewLookupError(
			fmt.Sprintf("表情键 %q 在版本 %s 下没有映射", key, m.version))
	}
	return name, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
