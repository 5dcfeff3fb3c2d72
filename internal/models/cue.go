// internal/models/cue.go
package models

import (
	"encoding/json"
)

// EmotionKey 表情语义键（规范形式，全小写）
type EmotionKey string

const (
	EmotionNeutral   EmotionKey = "neutral"
	EmotionHappy     EmotionKey = "happy"
	EmotionAngry     EmotionKey = "angry"
	EmotionSad       EmotionKey = "sad"
	EmotionSurprised EmotionKey = "surprised"
	EmotionRelaxed   EmotionKey = "relaxed"
)

// NormalizeEmotionKey 将任意字符串归一化为规范表情键
// 未知字符串回退到 neutral（文档化的降级行为，不报错）
func NormalizeEmotionKey(key string) EmotionKey {
	switch EmotionKey(key) {
	case EmotionNeutral, EmotionHappy, EmotionAngry,
		EmotionSad, EmotionSurprised, EmotionRelaxed:
		return EmotionKey(key)
	}
	return EmotionNeutral
}

// LookPreset 视线目标预设
type LookPreset string

const (
	LookCamera LookPreset = "camera"
	LookChat   LookPreset = "chat"
	LookUp     LookPreset = "up"
	LookDown   LookPreset = "down"
	LookAway   LookPreset = "away"
)

// NormalizeLookPreset 归一化视线预设，未知值回退到 camera
func NormalizeLookPreset(target string) LookPreset {
	switch LookPreset(target) {
	case LookCamera, LookChat, LookUp, LookDown, LookAway:
		return LookPreset(target)
	}
	return LookCamera
}

// BlinkMode 眨眼模式
type BlinkMode string

const (
	BlinkAuto  BlinkMode = "auto"
	BlinkHold  BlinkMode = "hold"
	BlinkRapid BlinkMode = "rapid"
	BlinkNone  BlinkMode = "none"
)

// NormalizeBlinkMode 归一化眨眼模式，未知值回退到 auto
func NormalizeBlinkMode(mode string) BlinkMode {
	switch BlinkMode(mode) {
	case BlinkAuto, BlinkHold, BlinkRapid, BlinkNone:
		return BlinkMode(mode)
	}
	return BlinkAuto
}

// clamp01 将数值约束到 [0,1]（越界静默归一化，不拒绝）
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// clampRange 将数值约束到 [min,max]
func clampRange(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// --------------------------------------------
// 单通道 Cue
// --------------------------------------------

// EmotionCue 表情通道
type EmotionCue struct {
	Key       EmotionKey `json:"key"`
	Intensity float64    `json:"intensity"` // [0,1]
	Attack    float64    `json:"attack"`    // 淡入秒数
	Release   float64    `json:"release"`   // 淡出秒数
}

// NewEmotionCue 构造表情通道
// key 接受规范枚举或其任意字符串形式；intensity 越界时静默截断
func NewEmotionCue(key string, intensity float64) *EmotionCue {
	return &EmotionCue{
		Key:       NormalizeEmotionKey(key),
		Intensity: clamp01(intensity),
		Attack:    0.2,
		Release:   0.3,
	}
}

// GestureCue 动作通道
type GestureCue struct {
	Clip     string  `json:"clip"`
	Weight   float64 `json:"weight"` // [0,1]
	Duration float64 `json:"duration"`
	Loop     bool    `json:"loop"`
}

// NewGestureCue 构造动作通道，weight 越界时静默截断
func NewGestureCue(clip string, weight, duration float64, loop bool) *GestureCue {
	return &GestureCue{
		Clip:     clip,
		Weight:   clamp01(weight),
		Duration: duration,
		Loop:     loop,
	}
}

// LookTarget 视线目标：预设枚举或归一化二维坐标，二者取其一
type LookTarget struct {
	Preset LookPreset
	Point  *[2]float64
}

// LookCue 视线通道
type LookCue struct {
	Target   LookTarget
	Strength float64 // [0,1]
}

// NewLookCue 构造视线通道（预设目标）
func NewLookCue(target string, strength float64) *LookCue {
	return &LookCue{
		Target:   LookTarget{Preset: NormalizeLookPreset(target)},
		Strength: clamp01(strength),
	}
}

// NewLookCuePoint 构造视线通道（二维坐标目标）
func NewLookCuePoint(x, y, strength float64) *LookCue {
	return &LookCue{
		Target:   LookTarget{Point: &[2]float64{x, y}},
		Strength: clamp01(strength),
	}
}

// BlinkCue 眨眼通道
type BlinkCue struct {
	Mode BlinkMode `json:"mode"`
}

// LipsyncCue 口型同步通道
type LipsyncCue struct {
	Enabled bool `json:"enabled"`
}

// CameraCue 镜头通道
type CameraCue struct {
	Preset string  `json:"preset"`
	Zoom   float64 `json:"zoom"` // [0.5,3.0]
}

// NewCameraCue 构造镜头通道，zoom 越界时静默截断
func NewCameraCue(preset string, zoom float64) *CameraCue {
	return &CameraCue{
		Preset: preset,
		Zoom:   clampRange(zoom, 0.5, 3.0),
	}
}

// --------------------------------------------
// PerformerCue 复合指令
// --------------------------------------------

// PerformerCue 单个 tick 的多通道表演指令
// 除 Emotion 外所有通道均可缺省；缺省通道在导出时被省略，
// 绝不在导出时补默认值（区分"未指定"与"指定为默认值"）
type PerformerCue struct {
	Emotion *EmotionCue
	Gesture *GestureCue
	Look    *LookCue
	Blink   *BlinkCue
	Lipsync *LipsyncCue
	Camera  *CameraCue

	// 节奏控制（可选）
	Beat  *float64
	Pause *float64
}

// NeutralCue 默认指令：中性表情、看镜头、自动眨眼、口型同步开启
func NeutralCue() *PerformerCue {
	return &PerformerCue{
		Emotion: NewEmotionCue("neutral", 0.5),
		Look:    NewLookCue("camera", 1.0),
		Blink:   &BlinkCue{Mode: BlinkAuto},
		Lipsync: &LipsyncCue{Enabled: true},
	}
}

// ToDict 导出为通用字典，未设置的通道不出现在结果中
func (c *PerformerCue) ToDict() map[string]interface{} {
	out := make(map[string]interface{})

	if c.Emotion != nil {
		out["emotion"] = map[string]interface{}{
			"key":       string(c.Emotion.Key),
			"intensity": c.Emotion.Intensity,
			"attack":    c.Emotion.Attack,
			"release":   c.Emotion.Release,
		}
	}
	if c.Gesture != nil {
		out["gesture"] = map[string]interface{}{
			"clip":     c.Gesture.Clip,
			"weight":   c.Gesture.Weight,
			"duration": c.Gesture.Duration,
			"loop":     c.Gesture.Loop,
		}
	}
	if c.Look != nil {
		var target interface{}
		if c.Look.Target.Point != nil {
			target = []interface{}{c.Look.Target.Point[0], c.Look.Target.Point[1]}
		} else {
			target = string(c.Look.Target.Preset)
		}
		out["look"] = map[string]interface{}{
			"target":   target,
			"strength": c.Look.Strength,
		}
	}
	if c.Blink != nil {
		out["blink"] = map[string]interface{}{
			"mode": string(c.Blink.Mode),
		}
	}
	if c.Lipsync != nil {
		out["lipsync"] = map[string]interface{}{
			"enabled": c.Lipsync.Enabled,
		}
	}
	if c.Camera != nil {
		out["camera"] = map[string]interface{}{
			"preset": c.Camera.Preset,
			"zoom":   c.Camera.Zoom,
		}
	}
	if c.Beat != nil {
		out["beat"] = *c.Beat
	}
	if c.Pause != nil {
		out["pause"] = *c.Pause
	}

	return out
}

// CueFromDict 从通用字典重建指令
// 保证 CueFromDict(c.ToDict()) 与 c 逐字段相等：存在的字段还原，缺省的保持缺省
func CueFromDict(data map[string]interface{}) *PerformerCue {
	cue := &PerformerCue{}

	if raw, ok := data["emotion"].(map[string]interface{}); ok {
		cue.Emotion = NewEmotionCue(asString(raw["key"]), asFloat(raw["intensity"], 0.5))
		if v, ok := raw["attack"]; ok {
			cue.Emotion.Attack = asFloat(v, 0.2)
		}
		if v, ok := raw["release"]; ok {
			cue.Emotion.Release = asFloat(v, 0.3)
		}
	}
	if raw, ok := data["gesture"].(map[string]interface{}); ok {
		cue.Gesture = NewGestureCue(
			asString(raw["clip"]),
			asFloat(raw["weight"], 1.0),
			asFloat(raw["duration"], 0),
			asBool(raw["loop"]),
		)
	}
	if raw, ok := data["look"].(map[string]interface{}); ok {
		strength := asFloat(raw["strength"], 1.0)
		switch target := raw["target"].(type) {
		case []interface{}:
			if len(target) == 2 {
				cue.Look = NewLookCuePoint(asFloat(target[0], 0), asFloat(target[1], 0), strength)
			}
		case string:
			cue.Look = NewLookCue(target, strength)
		}
		if cue.Look == nil {
			cue.Look = NewLookCue("camera", strength)
		}
	}
	if raw, ok := data["blink"].(map[string]interface{}); ok {
		cue.Blink = &BlinkCue{Mode: NormalizeBlinkMode(asString(raw["mode"]))}
	}
	if raw, ok := data["lipsync"].(map[string]interface{}); ok {
		cue.Lipsync = &LipsyncCue{Enabled: asBool(raw["enabled"])}
	}
	if raw, ok := data["camera"].(map[string]interface{}); ok {
		cue.Camera = NewCameraCue(asString(raw["preset"]), asFloat(raw["zoom"], 1.0))
	}
	if v, ok := data["beat"]; ok {
		beat := asFloat(v, 0)
		cue.Beat = &beat
	}
	if v, ok := data["pause"]; ok {
		pause := asFloat(v, 0)
		cue.Pause = &pause
	}

	return cue
}

// MarshalJSON 使用 ToDict 的省略语义序列化
func (c *PerformerCue) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToDict())
}

// UnmarshalJSON 使用 CueFromDict 的还原语义反序列化
func (c *PerformerCue) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = *CueFromDict(raw)
	return nil
}

// --------------------------------------------
// 字典取值辅助（LLM 返回的松散 JSON 中数值可能是多种类型）
// --------------------------------------------

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asFloat(v interface{}, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return fallback
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}
