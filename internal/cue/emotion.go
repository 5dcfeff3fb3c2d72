// internal/cue/emotion.go
package cue

import (
	"strings"

	"github.com/Corphon/StreamPerformerMCP/internal/models"
)

// 情绪关键词表，按声明顺序匹配（先命中先得，保证结果确定）
var emotionKeywords = []struct {
	Key      models.EmotionKey
	Keywords []string
}{
	{models.EmotionHappy, []string{"开心", "高兴", "太棒", "哈哈", "快乐", "爽", "好玩"}},
	{models.EmotionAngry, []string{"生气", "气死", "愤怒", "火大", "讨厌", "烦死"}},
	{models.EmotionSad, []string{"难过", "伤心", "哭", "委屈", "心酸", "遗憾"}},
	{models.EmotionSurprised, []string{"震惊", "惊呆", "天哪", "没想到", "居然", "不会吧"}},
	{models.EmotionRelaxed, []string{"放松", "舒服", "安心", "惬意"}},
}

// 基准强度，标点与阶段各自修正
const baseIntensity = 0.5

// 各阶段对强度的乘性修正：高潮放大，收尾收敛
var stageIntensityScale = map[string]float64{
	models.StageClimax:     1.3,
	models.StageResolution: 0.8,
}

// InferEmotion 从台词文本推断表情通道
// 关键词确定情绪键（无命中为 neutral）；感叹号抬升强度、省略号压低强度，
// 阶段修正在标点修正之后乘性生效，最终截断到 [0,1]
func InferEmotion(text, stage string) *models.EmotionCue {
	key := models.EmotionNeutral
	for _, entry := range emotionKeywords {
		for _, kw := range entry.Keywords {
			if strings.Contains(text, kw) {
				key = entry.Key
				break
			}
		}
		if key != models.EmotionNeutral {
			break
		}
	}

	intensity := baseIntensity
	intensity += 0.15 * float64(strings.Count(text, "!")+strings.Count(text, "！"))
	if intensity > 1.0 {
		intensity = 1.0
	}
	intensity -= 0.15 * float64(countEllipsisRuns(text))
	if intensity < 0 {
		intensity = 0
	}

	if scale, ok := stageIntensityScale[stage]; ok {
		intensity *= scale
	}

	return models.NewEmotionCue(string(key), intensity)
}

// countEllipsisRuns 统计省略号段数
// 连续两个以上的 '.' 或任意 '…' 视为一段（"嗯...让我想想..." 计 2 段）；
// 单个句号不算省略号
func countEllipsisRuns(text string) int {
	runs := 0
	dots := 0
	inEllipsis := false
	for _, r := range text {
		switch r {
		case '…':
			if !inEllipsis {
				runs++
				inEllipsis = true
			}
			dots = 0
		case '.':
			dots++
			if dots == 2 && !inEllipsis {
				runs++
				inEllipsis = true
			}
		default:
			dots = 0
			inEllipsis = false
		}
	}
	return runs
}
