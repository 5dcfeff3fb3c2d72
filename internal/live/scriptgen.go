// internal/live/scriptgen.go
package live

import (
	"context"
	"fmt"
	"strings"

	"github.com/Corphon/StreamPerformerMCP/internal/llm"
	"github.com/Corphon/StreamPerformerMCP/internal/logging"
	"github.com/Corphon/StreamPerformerMCP/internal/models"
)

const scriptSystemPrompt = `你是一个专业的VTuber剧本编剧。你需要根据角色设定和直播主题，写出一段完整的直播剧本。

你熟悉真人主播的叙事模式：
- Hook: 用问题/悬念/共鸣点开场
- Build-up: 铺垫背景、积累情绪
- Climax: 情感爆发点、关键信息
- Resolution: 总结升华、和观众连接

你需要为每一行标注 interruption_cost（被弹幕打断的代价）：
- 0.0-0.3: 可以随时打断（闲聊、开场）
- 0.4-0.6: 最好不打断但可以（铺垫阶段）
- 0.7-0.9: 尽量不打断（高潮阶段）`

const scriptPromptTemplate = `请为以下VTuber写一段直播剧本：

## 角色信息
- 名字: %s
- 人设: %s
- 背景: %s
- 今日话题: %s

## 输出要求
输出一个JSON数组，每个元素代表剧本中的一行：
[
  {
    "text": "这一行的完整台词（口语化）",
    "stage": "Hook/Build-up/Climax/Resolution",
    "cost": 0.0到1.0的打断代价,
    "key_info": ["这一行包含的关键信息点"],
    "disfluencies": ["可选的口头停顿，如 嗯... 怎么说呢"],
    "emotion_break": {"level": 1到3, "trigger": "触发点"} 或省略
  }
]

请设计4-8行，覆盖完整的叙事弧线。直接输出JSON，不要其他内容。`

// scriptLineSchema 剧本生成响应的预期结构
// 生成协作方的输出是松散 JSON，所有字段带默认值，绝不直接信任原始解析结果
type scriptLineSchema struct {
	Text         string                 `json:"text"`
	Stage        string                 `json:"stage"`
	Cost         float64                `json:"cost"`
	KeyInfo      []string               `json:"key_info"`
	Disfluencies []string               `json:"disfluencies"`
	EmotionBreak *models.EmotionBreak   `json:"emotion_break"`
	Cue          map[string]interface{} `json:"cue"`
}

// ScriptGenerator 剧本生成器（Phase 1：会话建立时一次性预生成）
type ScriptGenerator struct {
	gen Generator
}

// NewScriptGenerator 创建剧本生成器
func NewScriptGenerator(gen Generator) *ScriptGenerator {
	return &ScriptGenerator{gen: gen}
}

// Generate 生成完整剧本
// 协作方失败或输出无法修复时，回退到确定性的默认剧本
func (g *ScriptGenerator) Generate(ctx context.Context, name, persona, background, topic string) []models.ScriptLine {
	log := logging.For("scriptgen")

	if g.gen == nil {
		return FallbackScript(topic)
	}

	resp, err := g.gen.CompleteText(ctx, llm.CompletionRequest{
		Prompt:       fmt.Sprintf(scriptPromptTemplate, name, persona, background, topic),
		SystemPrompt: scriptSystemPrompt,
		MaxTokens:    3000,
	})
	if err != nil {
		log.Warn().Err(err).Msg("剧本生成失败，使用默认剧本")
		return FallbackScript(topic)
	}

	var raw []scriptLineSchema
	if err := llm.UnmarshalLoose(resp.Text, &raw); err != nil {
		log.Warn().Err(err).Msg("剧本响应解析失败，使用默认剧本")
		return FallbackScript(topic)
	}

	lines := make([]models.ScriptLine, 0, len(raw))
	for _, item := range raw {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}

		line := models.ScriptLine{
			ID:               len(lines),
			Text:             text,
			Stage:            normalizeStage(item.Stage),
			InterruptionCost: clamp01(item.Cost),
			KeyInfo:          item.KeyInfo,
			Disfluencies:     item.Disfluencies,
			EmotionBreak:     item.EmotionBreak,
		}
		if item.Cue != nil {
			line.Cue = models.CueFromDict(item.Cue)
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		log.Warn().Msg("剧本响应没有可用行，使用默认剧本")
		return FallbackScript(topic)
	}

	log.Info().Int("lines", len(lines)).Msg("剧本生成完成")
	return lines
}

// FallbackScript 确定性的默认剧本（四行标准弧线）
func FallbackScript(topic string) []models.ScriptLine {
	return []models.ScriptLine{
		{
			ID:               0,
			Text:             fmt.Sprintf("大家好呀！今天想跟你们聊聊%s，你们有没有类似的经历？", topic),
			Stage:            models.StageHook,
			InterruptionCost: 0.3,
			KeyInfo:          []string{"引出话题"},
		},
		{
			ID:               1,
			Text:             "先说说背景吧。那段时间其实发生了挺多事的，我得从头讲起。",
			Stage:            models.StageBuildUp,
			InterruptionCost: 0.6,
			KeyInfo:          []string{"背景铺垫"},
		},
		{
			ID:               2,
			Text:             "然后最关键的事情来了！我当时整个人都傻了，完全没想到会这样！",
			Stage:            models.StageClimax,
			InterruptionCost: 0.9,
			KeyInfo:          []string{"关键转折"},
			EmotionBreak:     &models.EmotionBreak{Level: 2, Trigger: "关键转折"},
		},
		{
			ID:               3,
			Text:             "所以说啊，这件事让我明白了很多。谢谢你们听我讲完。",
			Stage:            models.StageResolution,
			InterruptionCost: 0.4,
			KeyInfo:          []string{"总结感悟"},
		},
	}
}

// normalizeStage 归一化阶段名，未知值落到 Build-up
func normalizeStage(stage string) string {
	switch stage {
	case models.StageHook, models.StageBuildUp, models.StageClimax, models.StageResolution:
		return stage
	}
	return models.StageBuildUp
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
