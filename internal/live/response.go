// internal/live/response.go
package live

import (
	"context"
	"fmt"
	"strings"

	"github.com/Corphon/StreamPerformerMCP/internal/llm"
	"github.com/Corphon/StreamPerformerMCP/internal/logging"
	"github.com/Corphon/StreamPerformerMCP/internal/models"
)

const responsePromptTemplate = `你是一个正在直播的VTuber主播，名叫%s。
你正在讲一个故事，突然看到了一条弹幕。请自然地回应它。

## 当前状态
- 正在讲的阶段: %s
- 刚才说的: %s
- 接下来本来要说: %s
- 已经提到过: %s

## 弹幕信息
- 用户: %s
- 内容: %s
- 类型: %s

## 回应要求
1. 口语化: 像真人直播一样说话，可以"诶""哈哈"开头
2. 自然承接: 回应弹幕后要自然过渡回故事
3. 长度适中: 回应部分 20-50 字
4. 根据类型调整:
   - SC打赏: 要感谢，可以稍微跑题聊聊
   - 问题: 如果答案马上要说就吊胃口，如果答案在后面就提前透露一点
   - 情绪反应: 简短回应即可
   - 闲聊: 简单回应

## 输出格式（JSON）
{"inner_monologue": "内心独白（20字内）", "response": "你对弹幕的回应（口语化）"}

只输出 JSON，不要其他内容。`

// responseSchema 弹幕回应的预期结构，字段缺失时套用默认值
type responseSchema struct {
	InnerMonologue string `json:"inner_monologue"`
	Response       string `json:"response"`
}

// ResponseGenerator 弹幕回应生成器
// LLM 生成自然回应；失败时退化到确定性的快速模板
type ResponseGenerator struct {
	gen Generator
}

// NewResponseGenerator 创建回应生成器
func NewResponseGenerator(gen Generator) *ResponseGenerator {
	return &ResponseGenerator{gen: gen}
}

// Generate 生成对弹幕的回应台词与内心独白
func (r *ResponseGenerator) Generate(
	ctx context.Context,
	dm *models.Danmaku,
	state *models.PerformanceState,
) (speech, monologue string) {
	if r.gen == nil {
		return QuickResponse(dm), ""
	}

	log := logging.For("response")

	currentPreview := "（刚开始）"
	if line := state.CurrentLine(); line != nil {
		currentPreview = preview(line.Text, 80)
	}
	nextPreview := "（故事即将结束）"
	if next := state.NextLine(); next != nil {
		nextPreview = preview(next.Text, 80)
	}

	mentioned := state.Memory.Snapshot().StoryPoints.Mentioned
	mentionedText := "还没开始讲"
	if len(mentioned) > 0 {
		start := 0
		if len(mentioned) > 5 {
			start = len(mentioned) - 5
		}
		mentionedText = strings.Join(mentioned[start:], ", ")
	}

	stage := models.StageHook
	if line := state.CurrentLine(); line != nil {
		stage = line.Stage
	}

	prompt := fmt.Sprintf(responsePromptTemplate,
		state.Name, stage, currentPreview, nextPreview, mentionedText,
		dm.User, dm.Text, danmakuType(dm))

	resp, err := r.gen.CompleteText(ctx, llm.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: "你是一个VTuber主播，正在直播。用JSON格式回复。",
		MaxTokens:    500,
	})
	if err != nil {
		log.Warn().Err(err).Msg("弹幕回应生成失败，使用快速回应")
		return QuickResponse(dm), ""
	}

	var parsed responseSchema
	if err := llm.UnmarshalLoose(resp.Text, &parsed); err != nil {
		log.Warn().Err(err).Msg("弹幕回应解析失败，使用快速回应")
		return QuickResponse(dm), ""
	}

	if strings.TrimSpace(parsed.Response) == "" {
		return QuickResponse(dm), parsed.InnerMonologue
	}
	return parsed.Response, parsed.InnerMonologue
}

// QuickResponse 不经 LLM 的确定性快速回应
func QuickResponse(dm *models.Danmaku) string {
	switch {
	case dm.IsSC:
		return fmt.Sprintf("哇，感谢%s的SC！爱你们！", dm.User)
	case dm.IsQuestion():
		return fmt.Sprintf("有人问\"%s\"，等下会说到的~", preview(dm.Text, 20))
	default:
		return fmt.Sprintf("哈哈，\"%s\"！弹幕说得对！", preview(dm.Text, 20))
	}
}

// danmakuType 弹幕类型描述（提示词用）
func danmakuType(dm *models.Danmaku) string {
	switch {
	case dm.IsSC:
		return fmt.Sprintf("SC打赏 (¥%d)", dm.Amount)
	case dm.IsQuestion():
		return "问题"
	case dm.IsReaction():
		return "情绪反应"
	default:
		return "闲聊评论"
	}
}

func preview(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
