// internal/live/scriptgen_test.go
package live

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StreamPerformerMCP/internal/llm"
	"github.com/Corphon/StreamPerformerMCP/internal/models"
)

// fakeGenerator 固定应答的生成协作方
type fakeGenerator struct {
	text string
	err  error
}

func (f *fakeGenerator) CompleteText(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Text: f.text}, nil
}

func TestFallbackScriptShape(t *testing.T) {
	script := FallbackScript("第一次比赛")

	require.Len(t, script, 4)
	assert.Equal(t, models.StageHook, script[0].Stage)
	assert.Equal(t, models.StageBuildUp, script[1].Stage)
	assert.Equal(t, models.StageClimax, script[2].Stage)
	assert.Equal(t, models.StageResolution, script[3].Stage)

	assert.Equal(t, 0.3, script[0].InterruptionCost)
	assert.Equal(t, 0.6, script[1].InterruptionCost)
	assert.Equal(t, 0.9, script[2].InterruptionCost)
	assert.Equal(t, 0.4, script[3].InterruptionCost)

	assert.Contains(t, script[0].Text, "第一次比赛")
	require.NotNil(t, script[2].EmotionBreak)
	assert.Equal(t, 2, script[2].EmotionBreak.Level)
}

func TestGenerateWithoutCollaboratorUsesFallback(t *testing.T) {
	g := NewScriptGenerator(nil)
	script := g.Generate(context.Background(), "小喵", "元气", "", "旧事")
	assert.Equal(t, FallbackScript("旧事"), script)
}

func TestGenerateParsesFencedJSON(t *testing.T) {
	g := NewScriptGenerator(&fakeGenerator{text: "```json\n" + `[
		{"text": "开场白！", "stage": "Hook", "cost": 0.2, "key_info": ["开场"]},
		{"text": "正题来了。", "stage": "Climax", "cost": 1.5,
		 "emotion_break": {"level": 3, "trigger": "爆点"}}
	]` + "\n```"})

	script := g.Generate(context.Background(), "小喵", "元气", "", "旧事")

	require.Len(t, script, 2)
	assert.Equal(t, 0, script[0].ID)
	assert.Equal(t, "开场白！", script[0].Text)
	assert.Equal(t, models.StageHook, script[0].Stage)
	assert.Equal(t, 0.2, script[0].InterruptionCost)

	assert.Equal(t, 1, script[1].ID)
	assert.Equal(t, 1.0, script[1].InterruptionCost, "代价截断到 [0,1]")
	require.NotNil(t, script[1].EmotionBreak)
	assert.Equal(t, 3, script[1].EmotionBreak.Level)
}

func TestGenerateNormalizesUnknownStage(t *testing.T) {
	g := NewScriptGenerator(&fakeGenerator{
		text: `[{"text": "一句话。", "stage": "Epilogue", "cost": 0.5}]`,
	})

	script := g.Generate(context.Background(), "小喵", "", "", "旧事")
	require.Len(t, script, 1)
	assert.Equal(t, models.StageBuildUp, script[0].Stage)
}

func TestGenerateSkipsBlankLines(t *testing.T) {
	g := NewScriptGenerator(&fakeGenerator{
		text: `[{"text": "  ", "stage": "Hook"}, {"text": "有内容。", "stage": "Hook", "cost": 0.3}]`,
	})

	script := g.Generate(context.Background(), "小喵", "", "", "旧事")
	require.Len(t, script, 1)
	assert.Equal(t, "有内容。", script[0].Text)
	assert.Equal(t, 0, script[0].ID)
}

func TestGenerateFallsBackOnError(t *testing.T) {
	g := NewScriptGenerator(&fakeGenerator{err: errors.New("网络超时")})
	script := g.Generate(context.Background(), "小喵", "", "", "旧事")
	assert.Equal(t, FallbackScript("旧事"), script)
}

func TestGenerateFallsBackOnEmptyArray(t *testing.T) {
	g := NewScriptGenerator(&fakeGenerator{text: `[]`})
	script := g.Generate(context.Background(), "小喵", "", "", "旧事")
	assert.Equal(t, FallbackScript("旧事"), script)
}
