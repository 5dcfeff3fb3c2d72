// internal/live/response_test.go
package live

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StreamPerformerMCP/internal/models"
)

func TestQuickResponseByType(t *testing.T) {
	sc := models.NewDanmaku("SC ¥50 主播加油", "金主")
	assert.Equal(t, "哇，感谢金主的SC！爱你们！", QuickResponse(sc))

	question := models.NewDanmaku("后来怎么样了？", "观众")
	assert.Contains(t, QuickResponse(question), "后来怎么样了？")
	assert.Contains(t, QuickResponse(question), "等下会说到的")

	chat := models.NewDanmaku("主播好可爱", "")
	assert.Contains(t, QuickResponse(chat), "主播好可爱")
}

func TestQuickResponseTruncatesLongText(t *testing.T) {
	long := models.NewDanmaku("这是一条特别特别特别特别特别特别特别特别特别特别长的弹幕问题吗？", "话痨")
	resp := QuickResponse(long)
	assert.Contains(t, resp, "...")
	assert.NotContains(t, resp, "长的弹幕问题吗？")
}

func TestGenerateParsesCollaboratorJSON(t *testing.T) {
	r := NewResponseGenerator(&fakeGenerator{
		text: `{"inner_monologue": "有人捧场", "response": "诶嘿，谢谢你呀！"}`,
	})
	state := models.NewPerformanceState("小喵", "元气", "", "旧事", FallbackScript("旧事"))

	speech, monologue := r.Generate(context.Background(), models.NewDanmaku("主播好", ""), state)
	assert.Equal(t, "诶嘿，谢谢你呀！", speech)
	assert.Equal(t, "有人捧场", monologue)
}

func TestGenerateFallsBackToQuickResponse(t *testing.T) {
	state := models.NewPerformanceState("小喵", "元气", "", "旧事", FallbackScript("旧事"))
	dm := models.NewDanmaku("主播好", "")

	// 无协作方
	r := NewResponseGenerator(nil)
	speech, _ := r.Generate(context.Background(), dm, state)
	assert.Equal(t, QuickResponse(dm), speech)

	// 协作方回了空内容：保留独白但台词走模板
	r = NewResponseGenerator(&fakeGenerator{text: `{"inner_monologue": "想想怎么接", "response": "  "}`})
	speech, monologue := r.Generate(context.Background(), dm, state)
	assert.Equal(t, QuickResponse(dm), speech)
	assert.Equal(t, "想想怎么接", monologue)

	// 协作方输出无法解析
	r = NewResponseGenerator(&fakeGenerator{text: "今天不想说JSON"})
	speech, _ = r.Generate(context.Background(), dm, state)
	assert.Equal(t, QuickResponse(dm), speech)
}

func TestDanmakuTypeLabels(t *testing.T) {
	assert.Equal(t, "SC打赏 (¥200)", danmakuType(models.NewDanmaku("SC ¥200 冲", "豪客")))
	assert.Equal(t, "问题", danmakuType(models.NewDanmaku("为什么呢？", "")))
	assert.Equal(t, "闲聊评论", danmakuType(models.NewDanmaku("今天天气不错", "")))
}

func TestPreviewRuneSafe(t *testing.T) {
	require.Equal(t, "短文本", preview("短文本", 10))
	assert.Equal(t, "一二三...", preview("一二三四五", 3))
}
