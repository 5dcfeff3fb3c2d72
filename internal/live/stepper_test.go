// internal/live/stepper_test.go
package live

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StreamPerformerMCP/internal/errors"
	"github.com/Corphon/StreamPerformerMCP/internal/models"
)

func demoScript() []models.ScriptLine {
	return []models.ScriptLine{
		{ID: 1, Text: "大家好，今天讲我第一次打比赛的事。", Stage: models.StageHook,
			InterruptionCost: 0.3, KeyInfo: []string{"第一次比赛"}},
		{ID: 2, Text: "赛前紧张得一晚上没睡着。", Stage: models.StageBuildUp,
			InterruptionCost: 0.6, KeyInfo: []string{"赛前失眠"}},
		{ID: 3, Text: "决胜局最后一秒我们翻盘了！", Stage: models.StageClimax,
			InterruptionCost: 0.9, KeyInfo: []string{"最后翻盘"},
			EmotionBreak: &models.EmotionBreak{Level: 2, Trigger: "翻盘瞬间"}},
		{ID: 4, Text: "现在回头看，那晚改变了很多。", Stage: models.StageResolution,
			InterruptionCost: 0.4, KeyInfo: []string{"感悟"}},
	}
}

func newTestStepper(script []models.ScriptLine) *PerformanceStepper {
	state := models.NewPerformanceState("小喵", "元气主播", "", "第一次比赛", script)
	return NewPerformanceStepper(state, nil, nil)
}

func TestStepContinuesScriptWhenQueueEmpty(t *testing.T) {
	stepper := newTestStepper(demoScript())

	result, err := stepper.Step(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.ActionContinue, result.Action)
	assert.Equal(t, models.StageHook, result.Stage)
	assert.Equal(t, "大家好，今天讲我第一次打比赛的事。", result.Speech)
	assert.Equal(t, 1, result.Step)
	require.NotNil(t, result.Cue)
	require.NotNil(t, result.Cue.Emotion)
}

func TestStepIgnoresLowPriorityDanmakuAtClimax(t *testing.T) {
	script := demoScript()
	stepper := newTestStepper(script)
	state := stepper.State()

	// 直接跳到高代价的高潮行
	state.CurrentLineIdx = 2
	state.Queue.Push(models.NewDanmaku("主播吃饭了吗", "路人"))

	result, err := stepper.Step(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.ActionContinue, result.Action)
	assert.Equal(t, 1, state.Queue.Len(), "未出线弹幕留在队列中")
}

func TestStepRespondsToSC(t *testing.T) {
	stepper := newTestStepper(demoScript())
	state := stepper.State()

	dm := models.NewDanmaku("SC ¥50 主播加油", "金主")
	state.Queue.Push(dm)

	result, err := stepper.Step(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.ActionRespond, result.Action)
	require.NotNil(t, result.Danmaku)
	assert.Same(t, dm, result.Danmaku)
	assert.Contains(t, result.Speech, "金主")
	assert.Equal(t, 0, state.Queue.Len(), "被回应的弹幕已出队")

	snap := state.Memory.Snapshot()
	assert.Contains(t, snap.ChatMemory.Responded, dm.Text)
}

func TestStepJumpsForBigSC(t *testing.T) {
	stepper := newTestStepper(demoScript())
	stepper.State().Queue.Push(models.NewDanmaku("SC ¥200 今天第一次来", "豪客"))

	result, err := stepper.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ActionJump, result.Action)
}

func TestStepTeasesWhenAnswerUpcoming(t *testing.T) {
	stepper := newTestStepper(demoScript())
	state := stepper.State()

	// 问题与下一行（赛前紧张失眠）高度重合
	state.Queue.Push(models.NewDanmaku("赛前紧张得睡不着吗？", "好奇宝宝"))

	result, err := stepper.Step(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.ActionTease, result.Action)
	snap := state.Memory.Snapshot()
	require.NotEmpty(t, snap.Promises)
	assert.False(t, snap.Promises[0].Fulfilled)
}

func TestStepImprovisesOnIrrelevantChat(t *testing.T) {
	stepper := newTestStepper(demoScript())
	state := stepper.State()

	// 与剧情无关的问题：低代价行上出线，但相关度接近 0
	state.Queue.Push(models.NewDanmaku("显卡什么型号？", "装机佬"))

	result, err := stepper.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ActionImprovise, result.Action)
	assert.Less(t, result.Relevance, 0.2)
}

func TestStepEmotionBreakSurfacedOnce(t *testing.T) {
	stepper := newTestStepper(demoScript())
	state := stepper.State()
	state.CurrentLineIdx = 2

	result, err := stepper.Step(context.Background())
	require.NoError(t, err)

	require.NotNil(t, result.EmotionBreak)
	assert.Equal(t, 2, result.EmotionBreak.Level)

	track := state.Memory.Snapshot().EmotionTrack
	require.Len(t, track, 1)
	assert.Equal(t, "翻盘瞬间", track[0].Trigger)
}

func TestStepAdvancesThroughSegments(t *testing.T) {
	script := []models.ScriptLine{
		{ID: 1, Text: "第一句。第二句。", Stage: models.StageHook, InterruptionCost: 0.3},
	}
	stepper := newTestStepper(script)
	state := stepper.State()

	first, err := stepper.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "第一句。", first.Speech)
	assert.Equal(t, 0, state.CurrentLineIdx)

	second, err := stepper.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "第二句。", second.Speech)
	assert.Equal(t, 1, state.CurrentLineIdx, "行consumed后推进到下一行")
}

func TestStepEndsAfterScriptExhausted(t *testing.T) {
	script := []models.ScriptLine{
		{ID: 1, Text: "唯一的一行。", Stage: models.StageHook, InterruptionCost: 0.3},
	}
	stepper := newTestStepper(script)

	_, err := stepper.Step(context.Background())
	require.NoError(t, err)

	ending, err := stepper.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ActionEnd, ending.Action)
	assert.Contains(t, ending.Speech, "第一次比赛")
	assert.Equal(t, StatusEnded, stepper.Status())
}

func TestEndingDrainsLeftoverDanmaku(t *testing.T) {
	script := []models.ScriptLine{
		{ID: 1, Text: "唯一的一行。", Stage: models.StageHook, InterruptionCost: 0.3},
	}
	stepper := newTestStepper(script)
	state := stepper.State()

	ctx := context.Background()
	_, err := stepper.Step(ctx)
	require.NoError(t, err)

	state.Queue.Push(models.NewDanmaku("还在吗", "观众甲"))
	state.Queue.Push(models.NewDanmaku("别走啊", "观众乙"))

	ending, err := stepper.Step(ctx)
	require.NoError(t, err)
	require.Equal(t, models.ActionEnd, ending.Action)

	assert.Zero(t, state.Queue.Len(), "收尾后队列应被清空")
	snapshot := state.Memory.Snapshot()
	assert.Contains(t, snapshot.ChatMemory.Ignored, "还在吗")
	assert.Contains(t, snapshot.ChatMemory.Ignored, "别走啊")
}

func TestStepOnEndedSessionFails(t *testing.T) {
	script := []models.ScriptLine{
		{ID: 1, Text: "一行。", Stage: models.StageHook, InterruptionCost: 0.3},
	}
	stepper := newTestStepper(script)

	ctx := context.Background()
	_, err := stepper.Step(ctx)
	require.NoError(t, err)
	_, err = stepper.Step(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusEnded, stepper.Status())

	_, err = stepper.Step(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsSessionEndedError(err))
}

func TestIgnoredStreakTriggersOwedResponse(t *testing.T) {
	script := []models.ScriptLine{
		{ID: 1, Text: "一。二。三。四。五。六。", Stage: models.StageClimax, InterruptionCost: 0.9},
	}
	stepper := newTestStepper(script)
	state := stepper.State()

	state.Queue.Push(models.NewDanmaku("主播吃饭了吗", "路人"))

	ctx := context.Background()
	var responded *StepResult
	for i := 0; i < 6; i++ {
		result, err := stepper.Step(ctx)
		require.NoError(t, err)
		if result.Action != models.ActionContinue {
			responded = result
			break
		}
	}

	require.NotNil(t, responded, "连续忽略后必须补偿回应")
	require.NotNil(t, responded.Danmaku)
	assert.Equal(t, "主播吃饭了吗", responded.Danmaku.Text)
	assert.Equal(t, 0, state.Queue.Len())
}

func TestFullPerformanceRun(t *testing.T) {
	stepper := newTestStepper(demoScript())
	ctx := context.Background()

	steps := 0
	for stepper.Status() == StatusRunning {
		_, err := stepper.Step(ctx)
		require.NoError(t, err)
		steps++
		require.Less(t, steps, 50, "表演必须终止")
	}

	assert.Equal(t, StatusEnded, stepper.Status())

	snap := stepper.State().Memory.Snapshot()
	assert.Equal(t, 4, snap.ScriptProgress.CurrentLine)
	assert.Contains(t, snap.StoryPoints.Mentioned, "最后翻盘")
	assert.Empty(t, snap.StoryPoints.Upcoming)
}
