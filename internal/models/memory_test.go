// internal/models/memory_test.go
package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScript() []ScriptLine {
	return []ScriptLine{
		{ID: 1, Text: "开场。", Stage: StageHook, KeyInfo: []string{"主角登场"}},
		{ID: 2, Text: "铺垫。", Stage: StageBuildUp, KeyInfo: []string{"伏笔"}},
		{ID: 3, Text: "高潮。", Stage: StageClimax, KeyInfo: []string{"真相"}},
	}
}

func TestRecordProgressMovesKeyInfo(t *testing.T) {
	script := testScript()
	memory := NewPerformerMemory(script)

	snap := memory.Snapshot()
	assert.Equal(t, 3, snap.ScriptProgress.TotalLines)
	assert.Len(t, snap.StoryPoints.Upcoming, 3)
	assert.Empty(t, snap.StoryPoints.Mentioned)

	memory.RecordProgress(&script[0])
	snap = memory.Snapshot()
	assert.Equal(t, []string{"主角登场"}, snap.StoryPoints.Mentioned)
	assert.NotContains(t, snap.StoryPoints.Upcoming, "主角登场")
}

func TestMentionedOnlyGrows(t *testing.T) {
	script := testScript()
	memory := NewPerformerMemory(script)

	var prevLen int
	for i := range script {
		memory.RecordProgress(&script[i])
		mentioned := memory.Snapshot().StoryPoints.Mentioned
		assert.GreaterOrEqual(t, len(mentioned), prevLen)
		prevLen = len(mentioned)
	}
}

func TestCurrentLineNeverExceedsTotal(t *testing.T) {
	script := testScript()
	memory := NewPerformerMemory(script)

	// 重复推进也不能越过总行数
	for i := 0; i < 10; i++ {
		memory.RecordProgress(&script[len(script)-1])
	}
	snap := memory.Snapshot()
	assert.LessOrEqual(t, snap.ScriptProgress.CurrentLine, snap.ScriptProgress.TotalLines)
}

func TestStageTransitionRecorded(t *testing.T) {
	script := testScript()
	memory := NewPerformerMemory(script)

	memory.RecordProgress(&script[0])
	memory.RecordProgress(&script[1])

	snap := memory.Snapshot()
	assert.Equal(t, StageBuildUp, snap.ScriptProgress.CurrentStage)
	assert.Contains(t, snap.ScriptProgress.CompletedStages, StageHook)
}

func TestRecordChatIgnoredQuestionBecomesPending(t *testing.T) {
	memory := NewPerformerMemory(testScript())

	question := NewDanmaku("后来呢？", "u")
	memory.RecordChat(question, ChatIgnored)

	snap := memory.Snapshot()
	assert.Contains(t, snap.ChatMemory.Ignored, "后来呢？")
	assert.Contains(t, snap.ChatMemory.PendingQuestions, "后来呢？")

	// 回应之后从待答列表移除
	memory.RecordChat(question, ChatResponded)
	snap = memory.Snapshot()
	assert.NotContains(t, snap.ChatMemory.PendingQuestions, "后来呢？")
}

func TestPromisesFlaggedNotRemoved(t *testing.T) {
	memory := NewPerformerMemory(testScript())

	memory.AddPromise("等下回答比赛结果")
	fulfilled := memory.FulfillPromise(func(content string) bool {
		return strings.Contains(content, "比赛结果")
	})
	require.True(t, fulfilled)

	snap := memory.Snapshot()
	require.Len(t, snap.Promises, 1)
	assert.True(t, snap.Promises[0].Fulfilled)
	assert.Equal(t, "等下回答比赛结果", snap.Promises[0].Content)
}

func TestFulfillPromiseNoMatch(t *testing.T) {
	memory := NewPerformerMemory(testScript())
	memory.AddPromise("回答问题")

	assert.False(t, memory.FulfillPromise(func(string) bool { return false }))
	assert.False(t, memory.Snapshot().Promises[0].Fulfilled)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	memory := NewPerformerMemory(testScript())
	snap := memory.Snapshot()

	snap.StoryPoints.Upcoming[0] = "被篡改"
	assert.Equal(t, "主角登场", memory.Snapshot().StoryPoints.Upcoming[0])
}

func TestEmotionTrack(t *testing.T) {
	memory := NewPerformerMemory(testScript())
	memory.RecordEmotion(2, "关键转折")
	memory.RecordEmotion(3, "完全破防")

	track := memory.Snapshot().EmotionTrack
	require.Len(t, track, 2)
	assert.Equal(t, 2, track[0].Level)
	assert.Equal(t, "完全破防", track[1].Trigger)
}
