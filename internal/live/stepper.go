// internal/live/stepper.go
package live

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Corphon/StreamPerformerMCP/internal/cue"
	"github.com/Corphon/StreamPerformerMCP/internal/errors"
	"github.com/Corphon/StreamPerformerMCP/internal/llm"
	"github.com/Corphon/StreamPerformerMCP/internal/logging"
	"github.com/Corphon/StreamPerformerMCP/internal/models"
)

// ====================
// 表演状态机
// ====================

// Status 表演会话状态
type Status string

const (
	StatusRunning Status = "running"
	StatusEnded   Status = "ended" // 终态，不可恢复
)

const (
	// 大额打赏阈值：达到即专门跑题一拍
	bigSCAmount = 100
	// 吊胃口判定：弹幕与即将讲到的内容的最低重合度
	teaseOverlap = 0.3
	// 即兴判定：低于该相关度的非 SC 弹幕走即兴
	improviseRelevance = 0.2
	// 弹幕老化时间：超时未被选中即记为忽略并出队
	danmakuTTL = 90 * time.Second
)

// StepResult 单个 tick 的完整产出（JSON 可序列化，直接推给前端）
type StepResult struct {
	Step           int                    `json:"step"`
	Stage          string                 `json:"stage"`
	Action         models.Action          `json:"action"`
	Speech         string                 `json:"speech"`
	InnerMonologue string                 `json:"inner_monologue,omitempty"`
	Cue            *models.PerformerCue   `json:"cue"`
	Danmaku        *models.Danmaku        `json:"danmaku,omitempty"`
	Priority       float64                `json:"priority"`
	Cost           float64                `json:"cost"`
	Relevance      float64                `json:"relevance"`
	Disfluencies   []string               `json:"disfluencies,omitempty"`
	EmotionBreak   *models.EmotionBreak   `json:"emotion_break,omitempty"`
	Audio          []byte                 `json:"-"`
	AudioURL       string                 `json:"audio_url,omitempty"`
	Memory         map[string]interface{} `json:"memory"`
}

// continueSchema 续讲台词润色的预期结构
type continueSchema struct {
	InnerMonologue string `json:"inner_monologue"`
	Speech         string `json:"speech"`
}

const continuePromptTemplate = `你是VTuber主播%s，人设：%s。
你正在按剧本直播讲故事，现在要把下面这句台词自然地说出来。

## 台词原文
%s

## 要求
1. 保持原意，不增删信息
2. 口语化，可以加少量语气词（"诶""嗯""就是说"）
3. 不要超过原文长度的1.5倍
4. 当前叙事阶段是%s，语气要匹配

## 输出格式（JSON）
{"inner_monologue": "内心独白（20字内）", "speech": "口语化后的台词"}

只输出 JSON。`

// PerformanceStepper 表演步进器
// 每个 tick 推进一步：先评估弹幕队列，有人出线就回应，否则继续剧本；
// 单会话单实例，Step 不可并发调用
type PerformanceStepper struct {
	state       *models.PerformanceState
	evaluator   *InterruptionEvaluator
	synthesizer *cue.Synthesizer
	responder   *ResponseGenerator
	gen         Generator
	tts         SpeechSynthesizer

	status        Status
	ignoredStreak int // 连续"有弹幕但选择继续剧本"的 tick 数
	log           zerolog.Logger
}

// NewPerformanceStepper 创建步进器
// gen 与 tts 均可为 nil：前者退化为模板台词，后者跳过语音合成
func NewPerformanceStepper(state *models.PerformanceState, gen Generator, tts SpeechSynthesizer) *PerformanceStepper {
	return &PerformanceStepper{
		state:       state,
		evaluator:   NewInterruptionEvaluator(),
		synthesizer: cue.NewSynthesizer(),
		responder:   NewResponseGenerator(gen),
		gen:         gen,
		tts:         tts,
		status:      StatusRunning,
		log:         logging.For("stepper"),
	}
}

// Status 当前会话状态
func (p *PerformanceStepper) Status() Status {
	return p.status
}

// State 会话聚合状态（弹幕摄入侧需要访问队列）
func (p *PerformanceStepper) State() *models.PerformanceState {
	return p.state
}

// Step 推进一个 tick
// 会话已结束时返回错误：对终态会话继续步进属于调用方缺陷，不做静默兜底
func (p *PerformanceStepper) Step(ctx context.Context) (*StepResult, error) {
	if p.status == StatusEnded {
		return nil, errors.NewSessionEndedError("表演已结束，不能继续步进")
	}

	p.state.CurrentStep++

	if p.state.Finished() {
		return p.endStep(ctx), nil
	}

	p.expireStale()

	line := p.state.CurrentLine()
	eval := p.evaluator.Evaluate(p.state.Queue.Items(), line, p.state.ElapsedRatio(), p.ignoredStreak)

	var result *StepResult
	if eval.Chosen != nil {
		result = p.respondStep(ctx, eval)
	} else {
		result = p.continueStep(ctx, eval)
	}

	p.attachAudio(ctx, result)
	result.Memory = p.memoryView()
	return result, nil
}

// endStep 剧本耗尽后的收尾 tick；执行后进入终态
func (p *PerformanceStepper) endStep(ctx context.Context) *StepResult {
	p.status = StatusEnded

	// 收尾后不再回应，清空队列并把剩余弹幕记为已忽略
	for _, dm := range p.state.Queue.Drain() {
		p.state.Memory.RecordChat(dm, models.ChatIgnored)
	}

	speech := fmt.Sprintf("好啦，今天关于%s就聊到这里，谢谢大家陪我，下次见！", p.state.Topic)

	p.log.Info().Int("step", p.state.CurrentStep).Msg("表演收尾")

	result := &StepResult{
		Step:   p.state.CurrentStep,
		Stage:  models.StageResolution,
		Action: models.ActionEnd,
		Speech: speech,
		Cue:    p.synthesizer.Synthesize(speech, models.StageResolution, models.ActionEnd, nil),
	}
	p.attachAudio(ctx, result)
	result.Memory = p.memoryView()
	return result
}

// respondStep 弹幕出线：决定回应方式并出队
func (p *PerformanceStepper) respondStep(ctx context.Context, eval *Evaluation) *StepResult {
	dm := eval.Chosen
	line := p.state.CurrentLine()
	action := p.classifyResponse(dm, eval)

	p.state.Queue.Remove(dm)
	p.state.Memory.RecordChat(dm, models.ChatResponded)
	p.ignoredStreak = 0

	var speech, monologue string
	switch action {
	case models.ActionTease:
		speech = fmt.Sprintf("诶，有人问\"%s\"？嘿嘿，先卖个关子，马上就讲到了！", preview(dm.Text, 20))
		monologue = "答案就在下面，吊一下胃口"
		p.state.Memory.AddPromise(fmt.Sprintf("回答关于\"%s\"的问题", preview(dm.Text, 20)))
	default:
		speech, monologue = p.responder.Generate(ctx, dm, p.state)
	}

	stage := models.StageHook
	if line != nil {
		stage = line.Stage
	}

	p.log.Info().
		Str("action", string(action)).
		Str("user", dm.User).
		Float64("priority", eval.Priority).
		Float64("cost", eval.Cost).
		Bool("owed", eval.Owed).
		Msg("回应弹幕")

	return &StepResult{
		Step:           p.state.CurrentStep,
		Stage:          stage,
		Action:         action,
		Speech:         speech,
		InnerMonologue: monologue,
		Cue:            p.synthesizer.Synthesize(speech, stage, action, nil),
		Danmaku:        dm,
		Priority:       eval.Priority,
		Cost:           eval.Cost,
		Relevance:      eval.Relevance,
	}
}

// classifyResponse 对出线弹幕选择回应方式（固定策略，同输入同输出）
func (p *PerformanceStepper) classifyResponse(dm *models.Danmaku, eval *Evaluation) models.Action {
	if dm.IsQuestion() && p.answerUpcoming(dm) {
		return models.ActionTease
	}
	if dm.IsSC && dm.Amount >= bigSCAmount {
		return models.ActionJump
	}
	if !dm.IsSC && eval.Relevance < improviseRelevance {
		return models.ActionImprovise
	}
	return models.ActionRespond
}

// answerUpcoming 提问的答案是否即将在剧本中出现
func (p *PerformanceStepper) answerUpcoming(dm *models.Danmaku) bool {
	next := p.state.NextLine()
	if next == nil {
		return false
	}
	corpus := next.Text + " " + strings.Join(next.KeyInfo, " ")
	return bigramOverlap(dm.Text, corpus) > teaseOverlap
}

// continueStep 继续剧本：消费当前行的下一段
func (p *PerformanceStepper) continueStep(ctx context.Context, eval *Evaluation) *StepResult {
	line := p.state.CurrentLine()
	segments := line.Segments()
	segment := segments[p.state.SegmentIdx]

	speech, monologue := p.polishSegment(ctx, segment, line)

	result := &StepResult{
		Step:           p.state.CurrentStep,
		Stage:          line.Stage,
		Action:         models.ActionContinue,
		Speech:         speech,
		InnerMonologue: monologue,
		Cue:            p.synthesizer.Synthesize(speech, line.Stage, models.ActionContinue, line.Cue),
		Cost:           eval.Cost,
		Disfluencies:   line.Disfluencies,
	}

	// 行内情绪断点只在首段暴露一次
	if p.state.SegmentIdx == 0 && line.EmotionBreak != nil {
		result.EmotionBreak = line.EmotionBreak
		p.state.Memory.RecordEmotion(line.EmotionBreak.Level, line.EmotionBreak.Trigger)
	}

	p.state.Memory.FulfillPromise(func(content string) bool {
		return bigramOverlap(content, segment) > teaseOverlap
	})

	p.state.SegmentIdx++
	if p.state.SegmentIdx >= len(segments) {
		p.state.Memory.RecordProgress(line)
		p.state.CurrentLineIdx++
		p.state.SegmentIdx = 0
	}

	if p.state.Queue.Len() > 0 {
		p.ignoredStreak++
	}

	return result
}

// polishSegment 口语化润色台词；LLM 不可用或失败时原样输出
func (p *PerformanceStepper) polishSegment(ctx context.Context, segment string, line *models.ScriptLine) (string, string) {
	if p.gen == nil || strings.TrimSpace(segment) == "" {
		return segment, ""
	}

	prompt := fmt.Sprintf(continuePromptTemplate, p.state.Name, p.state.Persona, segment, line.Stage)
	resp, err := p.gen.CompleteText(ctx, llm.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: "你是一个VTuber主播，正在直播。用JSON格式回复。",
		MaxTokens:    300,
	})
	if err != nil {
		p.log.Warn().Err(err).Msg("台词润色失败，使用原文")
		return segment, ""
	}

	var parsed continueSchema
	if err := llm.UnmarshalLoose(resp.Text, &parsed); err != nil {
		p.log.Warn().Err(err).Msg("台词润色解析失败，使用原文")
		return segment, ""
	}
	if strings.TrimSpace(parsed.Speech) == "" {
		return segment, parsed.InnerMonologue
	}
	return parsed.Speech, parsed.InnerMonologue
}

// expireStale 丢弃超时弹幕并记为忽略（过期提问会进入待答列表）
func (p *PerformanceStepper) expireStale() {
	cutoff := time.Now().Add(-danmakuTTL)
	for _, dm := range p.state.Queue.Items() {
		if dm.CreatedAt.Before(cutoff) {
			p.state.Queue.Remove(dm)
			p.state.Memory.RecordChat(dm, models.ChatIgnored)
			p.log.Debug().Str("text", dm.Text).Msg("弹幕超时出队")
		}
	}
}

// attachAudio 合成语音；失败只记日志，绝不让 tick 报错
func (p *PerformanceStepper) attachAudio(ctx context.Context, result *StepResult) {
	if p.tts == nil || !p.tts.Enabled() || result.Speech == "" {
		return
	}
	audio, err := p.tts.Synthesize(ctx, result.Speech)
	if err != nil {
		p.log.Warn().Err(err).Msg("语音合成失败")
		return
	}
	result.Audio = audio
}

// memoryView 推给前端的记忆摘要
func (p *PerformanceStepper) memoryView() map[string]interface{} {
	snap := p.state.Memory.Snapshot()

	var pending []string
	for _, promise := range snap.Promises {
		if !promise.Fulfilled {
			pending = append(pending, promise.Content)
		}
	}

	trend := make([]int, 0, len(snap.EmotionTrack))
	for _, event := range snap.EmotionTrack {
		trend = append(trend, event.Level)
	}

	return map[string]interface{}{
		"script_progress": snap.ScriptProgress,
		"story_points":    snap.StoryPoints,
		"promises":        pending,
		"emotion_trend":   trend,
	}
}
