// internal/live/evaluator.go
package live

import (
	"sort"

	"github.com/Corphon/StreamPerformerMCP/internal/models"
)

// 连续忽略达到该阈值后，下一次评估进入"欠观众"状态
const owedThreshold = 3

// 欠观众状态下所有弹幕的优先级补偿，防止长期饥饿
const owedBoost = 0.3

// Evaluation 一次弹幕评估的完整结果（纯输出，不带副作用）
type Evaluation struct {
	Chosen    *models.Danmaku   // 胜出弹幕；无人出线为 nil
	Priority  float64           // 胜出弹幕的优先级
	Relevance float64           // 胜出弹幕的相关度
	Cost      float64           // 当前行的实际打断代价
	Owed      bool              // 是否处于欠观众状态
	Ranked    []*models.Danmaku // 按优先级降序的完整排名
}

// InterruptionEvaluator 弹幕打断评估器
// 为队列中每条弹幕计算 relevance / priority，并判定是否有弹幕应当抢占剧本；
// 状态变更（出队、记忆更新）由调用方负责
type InterruptionEvaluator struct{}

// NewInterruptionEvaluator 创建评估器
func NewInterruptionEvaluator() *InterruptionEvaluator {
	return &InterruptionEvaluator{}
}

// Evaluate 评估当前队列
// line 为 nil 时打断代价为 0（剧本间隙随便聊）
// 出线条件：priority > 0，或消息为 SC（打赏绝不静默丢弃）
// 并列时先比金额，再比到达先后（保持队列稳定顺序）
func (e *InterruptionEvaluator) Evaluate(
	queue []*models.Danmaku,
	line *models.ScriptLine,
	elapsedRatio float64,
	ignoredStreak int,
) *Evaluation {
	cost := 0.0
	if line != nil {
		cost = line.EffectiveCost(elapsedRatio)
	}

	eval := &Evaluation{
		Cost: cost,
		Owed: ignoredStreak >= owedThreshold,
	}

	if len(queue) == 0 {
		return eval
	}

	for _, dm := range queue {
		dm.Relevance = e.relevance(dm, line)
		dm.Priority = dm.Urgency() - cost
		if eval.Owed {
			dm.Priority += owedBoost
		}
	}

	eval.Ranked = append([]*models.Danmaku(nil), queue...)
	sort.SliceStable(eval.Ranked, func(i, j int) bool {
		a, b := eval.Ranked[i], eval.Ranked[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.Amount > b.Amount
	})

	for _, dm := range eval.Ranked {
		if dm.Priority > 0 || dm.IsSC {
			eval.Chosen = dm
			eval.Priority = dm.Priority
			eval.Relevance = dm.Relevance
			break
		}
	}

	return eval
}

// relevance 计算弹幕与当前剧情的相关度 [0,1]
// 使用字符二元组重合率，对中文无需分词也够稳定
func (e *InterruptionEvaluator) relevance(dm *models.Danmaku, line *models.ScriptLine) float64 {
	if line == nil {
		return 0
	}

	reference := line.Text
	for _, info := range line.KeyInfo {
		reference += " " + info
	}

	return bigramOverlap(dm.Text, reference)
}

// bigramOverlap 文本 a 相对文本 b 的字符二元组重合率
func bigramOverlap(a, b string) float64 {
	aBigrams := bigrams(a)
	if len(aBigrams) == 0 {
		return 0
	}

	bSet := make(map[string]struct{})
	for _, bg := range bigrams(b) {
		bSet[bg] = struct{}{}
	}

	matched := 0
	for _, bg := range aBigrams {
		if _, ok := bSet[bg]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(aBigrams))
}

func bigrams(text string) []string {
	runes := []rune(text)
	if len(runes) < 2 {
		return nil
	}
	out := make([]string, 0, len(runes)-1)
	for i := 0; i+1 < len(runes); i++ {
		out = append(out, string(runes[i:i+2]))
	}
	return out
}
