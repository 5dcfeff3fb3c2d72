// internal/models/danmaku.go
package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// 货币/打赏标记，出现即视为优先礼物（SC）
var scMarkers = []string{"SC", "¥", "$", "打赏", "礼物"}

var amountPattern = regexp.MustCompile(`[¥$]?\s*(\d+)`)

// 情绪反应关键词（弹幕紧急度评估用）
var reactionKeywords = []string{"哈哈", "笑", "绝了", "离谱", "woc", "草", "泪目"}

// 求助/恳求关键词
var pleaKeywords = []string{"生日", "第一次", "求", "帮", "怎么办"}

// Danmaku 弹幕消息（摄入时创建，被处理或老化后移出队列）
type Danmaku struct {
	Text      string    `json:"text"`
	User      string    `json:"user"`
	IsSC      bool      `json:"is_sc"`
	Amount    int       `json:"amount"` // 非 SC 恒为 0
	CreatedAt time.Time `json:"created_at"`

	// 派生评分（由 InterruptionEvaluator 计算，不持久化）
	Relevance float64 `json:"-"`
	Priority  float64 `json:"-"`
}

// NewDanmaku 解析弹幕文本：识别打赏标记并提取金额
func NewDanmaku(text, user string) *Danmaku {
	if user == "" {
		user = "观众"
	}

	dm := &Danmaku{
		Text:      text,
		User:      user,
		CreatedAt: time.Now(),
	}

	for _, marker := range scMarkers {
		if strings.Contains(text, marker) {
			dm.IsSC = true
			if m := amountPattern.FindStringSubmatch(text); m != nil {
				if amount, err := strconv.Atoi(m[1]); err == nil {
					dm.Amount = amount
				}
			}
			break
		}
	}

	return dm
}

// IsQuestion 判断是否为提问
func (d *Danmaku) IsQuestion() bool {
	return strings.Contains(d.Text, "?") || strings.Contains(d.Text, "？")
}

// IsReaction 判断是否为情绪反应（哈哈/笑死一类）
func (d *Danmaku) IsReaction() bool {
	for _, kw := range reactionKeywords {
		if strings.Contains(d.Text, kw) {
			return true
		}
	}
	return false
}

// IsPlea 判断是否为求助/特殊请求
func (d *Danmaku) IsPlea() bool {
	for _, kw := range pleaKeywords {
		if strings.Contains(d.Text, kw) {
			return true
		}
	}
	return false
}

// Urgency 根据消息特征推导紧急度
// SC 最高，求助次之，提问居中，情绪反应偏低，普通弹幕最低
func (d *Danmaku) Urgency() float64 {
	switch {
	case d.IsSC:
		return 0.9
	case d.IsPlea():
		return 0.6
	case d.IsQuestion():
		return 0.5
	case d.IsReaction():
		return 0.4
	default:
		return 0.3
	}
}
