// internal/models/danmaku_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDanmakuDetectsSC(t *testing.T) {
	tests := []struct {
		text   string
		isSC   bool
		amount int
	}{
		{"SC ¥100 主播加油", true, 100},
		{"¥50 好耶", true, 50},
		{"打赏给主播", true, 0},
		{"送个礼物~", true, 0},
		{"普通弹幕", false, 0},
		{"$20 from overseas", true, 20},
	}

	for _, tt := range tests {
		dm := NewDanmaku(tt.text, "tester")
		assert.Equal(t, tt.isSC, dm.IsSC, "text=%q", tt.text)
		assert.Equal(t, tt.amount, dm.Amount, "text=%q", tt.text)
	}
}

func TestNewDanmakuDefaultUser(t *testing.T) {
	dm := NewDanmaku("hello", "")
	assert.Equal(t, "观众", dm.User)
}

func TestDanmakuClassification(t *testing.T) {
	assert.True(t, NewDanmaku("后来怎么样了？", "u").IsQuestion())
	assert.True(t, NewDanmaku("哈哈哈笑死", "u").IsReaction())
	assert.True(t, NewDanmaku("今天是我生日", "u").IsPlea())
	assert.False(t, NewDanmaku("今天天气不错", "u").IsQuestion())
}

func TestUrgencyOrdering(t *testing.T) {
	sc := NewDanmaku("SC ¥50 加油", "u")
	plea := NewDanmaku("求主播帮个忙", "u")
	question := NewDanmaku("这是真的吗？", "u")
	reaction := NewDanmaku("哈哈哈", "u")
	plain := NewDanmaku("路过", "u")

	assert.Equal(t, 0.9, sc.Urgency())
	assert.Equal(t, 0.6, plea.Urgency())
	assert.Equal(t, 0.5, question.Urgency())
	assert.Equal(t, 0.4, reaction.Urgency())
	assert.Equal(t, 0.3, plain.Urgency())

	// SC 永远压过其它类型
	assert.Greater(t, sc.Urgency(), plea.Urgency())
	assert.Greater(t, plea.Urgency(), question.Urgency())
	assert.Greater(t, question.Urgency(), reaction.Urgency())
	assert.Greater(t, reaction.Urgency(), plain.Urgency())
}
