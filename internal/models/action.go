// internal/models/action.go
package models

// Action 每个 tick 的表演决策
type Action string

const (
	ActionContinue  Action = "continue"  // 继续剧本
	ActionRespond   Action = "respond"   // 回应弹幕
	ActionTease     Action = "tease"     // 吊胃口（答案即将在剧本中出现）
	ActionJump      Action = "jump"      // 为大额打赏专门跑题一拍
	ActionImprovise Action = "improvise" // 低相关弹幕触发的即兴
	ActionEnd       Action = "end"       // 收尾，终态
)
