// internal/live/collaborators.go
package live

import (
	"context"

	"github.com/Corphon/StreamPerformerMCP/internal/llm"
)

// Generator 文本生成协作方契约
// 任何错误或超时都由调用侧本地降级处理，绝不让 tick 失败
type Generator interface {
	CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// SpeechSynthesizer 语音合成协作方契约
// 返回 nil 音频或错误都不会中断 tick
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Enabled() bool
}
