// internal/api/error_codes.go
package api

// API错误代码常量
const (
	// 通用错误
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorRateLimited   = "RATE_LIMITED"

	// 会话相关错误
	ErrorSessionNotFound     = "SESSION_NOT_FOUND"
	ErrorSessionCreateFailed = "SESSION_CREATE_FAILED"
	ErrorSessionEnded        = "SESSION_ENDED"

	// 弹幕相关错误
	ErrorDanmakuInvalid = "DANMAKU_INVALID"

	// LLM服务相关错误
	ErrorLLMServiceUnavailable = "LLM_SERVICE_UNAVAILABLE"
	ErrorLLMConfigInvalid      = "LLM_CONFIG_INVALID"
)
