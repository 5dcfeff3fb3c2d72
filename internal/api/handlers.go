// internal/api/handlers.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Corphon/StreamPerformerMCP/internal/errors"
	"github.com/Corphon/StreamPerformerMCP/internal/services"
)

// Handler 处理API请求
type Handler struct {
	LiveService   *services.LiveService   // 表演会话服务
	ConfigService *services.ConfigService // 配置服务
	LLMService    *services.LLMService    // LLM服务
}

// NewHandler 创建API处理器
func NewHandler(
	liveService *services.LiveService,
	configService *services.ConfigService,
	llmService *services.LLMService,
) *Handler {
	return &Handler{
		LiveService:   liveService,
		ConfigService: configService,
		LLMService:    llmService,
	}
}

// APIResponse 标准API响应格式
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError 标准错误格式
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SubmitDanmakuRequest 投递弹幕的请求结构
type SubmitDanmakuRequest struct {
	Text string `json:"text" binding:"required"` // 弹幕内容
	User string `json:"user"`                    // 用户名，可缺省
}

// UpdateLLMSettingsRequest 更新LLM配置的请求结构
type UpdateLLMSettingsRequest struct {
	Provider string            `json:"provider" binding:"required"`
	Config   map[string]string `json:"config" binding:"required"`
}

// ====================
// 响应辅助
// ====================

func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: requestID(c),
	})
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := ErrorInternalError

	switch {
	case errors.IsValidationError(err):
		status, code = http.StatusBadRequest, ErrorBadRequest
	case errors.IsNotFoundError(err):
		status, code = http.StatusNotFound, ErrorNotFound
	case errors.IsSessionEndedError(err):
		status, code = http.StatusConflict, ErrorSessionEnded
	}

	c.JSON(status, &APIResponse{
		Success:   false,
		Error:     &APIError{Code: code, Message: err.Error()},
		Timestamp: time.Now(),
		RequestID: requestID(c),
	})
}

func requestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return uuid.New().String()[:8]
}

// ====================
// 会话接口
// ====================

// CreateSession 建立表演会话（生成剧本并启动表演循环）
func (h *Handler) CreateSession(c *gin.Context) {
	var req services.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewValidationError("请求参数无效", err))
		return
	}

	session, err := h.LiveService.CreateSession(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	state := session.Stepper.State()
	respondSuccess(c, http.StatusCreated, gin.H{
		"session_id":  session.ID,
		"name":        state.Name,
		"topic":       state.Topic,
		"total_lines": len(state.Script),
	})
}

// GetSession 查询会话状态
func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.LiveService.GetSession(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	state := session.Stepper.State()
	respondSuccess(c, http.StatusOK, gin.H{
		"session_id":   session.ID,
		"status":       session.Stepper.Status(),
		"current_step": state.CurrentStep,
		"current_line": state.CurrentLineIdx,
		"total_lines":  len(state.Script),
		"queue_length": state.Queue.Len(),
		"memory":       state.Memory.Snapshot(),
	})
}

// ListSessions 列出进行中的会话
func (h *Handler) ListSessions(c *gin.Context) {
	respondSuccess(c, http.StatusOK, h.LiveService.ActiveSessions())
}

// SessionHistory 列出落盘的历史会话
func (h *Handler) SessionHistory(c *gin.Context) {
	history, err := h.LiveService.SessionHistory()
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, history)
}

// DeleteSession 删除已结束会话的落盘工件
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.LiveService.DeleteSession(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"deleted": true})
}

// SubmitDanmaku 向会话投递弹幕
func (h *Handler) SubmitDanmaku(c *gin.Context) {
	var req SubmitDanmakuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewValidationError("请求参数无效", err))
		return
	}

	dm, err := h.LiveService.SubmitDanmaku(c.Param("id"), req.Text, req.User)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusAccepted, gin.H{
		"text":   dm.Text,
		"user":   dm.User,
		"is_sc":  dm.IsSC,
		"amount": dm.Amount,
	})
}

// EndSession 主动终止会话
func (h *Handler) EndSession(c *gin.Context) {
	if err := h.LiveService.EndSession(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"ended": true})
}

// DownloadScript 下载会话的剧本工件
func (h *Handler) DownloadScript(c *gin.Context) {
	artifact, err := h.LiveService.ScriptArtifact(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, artifact)
}

// ====================
// 设置接口
// ====================

// GetSettings 当前配置与LLM状态
func (h *Handler) GetSettings(c *gin.Context) {
	cfg := h.ConfigService.GetCurrentConfig()
	respondSuccess(c, http.StatusOK, gin.H{
		"llm_provider": cfg.LLMProvider,
		"llm_status":   h.LLMService.Status(),
		"tts_enabled":  cfg.TTSEnabled,
		"tts_model":    cfg.TTSModel,
		"tts_voice":    cfg.TTSVoice,
		"debug_mode":   cfg.DebugMode,
	})
}

// UpdateLLMSettings 切换LLM提供者
func (h *Handler) UpdateLLMSettings(c *gin.Context) {
	var req UpdateLLMSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewValidationError("请求参数无效", err))
		return
	}

	if err := h.ConfigService.UpdateLLMSettings(req.Provider, req.Config); err != nil {
		respondError(c, errors.NewValidationError("LLM配置更新失败: "+err.Error(), err))
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"provider": req.Provider})
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{
		"status":    "ok",
		"llm_ready": h.LLMService.IsReady(),
	})
}
