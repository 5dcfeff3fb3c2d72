// internal/services/live_service.go
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Corphon/StreamPerformerMCP/internal/config"
	"github.com/Corphon/StreamPerformerMCP/internal/errors"
	"github.com/Corphon/StreamPerformerMCP/internal/live"
	"github.com/Corphon/StreamPerformerMCP/internal/logging"
	"github.com/Corphon/StreamPerformerMCP/internal/models"
	"github.com/Corphon/StreamPerformerMCP/internal/storage"
	"github.com/Corphon/StreamPerformerMCP/internal/tts"
)

// 每个 tick 的间隔：一小段台词的表演节奏
const defaultTickInterval = 3 * time.Second

// Broadcaster 把 tick 产出推给会话的所有观众
type Broadcaster func(sessionID string, message map[string]interface{})

// SessionRequest 建立表演会话的参数
type SessionRequest struct {
	Name       string `json:"name" binding:"required"`
	Persona    string `json:"persona"`
	Background string `json:"background"`
	Topic      string `json:"topic" binding:"required"`
}

// Session 一场进行中的表演
type Session struct {
	ID        string
	Stepper   *live.PerformanceStepper
	CreatedAt time.Time

	recorder *tts.CosyVoice
	cancel   context.CancelFunc
	done     chan struct{}
}

// LiveService 表演会话注册表
// 建会话时生成剧本并落盘，之后由内部 tick 循环驱动 stepper
type LiveService struct {
	llm       *LLMService
	storage   *storage.FileStorage
	scriptGen *live.ScriptGenerator

	mu       sync.RWMutex
	sessions map[string]*Session

	broadcaster Broadcaster
	interval    time.Duration
	log         zerolog.Logger
}

// NewLiveService 创建会话服务
func NewLiveService(llmService *LLMService, fileStorage *storage.FileStorage) *LiveService {
	return &LiveService{
		llm:       llmService,
		storage:   fileStorage,
		scriptGen: live.NewScriptGenerator(llmService),
		sessions:  make(map[string]*Session),
		interval:  defaultTickInterval,
		log:       logging.For("live"),
	}
}

// SetBroadcaster 注册产出推送回调（websocket 层在启动时注入）
func (s *LiveService) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// CreateSession 生成剧本、持久化工件并启动表演循环
func (s *LiveService) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if req.Name == "" || req.Topic == "" {
		return nil, errors.NewValidationError("主播名和话题不能为空", nil)
	}

	script := s.scriptGen.Generate(ctx, req.Name, req.Persona, req.Background, req.Topic)

	sessionID := uuid.New().String()
	artifact := &models.ScriptArtifact{
		Metadata: models.ScriptMetadata{
			Timestamp:  time.Now(),
			Name:       req.Name,
			Topic:      req.Topic,
			TotalLines: len(script),
		},
		Script: script,
	}
	if err := s.storage.SaveScript(sessionID, artifact); err != nil {
		return nil, fmt.Errorf("持久化剧本失败: %w", err)
	}

	state := models.NewPerformanceState(req.Name, req.Persona, req.Background, req.Topic, script)

	synthesizer := s.newSynthesizer()
	var speech live.SpeechSynthesizer
	if synthesizer != nil {
		synthesizer.StartRecording()
		speech = synthesizer
	}

	session := &Session{
		ID:        sessionID,
		Stepper:   live.NewPerformanceStepper(state, s.llm, speech),
		CreatedAt: time.Now(),
		recorder:  synthesizer,
		done:      make(chan struct{}),
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	session.cancel = cancel

	s.mu.Lock()
	s.sessions[sessionID] = session
	s.mu.Unlock()

	go s.runLoop(loopCtx, session)

	s.log.Info().Str("session", sessionID).Str("topic", req.Topic).Int("lines", len(script)).Msg("表演会话已创建")
	return session, nil
}

// newSynthesizer 按当前配置构建语音客户端；未启用返回 nil
func (s *LiveService) newSynthesizer() *tts.CosyVoice {
	cfg := config.GetCurrentConfig()
	if !cfg.TTSEnabled {
		return nil
	}
	base, err := config.Load()
	if err != nil || base.DashScopeAPIKey == "" {
		return nil
	}
	return tts.NewCosyVoice(tts.Config{
		APIKey: base.DashScopeAPIKey,
		Model:  cfg.TTSModel,
		Voice:  cfg.TTSVoice,
	})
}

// runLoop 表演主循环：定时步进直到剧本收尾或会话被终止
func (s *LiveService) runLoop(ctx context.Context, session *Session) {
	defer close(session.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.finishSession(session)
			return
		case <-ticker.C:
			result, err := session.Stepper.Step(ctx)
			if err != nil {
				if errors.IsSessionEndedError(err) {
					s.finishSession(session)
					return
				}
				s.log.Error().Err(err).Str("session", session.ID).Msg("步进失败")
				continue
			}

			s.publish(session, result)

			if session.Stepper.Status() == live.StatusEnded {
				s.finishSession(session)
				return
			}
		}
	}
}

// publish 落盘并广播一条 tick 产出
func (s *LiveService) publish(session *Session, result *live.StepResult) {
	if err := s.storage.AppendStepLog(session.ID, result); err != nil {
		s.log.Warn().Err(err).Str("session", session.ID).Msg("步进日志写入失败")
	}

	s.mu.RLock()
	broadcaster := s.broadcaster
	s.mu.RUnlock()
	if broadcaster == nil {
		return
	}

	message := map[string]interface{}{
		"type":    "step_result",
		"session": session.ID,
		"result":  result,
	}
	broadcaster(session.ID, message)
}

// finishSession 保存录音并清理注册表
func (s *LiveService) finishSession(session *Session) {
	if session.recorder != nil {
		path, err := session.recorder.SaveRecording(s.storage.RecordingDir(session.ID), "recording")
		if err != nil {
			s.log.Warn().Err(err).Str("session", session.ID).Msg("录音保存失败")
		} else if path != "" {
			s.log.Info().Str("session", session.ID).Str("path", path).Msg("录音已保存")
		}
	}

	s.mu.Lock()
	delete(s.sessions, session.ID)
	s.mu.Unlock()

	s.mu.RLock()
	broadcaster := s.broadcaster
	s.mu.RUnlock()
	if broadcaster != nil {
		broadcaster(session.ID, map[string]interface{}{
			"type":    "session_ended",
			"session": session.ID,
		})
	}

	s.log.Info().Str("session", session.ID).Msg("表演会话已结束")
}

// GetSession 查找进行中的会话
func (s *LiveService) GetSession(sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, errors.NewNotFoundError(fmt.Sprintf("会话不存在: %s", sessionID), nil)
	}
	return session, nil
}

// SubmitDanmaku 向会话投递一条弹幕
func (s *LiveService) SubmitDanmaku(sessionID, text, user string) (*models.Danmaku, error) {
	if text == "" {
		return nil, errors.NewValidationError("弹幕内容不能为空", nil)
	}

	session, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	dm := models.NewDanmaku(text, user)
	session.Stepper.State().Queue.Push(dm)
	return dm, nil
}

// EndSession 主动终止会话
func (s *LiveService) EndSession(sessionID string) error {
	session, err := s.GetSession(sessionID)
	if err != nil {
		return err
	}

	session.cancel()
	<-session.done
	return nil
}

// ActiveSessions 进行中会话的概要
func (s *LiveService) ActiveSessions() []map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]map[string]interface{}, 0, len(s.sessions))
	for _, session := range s.sessions {
		state := session.Stepper.State()
		summaries = append(summaries, map[string]interface{}{
			"id":           session.ID,
			"name":         state.Name,
			"topic":        state.Topic,
			"current_step": state.CurrentStep,
			"created_at":   session.CreatedAt,
		})
	}
	return summaries
}

// SessionHistory 列出落盘的历史会话（含进行中标记）
func (s *LiveService) SessionHistory() ([]map[string]interface{}, error) {
	ids, err := s.storage.ListSessions()
	if err != nil {
		return nil, fmt.Errorf("读取会话目录失败: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		_, active := s.sessions[id]
		entry := map[string]interface{}{
			"id":     id,
			"active": active,
		}
		if artifact, err := s.storage.LoadScript(id); err == nil {
			entry["name"] = artifact.Metadata.Name
			entry["topic"] = artifact.Metadata.Topic
			entry["created_at"] = artifact.Metadata.Timestamp
		}
		history = append(history, entry)
	}
	return history, nil
}

// DeleteSession 删除已结束会话的全部落盘工件
func (s *LiveService) DeleteSession(sessionID string) error {
	s.mu.RLock()
	_, active := s.sessions[sessionID]
	s.mu.RUnlock()
	if active {
		return errors.NewValidationError("会话仍在进行中，结束后才能删除", nil)
	}

	if err := s.storage.DeleteSession(sessionID); err != nil {
		return errors.NewNotFoundError(fmt.Sprintf("会话不存在: %s", sessionID), err)
	}
	return nil
}

// ScriptArtifact 读取会话的剧本工件（结束后仍可下载）
func (s *LiveService) ScriptArtifact(sessionID string) (*models.ScriptArtifact, error) {
	artifact, err := s.storage.LoadScript(sessionID)
	if err != nil {
		return nil, errors.NewNotFoundError(fmt.Sprintf("剧本不存在: %s", sessionID), err)
	}
	return artifact, nil
}
