// internal/services/llm_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Corphon/StreamPerformerMCP/internal/config"
	"github.com/Corphon/StreamPerformerMCP/internal/llm"
	"github.com/Corphon/StreamPerformerMCP/internal/logging"
)

var ErrLLMNotReady = errors.New("llm service not ready")

var providerDefaultModels = map[string]string{
	"anthropic": "claude-haiku-4-5",
	"qwen":      "qwen-plus",
}

// LLMService 提供统一的大语言模型调用接口
// 实现 live.Generator；未就绪时返回 ErrLLMNotReady，由表演侧降级为模板台词
type LLMService struct {
	providerMutex sync.RWMutex
	provider      llm.Provider
	providerName  string
	isReady       bool
	readyState    string
}

// NewLLMService 根据当前配置创建LLM服务
// 配置缺失不报错：服务以未就绪状态运行，随时可通过 UpdateProvider 激活
func NewLLMService() *LLMService {
	service := &LLMService{readyState: "未初始化"}

	cfg := config.GetCurrentConfig()
	if cfg.LLMProvider == "" || cfg.LLMConfig["api_key"] == "" {
		service.readyState = "未配置API密钥"
		return service
	}

	if err := service.initProvider(cfg.LLMProvider, cfg.LLMConfig); err != nil {
		log := logging.For("llm")
		log.Warn().Err(err).Str("provider", cfg.LLMProvider).Msg("LLM提供者初始化失败")
	}
	return service
}

func (s *LLMService) initProvider(name string, providerConfig map[string]string) error {
	if providerConfig["default_model"] == "" {
		if model, ok := providerDefaultModels[name]; ok {
			cloned := make(map[string]string, len(providerConfig)+1)
			for k, v := range providerConfig {
				cloned[k] = v
			}
			cloned["default_model"] = model
			providerConfig = cloned
		}
	}

	provider, err := llm.DefaultRegistry.GetProvider(name, providerConfig)
	if err != nil {
		s.providerMutex.Lock()
		s.isReady = false
		s.readyState = fmt.Sprintf("初始化失败: %v", err)
		s.providerMutex.Unlock()
		return err
	}

	s.providerMutex.Lock()
	s.provider = provider
	s.providerName = name
	s.isReady = true
	s.readyState = "就绪"
	s.providerMutex.Unlock()

	log := logging.For("llm")
	log.Info().Str("provider", name).Msg("LLM提供者已就绪")
	return nil
}

// IsReady 服务是否可用
func (s *LLMService) IsReady() bool {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()
	return s.isReady
}

// CompleteText 文本生成
func (s *LLMService) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.providerMutex.RLock()
	provider := s.provider
	ready := s.isReady
	s.providerMutex.RUnlock()

	if !ready || provider == nil {
		return nil, ErrLLMNotReady
	}

	return provider.CompleteText(ctx, req)
}

// OnConfigChanged 配置变更时重建提供者（ConfigService 订阅回调）
func (s *LLMService) OnConfigChanged(_, newConfig *config.AppConfig) {
	if newConfig == nil || newConfig.LLMProvider == "" {
		return
	}
	if err := s.initProvider(newConfig.LLMProvider, newConfig.LLMConfig); err != nil {
		log := logging.For("llm")
		log.Warn().Err(err).Str("provider", newConfig.LLMProvider).Msg("LLM提供者切换失败")
	}
}

// Status 当前服务状态（设置接口展示用）
func (s *LLMService) Status() map[string]interface{} {
	s.providerMutex.RLock()
	defer s.providerMutex.RUnlock()

	status := map[string]interface{}{
		"ready":     s.isReady,
		"state":     s.readyState,
		"provider":  s.providerName,
		"available": llm.DefaultRegistry.GetAvailableProviders(),
	}
	if s.provider != nil {
		status["models"] = s.provider.GetSupportedModels()
	}
	return status
}
