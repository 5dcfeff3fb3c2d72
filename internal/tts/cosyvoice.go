// internal/tts/cosyvoice.go
package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Corphon/StreamPerformerMCP/internal/logging"
)

const defaultBaseURL = "https://dashscope.aliyuncs.com/api/v1/services/aigc/multimodal-generation/generation"

// Config 语音合成配置
type Config struct {
	APIKey  string // 为空则整体禁用
	Model   string // 缺省 cosyvoice-v2
	Voice   string // 缺省 longxiaochun
	BaseURL string
}

// CosyVoice DashScope 语音合成客户端
// 实现 live.SpeechSynthesizer；未配置密钥时 Enabled 返回 false
type CosyVoice struct {
	cfg    Config
	client *http.Client

	mu        sync.Mutex
	recording [][]byte // 会话录音缓冲，StartRecording 后累积
	capturing bool
}

// NewCosyVoice 创建合成客户端
func NewCosyVoice(cfg Config) *CosyVoice {
	if cfg.Model == "" {
		cfg.Model = "cosyvoice-v2"
	}
	if cfg.Voice == "" {
		cfg.Voice = "longxiaochun"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &CosyVoice{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled 是否可用
func (c *CosyVoice) Enabled() bool {
	return c.cfg.APIKey != ""
}

// Synthesize 合成一段台词的音频（mp3 字节）
func (c *CosyVoice) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !c.Enabled() {
		return nil, nil
	}

	requestBody := map[string]interface{}{
		"model": c.cfg.Model,
		"input": map[string]interface{}{
			"text":  text,
			"voice": c.cfg.Voice,
		},
		"parameters": map[string]interface{}{
			"format": "mp3",
		},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("dashscope tts错误(%d): %s", httpResp.StatusCode, string(body))
	}

	var response struct {
		Output struct {
			Audio struct {
				URL  string `json:"url"`
				Data string `json:"data"` // base64
			} `json:"audio"`
		} `json:"output"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&response); err != nil {
		return nil, err
	}

	var audio []byte
	switch {
	case response.Output.Audio.Data != "":
		audio, err = base64.StdEncoding.DecodeString(response.Output.Audio.Data)
		if err != nil {
			return nil, fmt.Errorf("音频数据解码失败: %w", err)
		}
	case response.Output.Audio.URL != "":
		audio, err = c.download(ctx, response.Output.Audio.URL)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("dashscope tts返回空音频")
	}

	c.capture(audio)
	return audio, nil
}

func (c *CosyVoice) download(ctx context.Context, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("音频下载失败(%d)", httpResp.StatusCode)
	}
	return io.ReadAll(httpResp.Body)
}

// ====================
// 会话录音缓冲
// ====================

// StartRecording 开始累积本会话合成的所有音频
func (c *CosyVoice) StartRecording() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capturing = true
	c.recording = nil
}

func (c *CosyVoice) capture(audio []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.capturing || len(audio) == 0 {
		return
	}
	buf := make([]byte, len(audio))
	copy(buf, audio)
	c.recording = append(c.recording, buf)
}

// SaveRecording 把累积的音频段拼接写盘并停止录音
// 没有任何音频时不落文件，返回空路径
func (c *CosyVoice) SaveRecording(dir, name string) (string, error) {
	c.mu.Lock()
	segments := c.recording
	c.recording = nil
	c.capturing = false
	c.mu.Unlock()

	if len(segments) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, name+".mp3")
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	for _, segment := range segments {
		if _, err := file.Write(segment); err != nil {
			return "", err
		}
	}

	log := logging.For("tts")
	log.Info().Str("path", path).Int("segments", len(segments)).Msg("录音已保存")
	return path, nil
}
