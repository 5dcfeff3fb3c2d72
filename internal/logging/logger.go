// internal/logging/logger.go
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// 未显式 Init 时退化为纯控制台输出
	base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	initOnce sync.Once
)

// Init 初始化全局日志：控制台 + 可选文件输出
// logDir 为空时仅输出到控制台；重复调用只有首次生效
func Init(logDir string, debug bool) error {
	var initErr error
	initOnce.Do(func() {
		level := zerolog.InfoLevel
		if debug {
			level = zerolog.DebugLevel
		}

		console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
		writers := []io.Writer{console}

		if logDir != "" {
			if err := os.MkdirAll(logDir, 0755); err != nil {
				initErr = err
				return
			}
			file, err := os.OpenFile(
				filepath.Join(logDir, "performer.log"),
				os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				initErr = err
				return
			}
			writers = append(writers, file)
		}

		base = zerolog.New(zerolog.MultiLevelWriter(writers...)).
			Level(level).
			With().Timestamp().Logger()
	})
	return initErr
}

// For 返回带组件标记的子 logger
func For(component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}
