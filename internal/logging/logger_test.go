// internal/logging/logger_test.go
package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForWritesComponentField(t *testing.T) {
	var buf bytes.Buffer
	saved := base
	base = zerolog.New(&buf)
	defer func() { base = saved }()

	// 调用方惯例：先取 logger 再链式调用
	log := For("演出")
	log.Info().Str("step", "1").Msg("开始")

	out := buf.String()
	assert.Contains(t, out, `"component":"演出"`)
	assert.Contains(t, out, `"step":"1"`)
	assert.Contains(t, out, "开始")
}

func TestInitCreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir, true))

	log := For("test")
	log.Debug().Msg("写一条")

	_, err := os.Stat(filepath.Join(dir, "performer.log"))
	assert.NoError(t, err)
}
