package shader

import (
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// mapReader serves shader files from memory.
type mapReader map[string]string

func (m mapReader) ReadFileFromPath(path string) ([]byte, error) {
	src, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("%s: file does not exist", path)
	}
	return []byte(src), nil
}

// observeLogs routes the engine logger into an observer for the duration of the test.
func observeLogs(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	common.SetLogger(zap.New(core))
	t.Cleanup(func() { common.SetLogger(nil) })
	return logs
}
