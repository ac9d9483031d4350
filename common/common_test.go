package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRectEmpty(t *testing.T) {
	assert.True(t, Rect{Width: 0, Height: 10}.Empty())
	assert.True(t, Rect{Width: 10, Height: -1}.Empty())
	assert.False(t, Rect{Width: 1, Height: 1}.Empty())
}

func TestAssertLogsInReleaseBuilds(t *testing.T) {
	if DebugBuild {
		t.Skip("debug builds panic on failed assertions")
	}
	core, logs := observer.New(zapcore.ErrorLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	Assert(true, "never logged")
	Assert(false, "blend scope reentered")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Contains(t, entries[0].Message, "blend scope reentered")
	}
}

func TestKeyDigit(t *testing.T) {
	n, ok := Key7.Digit()
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	n, ok = Key0.Digit()
	assert.True(t, ok)
	assert.Equal(t, 0, n)

	_, ok = KeyM.Digit()
	assert.False(t, ok)
}
