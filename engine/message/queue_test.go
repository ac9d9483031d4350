package message

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePostAndDrainInOrder(t *testing.T) {
	q := NewQueue(4)
	q.Post(WindowSizeChanged(common.Rect{Width: 10, Height: 20}))
	q.Post(ShaderChanged("shaders/main.frag"))

	var got []MessageType
	q.Drain(func(m Message) { got = append(got, m.Type) })

	assert.Equal(t, []MessageType{MessageWindowSizeChanged, MessageShaderChanged}, got)
	assert.Zero(t, q.Len())
}

func TestQueueNeverBlocksWhenFull(t *testing.T) {
	q := NewQueue(2)
	q.Post(Message{Type: MessageQuit})
	q.Post(ShaderChanged("a"))
	q.Post(ShaderChanged("b"))

	require.Equal(t, 2, q.Len())
	m, ok := q.Poll()
	require.True(t, ok)
	assert.Equal(t, "a", m.Path)
	m, _ = q.Poll()
	assert.Equal(t, "b", m.Path)
}

func TestQueueKeepsCrashWhenFull(t *testing.T) {
	q := NewQueue(1)
	q.Post(CrashDown("link failed"))
	q.Post(ShaderChanged("a"))

	m, ok := q.Poll()
	require.True(t, ok)
	assert.Equal(t, MessageCrashDown, m.Type)
	assert.Equal(t, "link failed", m.Reason)
	_, ok = q.Poll()
	assert.False(t, ok)
}

func TestMessageTypeString(t *testing.T) {
	assert.Equal(t, "CrashDown", MessageCrashDown.String())
	assert.Equal(t, "Unknown", MessageType(99).String())
}
