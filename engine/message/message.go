// Package message carries engine-level notifications between the graphic core and the loop that
// owns it. Posting is fire-and-forget: producers never block on consumers.
package message

import "github.com/Carmen-Shannon/oxy-gl/common"

// MessageType identifies the kind of engine message.
type MessageType int

const (
	// MessageCrashDown signals an unrecoverable failure (e.g. a shader that does not compile or link).
	// The engine loop shuts down gracefully when it sees one.
	MessageCrashDown MessageType = iota

	// MessageQuit asks the engine loop to stop.
	MessageQuit

	// MessageWindowSizeChanged reports a new client rect for the rendering surface.
	MessageWindowSizeChanged

	// MessageShaderChanged reports that a shader source file changed on disk.
	MessageShaderChanged
)

// String returns a readable name for the message type.
func (t MessageType) String() string {
	switch t {
	case MessageCrashDown:
		return "CrashDown"
	case MessageQuit:
		return "Quit"
	case MessageWindowSizeChanged:
		return "WindowSizeChanged"
	case MessageShaderChanged:
		return "ShaderChanged"
	default:
		return "Unknown"
	}
}

// Message is a single engine notification. Only the fields relevant to Type are populated.
type Message struct {
	// Type is the kind of message.
	Type MessageType

	// Rect is the new client rect for MessageWindowSizeChanged.
	Rect common.Rect

	// Path is the changed file for MessageShaderChanged.
	Path string

	// Reason is a short human-readable cause for MessageCrashDown.
	Reason string
}

// CrashDown builds a MessageCrashDown with the given reason.
//
// Parameters:
//   - reason: why the engine must stop
//
// Returns:
//   - Message: the crash message
func CrashDown(reason string) Message {
	return Message{Type: MessageCrashDown, Reason: reason}
}

// WindowSizeChanged builds a MessageWindowSizeChanged for the given client rect.
//
// Parameters:
//   - rect: the new client rect
//
// Returns:
//   - Message: the resize message
func WindowSizeChanged(rect common.Rect) Message {
	return Message{Type: MessageWindowSizeChanged, Rect: rect}
}

// ShaderChanged builds a MessageShaderChanged for the given path.
//
// Parameters:
//   - path: the shader file that changed
//
// Returns:
//   - Message: the change notification
func ShaderChanged(path string) Message {
	return Message{Type: MessageShaderChanged, Path: path}
}
