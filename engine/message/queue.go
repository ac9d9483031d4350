package message

import (
	"github.com/Carmen-Shannon/oxy-gl/common"
	"go.uber.org/zap"
)

// DefaultQueueSize is the capacity used by NewQueue when a non-positive size is given.
const DefaultQueueSize = 64

// Poster is the sink side of a Queue. Components that only report conditions depend on this.
type Poster interface {
	// Post enqueues a message without blocking.
	//
	// Parameters:
	//   - m: the message to post
	Post(m Message)
}

// Queue is a bounded, non-blocking message queue. Producers may post from any goroutine;
// the engine loop consumes on the render thread.
type Queue struct {
	ch chan Message
}

var _ Poster = &Queue{}

// NewQueue creates a Queue with the given capacity.
//
// Parameters:
//   - size: the maximum number of pending messages (DefaultQueueSize if <= 0)
//
// Returns:
//   - *Queue: the new queue
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan Message, size)}
}

// Post enqueues m. When the queue is full, the oldest pending message is dropped unless it is a
// crash message, in which case the new message is dropped instead.
func (q *Queue) Post(m Message) {
	select {
	case q.ch <- m:
		return
	default:
	}

	select {
	case old := <-q.ch:
		if old.Type == MessageCrashDown {
			// keep the crash, lose the newcomer
			select {
			case q.ch <- old:
			default:
			}
			common.Log().Warn("message queue full, dropping message", zap.Stringer("type", m.Type))
			return
		}
		common.Log().Warn("message queue full, dropping oldest message", zap.Stringer("type", old.Type))
	default:
	}

	select {
	case q.ch <- m:
	default:
		common.Log().Warn("message queue full, dropping message", zap.Stringer("type", m.Type))
	}
}

// Poll returns the next pending message, if any.
//
// Returns:
//   - Message: the next message
//   - bool: false if the queue was empty
func (q *Queue) Poll() (Message, bool) {
	select {
	case m := <-q.ch:
		return m, true
	default:
		return Message{}, false
	}
}

// Drain calls fn for every message pending at the time of the call.
//
// Parameters:
//   - fn: the handler invoked per message in post order
func (q *Queue) Drain(fn func(Message)) {
	for n := len(q.ch); n > 0; n-- {
		m, ok := q.Poll()
		if !ok {
			return
		}
		fn(m)
	}
}

// Len returns the number of pending messages.
func (q *Queue) Len() int {
	return len(q.ch)
}
