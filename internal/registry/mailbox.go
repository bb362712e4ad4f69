package registry

import (
	"sync/atomic"
	"time"

	"github.com/webitel/webpush-connection-engine/internal/domain/model"
)

// Mailbox is the per-uaid delivery queue a connected session drains
// server notifications from. Unlike a bounded channel it never drops a
// push under backpressure: a slow or momentarily absent reader just
// makes the internal queue grow, because silently discarding a
// notification is worse than the memory pressure of holding it.
type Mailbox struct {
	uaid model.UserID

	in   chan model.ServerNotification
	out  chan model.ServerNotification
	done chan struct{}

	lastActivityUnix atomic.Int64
}

// NewMailbox creates and starts a mailbox for uaid. The caller receives
// pushed notifications from Receive(), in order.
func NewMailbox(uaid model.UserID) *Mailbox {
	m := &Mailbox{
		uaid: uaid,
		in:   make(chan model.ServerNotification, 16),
		out:  make(chan model.ServerNotification),
		done: make(chan struct{}),
	}
	m.touch()
	go m.loop()
	return m
}

func (m *Mailbox) touch() {
	m.lastActivityUnix.Store(time.Now().UnixNano())
}

// Touch marks the mailbox as belonging to a live connection even when no
// notification has been pushed through it. The owning session's input
// loop calls this on every iteration so a quiet-but-connected session is
// never mistaken for a crashed one.
func (m *Mailbox) Touch() {
	m.touch()
}

// IsIdle reports whether this mailbox has received nothing for timeout,
// a signal its owning connection died without an orderly Disconnect.
func (m *Mailbox) IsIdle(timeout time.Duration) bool {
	last := time.Unix(0, m.lastActivityUnix.Load())
	return time.Since(last) > timeout
}

// Push enqueues a notification. It never blocks on a full mailbox: the
// internal queue (see loop) grows instead.
func (m *Mailbox) Push(n model.ServerNotification) {
	m.touch()
	select {
	case m.in <- n:
	case <-m.done:
	}
}

// Receive returns the channel a session reads delivered notifications
// from. It is closed once the mailbox is stopped; notifications still
// queued at that point are discarded (see Stop).
func (m *Mailbox) Receive() <-chan model.ServerNotification {
	return m.out
}

// Stop terminates the mailbox. Any notifications still queued but not
// yet handed to a reader are discarded; callers that care about
// in-flight notifications must drain Receive() before calling Stop, or
// rely on the registry's last-writer-wins replacement semantics.
func (m *Mailbox) Stop() {
	select {
	case <-m.done:
	default:
		close(m.done)
	}
}

// loop implements an unbounded buffered channel: a bounded "in" channel
// feeds an unbounded slice-backed queue, which in turn feeds "out" as
// fast as the reader drains it. This is the same batch-draining shape
// as a fixed-capacity mailbox loop, minus the capacity limit and its
// associated drop-on-full branch.
func (m *Mailbox) loop() {
	defer close(m.out)

	var queue []model.ServerNotification

	for {
		if len(queue) == 0 {
			select {
			case n := <-m.in:
				queue = append(queue, n)
			case <-m.done:
				return
			}
			continue
		}

		select {
		case n := <-m.in:
			queue = append(queue, n)
		case m.out <- queue[0]:
			queue = queue[1:]
		case <-m.done:
			return
		}
	}
}
