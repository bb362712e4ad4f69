package registry

import (
	"sync"

	"github.com/webitel/webpush-connection-engine/internal/domain/model"
)

// Registerer is the external API the session state machine drives
// against. Exactly one mailbox is live per uaid at a time; connecting a
// second time for the same uaid retires the previous mailbox
// (last-writer-wins), matching the single-live-connection invariant a
// push service enforces per user.
type Registerer interface {
	Connect(uaid model.UserID) *Mailbox
	Disconnect(uaid model.UserID, mb *Mailbox)
	Deliver(uaid model.UserID, n model.ServerNotification) bool
	IsConnected(uaid model.UserID) bool
	Shutdown()
}

// Registry implements [Registerer] with one Mailbox per uaid, keyed in a
// lock-free map. It is the single-session analogue of a multi-session
// hub: same sync.Map-keyed-by-user shape, collapsed to one delivery
// target per key instead of a set of attached sessions.
type Registry struct {
	mailboxes sync.Map // model.UserID -> *Mailbox

	janitor *janitor
}

// NewRegistry builds a Registry and starts its stale-mailbox janitor.
func NewRegistry(opts ...Option) *Registry {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Registry{}
	r.janitor = newJanitor(r, cfg.evictionInterval, cfg.idleTimeout)
	r.janitor.start()
	return r
}

// IsConnected reports whether uaid currently has a live mailbox.
func (r *Registry) IsConnected(uaid model.UserID) bool {
	_, ok := r.mailboxes.Load(uaid)
	return ok
}

// Connect installs a fresh mailbox for uaid, retiring whatever mailbox
// was previously registered (if any). The retired mailbox is stopped:
// its owning connection, if still alive, will see Receive() close and
// must treat that as "superseded by a newer connection".
func (r *Registry) Connect(uaid model.UserID) *Mailbox {
	mb := NewMailbox(uaid)
	if old, loaded := r.mailboxes.Swap(uaid, mb); loaded {
		old.(*Mailbox).Stop()
	}
	return mb
}

// Disconnect removes mb from the registry, but only if mb is still the
// mailbox on file for uaid — a connection that was already superseded by
// a newer one for the same uaid must not tear down that newer mailbox.
func (r *Registry) Disconnect(uaid model.UserID, mb *Mailbox) {
	r.mailboxes.CompareAndDelete(uaid, mb)
	mb.Stop()
}

// Deliver pushes n to uaid's mailbox, if one exists. It returns false
// when there is no live connection for uaid; the caller (the data-plane
// notification consumer) is expected to fall back to persistent storage
// in that case.
func (r *Registry) Deliver(uaid model.UserID, n model.ServerNotification) bool {
	val, ok := r.mailboxes.Load(uaid)
	if !ok {
		return false
	}
	val.(*Mailbox).Push(n)
	return true
}

// Stats is a point-in-time snapshot of registry occupancy, exposed for
// the /stats HTTP surface and the monitor dashboard.
type Stats struct {
	ConnectedMailboxes int
}

// Stats counts live mailboxes. It is O(n) in connection count; fine for
// an occasional dashboard poll, not for a hot path.
func (r *Registry) Stats() Stats {
	count := 0
	r.mailboxes.Range(func(_, _ any) bool {
		count++
		return true
	})
	return Stats{ConnectedMailboxes: count}
}

// Shutdown stops the janitor and every live mailbox.
func (r *Registry) Shutdown() {
	r.janitor.stop()
	r.mailboxes.Range(func(key, value any) bool {
		value.(*Mailbox).Stop()
		r.mailboxes.Delete(key)
		return true
	})
}
