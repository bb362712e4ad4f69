package registry

import (
	"log/slog"
	"time"
)

// janitor periodically reclaims mailboxes whose owning connection
// crashed without an orderly Disconnect — adapted from the teacher's
// idle-cell evictor, repurposed from reclaiming idle multi-session cells
// to reclaiming single mailboxes nothing is touching anymore.
type janitor struct {
	registry *Registry
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
}

func newJanitor(r *Registry, interval, timeout time.Duration) *janitor {
	return &janitor{registry: r, interval: interval, timeout: timeout, stopCh: make(chan struct{})}
}

func (j *janitor) start() {
	go j.run()
}

func (j *janitor) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopCh:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *janitor) sweep() {
	reaped := 0
	j.registry.mailboxes.Range(func(key, value any) bool {
		mb := value.(*Mailbox)
		if mb.IsIdle(j.timeout) {
			mb.Stop()
			j.registry.mailboxes.Delete(key)
			reaped++
		}
		return true
	})

	if reaped > 0 {
		slog.Default().Info("registry janitor reclaimed stale mailboxes", "count", reaped)
	}
}

func (j *janitor) stop() {
	select {
	case <-j.stopCh:
	default:
		close(j.stopCh)
	}
}
