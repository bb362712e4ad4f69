package session

import (
	"context"
	"time"
)

// flush is the shutdown path: it never fails the task. A fatal cause,
// if any, is logged first; then, if a WebPushClient was ever
// established, its mailbox is unregistered, unacked direct notifications
// are best-effort persisted, and one structured Session record is
// emitted.
func (m *Machine) flush(ctx context.Context, cause *Error) {
	if cause != nil {
		m.logger.Error("connection terminated", "kind", cause.Kind.String(), "error", cause.Error())
	}

	if m.client == nil {
		return
	}

	elapsed := time.Now().UnixMicro() - int64(m.client.ConnectedAtMicros)
	m.metrics.ObserveLifespanMicros(elapsed)

	if m.mailbox != nil {
		m.registry.Disconnect(m.client.UAID, m.mailbox)
	}

	// Only unacked_direct is flushed: unacked_stored notifications are
	// already persisted, so re-storing them on disconnect would just
	// duplicate them.
	if len(m.client.UnackedDirect) > 0 {
		messages := m.client.UnackedDirect
		uaid := m.client.UAID
		month := m.client.MessageMonth
		uaidLabel := m.client.UAID.Hyphenated()
		m.client.Stats.DirectStorage += len(messages)

		go func() {
			storeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := m.bridge.StoreMessages(storeCtx, uaid, month, messages); err != nil {
				m.logger.Warn("best-effort store of unacked direct notifications failed",
					"uaid", uaidLabel, "error", err)
			}
		}()
	}

	var info UserAgentInfo
	if m.uaClassifier != nil {
		info = m.uaClassifier.Classify(m.transport.UserAgent())
	}

	stats := m.client.Stats
	m.logger.Info("Session",
		"uaid", stats.UAID,
		"uaid_reset", stats.UAIDReset,
		"existing_uaid", stats.ExistingUAID,
		"connection_type", stats.ConnectionType,
		"host", stats.Host,
		"direct_acked", stats.DirectAcked,
		"direct_storage", stats.DirectStorage,
		"stored_retrieved", stats.StoredRetrieved,
		"stored_acked", stats.StoredAcked,
		"nacks", stats.Nacks,
		"registers", stats.Registers,
		"unregisters", stats.Unregisters,
		"elapsed_micros", elapsed,
		"ua_name", info.Name,
		"ua_os_family", info.OSFamily,
		"ua_os_version", info.OSVersion,
		"ua_vendor_name", info.VendorName,
		"ua_vendor_version", info.VendorVersion,
		"ua_category", info.Category,
	)
}
