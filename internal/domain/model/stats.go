package model

// SessionStatistics accumulates monotonic counters for one connection's
// lifetime. It is owned by the session and emitted once, at shutdown.
type SessionStatistics struct {
	UAID           string
	UAIDReset      bool
	ExistingUAID   bool
	ConnectionType string
	Host           string

	DirectAcked     int
	DirectStorage   int
	StoredRetrieved int
	StoredAcked     int
	Nacks           int
	Registers       int
	Unregisters     int
}

// NewSessionStatistics seeds the identifying fields from the hello
// exchange; the usage counters all start at zero.
func NewSessionStatistics(uaid UserID, uaidReset, existingUAID bool, host string) SessionStatistics {
	return SessionStatistics{
		UAID:           uaid.Hyphenated(),
		UAIDReset:      uaidReset,
		ExistingUAID:   existingUAID,
		ConnectionType: "webpush",
		Host:           host,
	}
}
