// Package model holds the wire and in-memory data shapes shared by the
// session state machine, the registry, and the data-plane bridge.
package model

import (
	"strings"

	"github.com/google/uuid"
)

// UserID is the data plane's per-user handle (the "uaid"). It is rendered
// in two forms: compact (no dashes) at the data-plane boundary, hyphenated
// in outbound hello frames and log output. Callers must route each through
// the right form; they are not interchangeable on the wire.
type UserID uuid.UUID

// NewUserID mints a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// ParseUserID parses either representation of a uaid.
func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(id), nil
}

// Compact renders the identifier with no dashes, the form the data plane
// expects in call envelopes.
func (id UserID) Compact() string {
	return strings.ReplaceAll(uuid.UUID(id).String(), "-", "")
}

// Hyphenated renders the identifier in standard 8-4-4-4-12 form, the form
// used in outbound Hello frames and log output.
func (id UserID) Hyphenated() string { return uuid.UUID(id).String() }

func (id UserID) IsZero() bool { return id == UserID{} }

// ChannelID identifies a logical push subscription, scoped to a UserID.
type ChannelID uuid.UUID

func NewChannelID() ChannelID { return ChannelID(uuid.New()) }

func ParseChannelID(s string) (ChannelID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ChannelID{}, err
	}
	return ChannelID(id), nil
}

func (id ChannelID) Hyphenated() string { return uuid.UUID(id).String() }

func (id ChannelID) String() string { return id.Hyphenated() }
