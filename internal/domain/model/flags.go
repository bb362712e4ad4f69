package model

// ClientFlags tracks the conditional behaviors pending for a connected
// client. None() is true iff every flag is false, which is the condition
// determine_acked_state uses to know the session has no further cleanup
// work queued and can return to steady-state Await.
type ClientFlags struct {
	IncludeTopic        bool
	IncrementStorage    bool
	Check               bool
	ResetUAID           bool
	RotateMessageTable bool
}

// NewClientFlags returns the flags a fresh session starts with, before a
// hello response may override them.
func NewClientFlags() ClientFlags {
	return ClientFlags{IncludeTopic: true}
}

// None reports whether none of the flags are set.
func (f ClientFlags) None() bool {
	return !f.IncludeTopic && !f.IncrementStorage && !f.Check && !f.ResetUAID && !f.RotateMessageTable
}
