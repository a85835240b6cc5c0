package cartsync

import (
	"errors"
	"time"
)

// SyncMode tells which store is authoritative for the session.
type SyncMode int

const (
	ModeUninitialized SyncMode = iota
	ModeRemoteAvailable
	ModeRemoteUnavailable
)

func (m SyncMode) String() string {
	switch m {
	case ModeRemoteAvailable:
		return "remote_available"
	case ModeRemoteUnavailable:
		return "remote_unavailable"
	default:
		return "uninitialized"
	}
}

var ErrInvalidTransition = errors.New("cartsync: invalid sync mode transition")

// Machine is the one-way sync-mode state machine of a session:
//
//	uninitialized -> remote_available -> remote_unavailable
//	uninitialized -> remote_unavailable
//
// There is no edge back to remote_available; a new session needs a new Machine.
type Machine struct {
	mode       SyncMode
	reason     string
	degradedAt time.Time
	now        func() time.Time
}

func NewMachine(now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{now: now}
}

func (m *Machine) Mode() SyncMode {
	return m.mode
}

// Activate marks the remote store as authoritative. Only valid on a fresh machine.
func (m *Machine) Activate() error {
	if m.mode != ModeUninitialized {
		return ErrInvalidTransition
	}
	m.mode = ModeRemoteAvailable
	return nil
}

// Degrade moves the machine to remote_unavailable. It reports whether a transition happened;
// degrading an already degraded machine keeps the first reason.
func (m *Machine) Degrade(reason string) bool {
	if m.mode == ModeRemoteUnavailable {
		return false
	}
	m.mode = ModeRemoteUnavailable
	m.reason = reason
	m.degradedAt = m.now()
	return true
}

func (m *Machine) Reason() string {
	return m.reason
}

func (m *Machine) DegradedAt() time.Time {
	return m.degradedAt
}
