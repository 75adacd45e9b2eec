// Package simerr defines the taxonomy of errors raised across the
// simulation kernel: per-agent errors the worker isolates (logged,
// agent removed) and core-infrastructure errors that are fatal and
// terminate the run. See spec.md §7 for the policy each Kind follows.
package simerr

import (
	"errors"
	"fmt"
)

// Kind classifies an *Error so callers can decide whether to isolate it
// to one agent or treat it as fatal, without string-matching messages.
type Kind int

const (
	// ConfigInvalid marks a missing mandatory stored procedure, a
	// missing mode on a Person load, or an inconsistent origin/dest
	// pair. Fatal.
	ConfigInvalid Kind = iota
	// NetworkInconsistent marks dangling node/section references
	// discovered at network-load time. Fatal.
	NetworkInconsistent
	// SchedulingOutOfOrder marks an agent updated before its start
	// time while dynamic dispatch is disabled. Fatal.
	SchedulingOutOfOrder
	// StartMissed marks a first tick arriving more than one
	// granularity after startTime. Fatal, whether or not dynamic
	// dispatch is on.
	StartMissed
	// TripChainExhausted is cooperative: it triggers Person removal.
	TripChainExhausted
	// UnknownMode is raised by trip-chain advance for a SubTrip mode
	// the kernel does not recognize. Marks the Person for removal.
	UnknownMode
	// UnsupportedRole is raised by trip-chain advance for a mode that
	// is recognized but not implemented (e.g. Car). Marks the Person
	// for removal.
	UnsupportedRole
	// CrossContext marks an instantaneous message sent across thread
	// contexts.
	CrossContext
	// CapacityExceeded marks a bus stop or similar resource accepting
	// more than its configured capacity. Fatal: acceptance bookkeeping
	// that overflows capacity means the reservation logic itself is
	// broken, not just this one trip.
	CapacityExceeded
	// RoleFailure wraps any error escaping a Role's Tick/Output. In
	// non-strict mode it is converted to agent removal; in strict
	// mode (config.Control.Strict) it is re-raised for debugging.
	RoleFailure
)

func (k Kind) String() string {
	switch k {
	case ConfigInvalid:
		return "ConfigInvalid"
	case NetworkInconsistent:
		return "NetworkInconsistent"
	case SchedulingOutOfOrder:
		return "SchedulingOutOfOrder"
	case StartMissed:
		return "StartMissed"
	case TripChainExhausted:
		return "TripChainExhausted"
	case UnknownMode:
		return "UnknownMode"
	case UnsupportedRole:
		return "UnsupportedRole"
	case CrossContext:
		return "CrossContext"
	case CapacityExceeded:
		return "CapacityExceeded"
	case RoleFailure:
		return "RoleFailure"
	default:
		return "Unknown"
	}
}

// Fatal reports whether errors of this Kind should terminate the whole
// simulation rather than be isolated to a single agent.
func (k Kind) Fatal() bool {
	switch k {
	case ConfigInvalid, NetworkInconsistent, SchedulingOutOfOrder, StartMissed, CapacityExceeded:
		return true
	default:
		return false
	}
}

// Error is the concrete error type carried by the kernel. Cause is set
// by Wrap and left nil by New; Unwrap exposes it so errors.Is/As keep
// working through fmt.Errorf("%w", ...).
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, simerr.ErrUnknownMode) work by comparing Kinds
// when the target is itself a bare *Error carrying only a Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New builds an *Error of the given Kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given Kind wrapping cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Sentinel errors for errors.Is(err, simerr.ErrUnknownMode)-style checks.
var (
	ErrConfigInvalid        = &Error{Kind: ConfigInvalid}
	ErrNetworkInconsistent  = &Error{Kind: NetworkInconsistent}
	ErrSchedulingOutOfOrder = &Error{Kind: SchedulingOutOfOrder}
	ErrStartMissed          = &Error{Kind: StartMissed}
	ErrTripChainExhausted   = &Error{Kind: TripChainExhausted}
	ErrUnknownMode          = &Error{Kind: UnknownMode}
	ErrUnsupportedRole      = &Error{Kind: UnsupportedRole}
	ErrCrossContext         = &Error{Kind: CrossContext}
	ErrCapacityExceeded     = &Error{Kind: CapacityExceeded}
	ErrRoleFailure          = &Error{Kind: RoleFailure}
)
