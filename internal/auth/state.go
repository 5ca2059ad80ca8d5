package auth

import (
	"fmt"

	"github.com/vovakirdan/heatchat/internal/core"
)

// State is the session lifecycle state.
type State int

const (
	// StateUnknown is the initial state while the persisted session is restored.
	StateUnknown State = iota
	// StateSignedOut means no user is signed in.
	StateSignedOut
	// StateAuthorizing means an authorization flow is in flight.
	StateAuthorizing
	// StateSignedIn means a user and token are active.
	StateSignedIn
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateSignedOut:
		return "signed_out"
	case StateAuthorizing:
		return "authorizing"
	case StateSignedIn:
		return "signed_in"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Event drives a session transition.
type Event int

const (
	// EventRestored is emitted when a persisted session was found.
	EventRestored Event = iota
	// EventRestoreEmpty is emitted when no usable persisted session exists.
	EventRestoreEmpty
	// EventSignInStarted is emitted when an authorization flow opens.
	EventSignInStarted
	// EventAuthorized is emitted after a successful code exchange.
	EventAuthorized
	// EventAuthorizationFailed is emitted on denial, cancellation or exchange failure.
	EventAuthorizationFailed
	// EventSignedOut is emitted when the session is cleared.
	EventSignedOut
)

func (e Event) String() string {
	switch e {
	case EventRestored:
		return "restored"
	case EventRestoreEmpty:
		return "restore_empty"
	case EventSignInStarted:
		return "sign_in_started"
	case EventAuthorized:
		return "authorized"
	case EventAuthorizationFailed:
		return "authorization_failed"
	case EventSignedOut:
		return "signed_out"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Transition returns the state reached from s on e. It has no side effects.
func Transition(s State, e Event) (State, error) {
	switch {
	case s == StateUnknown && e == EventRestored:
		return StateSignedIn, nil
	case s == StateUnknown && e == EventRestoreEmpty:
		return StateSignedOut, nil
	case s == StateSignedOut && e == EventSignInStarted:
		return StateAuthorizing, nil
	case s == StateAuthorizing && e == EventSignInStarted:
		return s, core.ErrSignInInProgress
	case s == StateAuthorizing && e == EventAuthorized:
		return StateSignedIn, nil
	case s == StateAuthorizing && e == EventAuthorizationFailed:
		return StateSignedOut, nil
	case e == EventSignedOut && s != StateAuthorizing:
		return StateSignedOut, nil
	case e == EventSignedOut:
		return s, core.ErrSignInInProgress
	}
	return s, fmt.Errorf("%w: %s on %s", core.ErrInvalidTransition, e, s)
}
