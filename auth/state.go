package auth

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// State tracks authentication for one scope: one realm, or one connection
// when the scheme is connection-based.
//
// A State is NOT safe for concurrent use; confine it to the request
// sequence that owns it.
type State struct {
	id         string
	scheme     Scheme
	requested  bool
	attempted  bool
	preemptive bool
}

// NewState returns an empty State with a fresh correlation ID.
func NewState() *State {
	return &State{id: uuid.New().String()}
}

// ID returns the correlation ID attached to audit events for this state.
// It survives Invalidate.
func (s *State) ID() string { return s.id }

// Scheme returns the installed scheme, or nil.
func (s *State) Scheme() Scheme { return s.scheme }

// SetScheme installs scheme. A nil scheme, including a typed nil pointer,
// invalidates the state. When the
// state is preemptive and scheme is a different concrete type from the
// preemptive one, the preemptive and attempted flags are cleared.
func (s *State) SetScheme(scheme Scheme) {
	if isNil(scheme) {
		s.Invalidate()
		return
	}
	if s.preemptive && reflect.TypeOf(s.scheme) != reflect.TypeOf(scheme) {
		s.preemptive = false
		s.attempted = false
	}
	s.scheme = scheme
}

// SetPreemptive installs a Basic scheme for sending credentials before any
// challenge. It is a no-op when already preemptive and fails when another
// scheme is installed.
func (s *State) SetPreemptive(opts ...SchemeOption) error {
	if s.preemptive {
		return nil
	}
	if s.scheme != nil {
		return fmt.Errorf("%w: authentication state already initialized with %s", ErrIllegalState, s.scheme.Name())
	}
	s.scheme = NewBasicScheme(opts...)
	s.preemptive = true
	return nil
}

// Preemptive reports whether credentials are sent without a challenge.
func (s *State) Preemptive() bool { return s.preemptive }

// Requested reports whether the server asked for authentication.
func (s *State) Requested() bool { return s.requested }

// SetRequested records whether the server asked for authentication.
func (s *State) SetRequested(v bool) { s.requested = v }

// Attempted reports whether a response has been sent.
func (s *State) Attempted() bool { return s.attempted }

// SetAttempted records whether a response has been sent.
func (s *State) SetAttempted(v bool) { s.attempted = v }

// Realm returns the installed scheme's realm, or "".
func (s *State) Realm() string {
	if s.scheme == nil {
		return ""
	}
	return s.scheme.Realm()
}

// Invalidate clears the scheme and all flags.
func (s *State) Invalidate() {
	s.scheme = nil
	s.requested = false
	s.attempted = false
	s.preemptive = false
}

// isNil reports whether v is nil or an interface holding a nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// String summarizes the state for debugging.
func (s *State) String() string {
	name := "none"
	if s.scheme != nil {
		name = s.scheme.Name()
	}
	return fmt.Sprintf("auth state: scheme=%s requested=%t attempted=%t preemptive=%t",
		name, s.requested, s.attempted, s.preemptive)
}
