package auth

import (
	"fmt"
	"log/slog"

	"github.com/smnsjas/go-httpauth/challenge"
)

// Processor drives a State through selection, challenges and responses.
// It holds no per-negotiation state and is safe for concurrent use with
// distinct States.
type Processor struct {
	registry   *Registry
	audit      auditor
	metrics    *Metrics
	schemeOpts []SchemeOption
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithProcessorLogger enables audit events on logger.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.audit.logger = logger
	}
}

// WithMetrics enables Prometheus counters.
func WithMetrics(m *Metrics) ProcessorOption {
	return func(p *Processor) {
		p.metrics = m
	}
}

// WithSchemeOptions sets options for every scheme the processor creates.
func WithSchemeOptions(opts ...SchemeOption) ProcessorOption {
	return func(p *Processor) {
		p.schemeOpts = append(p.schemeOpts, opts...)
	}
}

// NewProcessor returns a Processor over registry. A nil registry means
// DefaultRegistry().
func NewProcessor(registry *Registry, opts ...ProcessorOption) *Processor {
	if registry == nil {
		registry = DefaultRegistry()
	}
	p := &Processor{registry: registry}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Registry returns the processor's registry.
func (p *Processor) Registry() *Registry { return p.registry }

// Select picks and primes a scheme for set without touching any State.
func (p *Processor) Select(set challenge.Set, opts ...SelectOption) (Scheme, error) {
	return p.selectScheme(nil, set, opts)
}

func (p *Processor) selectScheme(state *State, set challenge.Set, opts []SelectOption) (Scheme, error) {
	opts = append([]SelectOption{WithSelectSchemeOptions(p.schemeOpts...)}, opts...)
	scheme, err := p.registry.Select(set, opts...)

	var name string
	if scheme != nil {
		name = scheme.Name()
	}
	p.metrics.RecordSelection(name, err)
	p.audit.log(state, SubtypeSelect, name, err, map[string]any{"offered": set.Names()})
	return scheme, err
}

// Process applies the challenges of a 401 or 407 response to state.
//
// Without an installed scheme, or while preemptive, a scheme is selected
// and installed; it has already seen its challenge. Otherwise set must
// contain a challenge for the installed scheme, which then processes it.
// A missing challenge yields ErrChallengeNotFound; the caller should
// Invalidate the state and try again.
func (p *Processor) Process(state *State, set challenge.Set, opts ...SelectOption) (Scheme, error) {
	if state == nil {
		return nil, fmt.Errorf("%w: state may not be nil", ErrInvalidArgument)
	}
	if set == nil {
		return nil, fmt.Errorf("%w: challenge set may not be nil", ErrInvalidArgument)
	}
	state.SetRequested(true)

	if state.Preemptive() || state.Scheme() == nil {
		scheme, err := p.selectScheme(state, set, opts)
		if err != nil {
			return nil, err
		}
		state.SetScheme(scheme)
		return scheme, nil
	}

	scheme := state.Scheme()
	raw, ok := set.Get(scheme.Name())
	var err error
	if !ok {
		err = fmt.Errorf("%w: %s authorization challenge expected", ErrChallengeNotFound, scheme.Name())
	} else {
		err = scheme.ProcessChallenge(raw)
	}
	p.metrics.RecordChallenge(scheme.Name(), err)
	p.audit.log(state, SubtypeChallenge, scheme.Name(), err, nil)
	if err != nil {
		return nil, err
	}
	return scheme, nil
}

// Authenticate asks the installed scheme for a header value and marks the
// state attempted. Credentials are validated first.
func (p *Processor) Authenticate(state *State, creds Credentials) (string, error) {
	return p.respond(state, creds, SubtypeResponse)
}

// Preempt installs Basic on state and returns its header value, for sending
// credentials before the server asks.
func (p *Processor) Preempt(state *State, creds Credentials) (string, error) {
	if state == nil {
		return "", fmt.Errorf("%w: state may not be nil", ErrInvalidArgument)
	}
	if err := state.SetPreemptive(p.schemeOpts...); err != nil {
		p.audit.log(state, SubtypePreempt, "", err, nil)
		return "", err
	}
	return p.respond(state, creds, SubtypePreempt)
}

func (p *Processor) respond(state *State, creds Credentials, subtype string) (string, error) {
	if state == nil {
		return "", fmt.Errorf("%w: state may not be nil", ErrInvalidArgument)
	}
	scheme := state.Scheme()
	if scheme == nil {
		err := fmt.Errorf("%w: no authentication scheme selected", ErrIllegalState)
		p.audit.log(state, subtype, "", err, nil)
		return "", err
	}

	value, err := p.authenticate(scheme, creds)
	p.metrics.RecordResponse(scheme.Name(), err)
	p.audit.log(state, subtype, scheme.Name(), err, map[string]any{"complete": scheme.Complete()})
	if err != nil {
		return "", err
	}
	state.SetAttempted(true)
	return value, nil
}

func (p *Processor) authenticate(scheme Scheme, creds Credentials) (string, error) {
	if isNil(creds) {
		return "", fmt.Errorf("%w: credentials may not be nil", ErrInvalidCredentials)
	}
	if err := creds.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	return scheme.Authenticate(creds)
}
