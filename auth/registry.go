package auth

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/smnsjas/go-httpauth/challenge"
)

// DefaultPriority lists schemes strongest first.
var DefaultPriority = []string{NTLMName, DigestName, BasicName}

// Registry maps scheme names to factories and orders them by strength.
// Registries are caller-owned; there is no process-wide registry.
//
// A Registry is safe for concurrent use. The schemes it creates are not.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	priority  []string
}

// NewRegistry returns an empty registry using DefaultPriority.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		priority:  append([]string(nil), DefaultPriority...),
	}
}

// DefaultRegistry returns a new registry with Basic and NTLM registered.
// Digest stays in the priority list as an extension point.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(BasicName, newBasic)
	r.Register(NTLMName, newNTLM)
	return r
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = f
}

// Unregister removes the factory for name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, strings.ToLower(name))
}

// Names returns the registered scheme names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates a fresh instance of the named scheme.
func (r *Registry) New(name string, opts ...SchemeOption) (Scheme, error) {
	f, ok := r.factory(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not registered", ErrUnsupportedScheme, name)
	}
	return f(opts...), nil
}

// Priority returns a copy of the selection order.
func (r *Registry) Priority() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.priority...)
}

// SetPriority replaces the selection order. Names are lowercased.
func (r *Registry) SetPriority(names ...string) {
	p := lowerAll(names)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.priority = p
}

func (r *Registry) factory(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[strings.ToLower(name)]
	return f, ok
}

type selectConfig struct {
	priority   []string
	schemeOpts []SchemeOption
}

// SelectOption adjusts a single selection.
type SelectOption func(*selectConfig)

// WithPriority overrides the registry order for one selection. Names
// left out are not considered.
func WithPriority(names ...string) SelectOption {
	return func(c *selectConfig) {
		c.priority = lowerAll(names)
	}
}

// WithSelectSchemeOptions passes options to the scheme a selection creates.
func WithSelectSchemeOptions(opts ...SchemeOption) SelectOption {
	return func(c *selectConfig) {
		c.schemeOpts = append(c.schemeOpts, opts...)
	}
}

// Select picks the strongest offered scheme that has a factory, creates
// it, and feeds it its challenge. When nothing matches the error is an
// *UnsupportedSchemeError.
func (r *Registry) Select(set challenge.Set, opts ...SelectOption) (Scheme, error) {
	if set == nil {
		return nil, fmt.Errorf("%w: challenge set may not be nil", ErrInvalidArgument)
	}
	cfg := selectConfig{priority: r.Priority()}
	for _, opt := range opts {
		opt(&cfg)
	}

	for _, name := range cfg.priority {
		raw, ok := set.Get(name)
		if !ok {
			continue
		}
		f, ok := r.factory(name)
		if !ok {
			continue
		}
		scheme := f(cfg.schemeOpts...)
		if err := scheme.ProcessChallenge(raw); err != nil {
			return nil, err
		}
		return scheme, nil
	}
	return nil, &UnsupportedSchemeError{Offered: set.Names()}
}

func lowerAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToLower(n)
	}
	return out
}
