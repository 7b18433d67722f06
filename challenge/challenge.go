// Package challenge parses WWW-Authenticate and Proxy-Authenticate header values.
//
// A challenge is split at its first space into a scheme token and a tail.
// The tail is either an opaque blob (NTLM) or a comma-separated list of
// name=value parameters (Basic, Digest). Scheme names are always lowercased.
package challenge

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Header names used by the challenge-response exchange.
const (
	WWWAuthenticate    = "WWW-Authenticate"
	ProxyAuthenticate  = "Proxy-Authenticate"
	Authorization      = "Authorization"
	ProxyAuthorization = "Proxy-Authorization"
)

var (
	// ErrMalformed is returned when a challenge does not follow the expected grammar.
	ErrMalformed = errors.New("malformed challenge")

	// ErrInvalidArgument is returned when no header values were supplied at all.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Set maps a lowercase scheme name to the raw challenge text last seen for it.
type Set map[string]string

// Get returns the raw challenge for name. The lookup is case-insensitive.
func (s Set) Get(name string) (string, bool) {
	raw, ok := s[strings.ToLower(name)]
	return raw, ok
}

// Names returns the scheme names in the set, sorted.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExtractScheme returns the lowercased token before the first space of challenge.
func ExtractScheme(challenge string) (string, error) {
	scheme := challenge
	if i := strings.IndexByte(challenge, ' '); i >= 0 {
		scheme = challenge[:i]
	}
	if scheme == "" {
		return "", fmt.Errorf("%w: %q", ErrMalformed, challenge)
	}
	return strings.ToLower(scheme), nil
}

// ExtractParams parses the parameter list following the scheme token.
// Parameter names are lowercased; values keep their case and lose
// surrounding quotes. A challenge without a space has no parameter list
// and is rejected.
func ExtractParams(challenge string) (map[string]string, error) {
	i := strings.IndexByte(challenge, ' ')
	if i < 0 {
		return nil, fmt.Errorf("%w: %q has no parameters", ErrMalformed, challenge)
	}
	params := make(map[string]string)
	for _, p := range parseParams(challenge[i+1:], ',') {
		params[strings.ToLower(p.name)] = p.value
	}
	return params, nil
}

// Parse builds a Set from raw header values. When a scheme appears more
// than once the later value replaces the earlier one.
func Parse(headers []string) (Set, error) {
	if headers == nil {
		return nil, fmt.Errorf("%w: challenge headers may not be nil", ErrInvalidArgument)
	}
	set := make(Set, len(headers))
	for _, h := range headers {
		scheme, err := ExtractScheme(h)
		if err != nil {
			return nil, err
		}
		set[scheme] = h
	}
	return set, nil
}

// FromHeader parses the Proxy-Authenticate values of h when proxy is set,
// and the WWW-Authenticate values otherwise.
func FromHeader(h http.Header, proxy bool) (Set, error) {
	name := WWWAuthenticate
	if proxy {
		name = ProxyAuthenticate
	}
	values := h.Values(name)
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no %s header", ErrInvalidArgument, name)
	}
	return Parse(values)
}

// ResponseHeader returns the request header that carries the answer to a
// challenge read from the proxy or origin header.
func ResponseHeader(proxy bool) string {
	if proxy {
		return ProxyAuthorization
	}
	return Authorization
}
