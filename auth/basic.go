package auth

import (
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/smnsjas/go-httpauth/challenge"
	"github.com/smnsjas/go-httpauth/internal/charset"
)

// BasicScheme implements HTTP Basic authentication (RFC 7617).
// It carries no handshake state; the realm is informational.
type BasicScheme struct {
	charset encoding.Encoding
	params  map[string]string
}

// NewBasicScheme creates a Basic scheme. Credentials are encoded as
// ISO-8859-1 unless WithCharset says otherwise.
func NewBasicScheme(opts ...SchemeOption) *BasicScheme {
	cfg := newSchemeConfig(opts, charset.Latin1)
	return &BasicScheme{charset: cfg.charset}
}

func newBasic(opts ...SchemeOption) Scheme { return NewBasicScheme(opts...) }

// ProcessChallenge records the realm and parameters of a Basic challenge.
func (s *BasicScheme) ProcessChallenge(c string) error {
	name, err := challenge.ExtractScheme(c)
	if err != nil {
		return err
	}
	if name != BasicName {
		return fmt.Errorf("%w: invalid basic challenge %q", ErrMalformedChallenge, c)
	}
	params, err := challenge.ExtractParams(c)
	if err != nil {
		return err
	}
	s.params = params
	return nil
}

// Name returns "basic".
func (s *BasicScheme) Name() string { return BasicName }

// Realm returns the realm parameter of the last challenge.
func (s *BasicScheme) Realm() string {
	return s.params["realm"]
}

// Parameter returns a parameter of the last challenge.
func (s *BasicScheme) Parameter(name string) (string, bool) {
	v, ok := s.params[strings.ToLower(name)]
	return v, ok
}

// ConnectionBased returns false.
func (s *BasicScheme) ConnectionBased() bool { return false }

// Complete returns true; Basic has a single round.
func (s *BasicScheme) Complete() bool { return true }

// Authenticate returns "Basic " followed by base64 of user:password.
func (s *BasicScheme) Authenticate(creds Credentials) (string, error) {
	up, err := usernamePassword(creds)
	if err != nil {
		return "", err
	}
	return EncodeBasic(up.Username, up.Password, s.charset)
}

// EncodeBasic builds a Basic header value. enc defaults to ISO-8859-1.
func EncodeBasic(username, password string, enc encoding.Encoding) (string, error) {
	if enc == nil {
		enc = charset.Latin1
	}
	raw, err := charset.Encode(enc, username+":"+password)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}
	return "Basic " + base64.StdEncoding.EncodeToString(raw), nil
}
