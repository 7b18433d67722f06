package auth

import (
	"log/slog"

	"golang.org/x/text/encoding"
)

// Scheme names, always lowercase.
const (
	BasicName  = "basic"
	DigestName = "digest"
	NTLMName   = "ntlm"
)

// Scheme is one challenge-response negotiation for a single realm or,
// for connection-based schemes, a single connection.
//
// # Thread Safety
//
// Scheme implementations are NOT safe for concurrent use. A scheme holds
// handshake state and must be confined to the negotiation that created it;
// a new realm or connection needs a new instance.
//
// # Authentication Flow
//
//  1. ProcessChallenge with the server's WWW-Authenticate value
//  2. Authenticate produces the Authorization header value
//  3. Repeat while Complete returns false and the server keeps challenging
type Scheme interface {
	// ProcessChallenge consumes one server challenge.
	ProcessChallenge(challenge string) error

	// Name returns the lowercase scheme name.
	Name() string

	// Realm returns the realm the server quoted, or "" if the scheme has none.
	Realm() string

	// Parameter returns a challenge parameter by case-insensitive name.
	Parameter(name string) (string, bool)

	// ConnectionBased reports whether the handshake is bound to the
	// underlying connection.
	ConnectionBased() bool

	// Complete reports whether no further rounds are expected.
	Complete() bool

	// Authenticate returns the Authorization header value for creds.
	Authenticate(creds Credentials) (string, error)
}

// Factory creates a fresh Scheme instance.
type Factory func(opts ...SchemeOption) Scheme

type schemeConfig struct {
	charset encoding.Encoding
	logger  *slog.Logger
}

// SchemeOption configures a Scheme at construction.
type SchemeOption func(*schemeConfig)

// WithCharset sets the character set used to encode credentials.
// Basic defaults to ISO-8859-1 and NTLM to US-ASCII.
func WithCharset(enc encoding.Encoding) SchemeOption {
	return func(c *schemeConfig) {
		c.charset = enc
	}
}

// WithLogger sets the logger for handshake debug records.
func WithLogger(logger *slog.Logger) SchemeOption {
	return func(c *schemeConfig) {
		c.logger = logger
	}
}

func newSchemeConfig(opts []SchemeOption, defaultCharset encoding.Encoding) schemeConfig {
	cfg := schemeConfig{charset: defaultCharset}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.charset == nil {
		cfg.charset = defaultCharset
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return cfg
}
