package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/smnsjas/go-httpauth/challenge"
	"github.com/smnsjas/go-httpauth/internal/charset"
	"github.com/smnsjas/go-httpauth/ntlm"
)

// NTLMState is a step of the NTLM handshake.
type NTLMState int

const (
	// StateUninitiated means no challenge has been processed.
	StateUninitiated NTLMState = iota
	// StateInitiated means the server offered NTLM without a payload.
	StateInitiated
	// StateType1Generated means a Type 1 message was produced.
	StateType1Generated
	// StateType2Received means the server sent a Type 2 message.
	StateType2Received
	// StateType3Generated means a Type 3 message was produced.
	StateType3Generated
	// StateFailed means the server rejected the handshake.
	StateFailed
)

// String returns the state name.
func (s NTLMState) String() string {
	switch s {
	case StateUninitiated:
		return "uninitiated"
	case StateInitiated:
		return "initiated"
	case StateType1Generated:
		return "type1-generated"
	case StateType2Received:
		return "type2-received"
	case StateType3Generated:
		return "type3-generated"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("NTLMState(%d)", int(s))
	}
}

// OnChallenge returns the state after a challenge. A payload always moves
// to StateType2Received. A bare "NTLM" starts the handshake the first time
// and means rejection any other time.
func (s NTLMState) OnChallenge(hasPayload bool) NTLMState {
	if hasPayload {
		return StateType2Received
	}
	if s == StateUninitiated {
		return StateInitiated
	}
	return StateFailed
}

// OnAuthenticate returns the state after a response and the message type
// that response carries. After a Type 3 the same answer can be sent again,
// as on a request retry over the authenticated connection.
func (s NTLMState) OnAuthenticate() (NTLMState, ntlm.MessageType, error) {
	switch s {
	case StateInitiated, StateFailed:
		return StateType1Generated, ntlm.Negotiate, nil
	case StateType2Received, StateType3Generated:
		return StateType3Generated, ntlm.Authenticate, nil
	default:
		return s, 0, fmt.Errorf("%w: cannot authenticate in ntlm state %s", ErrIllegalState, s)
	}
}

// NTLMScheme implements the NTLM handshake over HTTP.
// See Scheme for the concurrency contract.
type NTLMScheme struct {
	engine  *ntlm.Engine
	logger  *slog.Logger
	state   NTLMState
	payload string
}

// NewNTLMScheme creates an NTLM scheme in StateUninitiated.
func NewNTLMScheme(opts ...SchemeOption) *NTLMScheme {
	cfg := newSchemeConfig(opts, charset.ASCII)
	return &NTLMScheme{
		engine: ntlm.NewEngine(ntlm.WithCharset(cfg.charset)),
		logger: cfg.logger,
	}
}

func newNTLM(opts ...SchemeOption) Scheme { return NewNTLMScheme(opts...) }

// ProcessChallenge applies an "NTLM" or "NTLM <base64>" challenge.
func (s *NTLMScheme) ProcessChallenge(c string) error {
	name, err := challenge.ExtractScheme(c)
	if err != nil {
		return err
	}
	if name != NTLMName {
		return fmt.Errorf("%w: invalid ntlm challenge %q", ErrMalformedChallenge, c)
	}

	var payload string
	if i := strings.IndexByte(c, ' '); i >= 0 {
		payload = strings.TrimSpace(c[i+1:])
	}
	s.payload = payload
	s.transition(s.state.OnChallenge(payload != ""))
	return nil
}

// Name returns "ntlm".
func (s *NTLMScheme) Name() string { return NTLMName }

// Realm returns ""; NTLM has no realm.
func (s *NTLMScheme) Realm() string { return "" }

// Parameter always returns false; NTLM challenges carry no parameters.
func (s *NTLMScheme) Parameter(string) (string, bool) { return "", false }

// ConnectionBased returns true.
func (s *NTLMScheme) ConnectionBased() bool { return true }

// Complete reports whether a Type 3 message was sent or the handshake failed.
func (s *NTLMScheme) Complete() bool {
	return s.state == StateType3Generated || s.state == StateFailed
}

// State returns the current handshake state.
func (s *NTLMScheme) State() NTLMState { return s.state }

// Authenticate returns an "NTLM <base64>" header value carrying a Type 1
// or Type 3 message, depending on the state. NTCredentials are required.
// The state is left unchanged when an error is returned.
func (s *NTLMScheme) Authenticate(creds Credentials) (string, error) {
	if s.state == StateUninitiated {
		return "", fmt.Errorf("%w: ntlm authentication has not been initiated", ErrIllegalState)
	}
	nt, err := ntCredentials(creds)
	if err != nil {
		return "", err
	}
	next, msgType, err := s.state.OnAuthenticate()
	if err != nil {
		return "", err
	}

	var msg []byte
	switch msgType {
	case ntlm.Negotiate:
		msg, err = s.engine.NegotiateMessage(nt.Host, nt.Domain)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
		}
	case ntlm.Authenticate:
		nonce, err := s.engine.ParseChallengeMessage(s.payload)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrMalformedChallenge, err)
		}
		msg, err = s.engine.AuthenticateMessage(nt.Username, nt.Password, nt.Host, nt.Domain, nonce)
		if err != nil {
			if errors.Is(err, ntlm.ErrCryptoUnavailable) {
				return "", err
			}
			return "", fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
		}
	}

	s.transition(next)
	return "NTLM " + base64.StdEncoding.EncodeToString(msg), nil
}

func (s *NTLMScheme) transition(next NTLMState) {
	if next != s.state {
		s.logger.Debug("ntlm state transition", "from", s.state.String(), "to", next.String())
	}
	s.state = next
}
