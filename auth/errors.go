package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smnsjas/go-httpauth/challenge"
	"github.com/smnsjas/go-httpauth/ntlm"
)

var (
	// ErrMalformedChallenge is returned when challenge text does not match a
	// scheme's grammar. It is the same value as challenge.ErrMalformed.
	ErrMalformedChallenge = challenge.ErrMalformed

	// ErrInvalidArgument is returned for nil states or challenge sets.
	ErrInvalidArgument = challenge.ErrInvalidArgument

	// ErrInvalidCredentials is returned when a scheme is handed a credential
	// type it cannot use, or the credentials fail validation.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrIllegalState is returned when an operation is not valid for the
	// current handshake or tracker state.
	ErrIllegalState = errors.New("illegal state")

	// ErrUnsupportedScheme is returned when no offered scheme can be used.
	ErrUnsupportedScheme = errors.New("unsupported authentication scheme")

	// ErrCryptoUnavailable is the same value as ntlm.ErrCryptoUnavailable.
	ErrCryptoUnavailable = ntlm.ErrCryptoUnavailable

	// ErrAuthenticationFailed is returned when a header value cannot be built.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrChallengeNotFound is returned when a response no longer carries a
	// challenge for the scheme already in use.
	ErrChallengeNotFound = fmt.Errorf("%w: challenge not found", ErrAuthenticationFailed)
)

// UnsupportedSchemeError lists the schemes a server offered when none of
// them could be selected.
type UnsupportedSchemeError struct {
	Offered []string
}

// Error implements the error interface.
func (e *UnsupportedSchemeError) Error() string {
	if len(e.Offered) == 0 {
		return "unsupported authentication scheme: no challenges offered"
	}
	return fmt.Sprintf("unsupported authentication scheme: offered %s", strings.Join(e.Offered, ", "))
}

// Is reports whether target is ErrUnsupportedScheme.
func (e *UnsupportedSchemeError) Is(target error) bool {
	return target == ErrUnsupportedScheme
}
