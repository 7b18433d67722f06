package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Azure/go-ntlmssp"
)

// Credential kinds reported by Credentials.Kind.
const (
	KindUsernamePassword = "username-password"
	KindNT               = "nt"
)

const redacted = "[REDACTED]"

// Credentials is a credential value handed to Scheme.Authenticate.
// Schemes type-switch on the concrete value.
type Credentials interface {
	// Kind names the credential variant.
	Kind() string

	// Validate checks that required fields are populated.
	Validate() error
}

// UsernamePasswordCredentials holds a user name and password.
type UsernamePasswordCredentials struct {
	// Username is the user name for authentication.
	Username string

	// Password is the password for authentication.
	Password string
}

// Kind implements Credentials.
func (c UsernamePasswordCredentials) Kind() string { return KindUsernamePassword }

// Validate checks that the username is populated. An empty password is allowed.
func (c UsernamePasswordCredentials) Validate() error {
	if c.Username == "" {
		return errors.New("username is required")
	}
	return nil
}

// String returns the username with the password masked.
func (c UsernamePasswordCredentials) String() string {
	return c.Username + ":" + redacted
}

// LogValue implements slog.LogValuer so the password never reaches a log.
func (c UsernamePasswordCredentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", c.Username),
		slog.String("password", redacted),
	)
}

// NTCredentials adds the workstation host and domain that NTLM sends.
// NTCredentials are also username/password credentials and are accepted
// by Basic.
type NTCredentials struct {
	UsernamePasswordCredentials

	// Host is the workstation name sent in NTLM messages.
	Host string

	// Domain is the NT domain of the user.
	Domain string
}

// NewNTCredentials builds NT credentials.
func NewNTCredentials(username, password, host, domain string) NTCredentials {
	return NTCredentials{
		UsernamePasswordCredentials: UsernamePasswordCredentials{
			Username: username,
			Password: password,
		},
		Host:   host,
		Domain: domain,
	}
}

// ParseNTCredentials splits a DOMAIN\user login into NT credentials. A
// user@realm login is kept whole with an empty domain.
func ParseNTCredentials(login, password, host string) NTCredentials {
	user, domain, _ := ntlmssp.GetDomain(login)
	return NewNTCredentials(user, password, host, domain)
}

// Kind implements Credentials.
func (c NTCredentials) Kind() string { return KindNT }

// Validate checks the username and rejects NUL bytes in host or domain.
func (c NTCredentials) Validate() error {
	if err := c.UsernamePasswordCredentials.Validate(); err != nil {
		return err
	}
	if strings.ContainsRune(c.Host, 0) {
		return errors.New("host must not contain NUL")
	}
	if strings.ContainsRune(c.Domain, 0) {
		return errors.New("domain must not contain NUL")
	}
	return nil
}

// String returns DOMAIN\user@host with the password masked.
func (c NTCredentials) String() string {
	return fmt.Sprintf("%s\\%s@%s:%s", c.Domain, c.Username, c.Host, redacted)
}

// LogValue implements slog.LogValuer so the password never reaches a log.
func (c NTCredentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", c.Username),
		slog.String("password", redacted),
		slog.String("host", c.Host),
		slog.String("domain", c.Domain),
	)
}

// usernamePassword extracts the user name and password from any
// username/password credential, NT credentials included.
func usernamePassword(creds Credentials) (UsernamePasswordCredentials, error) {
	switch c := creds.(type) {
	case UsernamePasswordCredentials:
		return c, nil
	case *UsernamePasswordCredentials:
		if c != nil {
			return *c, nil
		}
	case NTCredentials:
		return c.UsernamePasswordCredentials, nil
	case *NTCredentials:
		if c != nil {
			return c.UsernamePasswordCredentials, nil
		}
	}
	return UsernamePasswordCredentials{}, fmt.Errorf("%w: username/password credentials required, got %T", ErrInvalidCredentials, creds)
}

func ntCredentials(creds Credentials) (NTCredentials, error) {
	switch c := creds.(type) {
	case NTCredentials:
		return c, nil
	case *NTCredentials:
		if c != nil {
			return *c, nil
		}
	}
	return NTCredentials{}, fmt.Errorf("%w: NT credentials required, got %T", ErrInvalidCredentials, creds)
}
