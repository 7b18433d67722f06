// Package ntlm builds and parses the NTLM messages exchanged by an HTTP client.
//
// Only the legacy LM challenge response is produced. The Type 3 message
// carries a 24 byte LM response and an empty NT response, which is what
// older HTTP clients sent and what servers accepting LM-compatible logons
// still verify.
//
// All multi-byte integers are little-endian. Text fields are upper-cased
// and encoded with a single-byte character set, US-ASCII unless the Engine
// is configured otherwise.
package ntlm

import (
	"crypto/cipher"
	"crypto/des"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/smnsjas/go-httpauth/internal/charset"
)

// =============================================================================
// Message Types and Flags
// =============================================================================

// MessageType identifies the three messages in the NTLM handshake.
type MessageType uint32

const (
	// Negotiate (Type 1) is sent by the client to announce itself.
	Negotiate MessageType = 1

	// Challenge (Type 2) is sent by the server and carries the nonce.
	Challenge MessageType = 2

	// Authenticate (Type 3) is sent by the client with the LM response.
	Authenticate MessageType = 3
)

// NegotiateFlag is a bit in the NegotiateFlags field.
type NegotiateFlag uint32

const (
	// FlagOEM selects OEM (single-byte) string encoding.
	FlagOEM NegotiateFlag = 0x00000002

	// FlagRequestTarget asks the server to return its realm.
	FlagRequestTarget NegotiateFlag = 0x00000004

	// FlagNTLM requests NTLM v1 session security.
	FlagNTLM NegotiateFlag = 0x00000200

	// FlagDomainSupplied marks that the domain field is populated.
	FlagDomainSupplied NegotiateFlag = 0x00001000

	// FlagLocalCall is the historical local-call bit.
	FlagLocalCall NegotiateFlag = 0x00004000
)

// DefaultFlags is sent in both Type 1 and Type 3 messages (06 52 00 00 on the wire).
const DefaultFlags = FlagOEM | FlagRequestTarget | FlagNTLM | FlagDomainSupplied | FlagLocalCall

// Signature prefixes every NTLM message.
var Signature = []byte{'N', 'T', 'L', 'M', 'S', 'S', 'P', 0}

// =============================================================================
// Message Layout
// =============================================================================

const (
	messageTypeOffset = 8
	flagsOffset       = 12
)

// Type 1 (NEGOTIATE) layout.
const (
	negotiateDomainOffset = 16 // len, max len, buffer offset
	negotiateHostOffset   = 24 // len, max len, buffer offset
	negotiateHeaderSize   = 32
)

// Type 2 (CHALLENGE) layout. Only the nonce is read.
const (
	challengeNonceOffset = 24
	challengeMinSize     = challengeNonceOffset + NonceSize
)

// Type 3 (AUTHENTICATE) layout.
const (
	authLMResponseOffset = 12
	authNTResponseOffset = 20
	authDomainOffset     = 28
	authUserOffset       = 36
	authHostOffset       = 44
	authLengthOffset     = 56 // total message length
	authFlagsOffset      = 60
	authHeaderSize       = 64
)

const (
	// NonceSize is the length of the server challenge.
	NonceSize = 8

	// LMResponseSize is the length of the LM challenge response.
	LMResponseSize = 24
)

// lmMagic is the constant DES-encrypted with each half of the password.
var lmMagic = []byte("KGS!@#$%")

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrMalformedChallenge is returned when a Type 2 message cannot be decoded.
	ErrMalformedChallenge = errors.New("ntlm: malformed challenge message")

	// ErrCryptoUnavailable is returned when no usable DES cipher could be created.
	ErrCryptoUnavailable = errors.New("ntlm: DES cipher unavailable")

	// ErrInvalidKey is returned when the cipher rejects a derived key.
	ErrInvalidKey = errors.New("ntlm: invalid DES key")

	// ErrFieldTooLong is returned when a user, host or domain does not fit
	// a 16-bit security buffer length.
	ErrFieldTooLong = errors.New("ntlm: message field too long")
)

// =============================================================================
// Engine
// =============================================================================

// Nonce is the 8 byte server challenge carried in a Type 2 message.
type Nonce [NonceSize]byte

// CipherFunc creates a block cipher from an 8 byte key.
type CipherFunc func(key []byte) (cipher.Block, error)

// Engine produces NTLM messages. An Engine holds no per-handshake state
// and is safe for concurrent use.
type Engine struct {
	charset   encoding.Encoding
	newCipher CipherFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithCharset sets the encoding used for the user name and password.
// Host and domain always use US-ASCII.
func WithCharset(enc encoding.Encoding) Option {
	return func(e *Engine) {
		if enc != nil {
			e.charset = enc
		}
	}
}

// WithCipher replaces the DES implementation.
func WithCipher(fn CipherFunc) Option {
	return func(e *Engine) {
		e.newCipher = fn
	}
}

// NewEngine returns an Engine using US-ASCII and crypto/des by default.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		charset:   charset.ASCII,
		newCipher: des.NewCipher,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Charset returns the encoding used for credentials.
func (e *Engine) Charset() encoding.Encoding {
	return e.charset
}

// NegotiateMessage builds a Type 1 message announcing host and domain.
func (e *Engine) NegotiateMessage(host, domain string) ([]byte, error) {
	hostBytes := upperASCII(host)
	domainBytes := upperASCII(domain)
	if err := checkFields(field{"host", hostBytes}, field{"domain", domainBytes}); err != nil {
		return nil, err
	}

	msg := make([]byte, negotiateHeaderSize, negotiateHeaderSize+len(hostBytes)+len(domainBytes))
	copy(msg, Signature)
	binary.LittleEndian.PutUint32(msg[messageTypeOffset:], uint32(Negotiate))
	binary.LittleEndian.PutUint32(msg[flagsOffset:], uint32(DefaultFlags))
	putField(msg[negotiateDomainOffset:], len(domainBytes), negotiateHeaderSize+len(hostBytes))
	putField(msg[negotiateHostOffset:], len(hostBytes), negotiateHeaderSize)

	msg = append(msg, hostBytes...)
	msg = append(msg, domainBytes...)
	return msg, nil
}

// ParseChallengeMessage decodes a base64 Type 2 message and returns its nonce.
// Padding is optional.
func (e *Engine) ParseChallengeMessage(blob string) (Nonce, error) {
	var nonce Nonce
	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(blob, "="))
	if err != nil {
		return nonce, fmt.Errorf("%w: %w", ErrMalformedChallenge, err)
	}
	if len(raw) < challengeMinSize {
		return nonce, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedChallenge, len(raw), challengeMinSize)
	}
	copy(nonce[:], raw[challengeNonceOffset:challengeMinSize])
	return nonce, nil
}

// AuthenticateMessage builds a Type 3 message answering nonce.
func (e *Engine) AuthenticateMessage(user, password, host, domain string, nonce Nonce) ([]byte, error) {
	userBytes, err := charset.Encode(e.charset, strings.ToUpper(user))
	if err != nil {
		return nil, fmt.Errorf("encode user name: %w", err)
	}
	lm, err := e.LMResponse(password, nonce)
	if err != nil {
		return nil, err
	}
	hostBytes := upperASCII(host)
	domainBytes := upperASCII(domain)
	if err := checkFields(field{"domain", domainBytes}, field{"user", userBytes}, field{"host", hostBytes}); err != nil {
		return nil, err
	}

	total := authHeaderSize + len(domainBytes) + len(userBytes) + len(hostBytes) + LMResponseSize
	domainAt := authHeaderSize
	userAt := domainAt + len(domainBytes)
	hostAt := userAt + len(userBytes)

	msg := make([]byte, authHeaderSize, total)
	copy(msg, Signature)
	binary.LittleEndian.PutUint32(msg[messageTypeOffset:], uint32(Authenticate))
	putField(msg[authLMResponseOffset:], LMResponseSize, total-LMResponseSize)
	putField(msg[authNTResponseOffset:], 0, total)
	putField(msg[authDomainOffset:], len(domainBytes), domainAt)
	putField(msg[authUserOffset:], len(userBytes), userAt)
	putField(msg[authHostOffset:], len(hostBytes), hostAt)
	binary.LittleEndian.PutUint32(msg[authLengthOffset:], uint32(total))
	binary.LittleEndian.PutUint32(msg[authFlagsOffset:], uint32(DefaultFlags))

	msg = append(msg, domainBytes...)
	msg = append(msg, userBytes...)
	msg = append(msg, hostBytes...)
	msg = append(msg, lm[:]...)
	return msg, nil
}

type field struct {
	name string
	data []byte
}

func checkFields(fields ...field) error {
	for _, f := range fields {
		if len(f.data) > math.MaxUint16 {
			return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFieldTooLong, f.name, len(f.data), math.MaxUint16)
		}
	}
	return nil
}

// putField writes a security buffer descriptor: length twice as uint16,
// then the payload offset as uint32. Lengths must pass checkFields.
func putField(b []byte, length, offset int) {
	binary.LittleEndian.PutUint16(b[0:], uint16(length))
	binary.LittleEndian.PutUint16(b[2:], uint16(length))
	binary.LittleEndian.PutUint32(b[4:], uint32(offset))
}

func upperASCII(s string) []byte {
	return charset.EncodeLenient(charset.ASCII, strings.ToUpper(s))
}
