package ntlm

import (
	"bytes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/smnsjas/go-httpauth/internal/charset"
)

const (
	// Type 2 from a server, nonce "SrvNonce".
	shortChallenge = "TlRMTVNTUAACAAAAAAAAACgAAAABggAAU3J2Tm9uY2UAAAAAAAAAAA=="

	// Type 2 with target info, captured from a domain controller.
	longChallenge = "TlRMTVNTUAACAAAACgAKADAAAAAGgoEAPc4kP4LtCV8AAAAAAAAAAJ4AngA6AAAASU5UUkFFUEhPWAIAFABJAE4AVABSAEEARQBQAEgATwBYAAEAEgBCAE8AQQBSAEQAUgBPAE8ATQAEACgAaQBuAHQAcgBhAGUAcABoAG8AeAAuAGUAcABoAG8AeAAuAGMAbwBtAAMAPABCAG8AYQByAGQAcgBvAG8AbQAuAGkAbgB0AHIAYQBlAHAAaABvAHgALgBlAHAAaABvAHgALgBjAG8AbQAAAAAA"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// TestNegotiateMessage verifies the Type 1 layout against a captured message.
func TestNegotiateMessage(t *testing.T) {
	e := NewEngine()
	msg, err := e.NegotiateMessage("host", "domain")
	require.NoError(t, err)

	want := "TlRMTVNTUAABAAAABlIAAAYABgAkAAAABAAEACAAAABIT1NURE9NQUlO"
	assert.Equal(t, want, base64.StdEncoding.EncodeToString(msg))

	assert.Equal(t, Signature, msg[:8])
	assert.Equal(t, uint32(Negotiate), binary.LittleEndian.Uint32(msg[8:]))
	assert.Equal(t, []byte{0x06, 0x52, 0x00, 0x00}, msg[12:16])
}

// TestNegotiateMessage_Empty verifies empty host and domain produce a bare header.
func TestNegotiateMessage_Empty(t *testing.T) {
	msg, err := NewEngine().NegotiateMessage("", "")
	require.NoError(t, err)
	require.Len(t, msg, negotiateHeaderSize)
	assert.Equal(t, uint32(negotiateHeaderSize), binary.LittleEndian.Uint32(msg[20:]))
	assert.Equal(t, uint32(negotiateHeaderSize), binary.LittleEndian.Uint32(msg[28:]))
}

// TestDefaultFlags checks the flag word bit by bit, as MS-NLMP §2.2.2.5
// numbers them.
func TestDefaultFlags(t *testing.T) {
	bits := []struct {
		name string
		bit  uint
		set  bool
	}{
		{"unicode", 0, false},
		{"OEM", 1, true},
		{"request target", 2, true},
		{"NTLM", 9, true},
		{"domain supplied", 12, true},
		{"workstation supplied", 13, false},
		{"local call", 14, true},
		{"always sign", 15, false},
	}
	for _, b := range bits {
		assert.Equal(t, b.set, uint32(DefaultFlags)&(1<<b.bit) != 0, b.name)
	}
	assert.Equal(t, uint32(0x5206), uint32(DefaultFlags))
}

func TestParseChallengeMessage(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name  string
		blob  string
		nonce string
	}{
		{"short", shortChallenge, "5372764e6f6e6365"},
		{"with target info", longChallenge, "3dce243f82ed095f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nonce, err := e.ParseChallengeMessage(tt.blob)
			require.NoError(t, err)
			assert.Equal(t, tt.nonce, hex.EncodeToString(nonce[:]))
		})
	}
}

func TestParseChallengeMessage_Malformed(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name string
		blob string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"too short", base64.StdEncoding.EncodeToString(make([]byte, 31))},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ParseChallengeMessage(tt.blob)
			assert.ErrorIs(t, err, ErrMalformedChallenge)
		})
	}

	// Exactly 32 bytes is enough to carry a nonce.
	raw := make([]byte, 32)
	copy(raw[24:], "12345678")
	nonce, err := e.ParseChallengeMessage(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, "12345678", string(nonce[:]))
}

// TestParseChallengeMessage_Unpadded verifies padding is optional.
func TestParseChallengeMessage_Unpadded(t *testing.T) {
	e := NewEngine()

	raw := make([]byte, 32)
	copy(raw[24:], "SrvNonce")
	padded := base64.StdEncoding.EncodeToString(raw)
	unpadded := base64.RawStdEncoding.EncodeToString(raw)
	require.NotEqual(t, padded, unpadded)

	for _, blob := range []string{padded, unpadded} {
		nonce, err := e.ParseChallengeMessage(blob)
		require.NoError(t, err, blob)
		assert.Equal(t, "SrvNonce", string(nonce[:]), blob)
	}
}

// TestMessages_FieldTooLong verifies fields longer than a security buffer
// can describe are rejected instead of truncated.
func TestMessages_FieldTooLong(t *testing.T) {
	e := NewEngine()
	long := strings.Repeat("a", 1<<16)
	fits := strings.Repeat("a", 1<<16-1)

	_, err := e.NegotiateMessage(long, "domain")
	assert.ErrorIs(t, err, ErrFieldTooLong)
	_, err = e.NegotiateMessage("host", long)
	assert.ErrorIs(t, err, ErrFieldTooLong)

	msg, err := e.NegotiateMessage(fits, "")
	require.NoError(t, err)
	assert.Equal(t, uint16(1<<16-1), binary.LittleEndian.Uint16(msg[negotiateHostOffset:]))

	var nonce Nonce
	for _, tc := range []struct{ user, host, domain string }{
		{long, "host", "domain"},
		{"user", long, "domain"},
		{"user", "host", long},
	} {
		_, err := e.AuthenticateMessage(tc.user, "password", tc.host, tc.domain, nonce)
		assert.ErrorIs(t, err, ErrFieldTooLong)
	}
}

// TestAuthenticateMessage verifies complete Type 3 messages against captured output.
func TestAuthenticateMessage(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name      string
		challenge string
		want      string
	}{
		{
			name:      "short challenge",
			challenge: shortChallenge,
			want:      "TlRMTVNTUAADAAAAGAAYAFIAAAAAAAAAagAAAAYABgBAAAAACAAIAEYAAAAEAAQATgAAAAAAAABqAAAABlIAAERPTUFJTlVTRVJOQU1FSE9TVJxndWIt46bHm11TPrt5Z6wrz7ziq04yRA==",
		},
		{
			name:      "long challenge",
			challenge: longChallenge,
			want:      "TlRMTVNTUAADAAAAGAAYAFIAAAAAAAAAagAAAAYABgBAAAAACAAIAEYAAAAEAAQATgAAAAAAAABqAAAABlIAAERPTUFJTlVTRVJOQU1FSE9TVAaC+vLxUEHnUtpItj9Dp4kzwQfd61Lztg==",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nonce, err := e.ParseChallengeMessage(tt.challenge)
			require.NoError(t, err)

			msg, err := e.AuthenticateMessage("username", "password", "host", "domain", nonce)
			require.NoError(t, err)
			assert.Equal(t, tt.want, base64.StdEncoding.EncodeToString(msg))
		})
	}
}

// TestAuthenticateMessage_Layout decodes the security buffers of a Type 3 message.
func TestAuthenticateMessage_Layout(t *testing.T) {
	e := NewEngine()
	nonce, err := e.ParseChallengeMessage(shortChallenge)
	require.NoError(t, err)

	msg, err := e.AuthenticateMessage("user", "pw", "ws", "corp", nonce)
	require.NoError(t, err)

	field := func(at int) (length, offset int) {
		return int(binary.LittleEndian.Uint16(msg[at:])), int(binary.LittleEndian.Uint32(msg[at+4:]))
	}

	total := authHeaderSize + 4 + 4 + 2 + LMResponseSize
	require.Len(t, msg, total)
	assert.Equal(t, uint32(Authenticate), binary.LittleEndian.Uint32(msg[messageTypeOffset:]))
	assert.Equal(t, uint32(total), binary.LittleEndian.Uint32(msg[authLengthOffset:]))

	l, o := field(authLMResponseOffset)
	assert.Equal(t, LMResponseSize, l)
	assert.Equal(t, total-LMResponseSize, o)

	l, o = field(authNTResponseOffset)
	assert.Equal(t, 0, l)
	assert.Equal(t, total, o)

	l, o = field(authDomainOffset)
	assert.Equal(t, "CORP", string(msg[o:o+l]))
	l, o = field(authUserOffset)
	assert.Equal(t, "USER", string(msg[o:o+l]))
	l, o = field(authHostOffset)
	assert.Equal(t, "WS", string(msg[o:o+l]))
}

func TestAuthenticateMessage_UnencodableUser(t *testing.T) {
	e := NewEngine(WithCharset(charset.Latin1))
	_, err := e.AuthenticateMessage("用户", "password", "host", "domain", Nonce{})
	assert.ErrorIs(t, err, charset.ErrUnencodable)
}

// TestLMResponse verifies the MS-NLMP LMv1 test vector.
func TestLMResponse(t *testing.T) {
	e := NewEngine()
	var nonce Nonce
	copy(nonce[:], mustHex(t, "0123456789abcdef"))

	hash, err := e.lmHash("Password")
	require.NoError(t, err)
	assert.Equal(t, "e52cac67419a9a224a3b108f3fa6cb6d0000000000", hex.EncodeToString(hash[:]))

	resp, err := e.LMResponse("Password", nonce)
	require.NoError(t, err)
	assert.Equal(t, "98def7b87f88aa5dafe2df779688a172def11c7d5ccdef13", hex.EncodeToString(resp[:]))
}

// TestLMResponse_CaseInsensitive verifies the password is upper-cased first.
func TestLMResponse_CaseInsensitive(t *testing.T) {
	e := NewEngine()
	nonce := Nonce{1, 2, 3, 4, 5, 6, 7, 8}

	lower, err := e.LMResponse("password", nonce)
	require.NoError(t, err)
	upper, err := e.LMResponse("PASSWORD", nonce)
	require.NoError(t, err)
	assert.Equal(t, lower, upper)
}

// TestLMResponse_LongPassword verifies only the first 14 bytes count.
func TestLMResponse_LongPassword(t *testing.T) {
	e := NewEngine()
	nonce := Nonce{8, 7, 6, 5, 4, 3, 2, 1}

	a, err := e.LMResponse("ABCDEFGHIJKLMN", nonce)
	require.NoError(t, err)
	b, err := e.LMResponse("ABCDEFGHIJKLMNOPQRSTUVWXYZ", nonce)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExpandKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"00000000000000", "0000000000000000"},
		{"ffffffffffffff", "fefefefefefefefe"},
		{"0123456789abcd", "0090d0ac784cae9a"},
		{"50415353574f52", "5020546a34ba3ca4"},
		{"44000000000000", "4400000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := expandKey(mustHex(t, tt.in))
			assert.Equal(t, tt.want, hex.EncodeToString(got))
			for i, b := range got {
				assert.Zero(t, b&1, "byte %d has low bit set", i)
			}
		})
	}
}

func TestEngine_CipherErrors(t *testing.T) {
	boom := errors.New("boom")

	e := NewEngine(WithCipher(func([]byte) (cipher.Block, error) { return nil, boom }))
	_, err := e.LMResponse("password", Nonce{})
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, err, boom)

	e = NewEngine(WithCipher(nil))
	_, err = e.LMResponse("password", Nonce{})
	assert.ErrorIs(t, err, ErrCryptoUnavailable)

	_, err = e.AuthenticateMessage("user", "password", "host", "domain", Nonce{})
	assert.ErrorIs(t, err, ErrCryptoUnavailable)
}

func TestWithCharset(t *testing.T) {
	e := NewEngine(WithCharset(charset.Latin1))
	assert.Equal(t, charset.Latin1, e.Charset())

	// nil keeps the default.
	e = NewEngine(WithCharset(nil))
	assert.Equal(t, charset.ASCII, e.Charset())
}

// TestLMResponse_NonceSensitivity verifies flipping any nonce bit changes the response.
func TestLMResponse_NonceSensitivity(t *testing.T) {
	e := NewEngine()
	var nonce Nonce
	copy(nonce[:], mustHex(t, "0123456789abcdef"))

	base, err := e.LMResponse("Password", nonce)
	require.NoError(t, err)

	for bit := 0; bit < NonceSize*8; bit++ {
		flipped := nonce
		flipped[bit/8] ^= 1 << (bit % 8)
		got, err := e.LMResponse("Password", flipped)
		require.NoError(t, err)
		assert.NotEqual(t, base, got, "bit %d", bit)
	}
}

// TestEngine_Concurrent verifies one Engine can serve parallel handshakes.
func TestEngine_Concurrent(t *testing.T) {
	e := NewEngine()
	nonce, err := e.ParseChallengeMessage(shortChallenge)
	require.NoError(t, err)
	want, err := e.AuthenticateMessage("username", "password", "host", "domain", nonce)
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			for j := 0; j < 50; j++ {
				got, err := e.AuthenticateMessage("username", "password", "host", "domain", nonce)
				if err != nil {
					return err
				}
				if !bytes.Equal(got, want) {
					return fmt.Errorf("message mismatch on iteration %d", j)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
