package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smnsjas/go-httpauth/ntlm"
)

const (
	testType1 = "NTLM TlRMTVNTUAABAAAABlIAAAYABgAkAAAABAAEACAAAABIT1NURE9NQUlO"

	testType2 = "NTLM TlRMTVNTUAACAAAAAAAAACgAAAABggAAU3J2Tm9uY2UAAAAAAAAAAA=="

	testType3 = "NTLM TlRMTVNTUAADAAAAGAAYAFIAAAAAAAAAagAAAAYABgBAAAAACAAIAEYAAAAEAAQATgAAAAAAAABqAAAABlIAAERPTUFJTlVTRVJOQU1FSE9TVJxndWIt46bHm11TPrt5Z6wrz7ziq04yRA=="
)

func testNTCreds() NTCredentials {
	return NewNTCredentials("username", "password", "host", "domain")
}

// TestNTLMState_Transitions verifies the pure transition functions.
func TestNTLMState_Transitions(t *testing.T) {
	all := []NTLMState{
		StateUninitiated, StateInitiated, StateType1Generated,
		StateType2Received, StateType3Generated, StateFailed,
	}

	for _, s := range all {
		assert.Equal(t, StateType2Received, s.OnChallenge(true), "payload from %s", s)

		want := StateFailed
		if s == StateUninitiated {
			want = StateInitiated
		}
		assert.Equal(t, want, s.OnChallenge(false), "empty challenge from %s", s)
	}

	tests := []struct {
		from    NTLMState
		to      NTLMState
		msg     ntlm.MessageType
		wantErr bool
	}{
		{StateUninitiated, StateUninitiated, 0, true},
		{StateInitiated, StateType1Generated, ntlm.Negotiate, false},
		{StateType1Generated, StateType1Generated, 0, true},
		{StateType2Received, StateType3Generated, ntlm.Authenticate, false},
		{StateType3Generated, StateType3Generated, ntlm.Authenticate, false},
		{StateFailed, StateType1Generated, ntlm.Negotiate, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String(), func(t *testing.T) {
			to, msg, err := tt.from.OnAuthenticate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIllegalState)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.to, to)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestNTLMState_String(t *testing.T) {
	assert.Equal(t, "uninitiated", StateUninitiated.String())
	assert.Equal(t, "type2-received", StateType2Received.String())
	assert.Equal(t, "NTLMState(42)", NTLMState(42).String())
}

// TestNTLMScheme_Handshake walks a full Type 1 / Type 2 / Type 3 exchange.
func TestNTLMScheme_Handshake(t *testing.T) {
	s := NewNTLMScheme()
	creds := testNTCreds()

	assert.Equal(t, StateUninitiated, s.State())
	assert.False(t, s.Complete())

	require.NoError(t, s.ProcessChallenge("NTLM"))
	assert.Equal(t, StateInitiated, s.State())

	type1, err := s.Authenticate(creds)
	require.NoError(t, err)
	assert.Equal(t, testType1, type1)
	assert.Equal(t, StateType1Generated, s.State())
	assert.False(t, s.Complete())

	require.NoError(t, s.ProcessChallenge(testType2))
	assert.Equal(t, StateType2Received, s.State())

	type3, err := s.Authenticate(&creds)
	require.NoError(t, err)
	assert.Equal(t, testType3, type3)
	assert.Equal(t, StateType3Generated, s.State())
	assert.True(t, s.Complete())
}

// TestNTLMScheme_RepeatedEmptyChallenge verifies a second bare challenge
// fails the handshake, after which a Type 1 can be sent again.
func TestNTLMScheme_RepeatedEmptyChallenge(t *testing.T) {
	s := NewNTLMScheme()
	require.NoError(t, s.ProcessChallenge("NTLM"))
	require.NoError(t, s.ProcessChallenge("NTLM"))
	assert.Equal(t, StateFailed, s.State())
	assert.True(t, s.Complete())

	value, err := s.Authenticate(testNTCreds())
	require.NoError(t, err)
	assert.Equal(t, testType1, value)
	assert.False(t, s.Complete())
}

// TestNTLMScheme_ResendType3 verifies a retry after the Type 3 gets the
// same answer and the handshake stays complete.
func TestNTLMScheme_ResendType3(t *testing.T) {
	s := NewNTLMScheme()
	require.NoError(t, s.ProcessChallenge(testType2))

	first, err := s.Authenticate(testNTCreds())
	require.NoError(t, err)
	assert.Equal(t, testType3, first)

	again, err := s.Authenticate(testNTCreds())
	require.NoError(t, err)
	assert.Equal(t, testType3, again)
	assert.Equal(t, StateType3Generated, s.State())
	assert.True(t, s.Complete())
}

func TestNTLMScheme_TrailingSpaceIsEmpty(t *testing.T) {
	s := NewNTLMScheme()
	require.NoError(t, s.ProcessChallenge("NTLM   "))
	assert.Equal(t, StateInitiated, s.State())
}

func TestNTLMScheme_Type2FromAnyState(t *testing.T) {
	s := NewNTLMScheme()
	require.NoError(t, s.ProcessChallenge(testType2))
	assert.Equal(t, StateType2Received, s.State())

	value, err := s.Authenticate(testNTCreds())
	require.NoError(t, err)
	assert.Equal(t, testType3, value)
}

func TestNTLMScheme_AuthenticateErrors(t *testing.T) {
	t.Run("uninitiated", func(t *testing.T) {
		_, err := NewNTLMScheme().Authenticate(testNTCreds())
		assert.ErrorIs(t, err, ErrIllegalState)
	})

	t.Run("wrong credential type", func(t *testing.T) {
		s := NewNTLMScheme()
		require.NoError(t, s.ProcessChallenge("NTLM"))
		_, err := s.Authenticate(UsernamePasswordCredentials{Username: "u", Password: "p"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, StateInitiated, s.State())
	})

	t.Run("type1 already generated", func(t *testing.T) {
		s := NewNTLMScheme()
		require.NoError(t, s.ProcessChallenge("NTLM"))
		_, err := s.Authenticate(testNTCreds())
		require.NoError(t, err)

		_, err = s.Authenticate(testNTCreds())
		assert.ErrorIs(t, err, ErrIllegalState)
		assert.Equal(t, StateType1Generated, s.State())
	})

	t.Run("oversized host", func(t *testing.T) {
		s := NewNTLMScheme()
		require.NoError(t, s.ProcessChallenge("NTLM"))
		_, err := s.Authenticate(NewNTCredentials("username", "password", strings.Repeat("h", 1<<16), "domain"))
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
		assert.ErrorIs(t, err, ntlm.ErrFieldTooLong)
		assert.Equal(t, StateInitiated, s.State())
	})

	t.Run("short type2", func(t *testing.T) {
		s := NewNTLMScheme()
		require.NoError(t, s.ProcessChallenge("NTLM AAAA"))
		_, err := s.Authenticate(testNTCreds())
		assert.ErrorIs(t, err, ErrMalformedChallenge)
		assert.ErrorIs(t, err, ntlm.ErrMalformedChallenge)
		assert.Equal(t, StateType2Received, s.State())
	})

	t.Run("unencodable user", func(t *testing.T) {
		s := NewNTLMScheme()
		require.NoError(t, s.ProcessChallenge(testType2))
		_, err := s.Authenticate(NewNTCredentials("用户", "password", "host", "domain"))
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
		assert.Equal(t, StateType2Received, s.State())
	})
}

func TestNTLMScheme_ProcessChallenge_Malformed(t *testing.T) {
	s := NewNTLMScheme()
	assert.ErrorIs(t, s.ProcessChallenge(`Basic realm="x"`), ErrMalformedChallenge)
	assert.ErrorIs(t, s.ProcessChallenge(""), ErrMalformedChallenge)
	assert.Equal(t, StateUninitiated, s.State())
}

func TestNTLMScheme_Properties(t *testing.T) {
	s := NewNTLMScheme()
	assert.Equal(t, NTLMName, s.Name())
	assert.Equal(t, "", s.Realm())
	assert.True(t, s.ConnectionBased())

	_, ok := s.Parameter("realm")
	assert.False(t, ok)
}
