package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPKCE_GenerateCodeVerifier(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{
			name:    "valid length - 43",
			length:  43,
			wantErr: false,
		},
		{
			name:    "valid length - 64",
			length:  64,
			wantErr: false,
		},
		{
			name:    "valid length - 128",
			length:  128,
			wantErr: false,
		},
		{
			name:    "invalid length - too short",
			length:  42,
			wantErr: true,
		},
		{
			name:    "invalid length - too long",
			length:  129,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkce := NewPKCEGenerator()
			verifier, err := pkce.GenerateCodeVerifier(tt.length)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, verifier)
				return
			}

			assert.NoError(t, err)
			assert.Len(t, verifier, tt.length)
			assert.Regexp(t, "^[A-Za-z0-9._~-]+$", verifier)
		})
	}
}

func TestPKCE_VerifiersAreUnique(t *testing.T) {
	pkce := NewPKCEGenerator()
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		verifier, err := pkce.GenerateCodeVerifier(64)
		require.NoError(t, err)
		assert.False(t, seen[verifier], "verifier repeated: %s", verifier)
		seen[verifier] = true
	}
}

func TestPKCE_GenerateCodeChallenge(t *testing.T) {
	tests := []struct {
		name     string
		verifier string
		want     string
		wantErr  bool
	}{
		{
			// RFC 7636 appendix B vector.
			name:     "known vector",
			verifier: "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk",
			want:     "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
			wantErr:  false,
		},
		{
			name:     "empty verifier",
			verifier: "",
			want:     "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkce := NewPKCEGenerator()
			challenge, err := pkce.GenerateCodeChallenge(tt.verifier)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, challenge)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, challenge)
			assert.NotContains(t, challenge, "=")
			assert.NotContains(t, challenge, "+")
			assert.NotContains(t, challenge, "/")
		})
	}
}

func TestPKCE_ChallengeIsDeterministic(t *testing.T) {
	pkce := NewPKCEGenerator()

	first, err := pkce.GenerateCodeChallenge("some-verifier-value-that-is-long-enough-to-use")
	require.NoError(t, err)
	second, err := pkce.GenerateCodeChallenge("some-verifier-value-that-is-long-enough-to-use")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := pkce.GenerateCodeChallenge("a-different-verifier-value-long-enough-to-use!")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestPKCE_ValidateChallenge(t *testing.T) {
	pkce := NewPKCEGenerator()
	verifier, err := pkce.GenerateCodeVerifier(43)
	require.NoError(t, err)

	challenge, err := pkce.GenerateCodeChallenge(verifier)
	require.NoError(t, err)

	tests := []struct {
		name      string
		challenge string
		verifier  string
		want      bool
	}{
		{
			name:      "valid pair",
			challenge: challenge,
			verifier:  verifier,
			want:      true,
		},
		{
			name:      "invalid verifier",
			challenge: challenge,
			verifier:  "wrong-verifier",
			want:      false,
		},
		{
			name:      "empty verifier",
			challenge: challenge,
			verifier:  "",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pkce.ValidateChallenge(tt.challenge, tt.verifier))
		})
	}
}
