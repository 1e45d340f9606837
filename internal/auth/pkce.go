package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// verifierCharset is the RFC 7636 unreserved character set for code verifiers.
const verifierCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

const (
	minVerifierLength = 43
	maxVerifierLength = 128
)

// PKCEGenerator produces code verifiers and their derived S256 challenges.
type PKCEGenerator struct{}

// NewPKCEGenerator creates a new PKCEGenerator.
func NewPKCEGenerator() *PKCEGenerator {
	return &PKCEGenerator{}
}

// GenerateCodeVerifier creates a fresh cryptographically random verifier of
// the requested length. Length is bounded to the RFC 7636 range.
func (g *PKCEGenerator) GenerateCodeVerifier(length int) (string, error) {
	if length < minVerifierLength || length > maxVerifierLength {
		return "", fmt.Errorf("verifier length must be between %d and %d, got %d",
			minVerifierLength, maxVerifierLength, length)
	}

	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	verifier := make([]byte, length)
	for i, b := range raw {
		verifier[i] = verifierCharset[int(b)%len(verifierCharset)]
	}
	return string(verifier), nil
}

// GenerateCodeChallenge derives the S256 challenge for a verifier: SHA-256 of
// the verifier bytes, base64url-encoded without padding. Pure and
// deterministic.
func (g *PKCEGenerator) GenerateCodeChallenge(verifier string) (string, error) {
	if verifier == "" {
		return "", fmt.Errorf("verifier cannot be empty")
	}
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

// ValidateChallenge reports whether a presented challenge matches the one
// derived from the verifier, in constant time.
func (g *PKCEGenerator) ValidateChallenge(challenge, verifier string) bool {
	derived, err := g.GenerateCodeChallenge(verifier)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(derived), []byte(challenge)) == 1
}
