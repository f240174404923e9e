package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// tokenSecretLen is the number of random bytes in a token secret.
const tokenSecretLen = 32

// Token is a freshly issued single-use token. Raw is the value embedded in
// the emailed URL; only Hash is ever stored.
type Token struct {
	ID   string
	Raw  string
	Hash string
}

// NewToken generates a single-use token: a uuid identifier plus a random
// secret, joined as "id.secret". The stored hash covers the secret only.
func NewToken() (Token, error) {
	secret := make([]byte, tokenSecretLen)
	if _, err := rand.Read(secret); err != nil {
		return Token{}, fmt.Errorf("generating token secret: %w", err)
	}

	id := uuid.NewString()
	encoded := base64.RawURLEncoding.EncodeToString(secret)

	return Token{
		ID:   id,
		Raw:  id + "." + encoded,
		Hash: HashTokenSecret(encoded),
	}, nil
}

// SplitToken separates a raw token into its id and secret parts.
func SplitToken(raw string) (id, secret string, err error) {
	id, secret, ok := strings.Cut(raw, ".")
	if !ok || id == "" || secret == "" {
		return "", "", fmt.Errorf("malformed token")
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", "", fmt.Errorf("malformed token id")
	}
	return id, secret, nil
}

// HashTokenSecret returns the hex SHA-256 of a token secret.
func HashTokenSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifyTokenSecret compares a presented secret against a stored hash in
// constant time.
func VerifyTokenSecret(secret, storedHash string) bool {
	computed := HashTokenSecret(secret)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
