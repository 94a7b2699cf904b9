// Package token generates invitation secrets and the lookup hashes stored in their place.
package token

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	dErrors "familyshare/pkg/domain-errors"
)

var inviteCodeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Generator is the random source used by the group service.
type Generator interface {
	RandomToken(byteLength int) (string, error)
	InviteCode(byteLength int) (string, error)
}

// CryptoGenerator draws from crypto/rand.
type CryptoGenerator struct{}

// RandomToken returns byteLength random bytes, base64url encoded.
func (CryptoGenerator) RandomToken(byteLength int) (string, error) {
	buf, err := randomBytes(byteLength)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// InviteCode returns byteLength random bytes as an upper-case base32 string, safe to read
// aloud or print.
func (CryptoGenerator) InviteCode(byteLength int) (string, error) {
	buf, err := randomBytes(byteLength)
	if err != nil {
		return "", err
	}
	return inviteCodeEncoding.EncodeToString(buf), nil
}

func randomBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "token length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("could not generate token: %w", err)
	}
	return buf, nil
}

// Hash returns the hex BLAKE2b-256 digest of a token. Stores index invitations by this
// value so a leaked table does not expose redeemable tokens.
func Hash(token string) string {
	sum := blake2b.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}
