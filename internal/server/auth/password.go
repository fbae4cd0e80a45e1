package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"

	"github.com/dmitrijs2005/placementtracker/internal/common"
)

// PasswordHasher turns plaintext passwords into storable hashes and checks
// candidates against them.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, encoded string) bool
	NeedsRehash(encoded string) bool
}

// Prefixes of hashes imported from the previous deployment.
const (
	legacyPBKDF2SHA256 = "pbkdf2_sha256"
	legacyBcryptSHA256 = "bcrypt_sha256"
	legacyBcrypt       = "bcrypt"
)

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// BcryptHasher hashes with bcrypt at Cost and verifies bcrypt plus the
// legacy pbkdf2_sha256, bcrypt_sha256 and bcrypt$ encodings.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > common.MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plaintext matches encoded. Malformed or unknown
// encodings never match.
func (h *BcryptHasher) Verify(plaintext, encoded string) bool {
	if encoded == "" {
		return false
	}
	if isBcrypt(encoded) {
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plaintext)) == nil
	}

	algo, rest, ok := strings.Cut(encoded, "$")
	if !ok {
		return false
	}
	switch algo {
	case legacyPBKDF2SHA256:
		return verifyPBKDF2(plaintext, rest)
	case legacyBcryptSHA256:
		sum := sha256.Sum256([]byte(plaintext))
		digest := hex.EncodeToString(sum[:])
		return bcrypt.CompareHashAndPassword([]byte(rest), []byte(digest)) == nil
	case legacyBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(rest), []byte(plaintext)) == nil
	}
	return false
}

// NeedsRehash is true for legacy encodings and for bcrypt hashes cheaper
// than the configured cost.
func (h *BcryptHasher) NeedsRehash(encoded string) bool {
	if !isBcrypt(encoded) {
		return true
	}
	cost, err := bcrypt.Cost([]byte(encoded))
	if err != nil {
		return true
	}
	return cost < h.Cost
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2")
}

// verifyPBKDF2 checks "<iterations>$<salt>$<base64 digest>".
func verifyPBKDF2(plaintext, rest string) bool {
	parts := strings.SplitN(rest, "$", 3)
	if len(parts) != 3 {
		return false
	}
	iter, err := strconv.Atoi(parts[0])
	if err != nil || iter <= 0 {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(plaintext), []byte(parts[1]), iter, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
