// Package auth implements HTTP Basic credential parsing and matching against
// the configured account list.
package auth

import (
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"quickserve/internal/errs"
)

// HashMethod selects how an account's password is stored and compared.
type HashMethod int

const (
	// Plain stores the password verbatim.
	Plain HashMethod = iota
	// Sha256 stores a 32-byte SHA-256 digest of the password.
	Sha256
	// Sha512 stores a 64-byte SHA-512 digest of the password.
	Sha512
	// Bcrypt stores a bcrypt hash of the password.
	Bcrypt
)

// PasswordSpec is the tagged password variant of an account. Exactly one of
// Plain/Hash/BcryptHash is meaningful, selected by Method.
type PasswordSpec struct {
	Method     HashMethod
	Plain      string
	Hash       []byte
	BcryptHash []byte
}

// Account is one configured username/password pair. Accounts are built once
// at startup and shared read-only across all request handlers.
type Account struct {
	Username string
	Password PasswordSpec
}

// Credentials is a username/password pair parsed from an Authorization
// header. Parsed fresh per request and discarded after the comparison.
type Credentials struct {
	Username string
	Password string
}

// Decision is the per-request authorization outcome.
type Decision int

const (
	// NoAuthRequired: no accounts are configured, auth is opt-in.
	NoAuthRequired Decision = iota
	// Authorized: the supplied credentials matched an account.
	Authorized
	// Rejected: the header was missing, malformed, or matched no account.
	// The accompanying error says which.
	Rejected
)

// ParseBasicHeader decodes an Authorization header value into credentials.
// The value must start with the literal "Basic " prefix; the remainder is
// base64, decoded lossily to UTF-8 and split on the first ':'.
func ParseBasicHeader(header string) (Credentials, *errs.Error) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return Credentials{}, errs.Parse("HTTP authentication header", "missing 'Basic' prefix")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(strings.TrimPrefix(header, prefix)))
	if err != nil {
		return Credentials{}, errs.Parse("HTTP authentication header", err.Error())
	}
	decoded := lossyUTF8(raw)
	i := strings.IndexByte(decoded, ':')
	if i < 0 {
		return Credentials{}, errs.Parse("HTTP authentication header", "expected username:password")
	}
	return Credentials{Username: decoded[:i], Password: decoded[i+1:]}, nil
}

// lossyUTF8 replaces invalid byte sequences with the replacement rune
// instead of failing the whole decode.
func lossyUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}

// MatchAuth reports whether the attempt matches any configured account.
// Accounts sharing a username are all tried; the first full match wins.
func MatchAuth(attempt Credentials, accounts []Account) bool {
	for _, account := range accounts {
		if account.Username == attempt.Username && comparePassword(attempt.Password, account.Password) {
			return true
		}
	}
	return false
}

func comparePassword(password string, spec PasswordSpec) bool {
	switch spec.Method {
	case Plain:
		return password == spec.Plain
	case Sha256:
		return compareHash(HashSha256(password), spec.Hash)
	case Sha512:
		return compareHash(HashSha512(password), spec.Hash)
	case Bcrypt:
		return bcrypt.CompareHashAndPassword(spec.BcryptHash, []byte(password)) == nil
	default:
		return false
	}
}

// compareHash is an exact-length byte comparison, never lexicographic.
func compareHash(got, want []byte) bool {
	return len(got) == len(want) && bytes.Equal(got, want)
}

// HashSha256 returns the SHA-256 digest of text.
func HashSha256(text string) []byte {
	sum := sha256.Sum256([]byte(text))
	return sum[:]
}

// HashSha512 returns the SHA-512 digest of text.
func HashSha512(text string) []byte {
	sum := sha512.Sum512([]byte(text))
	return sum[:]
}

// Authorize produces the per-request decision. A nil error accompanies
// NoAuthRequired and Authorized; Rejected carries the cause.
func Authorize(header string, accounts []Account) (Decision, *errs.Error) {
	if len(accounts) == 0 {
		return NoAuthRequired, nil
	}
	if header == "" {
		return Rejected, errs.InvalidCredentials()
	}
	attempt, err := ParseBasicHeader(header)
	if err != nil {
		return Rejected, err
	}
	if MatchAuth(attempt, accounts) {
		return Authorized, nil
	}
	return Rejected, errs.InvalidCredentials()
}
