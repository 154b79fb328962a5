// Package config holds the immutable runtime configuration, resolved once
// before the server starts accepting connections.
package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"quickserve/internal/auth"
	"quickserve/internal/fsutil"
)

// maxPasswordLen bounds plain passwords in account specs.
const maxPasswordLen = 255

// File is the JSON-friendly on-disk configuration shape. Account specs stay
// strings here and are parsed during Resolve.
type File struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty"`
	// Root is the directory to serve.
	Root string `json:"root"`
	// Auth lists account specs: "user:pass", "user:sha256:<hex>",
	// "user:sha512:<hex>" or "user:bcrypt:<hash>". Empty means no auth.
	Auth []string `json:"auth,omitempty"`
	// OverwriteFiles allows uploads to replace existing files.
	OverwriteFiles bool `json:"overwriteFiles,omitempty"`
	// EnableUpload enables the upload endpoint and WebDAV write methods.
	EnableUpload bool `json:"enableUpload,omitempty"`
	// EnableMkdir enables the directory-creation endpoint.
	EnableMkdir bool `json:"enableMkdir,omitempty"`
	// EnableDAV mounts a WebDAV handler at /dav/.
	EnableDAV bool `json:"enableDav,omitempty"`
	// ColorScheme / ColorSchemeDark pick the rendered page palettes.
	ColorScheme     string `json:"colorScheme,omitempty"`
	ColorSchemeDark string `json:"colorSchemeDark,omitempty"`
	// HideVersionFooter drops the version line from rendered pages.
	HideVersionFooter bool `json:"hideVersionFooter,omitempty"`
}

// Config is the resolved process-wide configuration: root canonicalized,
// account specs parsed. Shared read-only across all request handlers.
type Config struct {
	Addr              string
	Root              string
	Accounts          []auth.Account
	OverwriteFiles    bool
	EnableUpload      bool
	EnableMkdir       bool
	EnableDAV         bool
	ColorScheme       string
	ColorSchemeDark   string
	HideVersionFooter bool
}

// LoadFile reads a JSON configuration file.
func LoadFile(path string) (File, error) {
	var f File
	b, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("parse config: %w", err)
	}
	return f, nil
}

// Resolve validates a File into the immutable runtime Config.
func Resolve(f File) (*Config, error) {
	if strings.TrimSpace(f.Root) == "" {
		return nil, fmt.Errorf("root is required")
	}
	root, cerr := fsutil.CanonicalRoot(f.Root)
	if cerr != nil {
		return nil, cerr
	}
	accounts := make([]auth.Account, 0, len(f.Auth))
	for _, spec := range f.Auth {
		account, err := ParseAccount(spec)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	addr := f.Addr
	if addr == "" {
		addr = "0.0.0.0:8080"
	}
	scheme := f.ColorScheme
	if scheme == "" {
		scheme = "squirrel"
	}
	schemeDark := f.ColorSchemeDark
	if schemeDark == "" {
		schemeDark = "archlinux"
	}
	return &Config{
		Addr:              addr,
		Root:              root,
		Accounts:          accounts,
		OverwriteFiles:    f.OverwriteFiles,
		EnableUpload:      f.EnableUpload,
		EnableMkdir:       f.EnableMkdir,
		EnableDAV:         f.EnableDAV,
		ColorScheme:       scheme,
		ColorSchemeDark:   schemeDark,
		HideVersionFooter: f.HideVersionFooter,
	}, nil
}

// ParseAccount parses one account spec. Accepted forms:
//
//	username:password
//	username:sha256:<64 hex chars>
//	username:sha512:<128 hex chars>
//	username:bcrypt:<bcrypt hash>
func ParseAccount(spec string) (auth.Account, error) {
	username, rest, ok := strings.Cut(spec, ":")
	if !ok || username == "" {
		return auth.Account{}, fmt.Errorf("invalid credentials format for %q, expected username:password, username:sha256:hash or username:sha512:hash", spec)
	}
	method, hash, hashed := strings.Cut(rest, ":")
	switch {
	case hashed && method == "sha256":
		raw, err := decodeDigest(hash, 32)
		if err != nil {
			return auth.Account{}, err
		}
		return auth.Account{Username: username, Password: auth.PasswordSpec{Method: auth.Sha256, Hash: raw}}, nil
	case hashed && method == "sha512":
		raw, err := decodeDigest(hash, 64)
		if err != nil {
			return auth.Account{}, err
		}
		return auth.Account{Username: username, Password: auth.PasswordSpec{Method: auth.Sha512, Hash: raw}}, nil
	case hashed && method == "bcrypt":
		if !strings.HasPrefix(hash, "$2") {
			return auth.Account{}, fmt.Errorf("invalid format for password hash, expected bcrypt hash")
		}
		return auth.Account{Username: username, Password: auth.PasswordSpec{Method: auth.Bcrypt, BcryptHash: []byte(hash)}}, nil
	case hashed && looksLikeHashMethod(method):
		return auth.Account{}, fmt.Errorf("%s is not a valid hashing method, expected sha256, sha512 or bcrypt", method)
	default:
		// Everything after the first ':' is the plain password, which may
		// itself contain ':'.
		if len(rest) > maxPasswordLen {
			return auth.Account{}, fmt.Errorf("password length exceeds %d characters", maxPasswordLen)
		}
		return auth.Account{Username: username, Password: auth.PasswordSpec{Method: auth.Plain, Plain: rest}}, nil
	}
}

func decodeDigest(hash string, size int) ([]byte, error) {
	raw, err := hex.DecodeString(hash)
	if err != nil {
		return nil, fmt.Errorf("invalid format for password hash, expected hex code")
	}
	if len(raw) != size {
		return nil, fmt.Errorf("invalid password hash length %d, expected %d bytes", len(raw), size)
	}
	return raw, nil
}

// looksLikeHashMethod distinguishes "user:md5:..." (a typoed method) from a
// plain password that merely contains colons.
func looksLikeHashMethod(s string) bool {
	switch s {
	case "md5", "sha1", "sha384", "sha3", "blake2", "blake3", "argon2", "scrypt", "pbkdf2":
		return true
	default:
		return false
	}
}

// HasAuth reports whether any account is configured.
func (c *Config) HasAuth() bool { return len(c.Accounts) > 0 }
