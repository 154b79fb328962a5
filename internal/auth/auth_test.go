package auth

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"quickserve/internal/errs"
)

func basicHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func account(t *testing.T, username, password, method string) Account {
	t.Helper()
	spec := PasswordSpec{}
	switch method {
	case "plain":
		spec = PasswordSpec{Method: Plain, Plain: password}
	case "sha256":
		spec = PasswordSpec{Method: Sha256, Hash: HashSha256(password)}
	case "sha512":
		spec = PasswordSpec{Method: Sha512, Hash: HashSha512(password)}
	case "bcrypt":
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		require.NoError(t, err)
		spec = PasswordSpec{Method: Bcrypt, BcryptHash: h}
	default:
		t.Fatalf("unknown hash method %q", method)
	}
	return Account{Username: username, Password: spec}
}

func TestHashVectors(t *testing.T) {
	// Standard test vectors for "abc".
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		hex.EncodeToString(HashSha256("abc")))
	assert.Equal(t,
		"ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a"+
			"2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f",
		hex.EncodeToString(HashSha512("abc")))
}

func TestParseBasicHeader(t *testing.T) {
	creds, err := ParseBasicHeader(basicHeader("obi", "hello there"))
	require.Nil(t, err)
	assert.Equal(t, "obi", creds.Username)
	assert.Equal(t, "hello there", creds.Password)
}

func TestParseBasicHeaderPasswordWithColon(t *testing.T) {
	// Only the first ':' separates; the password keeps the rest.
	creds, err := ParseBasicHeader(basicHeader("usr", "pa:ss:wd"))
	require.Nil(t, err)
	assert.Equal(t, "usr", creds.Username)
	assert.Equal(t, "pa:ss:wd", creds.Password)
}

func TestParseBasicHeaderEmptyPassword(t *testing.T) {
	creds, err := ParseBasicHeader(basicHeader("usr", ""))
	require.Nil(t, err)
	assert.Equal(t, "usr", creds.Username)
	assert.Equal(t, "", creds.Password)
}

func TestParseBasicHeaderMalformed(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"missing prefix", base64.StdEncoding.EncodeToString([]byte("usr:pwd"))},
		{"wrong scheme", "Bearer abcdef"},
		{"bad base64", "Basic %%%not-base64%%%"},
		{"no colon", "Basic " + base64.StdEncoding.EncodeToString([]byte("just-a-user"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseBasicHeader(tc.header)
			require.NotNil(t, err)
			assert.Equal(t, errs.KindParse, err.Kind)
		})
	}
}

func TestParseBasicHeaderInvalidUTF8(t *testing.T) {
	// Invalid bytes decode lossily rather than failing.
	raw := append([]byte("usr:"), 0xff, 0xfe)
	creds, err := ParseBasicHeader("Basic " + base64.StdEncoding.EncodeToString(raw))
	require.Nil(t, err)
	assert.Equal(t, "usr", creds.Username)
	assert.NotEmpty(t, creds.Password)
}

func TestMatchAuthSingleAccount(t *testing.T) {
	cases := []struct {
		pass                       bool
		username, password         string
		wantUsername, wantPassword string
		method                     string
	}{
		{true, "obi", "hello there", "obi", "hello there", "plain"},
		{false, "obi", "hello there", "obi", "hi!", "plain"},
		{true, "obi", "hello there", "obi", "hello there", "sha256"},
		{false, "obi", "hello there", "obi", "hi!", "sha256"},
		{true, "obi", "hello there", "obi", "hello there", "sha512"},
		{false, "obi", "hello there", "obi", "hi!", "sha512"},
		{true, "obi", "hello there", "obi", "hello there", "bcrypt"},
		{false, "obi", "hello there", "obi", "hi!", "bcrypt"},
	}
	for _, tc := range cases {
		got := MatchAuth(
			Credentials{Username: tc.username, Password: tc.password},
			[]Account{account(t, tc.wantUsername, tc.wantPassword, tc.method)},
		)
		assert.Equal(t, tc.pass, got, "%s auth for %s/%s", tc.method, tc.username, tc.password)
	}
}

func accountSample(t *testing.T) []Account {
	t.Helper()
	return []Account{
		account(t, "usr0", "pwd0", "plain"),
		account(t, "usr1", "pwd1", "plain"),
		account(t, "usr2", "pwd2", "sha256"),
		account(t, "usr3", "pwd3", "sha256"),
		account(t, "usr4", "pwd4", "sha512"),
		account(t, "usr5", "pwd5", "sha512"),
	}
}

func TestMatchAuthMultipleAccounts(t *testing.T) {
	accounts := accountSample(t)
	for i := 0; i <= 5; i++ {
		u := accounts[i].Username
		p := "pwd" + string(rune('0'+i))
		assert.True(t, MatchAuth(Credentials{Username: u, Password: p}, accounts), "account %s", u)
	}
}

func TestMatchAuthWrongUsername(t *testing.T) {
	assert.False(t, MatchAuth(Credentials{Username: "unregistered user", Password: "pwd0"}, accountSample(t)))
}

func TestMatchAuthWrongPassword(t *testing.T) {
	accounts := accountSample(t)
	for i := 0; i <= 5; i++ {
		u := accounts[i].Username
		p := "pwd" + string(rune('0'+(5-i)))
		assert.False(t, MatchAuth(Credentials{Username: u, Password: p}, accounts), "account %s with %s", u, p)
	}
}

func TestMatchAuthDuplicateUsernames(t *testing.T) {
	// All accounts sharing a username are tried; first full match wins.
	accounts := []Account{
		account(t, "usr", "first", "sha256"),
		account(t, "usr", "second", "plain"),
	}
	assert.True(t, MatchAuth(Credentials{Username: "usr", Password: "first"}, accounts))
	assert.True(t, MatchAuth(Credentials{Username: "usr", Password: "second"}, accounts))
	assert.False(t, MatchAuth(Credentials{Username: "usr", Password: "third"}, accounts))
}

func TestMatchAuthEmptyPassword(t *testing.T) {
	// Empty passwords are compared normally, not special-cased.
	accounts := []Account{account(t, "usr", "", "plain")}
	assert.True(t, MatchAuth(Credentials{Username: "usr", Password: ""}, accounts))
	assert.False(t, MatchAuth(Credentials{Username: "usr", Password: "x"}, accounts))
}

func TestAuthorizeNoAccounts(t *testing.T) {
	// Auth is opt-in: with no accounts, any header (or none) passes.
	for _, header := range []string{"", "Basic garbage", basicHeader("a", "b")} {
		decision, err := Authorize(header, nil)
		assert.Equal(t, NoAuthRequired, decision)
		assert.Nil(t, err)
	}
}

func TestAuthorizeDecisions(t *testing.T) {
	accounts := []Account{account(t, "obi", "hello there", "sha256")}

	decision, err := Authorize(basicHeader("obi", "hello there"), accounts)
	assert.Equal(t, Authorized, decision)
	assert.Nil(t, err)

	decision, err = Authorize(basicHeader("obi", "hi!"), accounts)
	assert.Equal(t, Rejected, decision)
	require.NotNil(t, err)
	assert.Equal(t, errs.KindInvalidCredentials, err.Kind)

	decision, err = Authorize("", accounts)
	assert.Equal(t, Rejected, decision)
	require.NotNil(t, err)
	assert.Equal(t, errs.KindInvalidCredentials, err.Kind)

	decision, err = Authorize("Basic %%%", accounts)
	assert.Equal(t, Rejected, decision)
	require.NotNil(t, err)
	assert.Equal(t, errs.KindParse, err.Kind)
}
