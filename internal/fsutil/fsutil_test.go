package fsutil

import (
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sandboxRoot(t *testing.T) string {
	t.Helper()
	root, err := CanonicalRoot(t.TempDir())
	require.Nil(t, err)
	return root
}

func TestCleanRelPath(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{".", ""},
		{"/", ""},
		{"/a/b", "a/b"},
		{"a//b", "a/b"},
		{"a/./b", "a/b"},
		{"a/../b", "b"},
		{"../..", ""},
		{"  /docs  ", "docs"},
		{"a\\b", "a/b"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CleanRelPath(tc.in), "input %q", tc.in)
	}
}

func TestResolveUnderRootContainment(t *testing.T) {
	root := sandboxRoot(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub", "deeper"), 0o755))

	// Any resolvable input must land inside the root.
	inputs := []string{
		"", "/", ".", "sub", "/sub", "sub/deeper",
		"sub/..", "sub/../sub", "/sub/deeper/../..", "sub/./deeper",
	}
	for _, in := range inputs {
		got, err := ResolveUnderRoot(root, in)
		require.Nil(t, err, "input %q", in)
		assert.True(t, IsDescendantOf(root, got), "input %q resolved to %q", in, got)
	}
}

func TestResolveUnderRootRejectsEscape(t *testing.T) {
	root := sandboxRoot(t)

	// CleanRelPath collapses leading "..", so these resolve back into the
	// root rather than escaping; raw escapes that survive cleaning must fail.
	_, err := ResolveUnderRoot(root, "no-such-entry")
	require.NotNil(t, err, "nonexistent targets fail closed")
	assert.Equal(t, http.StatusBadRequest, err.Status())

	_, err = ResolveUnderRoot(root, "sub\x00dir")
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.Status())
}

func TestResolveUnderRootSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := sandboxRoot(t)
	outside := t.TempDir()

	// A symlink inside the root pointing outside must be caught after
	// canonicalization, even though the client path has no ".." at all.
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "exit")))

	_, err := ResolveUnderRoot(root, "exit")
	require.NotNil(t, err)
	assert.Equal(t, http.StatusBadRequest, err.Status())

	// A symlink resolving inside the root stays allowed.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "real"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias")))
	got, rerr := ResolveUnderRoot(root, "alias")
	require.Nil(t, rerr)
	assert.Equal(t, filepath.Join(root, "real"), got)
}

func TestIsDescendantOfComponentWise(t *testing.T) {
	// /served-root-evil is not a child of /served-root.
	assert.False(t, IsDescendantOf("/served-root", "/served-root-evil"))
	assert.False(t, IsDescendantOf("/served-root", "/"))
	assert.True(t, IsDescendantOf("/served-root", "/served-root"))
	assert.True(t, IsDescendantOf("/served-root", "/served-root/sub/file"))
}

func TestCheckTargetDir(t *testing.T) {
	root := sandboxRoot(t)

	require.Nil(t, CheckTargetDir(root, "upload file"))

	// Not a directory: internal misuse, 500.
	file := filepath.Join(root, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	err := CheckTargetDir(file, "upload file")
	require.NotNil(t, err)
	assert.Equal(t, http.StatusInternalServerError, err.Status())

	// Missing target: permissions, 403.
	err = CheckTargetDir(filepath.Join(root, "gone"), "upload file")
	require.NotNil(t, err)
	assert.Equal(t, http.StatusForbidden, err.Status())
}

func TestCheckTargetDirReadonly(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("permission bits not enforceable here")
	}
	root := sandboxRoot(t)
	ro := filepath.Join(root, "ro")
	require.NoError(t, os.Mkdir(ro, 0o555))
	t.Cleanup(func() { _ = os.Chmod(ro, 0o755) })

	err := CheckTargetDir(ro, "upload file")
	require.NotNil(t, err)
	assert.Equal(t, http.StatusForbidden, err.Status())
}

func TestCheckDirName(t *testing.T) {
	for _, ok := range []string{"sub", "new dir", "a/b", "./sub", "dir.with.dots"} {
		assert.Nil(t, CheckDirName(ok), "name %q", ok)
	}
	for _, bad := range []string{"", "..", "../evil", "/etc", "a/../b", "a\x00b", "..\\evil"} {
		err := CheckDirName(bad)
		require.NotNil(t, err, "name %q", bad)
		assert.Equal(t, http.StatusInternalServerError, err.Status(), "name %q", bad)
	}
}

func TestCheckFileName(t *testing.T) {
	for _, ok := range []string{"report.pdf", "no extension", ".hidden", "..dots.txt"} {
		assert.Nil(t, CheckFileName(ok), "name %q", ok)
	}
	for _, bad := range []string{"", ".", "..", "a/b", "a\\b", "../up.txt", "x\x00y"} {
		require.NotNil(t, CheckFileName(bad), "name %q", bad)
	}
}
