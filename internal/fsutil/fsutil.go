// Package fsutil maps untrusted client-supplied paths to filesystem
// locations proven to stay inside the served root. All mutation handlers go
// through ResolveUnderRoot + CheckTargetDir before touching the filesystem.
package fsutil

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"quickserve/internal/errs"
)

// CleanRelPath normalizes a client path like "", ".", "/a/b", "a//../b" into
// a slash-based relative path with no leading separator ("" means root).
// Query parameters arrive with a leading separator; it is stripped here.
func CleanRelPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "." || p == "/" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p) // force absolute for stable cleaning
	p = strings.TrimPrefix(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// CanonicalRoot resolves the served root to an absolute path with all
// symlinks resolved. Called once at startup; the result is immutable.
func CanonicalRoot(root string) (string, *errs.Error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errs.IO("failed to resolve served path "+root, err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errs.IO("failed to resolve served path "+root, err)
	}
	return real, nil
}

// ResolveUnderRoot resolves a client path against the canonical root and
// proves the result is the root or a descendant of it.
//
// The two-step algorithm is load-bearing: first canonicalize (resolve '.',
// '..' and symlinks, requiring the target to exist), then verify the
// ancestor relationship component-wise on the canonical form. String-level
// '..' filtering alone is insufficient against symlinks, and a string
// prefix check would accept /root-evil as a child of /root.
//
// Resolution fails closed: any canonicalization failure or escape yields an
// invalid-request error attributable to the client-supplied value.
func ResolveUnderRoot(rootAbs, clientPath string) (string, *errs.Error) {
	rel := CleanRelPath(clientPath)
	if strings.Contains(rel, "\x00") {
		return "", errs.InvalidRequest("invalid value for 'path' parameter")
	}
	joined := filepath.Join(rootAbs, filepath.FromSlash(rel))
	real, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return "", errs.InvalidRequest("invalid value for 'path' parameter")
	}
	if !IsDescendantOf(rootAbs, real) {
		return "", errs.InvalidRequest("invalid value for 'path' parameter")
	}
	return real, nil
}

// IsDescendantOf reports whether target equals root or sits below it,
// compared path-component-wise on already-canonical paths.
func IsDescendantOf(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// CheckTargetDir verifies a resolved directory may receive a mutation: it
// must exist, be a directory, and be writable by the process. message names
// the operation for the error text ("upload file", "create directory").
func CheckTargetDir(targetDir, message string) *errs.Error {
	info, err := os.Stat(targetDir)
	if err != nil {
		return errs.InsufficientPermissions(targetDir)
	}
	if !info.IsDir() {
		return errs.InvalidPath("cannot " + message + " to " + targetDir + ", since it's not a directory")
	}
	if !writable(targetDir) {
		return errs.InsufficientPermissions(targetDir)
	}
	return nil
}

// writable probes for write access by attempting to create a temp file.
// Permission bits alone are unreliable across ownership and mount options.
func writable(dir string) bool {
	f, err := os.CreateTemp(dir, ".quickserve-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}

// CheckDirName validates a directory name supplied as form data: after
// decomposition every component must be "." or a plain named segment. Any
// parent reference, root, or separator-bearing name is rejected.
func CheckDirName(name string) *errs.Error {
	if name == "" || strings.Contains(name, "\x00") {
		return errs.InvalidPath("illegal directory name " + name)
	}
	slashed := strings.ReplaceAll(name, "\\", "/")
	if path.IsAbs(slashed) {
		return errs.InvalidPath("illegal directory name " + name)
	}
	// Components are checked raw: cleaning first would erase an embedded
	// parent reference like "a/../b" instead of rejecting it.
	for _, component := range strings.Split(slashed, "/") {
		if component == "" || component == "." {
			continue
		}
		if component == ".." {
			return errs.InvalidPath("illegal directory name " + name)
		}
	}
	return nil
}

// CheckFileName validates a multipart-declared filename as a single path
// component. Destination paths are built by joining the filename onto an
// already-sandboxed directory, and filepath.Join would silently re-root an
// embedded ".." instead of failing, so anything that is not one plain
// segment is rejected outright.
func CheckFileName(name string) *errs.Error {
	if name == "" || name == "." || name == ".." {
		return errs.InvalidPath("illegal file name " + name)
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return errs.InvalidPath("illegal file name " + name)
	}
	if filepath.Base(name) != name {
		return errs.InvalidPath("illegal file name " + name)
	}
	return nil
}
