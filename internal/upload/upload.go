// Package upload converts untrusted request bodies into filesystem entries
// under an already-sandboxed target directory: streaming multipart file
// ingestion and single-level directory creation.
package upload

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"quickserve/internal/errs"
	"quickserve/internal/fsutil"
)

// SaveFile streams one field's bytes to dst, honoring the overwrite policy.
// The destination is never opened when overwriting is disabled and the file
// exists, so existing content cannot be clobbered. Returns bytes written.
func SaveFile(src io.Reader, dst string, overwrite bool) (int64, *errs.Error) {
	if !overwrite {
		if _, err := os.Lstat(dst); err == nil {
			return 0, errs.DuplicateFile()
		}
	}
	f, err := os.Create(dst)
	if err != nil {
		return 0, errs.IO("failed to create "+dst, err)
	}
	written, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// Mid-write failure: the partial file is left as-is, no rollback.
		return written, errs.IO("failed to write to "+dst, err)
	}
	return written, nil
}

// Ingest consumes a multipart body one field at a time, in arrival order,
// writing each declared file into targetDir. Later fields may depend on
// earlier ones having fully flushed, so there is no parallel field
// processing. The first failure aborts the remaining fields.
func Ingest(body *multipart.Reader, targetDir string, overwrite bool) *errs.Error {
	for {
		part, err := body.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errs.Multipart(err)
		}
		ferr := ingestField(part, targetDir, overwrite)
		_ = part.Close()
		if ferr != nil {
			return ferr
		}
	}
}

func ingestField(part *multipart.Part, targetDir string, overwrite bool) *errs.Error {
	filename := part.FileName()
	if filename == "" {
		return errs.Parse("HTTP header", "failed to retrieve the name of the file to upload")
	}
	// targetDir is already sandboxed; the filename must be a single path
	// component so the join below cannot navigate out of it.
	if err := fsutil.CheckFileName(filename); err != nil {
		return err
	}
	if err := fsutil.CheckTargetDir(targetDir, "upload file"); err != nil {
		return err
	}
	_, err := SaveFile(part, filepath.Join(targetDir, filename), overwrite)
	return err
}

// CreateDir creates exactly one directory level named name under targetDir.
// An existing entry at the destination is a conflict, not an overwrite.
func CreateDir(targetDir, name string) *errs.Error {
	if err := fsutil.CheckTargetDir(targetDir, "create directory"); err != nil {
		return err
	}
	if err := fsutil.CheckDirName(name); err != nil {
		return err
	}
	dst := filepath.Join(targetDir, filepath.FromSlash(name))
	if _, err := os.Lstat(dst); err == nil {
		return errs.ConflictMkdir()
	}
	if err := os.Mkdir(dst, 0o755); err != nil {
		return errs.IO("failed to create "+dst, err)
	}
	return nil
}
