// Package archive streams zip and tar.gz snapshots of a sandboxed directory
// tree. Failures wrap the underlying cause so the HTTP status delegates to
// it.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"quickserve/internal/errs"
)

// Format selects the archive flavor.
type Format string

const (
	Zip   Format = "zip"
	TarGz Format = "targz"
)

// ParseFormat interprets the format query parameter ("" defaults to zip).
func ParseFormat(s string) (Format, *errs.Error) {
	switch s {
	case "", "zip":
		return Zip, nil
	case "targz", "tar.gz":
		return TarGz, nil
	default:
		return "", errs.InvalidRequest("invalid value for 'format' parameter")
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == TarGz {
		return "application/gzip"
	}
	return "application/zip"
}

// Extension returns the download filename suffix for the format.
func (f Format) Extension() string {
	if f == TarGz {
		return ".tar.gz"
	}
	return ".zip"
}

// Write streams an archive of the tree rooted at absDir to w, with baseName
// as the top-level entry name. absDir must already be sandbox-resolved.
func Write(w io.Writer, absDir, baseName string, format Format) *errs.Error {
	base := sanitizeBaseName(baseName)
	switch format {
	case TarGz:
		if err := writeTarGz(w, absDir, base); err != nil {
			return errs.Archive("tarball", err)
		}
	default:
		if err := writeZip(w, absDir, base); err != nil {
			return errs.Archive("zip archive", err)
		}
	}
	return nil
}

// walkFiles visits every regular file under absDir with its archive path.
func walkFiles(absDir, base string, visit func(archivePath string, info fs.FileInfo, open func() (io.ReadCloser, error)) error) error {
	return filepath.WalkDir(absDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(absDir, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		name := filepath.ToSlash(filepath.Join(base, rel))
		open := func() (io.ReadCloser, error) { return os.Open(p) }
		return visit(name, info, open)
	})
}

func writeZip(w io.Writer, absDir, base string) error {
	zw := zip.NewWriter(w)
	err := walkFiles(absDir, base, func(name string, info fs.FileInfo, open func() (io.ReadCloser, error)) error {
		h := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: info.ModTime()}
		dst, err := zw.CreateHeader(h)
		if err != nil {
			return err
		}
		src, err := open()
		if err != nil {
			return err
		}
		_, cerr := io.Copy(dst, src)
		_ = src.Close()
		return cerr
	})
	if err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

func writeTarGz(w io.Writer, absDir, base string) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	err := walkFiles(absDir, base, func(name string, info fs.FileInfo, open func() (io.ReadCloser, error)) error {
		h, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		h.Name = name
		if err := tw.WriteHeader(h); err != nil {
			return err
		}
		src, err := open()
		if err != nil {
			return err
		}
		_, cerr := io.Copy(tw, src)
		_ = src.Close()
		return cerr
	})
	if err != nil {
		_ = tw.Close()
		_ = gz.Close()
		return err
	}
	if err := tw.Close(); err != nil {
		_ = gz.Close()
		return err
	}
	return gz.Close()
}

// sanitizeBaseName strips anything that could turn the top-level archive
// entry into a path.
func sanitizeBaseName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.Trim(s, ".- ")
	if s == "" {
		return "download"
	}
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
