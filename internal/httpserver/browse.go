package httpserver

import (
	"net/http"
	"os"
	"path"

	"quickserve/internal/archive"
	"quickserve/internal/errs"
	"quickserve/internal/fsutil"
	"quickserve/internal/listing"
)

// handleBrowse serves GET requests for any path under the root: a directory
// renders the listing page, a file is served directly (?dl=1 forces a
// download).
func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		s.renderError(w, r, errs.RouteNotFound(r.URL.Path))
		return
	}
	abs, rerr := fsutil.ResolveUnderRoot(s.cfg.Root, r.URL.Path)
	if rerr != nil {
		// Resolution failure is indistinguishable from "does not exist" by
		// design; answer as a missing route.
		s.renderError(w, r, errs.RouteNotFound(r.URL.Path))
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		s.renderError(w, r, errs.RouteNotFound(r.URL.Path))
		return
	}

	if info.IsDir() {
		s.serveListing(w, r, abs)
		return
	}

	if r.URL.Query().Get("dl") == "1" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(r.URL.Path)+`"`)
	}
	http.ServeFile(w, r, abs)
}

func (s *Server) serveListing(w http.ResponseWriter, r *http.Request, abs string) {
	rel := fsutil.CleanRelPath(r.URL.Path)
	q := r.URL.Query()
	sorting := listing.ParseSorting(q.Get("sort"), q.Get("order"))

	entries, lerr := listing.List(abs, rel, sorting)
	if lerr != nil {
		s.renderError(w, r, lerr)
		return
	}
	body := s.render.Listing(rel, entries, sorting, s.cfg.EnableUpload, s.cfg.EnableMkdir)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

// handleArchive streams a zip or tar.gz of a directory. Once streaming has
// begun a failure can no longer change the status line, so mid-stream errors
// are only logged.
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("path") {
		s.renderError(w, r, errs.InvalidRequest("missing query parameter 'path'"))
		return
	}
	format, ferr := archive.ParseFormat(q.Get("format"))
	if ferr != nil {
		s.renderError(w, r, ferr)
		return
	}
	abs, rerr := fsutil.ResolveUnderRoot(s.cfg.Root, q.Get("path"))
	if rerr != nil {
		s.renderError(w, r, rerr)
		return
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		s.renderError(w, r, errs.InvalidRequest("invalid value for 'path' parameter"))
		return
	}

	base := path.Base("/" + fsutil.CleanRelPath(q.Get("path")))
	if base == "/" || base == "." {
		base = "download"
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+base+format.Extension()+`"`)
	if aerr := archive.Write(w, abs, base, format); aerr != nil {
		errs.LogChain(s.log, aerr)
	}
}
