package httpserver

import (
	"net/http"

	"quickserve/internal/errs"
	"quickserve/internal/fsutil"
	"quickserve/internal/upload"
)

// handleUpload ingests a multipart body into the directory named by the
// 'path' query parameter. Success answers 303 back to the page the form was
// submitted from, so a browser refresh does not repost.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !r.URL.Query().Has("path") {
		s.renderError(w, r, errs.InvalidRequest("missing query parameter 'path'"))
		return
	}
	targetDir, rerr := fsutil.ResolveUnderRoot(s.cfg.Root, r.URL.Query().Get("path"))
	if rerr != nil {
		s.renderError(w, r, rerr)
		return
	}
	mr, err := r.MultipartReader()
	if err != nil {
		s.renderError(w, r, errs.Multipart(err))
		return
	}
	if uerr := upload.Ingest(mr, targetDir, s.cfg.OverwriteFiles); uerr != nil {
		s.renderError(w, r, uerr)
		return
	}
	http.Redirect(w, r, returnPath(r), http.StatusSeeOther)
}

// handleMkdir creates one directory level named by the 'mkdir_name' form
// field inside the directory named by the 'path' query parameter.
func (s *Server) handleMkdir(w http.ResponseWriter, r *http.Request) {
	if !r.URL.Query().Has("path") {
		s.renderError(w, r, errs.InvalidRequest("missing query parameter 'path'"))
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, errs.Parse("form data", err.Error()))
		return
	}
	names, ok := r.PostForm["mkdir_name"]
	if !ok || len(names) == 0 {
		s.renderError(w, r, errs.InvalidRequest("missing form parameter 'mkdir_name'"))
		return
	}
	targetDir, rerr := fsutil.ResolveUnderRoot(s.cfg.Root, r.URL.Query().Get("path"))
	if rerr != nil {
		s.renderError(w, r, rerr)
		return
	}
	if cerr := upload.CreateDir(targetDir, names[0]); cerr != nil {
		s.renderError(w, r, cerr)
		return
	}
	http.Redirect(w, r, returnPath(r), http.StatusSeeOther)
}
