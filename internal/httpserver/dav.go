package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/webdav"

	"quickserve/internal/errs"
)

// The router only knows standard HTTP methods; the DAV verbs must be
// registered before any route is added.
func init() {
	for _, m := range []string{"PROPFIND", "PROPPATCH", "MKCOL", "COPY", "MOVE", "LOCK", "UNLOCK"} {
		chi.RegisterMethod(m)
	}
}

// davHandler mounts a WebDAV view of the root under /dav. Write methods are
// gated on the same upload switch as the HTML form, so enabling DAV alone
// never makes the tree writable.
func (s *Server) davHandler() http.Handler {
	dav := &webdav.Handler{
		Prefix:     "/dav",
		FileSystem: webdav.Dir(s.cfg.Root),
		LockSystem: webdav.NewMemLS(),
		Logger: func(r *http.Request, err error) {
			if err != nil {
				s.log.Warn("webdav", "method", r.Method, "path", r.URL.Path, "err", err)
			}
		},
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isDavWrite(r.Method) && !s.cfg.EnableUpload {
			s.renderError(w, r, errs.InsufficientPermissions(r.URL.Path))
			return
		}
		dav.ServeHTTP(w, r)
	})
}

func isDavWrite(method string) bool {
	switch method {
	case "PUT", "POST", "DELETE", "MKCOL", "MOVE", "COPY", "PROPPATCH", "LOCK", "UNLOCK":
		return true
	default:
		return false
	}
}
