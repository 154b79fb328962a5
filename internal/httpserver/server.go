// Package httpserver is the HTTP boundary: routing, Basic-auth enforcement,
// and the single place where typed errors become rendered responses.
package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"quickserve/internal/auth"
	"quickserve/internal/config"
	"quickserve/internal/errs"
	"quickserve/internal/renderer"
)

// Realm is the Basic-auth realm sent with every 401 challenge.
const Realm = "quickserve"

type Server struct {
	cfg    *config.Config
	log    *slog.Logger
	render *renderer.Renderer
}

func New(cfg *config.Config, log *slog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		log:    log,
		render: renderer.New(cfg.ColorScheme, cfg.ColorSchemeDark, cfg.HideVersionFooter),
	}
}

// Handler builds the router. Order matters: request-id and logging wrap
// everything, auth wraps everything except the health probe and the
// stylesheet.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})

	r.Get("/assets/style.css", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(renderer.CSS())
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		if s.cfg.EnableUpload {
			r.Post("/upload", s.handleUpload)
		}
		if s.cfg.EnableMkdir {
			r.Post("/mkdir", s.handleMkdir)
		}
		r.Get("/archive", s.handleArchive)
		r.Get("/thumb", s.handleThumb)

		if s.cfg.EnableDAV {
			dav := s.davHandler()
			r.Handle("/dav", dav)
			r.Handle("/dav/*", dav)
		}

		// A method mismatch on a known path is as unroutable as an unknown
		// path; both get the not-found page.
		r.NotFound(s.handleBrowse)
		r.MethodNotAllowed(s.handleBrowse)
		r.Get("/*", s.handleBrowse)
	})

	return r
}

// requireAuth enforces the per-request authorization decision. Rejections
// are wrapped in the authentication composite so the logged chain names the
// phase, and 401 responses carry the Basic challenge.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision, aerr := auth.Authorize(r.Header.Get("Authorization"), s.cfg.Accounts)
		if decision == auth.Rejected {
			err := errs.Authentication(aerr)
			if err.Status() == http.StatusUnauthorized {
				w.Header().Set("WWW-Authenticate", `Basic realm="`+Realm+`"`)
			}
			s.renderError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// renderError is the error choke point: one log line per cause, then the
// rendered page with the status derived from the error kind. The client's
// sort/order listing state is echoed so it survives the failure.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	errs.LogChain(s.log, err)
	q := r.URL.Query()
	body := s.render.Error(err.Error(), errs.StatusFor(err), returnPath(r), q.Get("sort"), q.Get("order"))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(errs.StatusFor(err))
	_, _ = w.Write(body)
}

// returnPath is where error pages and post-mutation redirects send the
// client: the page they came from, defaulting to the root.
func returnPath(r *http.Request) string {
	if ref := r.Header.Get("Referer"); ref != "" {
		return ref
	}
	return "/"
}

// requestLogger logs one line per completed request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Info("request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
