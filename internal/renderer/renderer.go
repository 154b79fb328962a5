// Package renderer turns listing models and contextual errors into HTML
// pages. The security core never formats HTML itself; it hands a message and
// a status to Error and gets back a byte payload.
package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"quickserve/internal/listing"
	"quickserve/internal/version"
)

//go:embed templates/*.gohtml assets/style.css
var embedded embed.FS

// ColorScheme is a small named palette applied via CSS variables.
type ColorScheme struct {
	Background string
	Text       string
	Accent     string
}

var schemes = map[string]ColorScheme{
	"squirrel":  {Background: "#f8f4f0", Text: "#323232", Accent: "#8a6d3b"},
	"archlinux": {Background: "#383c4a", Text: "#fefefe", Accent: "#03a9f4"},
	"zenburn":   {Background: "#3f3f3f", Text: "#efefef", Accent: "#f0dfaf"},
	"monokai":   {Background: "#272822", Text: "#f8f8f2", Accent: "#a6e22e"},
}

// SchemeNames lists the accepted color-scheme names.
func SchemeNames() []string {
	return []string{"squirrel", "archlinux", "zenburn", "monokai"}
}

// ValidScheme reports whether name is a known color scheme.
func ValidScheme(name string) bool {
	_, ok := schemes[name]
	return ok
}

// Renderer holds the page options fixed at startup.
type Renderer struct {
	scheme            ColorScheme
	schemeDark        ColorScheme
	hideVersionFooter bool
	tmpl              *template.Template
}

// New builds a renderer for the given scheme names; unknown names fall back
// to the defaults.
func New(scheme, schemeDark string, hideVersionFooter bool) *Renderer {
	light, ok := schemes[scheme]
	if !ok {
		light = schemes["squirrel"]
	}
	dark, ok := schemes[schemeDark]
	if !ok {
		dark = schemes["archlinux"]
	}
	tmpl := template.Must(template.New("pages").Funcs(template.FuncMap{
		"humanSize": humanSize,
	}).ParseFS(embedded, "templates/*.gohtml"))
	return &Renderer{scheme: light, schemeDark: dark, hideVersionFooter: hideVersionFooter, tmpl: tmpl}
}

// CSS returns the embedded stylesheet.
func CSS() []byte {
	b, err := embedded.ReadFile("assets/style.css")
	if err != nil {
		panic(err) // embedded asset, cannot fail at runtime
	}
	return b
}

type basePage struct {
	Scheme     ColorScheme
	SchemeDark ColorScheme
	Version    string
}

type errorPage struct {
	basePage
	Message    string
	StatusText string
	ReturnPath string
}

type listingPage struct {
	basePage
	Title         string
	Rel           string
	ParentHref    string
	HasParent     bool
	Entries       []listing.Entry
	Sorting       listing.Sorting
	UploadEnabled bool
	MkdirEnabled  bool
	UploadAction  string
	MkdirAction   string
	SortLinks     map[string]string
}

func (r *Renderer) base() basePage {
	v := version.Version
	if r.hideVersionFooter {
		v = ""
	}
	return basePage{Scheme: r.scheme, SchemeDark: r.schemeDark, Version: v}
}

// Error renders the error page for a message and HTTP status. returnPath is
// where the "go back" link points; sort and order echo the client's listing
// state so it is not lost on failure.
func (r *Renderer) Error(message string, status int, returnPath, sort, order string) []byte {
	back := returnPath
	if back == "" {
		back = "/"
	}
	if sort != "" || order != "" {
		q := url.Values{}
		if sort != "" {
			q.Set("sort", sort)
		}
		if order != "" {
			q.Set("order", order)
		}
		if strings.Contains(back, "?") {
			back += "&" + q.Encode()
		} else {
			back += "?" + q.Encode()
		}
	}
	page := errorPage{
		basePage:   r.base(),
		Message:    message,
		StatusText: fmt.Sprintf("%d %s", status, http.StatusText(status)),
		ReturnPath: back,
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "error.gohtml", page); err != nil {
		// Degrade to plain text rather than dropping the error.
		return []byte(page.StatusText + "\n" + message + "\n")
	}
	return buf.Bytes()
}

// Listing renders the directory page for rel ("" is the root) with its
// sorted entries and, when enabled, the upload and mkdir forms.
func (r *Renderer) Listing(rel string, entries []listing.Entry, s listing.Sorting, uploadEnabled, mkdirEnabled bool) []byte {
	title := "/" + rel
	pathQuery := url.QueryEscape("/" + rel)
	parent := ""
	if rel != "" {
		if i := strings.LastIndex(rel, "/"); i >= 0 {
			parent = rel[:i]
		}
	}
	page := listingPage{
		basePage:      r.base(),
		Title:         title,
		Rel:           rel,
		HasParent:     rel != "",
		ParentHref:    "/" + escapePath(parent),
		Entries:       entries,
		Sorting:       s,
		UploadEnabled: uploadEnabled,
		MkdirEnabled:  mkdirEnabled,
		UploadAction:  "/upload?path=" + pathQuery,
		MkdirAction:   "/mkdir?path=" + pathQuery,
		SortLinks: map[string]string{
			"name": sortLink(rel, "name", s),
			"size": sortLink(rel, "size", s),
			"date": sortLink(rel, "date", s),
		},
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "listing.gohtml", page); err != nil {
		return []byte("failed to render listing\n")
	}
	return buf.Bytes()
}

// sortLink builds the header link for a column, flipping the order when the
// column is already active.
func sortLink(rel, method string, s listing.Sorting) string {
	order := "asc"
	if string(s.Method) == method && s.Order == listing.OrderAsc {
		order = "desc"
	}
	q := url.Values{}
	q.Set("sort", method)
	q.Set("order", order)
	return "/" + escapePath(rel) + "?" + q.Encode()
}

// escapePath percent-encodes each path segment, keeping separators.
func escapePath(rel string) string {
	if rel == "" {
		return ""
	}
	segs := strings.Split(rel, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
