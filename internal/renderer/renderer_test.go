package renderer

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickserve/internal/listing"
)

func TestErrorPageEchoesSortState(t *testing.T) {
	r := New("squirrel", "archlinux", false)
	page := string(r.Error("invalid HTTP request\ncaused by: missing query parameter 'path'",
		http.StatusBadRequest, "/docs", "size", "desc"))

	assert.Contains(t, page, "400 Bad Request")
	assert.Contains(t, page, "missing query parameter")
	assert.Contains(t, page, "/docs?")
	assert.Contains(t, page, "sort=size")
	assert.Contains(t, page, "order=desc")
}

func TestErrorPageDefaultReturnPath(t *testing.T) {
	r := New("squirrel", "archlinux", false)
	page := string(r.Error("boom", http.StatusInternalServerError, "", "", ""))
	assert.Contains(t, page, `href="/"`)
}

func TestErrorPageEscapesMessage(t *testing.T) {
	r := New("squirrel", "archlinux", false)
	page := string(r.Error("<script>alert(1)</script>", http.StatusBadRequest, "/", "", ""))
	assert.NotContains(t, page, "<script>alert(1)</script>")
	assert.Contains(t, page, "&lt;script&gt;")
}

func TestListingPage(t *testing.T) {
	r := New("squirrel", "archlinux", false)
	entries := []listing.Entry{
		{Name: "sub", Path: "docs/sub", IsDir: true, ModTime: time.Now()},
		{Name: "a.txt", Path: "docs/a.txt", Size: 2048, ModTime: time.Now()},
	}
	page := string(r.Listing("docs", entries, listing.ParseSorting("", ""), true, true))

	assert.Contains(t, page, "sub/")
	assert.Contains(t, page, "a.txt")
	assert.Contains(t, page, "2.0 KiB")
	assert.Contains(t, page, "file_to_upload")
	assert.Contains(t, page, "mkdir_name")
	assert.Contains(t, page, "/upload?path=%2Fdocs")
	assert.Contains(t, page, "/mkdir?path=%2Fdocs")
	// Parent link for a non-root listing.
	assert.Contains(t, page, ">..</a>")
}

func TestListingPageRootHasNoParentAndNoForms(t *testing.T) {
	r := New("squirrel", "archlinux", false)
	page := string(r.Listing("", nil, listing.ParseSorting("", ""), false, false))
	assert.NotContains(t, page, ">..</a>")
	assert.NotContains(t, page, "file_to_upload")
	assert.NotContains(t, page, "mkdir_name")
}

func TestVersionFooterToggle(t *testing.T) {
	withFooter := string(New("squirrel", "archlinux", false).Listing("", nil, listing.ParseSorting("", ""), false, false))
	assert.Contains(t, withFooter, "quickserve")
	assert.Contains(t, withFooter, "<footer>")

	hidden := string(New("squirrel", "archlinux", true).Listing("", nil, listing.ParseSorting("", ""), false, false))
	assert.NotContains(t, hidden, "<footer>")
}

func TestUnknownSchemeFallsBack(t *testing.T) {
	r := New("no-such-scheme", "also-missing", false)
	page := string(r.Error("x", http.StatusBadRequest, "/", "", ""))
	require.True(t, strings.Contains(page, schemes["squirrel"].Background))
}

func TestCSSEmbedded(t *testing.T) {
	css := CSS()
	require.NotEmpty(t, css)
	assert.Contains(t, string(css), "--bg")
}

func TestValidScheme(t *testing.T) {
	for _, name := range SchemeNames() {
		assert.True(t, ValidScheme(name))
	}
	assert.False(t, ValidScheme("plasma"))
}
