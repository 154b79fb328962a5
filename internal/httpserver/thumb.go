package httpserver

import (
	"bytes"
	"image"
	"image/jpeg"
	"net/http"
	"os"
	"strconv"

	// decoders
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"quickserve/internal/errs"
	"quickserve/internal/fsutil"
)

const defaultThumbSize = 256

// handleThumb renders an on-the-fly JPEG thumbnail for an image under the
// root. 'path' names the file, 'max' caps the longest edge.
func (s *Server) handleThumb(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("path") {
		s.renderError(w, r, errs.InvalidRequest("missing query parameter 'path'"))
		return
	}
	abs, rerr := fsutil.ResolveUnderRoot(s.cfg.Root, q.Get("path"))
	if rerr != nil {
		s.renderError(w, r, rerr)
		return
	}
	max, _ := strconv.Atoi(q.Get("max"))

	out, err := renderThumb(abs, max)
	if err != nil {
		s.renderError(w, r, errs.IO("failed to render thumbnail for "+abs, err))
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=600")
	_, _ = w.Write(out)
}

func renderThumb(absPath string, max int) ([]byte, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, os.ErrInvalid
	}
	if max <= 0 {
		max = defaultThumbSize
	}

	nw, nh := fitWithin(w, h, max)
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 82}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// fitWithin scales w x h so the longest edge is at most max, preserving the
// aspect ratio.
func fitWithin(w, h, max int) (int, int) {
	nw, nh := w, h
	if w >= h {
		if w > max {
			nw = max
			nh = int(float64(h) * (float64(max) / float64(w)))
		}
	} else if h > max {
		nh = max
		nw = int(float64(w) * (float64(max) / float64(h)))
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
