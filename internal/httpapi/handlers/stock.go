package handlers

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"strings"

	"github.com/ivlev/reelforge/internal/assets"
	"github.com/ivlev/reelforge/internal/compositor"
)

const defaultStockQuery = "abstract background"

// StockImage proxies one background image for ?q=. Without a fetcher it serves the
// labelled placeholder; when the fetch fails it serves the "No image" card.
func (h *Handler) StockImage(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		q = defaultStockQuery
	}

	if h.fetcher == nil {
		h.writePNG(w, compositor.Placeholder(h.width, h.height, q))
		return
	}

	data, err := h.fetcher.Fetch(r.Context(), q)
	if err == nil {
		_, format, derr := assets.Decode(data)
		if derr == nil {
			w.Header().Set("Content-Type", "image/"+format)
			w.Header().Set("Cache-Control", "public, max-age=86400")
			w.Write(data)
			return
		}
		err = derr
	}
	h.log.FromContext(r.Context()).Warn("stock image unavailable", "query", q, "error", err)
	h.writePNG(w, compositor.NoImage(h.width, h.height))
}

func (h *Handler) writePNG(w http.ResponseWriter, img image.Image) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}
