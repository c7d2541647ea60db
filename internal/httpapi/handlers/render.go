package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ivlev/reelforge/internal/engine"
	"github.com/ivlev/reelforge/internal/httpkit"
	"github.com/ivlev/reelforge/internal/renderlog"
	"github.com/ivlev/reelforge/internal/script"
	"github.com/ivlev/reelforge/internal/thumbnail"
	"github.com/ivlev/reelforge/internal/video"
)

type RenderRequest struct {
	Script script.Script `json:"script"`
	Niche  string        `json:"niche,omitempty"`
}

type RenderResponse struct {
	RenderID    string  `json:"render_id"`
	MIMEType    string  `json:"mime_type"`
	DurationSec float64 `json:"duration_sec"`
	Frames      int     `json:"frames"`
	Placeholder bool    `json:"placeholder"`
	Truncated   bool    `json:"truncated"`
	Thumbnail   string  `json:"thumbnail"`
	Output      string  `json:"output,omitempty"`
}

// Render runs one script to completion inside the request. ?download=1 answers with the
// container itself instead of the JSON summary.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := httpkit.DecodeJSON(w, r, &req); err != nil {
		httpkit.WriteErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body", nil)
		return
	}

	ctx := r.Context()
	if h.renderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.renderTimeout)
		defer cancel()
	}

	art, err := h.renderer.Render(ctx, &req.Script)
	if err != nil {
		httpkit.WriteError(w, err)
		return
	}
	log := h.log.WithRenderID(art.RenderID)

	output, err := h.save(art)
	if err != nil {
		log.Error("saving render failed", "error", err)
		httpkit.WriteErr(w, http.StatusInternalServerError, "INTERNAL_ERROR", "could not save render", nil)
		return
	}
	if h.renderLog != nil {
		entry := renderlog.Entry{
			RenderID:    art.RenderID,
			Niche:       req.Niche,
			Title:       req.Script.Title(),
			DurationSec: art.Duration.Seconds(),
			Output:      output,
		}
		if err := h.renderLog.Append(entry); err != nil {
			log.Warn("render log append failed", "error", err)
		}
	}

	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Type", art.MIMEType)
		w.Header().Set("Content-Length", strconv.Itoa(len(art.Video)))
		w.Header().Set("X-Render-ID", art.RenderID)
		w.Write(art.Video)
		return
	}

	httpkit.WriteJSON(w, http.StatusOK, RenderResponse{
		RenderID:    art.RenderID,
		MIMEType:    art.MIMEType,
		DurationSec: art.Duration.Seconds(),
		Frames:      art.Frames,
		Placeholder: art.Placeholder,
		Truncated:   art.Truncated,
		Thumbnail:   thumbnail.DataURL(art.Thumbnail),
		Output:      output,
	})
}

// save writes the container and its thumbnail to the output directory, if one is set.
func (h *Handler) save(art *engine.Artifact) (string, error) {
	if h.outputDir == "" {
		return "", nil
	}
	if err := os.MkdirAll(h.outputDir, 0755); err != nil {
		return "", err
	}
	base := filepath.Join(h.outputDir, art.RenderID)
	out := base + video.Extension(art.MIMEType)
	if err := os.WriteFile(out, art.Video, 0644); err != nil {
		return "", err
	}
	if err := os.WriteFile(base+".png", art.Thumbnail, 0644); err != nil {
		return "", err
	}
	return out, nil
}
