package handlers

import (
	"net/http"

	"github.com/ivlev/reelforge/internal/httpkit"
	"github.com/ivlev/reelforge/internal/script"
)

type GenerateRequest struct {
	Niche string `json:"niche"`
	Count int    `json:"count"`
}

type ItemsBody struct {
	Items []script.Script `json:"items"`
}

func (h *Handler) GenerateScript(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := httpkit.DecodeJSON(w, r, &req); err != nil {
		httpkit.WriteErr(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body", nil)
		return
	}
	if req.Count == 0 {
		req.Count = 1
	}

	items, err := h.gen.Generate(r.Context(), req.Niche, req.Count)
	if err != nil {
		h.log.FromContext(r.Context()).Warn("generate failed", "niche", req.Niche, "error", err)
		httpkit.WriteError(w, err)
		return
	}
	httpkit.WriteJSON(w, http.StatusOK, ItemsBody{Items: items})
}

// OptimizeKeywords attaches keywords to each posted script. A body without an items
// array yields an empty list rather than an error.
func (h *Handler) OptimizeKeywords(w http.ResponseWriter, r *http.Request) {
	var body ItemsBody
	if err := httpkit.DecodeJSON(w, r, &body); err != nil || body.Items == nil {
		httpkit.WriteJSON(w, http.StatusOK, ItemsBody{Items: []script.Script{}})
		return
	}

	items, err := h.opt.Optimize(r.Context(), body.Items)
	if err != nil {
		h.log.FromContext(r.Context()).Error("optimize failed", "error", err)
		httpkit.WriteError(w, err)
		return
	}
	httpkit.WriteJSON(w, http.StatusOK, ItemsBody{Items: items})
}
