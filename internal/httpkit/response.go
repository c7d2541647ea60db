// Package httpkit holds the JSON envelope and middleware shared by the HTTP handlers.
package httpkit

import (
	"encoding/json"
	"net/http"

	"github.com/ivlev/reelforge/internal/pkg/errors"
)

type ErrorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details,omitempty"`
	} `json:"error"`
}

// maxBodyBytes bounds request bodies; a batch of scripts is a few KB.
const maxBodyBytes = 1 << 20

func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func WriteErr(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	var env ErrorEnvelope
	env.Error.Code = code
	env.Error.Message = msg
	env.Error.Details = details
	WriteJSON(w, status, env)
}

// WriteError maps a coded error onto its status and envelope. Foreign errors are 500.
func WriteError(w http.ResponseWriter, err error) {
	var details map[string]any
	msg := err.Error()
	var e *errors.Error
	if errors.As(err, &e) {
		details = e.Fields
		msg = e.Message
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
	}
	WriteErr(w, errors.GetHTTPStatus(err), string(errors.GetCode(err)), msg, details)
}
