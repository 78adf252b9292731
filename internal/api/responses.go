package api

import (
	"encoding/json"
	"net/http"

	"github.com/snarg/toolkit-engine/internal/pipeline"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is the standard error response body. Code is the stable
// machine-readable failure class; Error is for humans.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// WriteError writes a plain JSON error response.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: msg})
}

// WritePipelineError maps a classified failure onto the wire: status
// from the failure class, body carrying the user-facing message and the
// code.
func WritePipelineError(w http.ResponseWriter, err error) {
	WriteJSON(w, pipeline.HTTPStatus(err), ErrorResponse{
		Error: pipeline.UserMessage(err),
		Code:  string(pipeline.CodeOf(err)),
	})
}

// DecodeJSON reads a JSON request body into v with a size bound.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return pipeline.Wrap(pipeline.CodeInvalidInput, "invalid JSON body", err)
	}
	return nil
}
