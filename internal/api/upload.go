package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/snarg/toolkit-engine/internal/audio"
	"github.com/snarg/toolkit-engine/internal/pipeline"
)

type routeRequest struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

type routeResponse struct {
	Path     string `json:"path"`
	Key      string `json:"key,omitempty"`
	MaxBytes int64  `json:"max_bytes,omitempty"`
}

// handleRoute decides how a declared file should travel. The staged
// answer includes the blob key the client must PUT the bytes to.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WritePipelineError(w, err)
		return
	}

	d, err := s.router.Route(req.Filename, req.Size)
	if err != nil {
		WritePipelineError(w, err)
		return
	}
	sessionFrom(r).SetSourceName(req.Filename)

	resp := routeResponse{Path: string(d.Path)}
	if d.Grant != nil {
		resp.Key = d.Grant.Key
		resp.MaxBytes = d.Grant.MaxBytes
	}
	WriteJSON(w, http.StatusOK, resp)
}

// handleStage receives the raw bytes for a staged upload.
func (s *Server) handleStage(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, audio.MaxBytes+1))
	if err != nil {
		WritePipelineError(w, pipeline.Errorf(pipeline.CodeFileTooLarge,
			"file too large; maximum is 25MB"))
		return
	}

	if err := s.router.Stage(r.Context(), key, body); err != nil {
		WritePipelineError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"key": key})
}
