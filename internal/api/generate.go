package api

import (
	"net/http"

	"github.com/snarg/toolkit-engine/internal/generate"
	"github.com/snarg/toolkit-engine/internal/pipeline"
)

type generateRequest struct {
	PreacherName string `json:"preacher_name"`
	Template     string `json:"template,omitempty"`
}

type generateResponse struct {
	Markdown string `json:"markdown"`
	Phase    string `json:"phase"`
}

// handleGenerate synthesizes the toolkit from the reviewed transcript.
// Also serves regeneration after transcript or template edits.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	var req generateRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WritePipelineError(w, err)
		return
	}

	token, err := sess.BeginGeneration(req.PreacherName)
	if err != nil {
		WritePipelineError(w, err)
		return
	}

	markdown, opErr := s.generator.Generate(r.Context(), generate.Request{
		Transcript:     sess.Transcript(),
		SubjectName:    req.PreacherName,
		CustomTemplate: req.Template,
	})
	if !sess.CompleteGeneration(token, markdown, opErr) {
		WritePipelineError(w, pipeline.Errorf(pipeline.CodeInvalidState,
			"session was reset during generation"))
		return
	}
	if opErr != nil {
		WritePipelineError(w, opErr)
		return
	}
	WriteJSON(w, http.StatusOK, generateResponse{Markdown: markdown, Phase: string(sess.Machine.Phase())})
}
