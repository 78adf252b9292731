package api

import (
	"net/http"

	"github.com/snarg/toolkit-engine/internal/editor"
	"github.com/snarg/toolkit-engine/internal/pipeline"
)

type documentResponse struct {
	Source string `json:"source"`
	HTML   string `json:"html"`
	View   string `json:"view"`
}

// requireEditor fetches the session's editor or reports that no toolkit
// has been generated yet.
func requireEditor(w http.ResponseWriter, r *http.Request) *editor.Editor {
	ed := sessionFrom(r).Editor()
	if ed == nil {
		WritePipelineError(w, pipeline.Errorf(pipeline.CodeInvalidState,
			"no toolkit to review yet"))
	}
	return ed
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	ed := requireEditor(w, r)
	if ed == nil {
		return
	}
	html, err := ed.Document().PreviewHTML()
	if err != nil {
		WritePipelineError(w, pipeline.Wrap(pipeline.CodeInvalidState, "render preview", err))
		return
	}
	WriteJSON(w, http.StatusOK, documentResponse{
		Source: ed.Document().Source(),
		HTML:   html,
		View:   string(ed.View()),
	})
}

type documentUpdateRequest struct {
	Source string `json:"source"`
}

// handlePutDocument replaces the markdown source. The next preview and
// every export follow from the new text.
func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	ed := requireEditor(w, r)
	if ed == nil {
		return
	}
	var req documentUpdateRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WritePipelineError(w, err)
		return
	}
	ed.Document().SetSource(req.Source)
	html, err := ed.Document().PreviewHTML()
	if err != nil {
		WritePipelineError(w, pipeline.Wrap(pipeline.CodeInvalidState, "render preview", err))
		return
	}
	WriteJSON(w, http.StatusOK, documentResponse{Source: req.Source, HTML: html, View: string(ed.View())})
}

type viewRequest struct {
	View string `json:"view"`
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	ed := requireEditor(w, r)
	if ed == nil {
		return
	}
	var req viewRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WritePipelineError(w, err)
		return
	}
	if err := ed.SetView(editor.View(req.View)); err != nil {
		WritePipelineError(w, pipeline.Wrap(pipeline.CodeInvalidInput, "set view", err))
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"view": req.View})
}

type scrollRequest struct {
	Pane   string          `json:"pane"`
	Source editor.Geometry `json:"source"`
	Target editor.Geometry `json:"target"`
}

type scrollResponse struct {
	Apply  bool    `json:"apply"`
	Offset float64 `json:"offset"`
}

// handleScroll reports one pane's scroll and returns the offset the
// opposite pane should move to, if any.
func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	ed := requireEditor(w, r)
	if ed == nil {
		return
	}
	var req scrollRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WritePipelineError(w, err)
		return
	}

	var pane editor.Pane
	switch req.Pane {
	case "source":
		pane = editor.PaneSource
	case "preview":
		pane = editor.PanePreview
	default:
		WritePipelineError(w, pipeline.Errorf(pipeline.CodeInvalidInput, "unknown pane: %s", req.Pane))
		return
	}

	offset, apply := ed.Scroll(pane, req.Source, req.Target)
	WriteJSON(w, http.StatusOK, scrollResponse{Apply: apply, Offset: offset})
}
