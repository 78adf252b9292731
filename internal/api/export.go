package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/snarg/toolkit-engine/internal/document"
	"github.com/snarg/toolkit-engine/internal/export"
	"github.com/snarg/toolkit-engine/internal/metrics"
	"github.com/snarg/toolkit-engine/internal/pipeline"
)

func (s *Server) handleExportMarkdown(w http.ResponseWriter, r *http.Request) {
	doc := exportDocument(w, r)
	if doc == nil {
		return
	}
	metrics.ExportsTotal.WithLabelValues("markdown").Inc()
	serveArtifact(w, export.Source(doc))
}

func (s *Server) handleExportPlain(w http.ResponseWriter, r *http.Request) {
	doc := exportDocument(w, r)
	if doc == nil {
		return
	}
	metrics.ExportsTotal.WithLabelValues("plain").Inc()
	serveArtifact(w, export.Plain(doc))
}

func (s *Server) handleExportPrint(w http.ResponseWriter, r *http.Request) {
	doc := exportDocument(w, r)
	if doc == nil {
		return
	}
	a, err := s.printer.Export(r.Context(), doc)
	if err != nil {
		WritePipelineError(w, err)
		return
	}
	metrics.ExportsTotal.WithLabelValues("print").Inc()
	serveArtifact(w, a)
}

// handleExportTranscript downloads the transcript as plain text, named
// after the audio file it came from.
func (s *Server) handleExportTranscript(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	transcript := sess.Transcript()
	if transcript == "" {
		WritePipelineError(w, pipeline.Errorf(pipeline.CodeInvalidState, "no transcript yet"))
		return
	}

	filename := "transcript.txt"
	if name := sess.SourceName(); name != "" {
		stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		filename = stem + "_transcript.txt"
	}
	metrics.ExportsTotal.WithLabelValues("transcript").Inc()
	serveArtifact(w, export.Artifact{
		Filename:    filename,
		ContentType: "text/plain; charset=utf-8",
		Data:        []byte(transcript),
	})
}

func exportDocument(w http.ResponseWriter, r *http.Request) *document.Document {
	ed := requireEditor(w, r)
	if ed == nil {
		return nil
	}
	return ed.Document()
}

func serveArtifact(w http.ResponseWriter, a export.Artifact) {
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(a.Data)))
	w.Write(a.Data)
}
