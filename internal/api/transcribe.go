package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/snarg/toolkit-engine/internal/audio"
	"github.com/snarg/toolkit-engine/internal/pipeline"
)

type transcriptResponse struct {
	Transcript string `json:"transcript"`
	Phase      string `json:"phase"`
}

// handleTranscribeDirect accepts the audio inline as multipart form data
// and proxies it straight to the provider.
func (s *Server) handleTranscribeDirect(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	r.Body = http.MaxBytesReader(w, r.Body, audio.MaxBytes+(1<<20))
	if err := r.ParseMultipartForm(4 << 20); err != nil {
		WritePipelineError(w, pipeline.Errorf(pipeline.CodeFileTooLarge,
			"file too large; maximum is 25MB"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WritePipelineError(w, pipeline.Errorf(pipeline.CodeInvalidInput, "no file provided"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WritePipelineError(w, pipeline.Wrap(pipeline.CodeInvalidInput, "read upload", err))
		return
	}

	token, err := sess.BeginTranscription()
	if err != nil {
		WritePipelineError(w, err)
		return
	}

	transcript, opErr := s.transcriber.Direct(r.Context(), header.Filename, data)
	if !sess.CompleteTranscription(token, transcript, opErr) {
		// the session was reset while the provider ran; the result is dead
		WritePipelineError(w, pipeline.Errorf(pipeline.CodeInvalidState,
			"session was reset during transcription"))
		return
	}
	if opErr != nil {
		WritePipelineError(w, opErr)
		return
	}
	sess.SetSourceName(header.Filename)
	WriteJSON(w, http.StatusOK, transcriptResponse{Transcript: transcript, Phase: string(sess.Machine.Phase())})
}

type stagedTranscribeRequest struct {
	Key string `json:"key"`
}

// handleTranscribeStaged transcribes a previously staged blob. The blob
// is deleted after the attempt whatever the outcome.
func (s *Server) handleTranscribeStaged(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	var req stagedTranscribeRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WritePipelineError(w, err)
		return
	}

	token, err := sess.BeginTranscription()
	if err != nil {
		WritePipelineError(w, err)
		return
	}

	transcript, opErr := s.transcriber.Staged(r.Context(), req.Key)
	if !sess.CompleteTranscription(token, transcript, opErr) {
		WritePipelineError(w, pipeline.Errorf(pipeline.CodeInvalidState,
			"session was reset during transcription"))
		return
	}
	if opErr != nil {
		WritePipelineError(w, opErr)
		return
	}
	WriteJSON(w, http.StatusOK, transcriptResponse{Transcript: transcript, Phase: string(sess.Machine.Phase())})
}

type transcriptRequest struct {
	Text string `json:"text"`
}

// handleProvideTranscript accepts an existing transcript, skipping the
// audio path entirely. The body is either JSON with pasted text or a
// multipart upload of a .txt or .md file.
func (s *Server) handleProvideTranscript(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	text, err := readTranscriptBody(w, r)
	if err != nil {
		WritePipelineError(w, err)
		return
	}
	if err := sess.ProvideTranscript(text); err != nil {
		WritePipelineError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, transcriptResponse{Transcript: sess.Transcript(), Phase: string(sess.Machine.Phase())})
}

func readTranscriptBody(w http.ResponseWriter, r *http.Request) (string, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var req transcriptRequest
		if err := DecodeJSON(w, r, &req); err != nil {
			return "", err
		}
		return req.Text, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		return "", pipeline.Errorf(pipeline.CodeInvalidInput, "transcript upload too large")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", pipeline.Errorf(pipeline.CodeInvalidInput, "no file provided")
	}
	defer file.Close()

	switch ext := strings.ToLower(filepath.Ext(header.Filename)); ext {
	case ".txt", ".md":
	default:
		return "", pipeline.Errorf(pipeline.CodeUnsupportedFormat,
			"transcript files must be .txt or .md")
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", pipeline.Wrap(pipeline.CodeInvalidInput, "read upload", err)
	}
	return string(data), nil
}

// handleEditTranscript replaces the transcript under review.
func (s *Server) handleEditTranscript(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	var req transcriptRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WritePipelineError(w, err)
		return
	}
	if err := sess.EditTranscript(req.Text); err != nil {
		WritePipelineError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, transcriptResponse{Transcript: sess.Transcript(), Phase: string(sess.Machine.Phase())})
}
