package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/snarg/toolkit-engine/internal/pipeline"
)

type ctxKey int

const sessionKey ctxKey = 0

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Phase string `json:"phase"`
}

// handleLogin checks the shared password and mints a session. A missing
// server-side password is a deployment fault, reported as such rather
// than as a bad credential.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.cfg.AppPassword == "" {
		hlog.FromRequest(r).Error().Msg("APP_PASSWORD is not configured")
		WritePipelineError(w, pipeline.Errorf(pipeline.CodeAuthConfiguration,
			"authentication is not configured on the server"))
		return
	}

	var req loginRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WritePipelineError(w, err)
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.cfg.AppPassword)) != 1 {
		WritePipelineError(w, pipeline.Errorf(pipeline.CodeAuthRejected, "incorrect password"))
		return
	}

	sess, err := s.sessions.Create()
	if err != nil {
		WritePipelineError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, loginResponse{Token: sess.ID, Phase: string(sess.Machine.Phase())})
}

// requireSession resolves the bearer token into a live session and puts
// it on the request context.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = auth[7:]
		}
		sess, err := s.sessions.Get(token)
		if err != nil {
			WritePipelineError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

func sessionFrom(r *http.Request) *pipeline.Session {
	return r.Context().Value(sessionKey).(*pipeline.Session)
}
