package api

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Sessions int    `json:"sessions"`
	Storage  string `json:"storage"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Version:  s.version,
		Uptime:   time.Since(s.startTime).Round(time.Second).String(),
		Sessions: s.sessions.Len(),
		Storage:  s.storeType,
	})
}
