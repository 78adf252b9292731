package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/snarg/toolkit-engine/internal/config"
	"github.com/snarg/toolkit-engine/internal/export"
	"github.com/snarg/toolkit-engine/internal/generate"
	"github.com/snarg/toolkit-engine/internal/metrics"
	"github.com/snarg/toolkit-engine/internal/pipeline"
	"github.com/snarg/toolkit-engine/internal/transcribe"
	"github.com/snarg/toolkit-engine/internal/transfer"
)

type Server struct {
	cfg         *config.Config
	sessions    *pipeline.Registry
	router      *transfer.Router
	transcriber *transcribe.Service
	generator   *generate.Client
	printer     *export.PrintExporter
	storeType   string
	version     string
	startTime   time.Time
	http        *http.Server
	log         zerolog.Logger
}

type Deps struct {
	Sessions    *pipeline.Registry
	Router      *transfer.Router
	Transcriber *transcribe.Service
	Generator   *generate.Client
	Printer     *export.PrintExporter
	StoreType   string
	Version     string
}

func NewServer(cfg *config.Config, deps Deps, log zerolog.Logger) *Server {
	s := &Server{
		cfg:         cfg,
		sessions:    deps.Sessions,
		router:      deps.Router,
		transcriber: deps.Transcriber,
		generator:   deps.Generator,
		printer:     deps.Printer,
		storeType:   deps.StoreType,
		version:     deps.Version,
		startTime:   time.Now(),
		log:         log,
	}

	s.http = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      s.routes(log),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) routes(log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(log))
	r.Use(CORS)
	r.Use(metrics.InstrumentHandler)

	// Unauthenticated surface
	r.Get("/api/v1/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/v1/auth", s.handleLogin)

	// Session-scoped routes
	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Get("/api/v1/session", s.handleSessionState)
		r.Post("/api/v1/session/reset", s.handleReset)

		r.Post("/api/v1/uploads", s.handleRoute)
		r.Put("/api/v1/uploads/{key}", s.handleStage)

		r.Post("/api/v1/transcribe", s.handleTranscribeDirect)
		r.Post("/api/v1/transcribe/staged", s.handleTranscribeStaged)
		r.Post("/api/v1/transcript", s.handleProvideTranscript)
		r.Put("/api/v1/transcript", s.handleEditTranscript)

		r.Post("/api/v1/generate", s.handleGenerate)

		r.Get("/api/v1/document", s.handleGetDocument)
		r.Put("/api/v1/document", s.handlePutDocument)
		r.Post("/api/v1/editor/view", s.handleSetView)
		r.Post("/api/v1/editor/scroll", s.handleScroll)

		r.Get("/api/v1/export/transcript", s.handleExportTranscript)
		r.Get("/api/v1/export/markdown", s.handleExportMarkdown)
		r.Get("/api/v1/export/plain", s.handleExportPlain)
		r.Get("/api/v1/export/print", s.handleExportPrint)
	})

	return r
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

type sessionStateResponse struct {
	Phase         string `json:"phase"`
	Busy          bool   `json:"busy"`
	HasTranscript bool   `json:"has_transcript"`
	HasDocument   bool   `json:"has_document"`
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	WriteJSON(w, http.StatusOK, sessionStateResponse{
		Phase:         string(sess.Machine.Phase()),
		Busy:          sess.Machine.Busy(),
		HasTranscript: sess.Transcript() != "",
		HasDocument:   sess.Document() != nil,
	})
}

// handleReset discards transcript and toolkit and returns the session to
// collecting input. Any operation still in flight lands dead.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.Reset()
	WriteJSON(w, http.StatusOK, sessionStateResponse{
		Phase: string(sess.Machine.Phase()),
	})
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
