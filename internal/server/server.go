package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nats-io/nats.go"

	"narratrack/internal/config"
	"narratrack/internal/domain/narrative"
	"narratrack/internal/server/handlers"
)

// Server represents the HTTP server.
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server wired to the tracker services.
func NewServer(
	cfg config.ServerConfig,
	detector narrative.Detector,
	analyzer narrative.Analyzer,
	documents handlers.DocumentFinder,
	pipeline handlers.ConnectorLister,
	natsConn *nats.Conn,
	narrativeSubject string,
	logger *slog.Logger,
) *Server {
	handlers.SetLogger(logger)

	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	narrativeHandler := handlers.NewNarrativeHandler(detector)
	documentHandler := handlers.NewDocumentHandler(documents)
	analyzeHandler := handlers.NewAnalyzeHandler(analyzer)
	sourceHandler := handlers.NewSourceHandler(pipeline)

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Route("/v1", func(r chi.Router) {
			r.Route("/narratives", func(r chi.Router) {
				r.Get("/", narrativeHandler.GetNarratives)
				r.Get("/{id}", narrativeHandler.GetNarrative)
			})

			r.Get("/documents", documentHandler.GetDocuments)
			r.Post("/analyze", analyzeHandler.Analyze)
			r.Get("/sources", sourceHandler.GetSources)
		})
	})

	// WebSocket endpoint for live narrative updates.
	router.Get("/ws/narratives", handlers.NarrativeStreamHandler(natsConn, narrativeSubject, logger))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
