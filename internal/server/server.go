// Package server provides the HTTP server and routing for Orbital.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/adgalaxy/orbital/internal/config"
	"github.com/adgalaxy/orbital/internal/modules/snapshots"
	"github.com/adgalaxy/orbital/internal/services"
)

// Server is the HTTP server exposing the scene to the rendering
// collaborator.
type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    *config.Config
	log    zerolog.Logger

	sceneHandlers  *SceneHandlers
	streamHandler  *StreamHandler
	systemHandlers *SystemHandlers
}

// Deps bundles what the server needs.
type Deps struct {
	Config        *config.Config
	SceneService  *services.SceneService
	SnapshotStore *snapshots.Store
	Log           zerolog.Logger
}

// New creates a configured server.
func New(deps Deps) *Server {
	router := chi.NewRouter()

	s := &Server{
		router: router,
		cfg:    deps.Config,
		log:    deps.Log.With().Str("component", "server").Logger(),
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", deps.Config.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		sceneHandlers:  NewSceneHandlers(deps.SceneService, deps.SnapshotStore, deps.Log),
		streamHandler:  NewStreamHandler(deps.SceneService, deps.Config, deps.Log),
		systemHandlers: NewSystemHandlers(deps.SceneService, deps.SnapshotStore, deps.Log),
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if !s.cfg.DevMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/scene", func(r chi.Router) {
			r.Post("/", s.sceneHandlers.HandleIngest)
			r.Get("/orbs", s.sceneHandlers.HandleOrbs)
			r.Get("/positions", s.sceneHandlers.HandlePositions)
			r.Get("/connections", s.sceneHandlers.HandleConnections)
			r.Get("/suggestions", s.sceneHandlers.HandleSuggestions)
			r.Get("/counts", s.sceneHandlers.HandleCounts)
			r.Get("/config", s.sceneHandlers.HandleConfig)
			r.Get("/stream", s.streamHandler.HandleStream)
		})

		r.Get("/snapshots", s.sceneHandlers.HandleSnapshotList)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Start begins serving; it blocks until the listener stops.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the handler tree for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
