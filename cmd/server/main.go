// Package main is the entry point for the Orbital layout service. It
// turns advertising-account hierarchy snapshots into an animated orbital
// scene: deterministic placements, live positions, synthetic
// recommendation orbs and a creative similarity graph, served over HTTP
// and a websocket position stream.
package main

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/adgalaxy/orbital/internal/config"
	"github.com/adgalaxy/orbital/internal/database"
	"github.com/adgalaxy/orbital/internal/modules/classification"
	"github.com/adgalaxy/orbital/internal/modules/layout"
	"github.com/adgalaxy/orbital/internal/modules/similarity"
	"github.com/adgalaxy/orbital/internal/modules/snapshots"
	"github.com/adgalaxy/orbital/internal/modules/suggestions"
	"github.com/adgalaxy/orbital/internal/scheduler"
	"github.com/adgalaxy/orbital/internal/server"
	"github.com/adgalaxy/orbital/internal/services"
	"github.com/adgalaxy/orbital/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Int("port", cfg.Port).
		Str("data_dir", cfg.DataDir).
		Msg("Starting Orbital")

	// Snapshot database.
	db, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "snapshots.db"),
		Name: "snapshots",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open snapshot database")
	}
	defer db.Close()

	store, err := snapshots.NewStore(db.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize snapshot store")
	}

	// Scene pipeline. The unseeded sources give the live system its
	// organic lifecycle jitter and approach fallback; tests inject
	// seeded sources instead.
	classifierRNG := rand.New(rand.NewSource(time.Now().UnixNano()))
	generatorRNG := rand.New(rand.NewSource(time.Now().UnixNano() + 1))

	classifier := classification.NewClassifier(classifierRNG, log)
	sceneService := services.NewSceneService(
		layout.NewEngine(classifier, log),
		suggestions.NewGenerator(generatorRNG, log),
		similarity.NewBuilder(log),
		log,
	)

	// Restore the last snapshot so the renderer has a scene right after
	// a restart.
	if root, snap, err := store.Latest(); err == nil {
		if _, buildErr := sceneService.BuildScene(root); buildErr != nil {
			log.Warn().Err(buildErr).Str("snapshot", snap.ID).Msg("Stored snapshot no longer builds, waiting for fresh data")
		} else {
			log.Info().Str("snapshot", snap.ID).Int("nodes", snap.NodeCount).Msg("Scene restored from last snapshot")
		}
	} else if !errors.Is(err, snapshots.ErrNoSnapshots) {
		log.Warn().Err(err).Msg("Failed to read last snapshot")
	}

	// Background maintenance.
	sched := scheduler.New(log)
	retention := snapshots.NewRetentionJob(store, cfg.SnapshotRetention, log)
	if err := sched.AddJob("@hourly", retention); err != nil {
		log.Fatal().Err(err).Msg("Failed to register retention job")
	}
	sched.Start()

	srv := server.New(server.Deps{
		Config:        cfg,
		SceneService:  sceneService,
		SnapshotStore: store,
		Log:           log,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
