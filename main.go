package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/movie-vault-be/internal/api"
	"github.com/isdelr/movie-vault-be/internal/auth"
	"github.com/isdelr/movie-vault-be/internal/config"
	"github.com/isdelr/movie-vault-be/internal/database"
	"github.com/isdelr/movie-vault-be/internal/logger"
	"github.com/isdelr/movie-vault-be/internal/monitoring"
	"github.com/isdelr/movie-vault-be/internal/services"
	"github.com/isdelr/movie-vault-be/internal/storage"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up poster storage (creates the uploads directory)
	posters, err := storage.NewPosterStore(cfg.UploadsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize poster storage")
	}

	// Set up services
	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	userService := services.NewUserService(db)
	movieService := services.NewMovieService(db, posters)

	// Set up and run the background orphan sweeper
	sweeper, err := monitoring.NewSweeper(db, posters.Dir(), cfg.SweepMinAge, cfg.SweepSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid sweep schedule")
	}
	go sweeper.Run()

	// Set up router
	router := api.NewRouter(tokens, userService, movieService, posters.Dir(), cfg.CORSOrigin)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
