package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"startype_service/internal/api"
	"startype_service/internal/config"
	"startype_service/internal/core"
	"startype_service/internal/domain/model"
	"startype_service/internal/domain/repository"
	"startype_service/internal/httpserver"
	"startype_service/internal/infrastructure/artifact"
	"startype_service/internal/infrastructure/mlclient"
	"startype_service/internal/telemetry"
)

const telemetryShutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.ParseServiceConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}
	log.SetPrefix("[STARTYPE] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}

func run(ctx context.Context, cfg config.ServiceConfig) error {
	shutdown, err := telemetry.Setup(ctx, "startype-service", telemetry.Options{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
	})
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	// The predictor is ready before the listener opens.
	predictor, err := newPredictor(ctx, cfg)
	if err != nil {
		return err
	}
	info := predictor.Info()
	log.Printf("Loaded model %s version %s from %s", info.Name, info.Version, info.Source)

	var recorder repository.PredictionRecorder
	if cfg.SavePredictions {
		db, err := repository.OpenDatabase(ctx, cfg.DBDriver, cfg.DBURL)
		if err != nil {
			return err
		}
		defer db.Close()
		recorder = repository.NewSQLPredictionRecorder(db)
		log.Printf("Recording predictions to %s database", cfg.DBDriver)
	}

	service := core.NewPredictionService(predictor, recorder, cfg.SavePredictions).
		WithVerbose(cfg.Verbose)
	handler := api.NewHandler(service, cfg.MaxUploadBytes)

	srv, err := httpserver.New(cfg.Addr, api.NewRouter(handler))
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}

func newPredictor(ctx context.Context, cfg config.ServiceConfig) (model.Predictor, error) {
	if cfg.PredictorURL != "" {
		client := mlclient.NewHTTPMLClient(cfg.PredictorURL, cfg.PredictorTimeout)
		if err := client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect to model server %s: %w", cfg.PredictorURL, err)
		}
		return client, nil
	}
	return artifact.Load(cfg.ArtifactPath)
}
