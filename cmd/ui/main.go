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
	"startype_service/internal/httpserver"
	"startype_service/internal/telemetry"
	"startype_service/internal/ui"
)

func main() {
	cfg, err := config.ParseUIConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}
	log.SetPrefix("[STARTYPE-UI] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}

func run(ctx context.Context, cfg config.UIConfig) error {
	shutdown, err := telemetry.Setup(ctx, "startype-ui", telemetry.Options{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
	})
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	client := ui.NewAPIClient(cfg.APIURL, cfg.APITimeout)
	handler := api.Chain(ui.NewRouter(ui.NewHandler(client)),
		api.RequestID(),
		api.AccessLog(),
		api.Trace(),
		api.RecoverPanic(),
	)
	log.Printf("Using prediction service at %s", cfg.APIURL)

	srv, err := httpserver.New(cfg.Addr, handler)
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx)
}
