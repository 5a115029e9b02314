package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/drivelink/voicebot/internal/config"
	"github.com/drivelink/voicebot/internal/handler"
	"github.com/drivelink/voicebot/internal/service/assistant"
	"github.com/drivelink/voicebot/internal/service/session"
	"github.com/drivelink/voicebot/internal/service/speech"
	"github.com/drivelink/voicebot/internal/service/telephony"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var assistantSvc *assistant.Service
	var sessions *session.Registry
	if cfg.Assistant.Enabled() {
		assistantSvc, err = assistant.NewService(cfg.Assistant)
		if err != nil {
			log.Fatalf("failed to initialize assistant service: %v", err)
		}
		sessions = session.NewRegistry(assistantSvc)
		log.Println("assistant service initialized")
	} else {
		log.Println("assistant credentials not configured, chat endpoints disabled")
	}

	var speechSvc *speech.Service
	if cfg.Speech.Enabled() {
		speechSvc = speech.NewService(cfg.Speech)
		log.Println("speech services initialized")
	} else {
		log.Println("speech credentials not configured, voice endpoints disabled")
	}

	var telephonySvc *telephony.Service
	if cfg.Telephony.Enabled() {
		telephonySvc, err = telephony.NewService(cfg.Telephony)
		if err != nil {
			log.Fatalf("failed to initialize telephony service: %v", err)
		}
		log.Println("telephony service initialized")
	} else {
		log.Println("telephony credentials not configured, call endpoint disabled")
	}

	router := handler.NewRouter(assistantSvc, sessions, speechSvc, telephonySvc)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("DriveLink voicebot listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
