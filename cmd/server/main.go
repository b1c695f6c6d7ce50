package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"despesify/internal/app"
	"despesify/internal/config"
	"despesify/internal/handler"
	"despesify/internal/logger"
	"despesify/internal/router"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	r := router.Setup(a.Auth, cfg.CORS.AllowedOrigins, cfg.OCR.MaxFileSizeBytes(), router.Handlers{
		Health: handler.NewHealthHandler(a.DB, handler.HealthInfo{
			DBDriver:       cfg.DB.Driver,
			NIFProviders:   cfg.NIF.Providers,
			OCREngine:      cfg.OCR.Engine,
			QRAmountPolicy: cfg.QR.AmountPolicy,
		}),
		OCR:    handler.NewOCRHandler(a.Extraction),
		QR:     handler.NewQRHandler(a.Extraction),
		NIF:    handler.NewNIFHandler(a.NIF),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	l := logger.WithComponent("server")
	errCh := make(chan error, 1)
	go func() {
		l.Info().Str("addr", cfg.Server.Port).Bool("auth", a.Auth.Enabled()).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	l.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
