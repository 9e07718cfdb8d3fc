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

	"go-script-evaluator/internal/config"
	"go-script-evaluator/internal/container"
	"go-script-evaluator/internal/logger"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const shutdownGrace = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}
	logger.Configure(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	if err := run(); err != nil {
		log.Fatalf("evaluator api: %v", err)
	}
}

func run() error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	c, err := container.NewContainer(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.WithError(err).Warn("Failed to release resources")
		}
	}()

	server := &http.Server{
		Addr:        cfg.ServerAddress(),
		Handler:     c.Handler(),
		ReadTimeout: cfg.RequestTimeout,
		// A synchronous /evaluate response is written only after the last page.
		WriteTimeout: max(cfg.RequestTimeout, cfg.EvaluationTimeout+5*time.Second),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"address":            server.Addr,
			"timeout":            cfg.RequestTimeout,
			"evaluation_timeout": cfg.EvaluationTimeout,
		}).Info("Starting HTTP server")
		serveErr <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case sig := <-quit:
		logger.WithFields(logrus.Fields{"signal": sig.String()}).Info("Shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	logger.Info("Server exited")
	return nil
}
