package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"financial_catalog/pkg/api/financials"
	"financial_catalog/pkg/api/server"
	"financial_catalog/pkg/api/viewer"
	"financial_catalog/pkg/core/config"
	"financial_catalog/pkg/core/logger"
	"financial_catalog/pkg/core/merge"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if logger.IsProduction(cfg.Log.Mode) {
		gin.SetMode(gin.ReleaseMode)
	}

	fetcher, err := cfg.NewFetcher(log)
	if err != nil {
		log.Fatal("failed to init fetcher", "error", err)
	}
	merger := merge.NewMerger(cfg.MergeOptions(), log)

	fh := financials.NewHandler(fetcher, merger, log)
	router := server.NewRouter(server.RouterConfig{
		AllowOrigins:      cfg.Server.AllowOrigins,
		FinancialsHandler: fh,
		ViewerHandler:     viewer.NewHandler(fh, log),
		Logger:            log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
	log.Info("server stopped")
}
