// Package main runs a headless world through the spatial partition and
// reports how the index behaved.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-spatial/internal/config"
	"github.com/Faultbox/midgard-spatial/internal/engine/scene"
	"github.com/Faultbox/midgard-spatial/internal/logger"
	"github.com/Faultbox/midgard-spatial/internal/sim"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.InitWithOptions(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Console: true,
		File:    fileConfig(cfg.Logging.LogFile),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Midgard Spatial Partition Simulator ===",
		zap.String("tree", cfg.Partition.Tree),
		zap.Int("actors", cfg.Sim.Actors),
		zap.Int("frames", cfg.Sim.Frames),
		zap.Int("fps", cfg.Sim.FPS),
	)
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		srv := serveMetrics(cfg.Metrics.Addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	world, err := scene.NewWorld(cfg.Partition.ToCoordinatorConfig(), logger.Log)
	if err != nil {
		logger.Error("failed to create world", zap.Error(err))
		os.Exit(1)
	}

	s := sim.New(cfg.Sim, world, cfg.Partition.WorldBound(), logger.Log)
	s.Populate()

	report, err := s.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("simulation error", zap.Error(err))
	}

	if err := sim.SaveReport(cfg.Sim.StatsFile, report); err != nil {
		logger.Error("failed to write report", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("simulation finished",
		zap.Int("frames", report.Frames),
		zap.Duration("elapsed", report.Elapsed),
		zap.Duration("max_frame_time", report.MaxFrameTime),
	)
}

func fileConfig(path string) logger.FileConfig {
	if path == "" {
		return logger.FileConfig{}
	}
	return logger.DefaultFileConfig(path)
}

func serveMetrics(addr string) *http.Server {
	var mux http.ServeMux
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: &mux}
	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}
