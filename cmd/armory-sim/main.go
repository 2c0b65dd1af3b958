// Package main provides the armory simulator: one holder in a box arena
// driving the weapon core from console commands in real time.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/config"
	"github.com/cory-johannsen/armory/internal/observability"
	"github.com/cory-johannsen/armory/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting armory simulator",
		zap.String("holder", cfg.Simulation.HolderID),
		zap.Duration("tick", cfg.Simulation.TickInterval),
		zap.Bool("persistence", cfg.Database.Enabled),
	)

	ctx := context.Background()
	sim, cleanup, err := initializeSim(ctx, cfg, logger.Logger)
	if err != nil {
		logger.Fatal("initializing simulator", zap.Error(err))
	}
	defer cleanup()

	console := NewConsole(sim, sim.loop, os.Stdin, os.Stdout, logger.SetLevel)

	lc := server.NewLifecycle(logger.Logger)
	lc.Add("clock", &server.FuncService{
		StartFn: sim.loop.Run,
		StopFn:  sim.loop.Stop,
	})
	lc.Add("console", console)

	logger.Info("simulator ready", zap.Duration("startup", time.Since(start)))

	runErr := lc.Run(ctx)

	// The clock loop has stopped; the sim is single-threaded again.
	saveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := sim.SaveAmmo(saveCtx); err != nil {
		logger.Error("saving ammo", zap.Error(err))
	}
	cancel()
	sim.Close()

	if runErr != nil {
		logger.Error("simulator exited with error", zap.Error(runErr))
		cleanup()
		os.Exit(1)
	}
}
