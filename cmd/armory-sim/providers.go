package main

import (
	"context"
	"os"
	"time"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/config"
	"github.com/cory-johannsen/armory/internal/game/arena"
	"github.com/cory-johannsen/armory/internal/game/clock"
	"github.com/cory-johannsen/armory/internal/game/inventory"
	"github.com/cory-johannsen/armory/internal/game/weapon"
	"github.com/cory-johannsen/armory/internal/scripting"
	"github.com/cory-johannsen/armory/internal/storage/postgres"
)

var simSet = wire.NewSet(
	clock.NewManager,
	provideLoop,
	provideWorld,
	arena.NewRange,
	provideAvatar,
	arena.NewLogSink,
	provideRegistry,
	provideScripts,
	provideAmmoStore,
	provideArsenal,
	NewSim,
)

func provideLoop(clk *clock.Manager, cfg config.Config, logger *zap.Logger) *clock.Loop {
	return clock.NewLoop(clk, cfg.Simulation.TickInterval, logger)
}

func provideWorld(cfg config.Config) (*arena.World, error) {
	return arena.NewWorld(cfg.Arena.Boxes)
}

func provideAvatar(cfg config.Config, logger *zap.Logger) *arena.Avatar {
	ac := cfg.Arena.Avatar
	if ac.ID == "" {
		ac.ID = cfg.Simulation.HolderID
	}
	return arena.NewAvatar(ac, logger)
}

func provideArsenal(avatar *arena.Avatar, logger *zap.Logger) *inventory.Arsenal {
	return inventory.NewArsenal(avatar, logger)
}

func provideRegistry(cfg config.Config, logger *zap.Logger) (*inventory.Registry, error) {
	start := time.Now()
	defs, err := weapon.LoadDefs(cfg.Simulation.WeaponsDir)
	if err != nil {
		return nil, err
	}
	reg, err := inventory.NewRegistryFromDefs(defs)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded weapon definitions",
		zap.Int("count", len(defs)),
		zap.String("dir", cfg.Simulation.WeaponsDir),
		zap.Duration("elapsed", time.Since(start)),
	)
	return reg, nil
}

// provideScripts returns nil when scripting is disabled or the scripts
// directory does not exist.
func provideScripts(cfg config.Config, clk *clock.Manager, sink *arena.LogSink, logger *zap.Logger) (*scripting.Manager, func(), error) {
	dir := cfg.Simulation.ScriptsDir
	if dir == "" {
		return nil, func() {}, nil
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		logger.Warn("scripts directory not found, scripting disabled", zap.String("dir", dir))
		return nil, func() {}, nil
	}
	mgr := scripting.NewManager(logger)
	mgr.Now = clk.Now
	mgr.PlaySound = func(_, cue string) { sink.PlaySound(cue) }
	if err := mgr.LoadScope(cfg.Simulation.HolderID, dir, cfg.Simulation.ScriptInstructionLimit); err != nil {
		mgr.Close()
		return nil, nil, err
	}
	return mgr, mgr.Close, nil
}

// provideAmmoStore connects to PostgreSQL when persistence is enabled and
// returns a nil store otherwise.
func provideAmmoStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (AmmoStore, func(), error) {
	if !cfg.Database.Enabled {
		return nil, func() {}, nil
	}
	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewAmmoRepository(pool.DB()), pool.Close, nil
}
