package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/config"
	"github.com/cory-johannsen/armory/internal/game/arena"
	"github.com/cory-johannsen/armory/internal/game/clock"
	"github.com/cory-johannsen/armory/internal/game/geom"
	"github.com/cory-johannsen/armory/internal/game/inventory"
	"github.com/cory-johannsen/armory/internal/game/weapon"
	"github.com/cory-johannsen/armory/internal/scripting"
)

// AmmoStore persists a holder's ammo between runs.
type AmmoStore interface {
	Save(ctx context.Context, holderID string, snaps []weapon.Snapshot) error
	Load(ctx context.Context, holderID string) ([]weapon.Snapshot, error)
}

// Sim is one holder standing in an arena with an arsenal. Every method must
// run on the clock goroutine.
type Sim struct {
	holderID string
	logger   *zap.Logger

	clk     *clock.Manager
	loop    *clock.Loop
	world   *arena.World
	rng     *arena.Range
	avatar  *arena.Avatar
	sink    *arena.LogSink
	sockets map[string]geom.Transform

	registry *inventory.Registry
	arsenal  *inventory.Arsenal
	scripts  *scripting.Manager
	store    AmmoStore

	shots     int
	outOfAmmo int
}

// NewSim assembles the simulator, spawns the configured start weapons and
// restores persisted ammo when a store is present.
//
// Precondition: scripts and store may be nil; everything else must be non-nil.
// Postcondition: Returns a Sim with every start weapon carried and holstered.
func NewSim(
	ctx context.Context,
	cfg config.Config,
	logger *zap.Logger,
	clk *clock.Manager,
	loop *clock.Loop,
	world *arena.World,
	rng *arena.Range,
	avatar *arena.Avatar,
	sink *arena.LogSink,
	registry *inventory.Registry,
	arsenal *inventory.Arsenal,
	scripts *scripting.Manager,
	store AmmoStore,
) (*Sim, error) {
	s := &Sim{
		holderID: cfg.Simulation.HolderID,
		logger:   logger,
		clk:      clk,
		loop:     loop,
		world:    world,
		rng:      rng,
		avatar:   avatar,
		sink:     sink,
		sockets:  cfg.Arena.MeshSockets,
		registry: registry,
		arsenal:  arsenal,
		scripts:  scripts,
		store:    store,
	}

	defs, err := registry.Resolve(cfg.Simulation.StartWeapons)
	if err != nil {
		return nil, err
	}
	if err := arsenal.SpawnStartWeapons(defs, s.newWeapon); err != nil {
		return nil, err
	}

	if store != nil {
		snaps, err := store.Load(ctx, s.holderID)
		if err != nil {
			return nil, fmt.Errorf("loading saved ammo: %w", err)
		}
		if err := arsenal.Restore(snaps); err != nil {
			return nil, fmt.Errorf("restoring saved ammo: %w", err)
		}
		logger.Info("ammo restored", zap.String("holder", s.holderID), zap.Int("weapons", len(snaps)))
	}

	if loop != nil {
		loop.OnFrame(s.Frame)
	}
	return s, nil
}

func (s *Sim) newWeapon(def *weapon.Def) (*weapon.Weapon, error) {
	w, err := weapon.New(def, weapon.Deps{
		Clock:     s.clk,
		Probe:     s.world,
		Mesh:      arena.NewMesh(s.sockets),
		Spawner:   s.rng,
		Cosmetics: s.sink,
		Logger:    s.logger,
	})
	if err != nil {
		return nil, err
	}
	if s.scripts != nil {
		w.Subscribe(scripting.NewWeaponHooks(s.scripts, s.holderID))
	}
	w.Subscribe(weapon.ObserverFuncs{
		ShotFired: func(*weapon.Weapon, weapon.Shot) { s.shots++ },
		OutOfAmmo: func(*weapon.Weapon) { s.outOfAmmo++ },
		Diagnostic: func(w *weapon.Weapon, err error) {
			s.logger.Warn("weapon diagnostic", zap.String("def", w.Def().ID), zap.Error(err))
		},
	})
	return w, nil
}

// Frame moves projectiles; it runs after timers on every clock tick.
func (s *Sim) Frame(dt time.Duration) {
	s.rng.Advance(dt)
}

// Arsenal returns the holder's weapons.
func (s *Sim) Arsenal() *inventory.Arsenal { return s.arsenal }

// Avatar returns the holder.
func (s *Sim) Avatar() *arena.Avatar { return s.avatar }

// Range returns the projectile range.
func (s *Sim) Range() *arena.Range { return s.rng }

// Clock returns the virtual clock.
func (s *Sim) Clock() *clock.Manager { return s.clk }

// SaveAmmo writes the arsenal's ammo to the store. Without a store it does
// nothing.
func (s *Sim) SaveAmmo(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	snaps := s.arsenal.Snapshot()
	if err := s.store.Save(ctx, s.holderID, snaps); err != nil {
		return fmt.Errorf("saving ammo for %s: %w", s.holderID, err)
	}
	s.logger.Info("ammo saved", zap.String("holder", s.holderID), zap.Int("weapons", len(snaps)))
	return nil
}

// Close holsters and releases every weapon.
func (s *Sim) Close() {
	s.arsenal.Close()
}

// Status is a point-in-time summary for the console.
type Status struct {
	Now        time.Duration
	Weapon     string
	State      weapon.State
	Magazine   int
	Total      int
	Yaw, Pitch float64
	Shots      int
	OutOfAmmo  int
	InFlight   int
	Impacts    int
	LastImpact *arena.Impact
}

// Status reports the current weapon and range counters.
func (s *Sim) Status() Status {
	st := Status{
		Now:       s.clk.Now(),
		Weapon:    "none",
		Yaw:       s.avatar.View().Yaw,
		Pitch:     s.avatar.View().Pitch,
		Shots:     s.shots,
		OutOfAmmo: s.outOfAmmo,
		InFlight:  len(s.rng.InFlight()),
	}
	if w := s.arsenal.Current(); w != nil {
		st.Weapon = w.Def().ID
		st.State = w.State()
		st.Magazine = w.MagazineAmmo()
		st.Total = w.TotalAmmo()
	}
	impacts := s.rng.Impacts()
	st.Impacts = len(impacts)
	if n := len(impacts); n > 0 {
		last := impacts[n-1]
		st.LastImpact = &last
	}
	return st
}

var errUnknownWeaponType = errors.New("unknown weapon type")

func parseType(s string) (weapon.Type, error) {
	switch t := weapon.Type(s); t {
	case weapon.TypePistol, weapon.TypeRifle:
		return t, nil
	default:
		return "", fmt.Errorf("%w %q (want pistol or rifle)", errUnknownWeaponType, s)
	}
}
