package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/armory/internal/config"
	"github.com/cory-johannsen/armory/internal/game/arena"
	"github.com/cory-johannsen/armory/internal/game/clock"
	"github.com/cory-johannsen/armory/internal/game/weapon"
)

type fakeStore struct {
	saved   map[string][]weapon.Snapshot
	loadErr error
}

func (s *fakeStore) Save(_ context.Context, holderID string, snaps []weapon.Snapshot) error {
	if s.saved == nil {
		s.saved = make(map[string][]weapon.Snapshot)
	}
	s.saved[holderID] = snaps
	return nil
}

func (s *fakeStore) Load(_ context.Context, holderID string) ([]weapon.Snapshot, error) {
	return s.saved[holderID], s.loadErr
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	v := config.NewViper()
	v.Set("logging.level", "debug")
	v.Set("simulation.tick_interval", "1ms")
	v.Set("simulation.weapons_dir", "../../content/weapons")
	v.Set("simulation.scripts_dir", "../../content/scripts")
	v.Set("arena.boxes", []map[string]any{{
		"name": "target_wall",
		"min":  map[string]any{"x": 2000.0, "y": -1000.0, "z": -100.0},
		"max":  map[string]any{"x": 2100.0, "y": 1000.0, "z": 600.0},
	}})
	cfg, err := config.LoadFromViper(v)
	require.NoError(t, err)
	return cfg
}

// newTestSim assembles a Sim the way the injector does, with store in
// place of the database.
func newTestSim(t *testing.T, cfg config.Config, store AmmoStore) *Sim {
	t.Helper()
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	clk := clock.NewManager()
	loop := provideLoop(clk, cfg, logger)
	world, err := provideWorld(cfg)
	require.NoError(t, err)
	rng := arena.NewRange(world, logger)
	avatar := provideAvatar(cfg, logger)
	sink := arena.NewLogSink(logger)
	reg, err := provideRegistry(cfg, logger)
	require.NoError(t, err)
	scripts, cleanup, err := provideScripts(cfg, clk, sink, logger)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	arsenal := provideArsenal(avatar, logger)

	sim, err := NewSim(ctx, cfg, logger, clk, loop, world, rng, avatar, sink, reg, arsenal, scripts, store)
	require.NoError(t, err)
	t.Cleanup(sim.Close)
	return sim
}

func TestInitializeSim_WithoutDatabase(t *testing.T) {
	cfg := testConfig(t)
	sim, cleanup, err := initializeSim(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer cleanup()
	defer sim.Close()

	assert.Nil(t, sim.store)
	assert.NotNil(t, sim.scripts)
	assert.Len(t, sim.Arsenal().Weapons(), 2)
	assert.NoError(t, sim.SaveAmmo(context.Background()), "no store is a no-op")
}

func TestInitializeSim_UnknownStartWeapon(t *testing.T) {
	cfg := testConfig(t)
	cfg.Simulation.StartWeapons = []string{"railgun"}
	_, _, err := initializeSim(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestSim_RestoresAndSavesAmmo(t *testing.T) {
	cfg := testConfig(t)
	store := &fakeStore{saved: map[string][]weapon.Snapshot{
		"player": {{DefID: "assault-rifle", Magazine: 4, Total: 10}},
	}}
	sim := newTestSim(t, cfg, store)

	var rifle *weapon.Weapon
	for _, w := range sim.Arsenal().Weapons() {
		if w.Def().ID == "assault-rifle" {
			rifle = w
		}
	}
	require.NotNil(t, rifle)
	assert.Equal(t, 4, rifle.MagazineAmmo())
	assert.Equal(t, 10, rifle.TotalAmmo())

	rifle.GiveAmmo(5)
	require.NoError(t, sim.SaveAmmo(context.Background()))
	saved := store.saved["player"]
	require.Len(t, saved, 2)
	assert.Contains(t, saved, weapon.Snapshot{DefID: "assault-rifle", Magazine: 4, Total: 15})
}

func TestSim_StoreLoadFailureAborts(t *testing.T) {
	cfg := testConfig(t)
	logger := zaptest.NewLogger(t)
	clk := clock.NewManager()
	world, err := provideWorld(cfg)
	require.NoError(t, err)
	avatar := provideAvatar(cfg, logger)
	reg, err := provideRegistry(cfg, logger)
	require.NoError(t, err)

	_, err = NewSim(context.Background(), cfg, logger, clk, nil, world, arena.NewRange(world, logger), avatar,
		arena.NewLogSink(logger), reg, provideArsenal(avatar, logger), nil, &fakeStore{loadErr: errors.New("db down")})
	assert.ErrorContains(t, err, "db down")
}

func TestConsole_Session(t *testing.T) {
	cfg := testConfig(t)
	sim := newTestSim(t, cfg, nil)
	c := NewConsole(sim, nil, nil, nil, nil)
	clk := sim.Clock()

	reply, quit := c.Execute("equip rifle")
	assert.Equal(t, "drew Assault Rifle", reply)
	assert.False(t, quit)
	clk.Advance(500 * time.Millisecond)

	c.Execute("fire")
	clk.Advance(250 * time.Millisecond)
	c.Execute("stop")

	status, _ := c.Execute("status")
	assert.Contains(t, status, "weapon=assault-rifle")
	assert.Contains(t, status, "state=idle")
	assert.Contains(t, status, "ammo=27/117")
	assert.Contains(t, status, "shots=3")

	sim.Frame(time.Second)
	require.Len(t, sim.Range().Impacts(), 3)
	assert.InDelta(t, 2000, sim.Range().Impacts()[0].Point.X, 1e-6)

	reply, _ = c.Execute("pickup rifle 500")
	assert.Equal(t, "took 93 rounds", reply)

	reply, _ = c.Execute("look 90 120")
	assert.Equal(t, "looking yaw 90.0 pitch 89.0", reply)

	reply, _ = c.Execute("unequip")
	assert.Equal(t, "holstered", reply)
	reply, _ = c.Execute("fire")
	assert.Equal(t, "nothing in hand", reply)

	reply, quit = c.Execute("quit")
	assert.Equal(t, "bye", reply)
	assert.True(t, quit)
}

func TestConsole_RejectsBadInput(t *testing.T) {
	sim := newTestSim(t, testConfig(t), nil)
	c := NewConsole(sim, nil, nil, nil, nil)

	cases := map[string]string{
		"equip laser":     "unknown weapon type",
		"equip":           "usage: equip",
		"pickup rifle -3": "invalid amount",
		"pickup":          "usage: pickup",
		"look left up":    "must be numbers",
		"dance":           "unknown command",
		"reload":          "cannot reload",
		"log loud":        "usage: log",
	}
	for line, want := range cases {
		reply, quit := c.Execute(line)
		assert.Contains(t, reply, want, line)
		assert.False(t, quit, line)
	}
	reply, _ := c.Execute("   ")
	assert.Empty(t, reply)
}

func TestConsole_StartRunsCommandsOnLoop(t *testing.T) {
	cfg := testConfig(t)
	sim := newTestSim(t, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loopDone := make(chan error, 1)
	go func() { loopDone <- sim.loop.Run(ctx) }()

	var out strings.Builder
	var levels []string
	c := NewConsole(sim, sim.loop, strings.NewReader("equip pistol\nlog warn\nstatus\nquit\nstatus\n"), &out,
		func(l string) error { levels = append(levels, l); return nil })

	require.NoError(t, c.Start(ctx))
	cancel()
	require.NoError(t, <-loopDone)

	text := out.String()
	assert.Contains(t, text, "drew Service Pistol")
	assert.Contains(t, text, "log level warn")
	assert.Contains(t, text, "weapon=service-pistol")
	assert.Contains(t, text, "bye")
	assert.Equal(t, 1, strings.Count(text, "weapon=service-pistol"), "input after quit is ignored")
	assert.Equal(t, []string{"warn"}, levels)
}

func TestConsole_StartReturnsOnEOF(t *testing.T) {
	sim := newTestSim(t, testConfig(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	loopDone := make(chan error, 1)
	go func() { loopDone <- sim.loop.Run(ctx) }()

	var out strings.Builder
	c := NewConsole(sim, sim.loop, strings.NewReader("status\n"), &out, nil)
	assert.NoError(t, c.Start(ctx))
	cancel()
	require.NoError(t, <-loopDone)
	assert.Contains(t, out.String(), "weapon=none")
}
