package weapon_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/armory/internal/game/clock"
	"github.com/cory-johannsen/armory/internal/game/geom"
	"github.com/cory-johannsen/armory/internal/game/weapon"
)

type fakeAim struct {
	pos geom.Vec3
	rot geom.Rotator
}

func (a *fakeAim) ViewPoint() (geom.Vec3, geom.Rotator) { return a.pos, a.rot }

type fakeHolder struct {
	aim     *fakeAim
	noAim   bool
	loc     geom.Vec3
	anims   map[string]time.Duration
	played  []string
	stopped []string
}

func newFakeHolder() *fakeHolder {
	return &fakeHolder{aim: &fakeAim{}, anims: map[string]time.Duration{}}
}

func (h *fakeHolder) AttachPoint() string { return "hand_r" }

func (h *fakeHolder) AimSource() (weapon.AimSource, bool) {
	if h.noAim {
		return nil, false
	}
	return h.aim, true
}

func (h *fakeHolder) Location() geom.Vec3 { return h.loc }

func (h *fakeHolder) PlayAnimation(clip string) time.Duration {
	h.played = append(h.played, clip)
	return h.anims[clip]
}

func (h *fakeHolder) StopAnimation(clip string) { h.stopped = append(h.stopped, clip) }

type fakeMesh struct {
	attached bool
	point    string
	muzzle   geom.Transform
	noMuzzle bool
}

func (m *fakeMesh) Attach(_ weapon.Holder, point string, _ geom.Transform) {
	m.attached = true
	m.point = point
}

func (m *fakeMesh) Detach() {
	m.attached = false
	m.point = ""
}

func (m *fakeMesh) Socket(string) (geom.Transform, bool) {
	if !m.attached || m.noMuzzle {
		return geom.Transform{}, false
	}
	return m.muzzle, true
}

type spawn struct {
	origin geom.Vec3
	rot    geom.Rotator
}

type fakeSpawner struct {
	spawns []spawn
}

func (s *fakeSpawner) Spawn(origin geom.Vec3, rot geom.Rotator, _ weapon.ProjectileParams) {
	s.spawns = append(s.spawns, spawn{origin: origin, rot: rot})
}

type fakeCosmetics struct {
	sounds  []string
	muzzles int
	shakes  int
}

func (c *fakeCosmetics) PlaySound(cue string) { c.sounds = append(c.sounds, cue) }
func (c *fakeCosmetics) PlayMuzzleEffect()    { c.muzzles++ }
func (c *fakeCosmetics) PlayCameraShake()     { c.shakes++ }

type transition struct {
	from, to weapon.State
}

type recorder struct {
	ammo        [][2]int
	shots       []weapon.Shot
	outOfAmmo   int
	transitions []transition
	diagnostics []error
}

func (r *recorder) OnAmmoChanged(_ *weapon.Weapon, magazine, total int) {
	r.ammo = append(r.ammo, [2]int{magazine, total})
}
func (r *recorder) OnShotFired(_ *weapon.Weapon, shot weapon.Shot) { r.shots = append(r.shots, shot) }
func (r *recorder) OnOutOfAmmo(*weapon.Weapon)                     { r.outOfAmmo++ }
func (r *recorder) OnStateChanged(_ *weapon.Weapon, from, to weapon.State) {
	r.transitions = append(r.transitions, transition{from, to})
}
func (r *recorder) OnDiagnostic(_ *weapon.Weapon, err error) {
	r.diagnostics = append(r.diagnostics, err)
}

func (r *recorder) shotTimes() []time.Duration {
	out := make([]time.Duration, len(r.shots))
	for i, s := range r.shots {
		out[i] = s.At
	}
	return out
}

func testDef() *weapon.Def {
	return &weapon.Def{
		ID:               "test-rifle",
		Name:             "Test Rifle",
		Type:             weapon.TypeRifle,
		FireMode:         weapon.FireModeAuto,
		MagazineCapacity: 10,
		MaxAmmo:          50,
		InitialClips:     3,
		TimeBetweenShots: 100 * time.Millisecond,
		ReloadDuration:   time.Second,
		MuzzleSocket:     "muzzle",
		Cues: weapon.Cues{
			Fire:      "fire",
			OutOfAmmo: "click",
			Reload:    "reload",
			Equip:     "equip",
		},
	}
}

type rig struct {
	clk       *clock.Manager
	w         *weapon.Weapon
	holder    *fakeHolder
	mesh      *fakeMesh
	spawner   *fakeSpawner
	cosmetics *fakeCosmetics
	rec       *recorder
}

func newRig(t *testing.T, def *weapon.Def) *rig {
	t.Helper()
	r := &rig{
		clk:       clock.NewManager(),
		holder:    newFakeHolder(),
		mesh:      &fakeMesh{muzzle: geom.Transform{Location: geom.Vec3{X: 20, Y: 10, Z: -5}}},
		spawner:   &fakeSpawner{},
		cosmetics: &fakeCosmetics{},
		rec:       &recorder{},
	}
	w, err := weapon.New(def, weapon.Deps{
		Clock:     r.clk,
		Mesh:      r.mesh,
		Spawner:   r.spawner,
		Cosmetics: r.cosmetics,
		Logger:    zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	r.w = w
	w.Subscribe(r.rec)
	w.SetHolder(r.holder)
	return r
}

// equipped returns a rig whose weapon is equipped with the given ammo and a
// clean recorder.
func equipped(t *testing.T, def *weapon.Def, magazine, total int) *rig {
	t.Helper()
	r := newRig(t, def)
	require.NoError(t, r.w.Restore(weapon.Snapshot{DefID: def.ID, Magazine: magazine, Total: total}))
	require.NoError(t, r.w.Equip())
	*r.rec = recorder{}
	return r
}
