package weapon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/armory/internal/game/clock"
	"github.com/cory-johannsen/armory/internal/game/geom"
)

type stubAim struct{}

func (stubAim) ViewPoint() (geom.Vec3, geom.Rotator) { return geom.Vec3{}, geom.Rotator{} }

type stubHolder struct{}

func (stubHolder) AttachPoint() string                { return "hand" }
func (stubHolder) AimSource() (AimSource, bool)       { return stubAim{}, true }
func (stubHolder) Location() geom.Vec3                { return geom.Vec3{} }
func (stubHolder) PlayAnimation(string) time.Duration { return 0 }
func (stubHolder) StopAnimation(string)               {}

type stubMesh struct{ attached bool }

func (m *stubMesh) Attach(Holder, string, geom.Transform) { m.attached = true }
func (m *stubMesh) Detach()                               { m.attached = false }
func (m *stubMesh) Socket(string) (geom.Transform, bool) {
	return geom.Transform{}, m.attached
}

func stubDef() *Def {
	return &Def{
		ID:               "stub",
		Type:             TypePistol,
		FireMode:         FireModeAuto,
		MagazineCapacity: 4,
		MaxAmmo:          12,
		InitialClips:     2,
		TimeBetweenShots: 50 * time.Millisecond,
		ReloadDuration:   200 * time.Millisecond,
		MuzzleSocket:     "muzzle",
	}
}

func TestDetermineState_IsIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		def := stubDef()
		if rapid.Bool().Draw(rt, "single") {
			def.FireMode = FireModeSingle
		}
		clk := clock.NewManager()
		w, err := New(def, Deps{Clock: clk, Mesh: &stubMesh{}})
		require.NoError(t, err)
		w.SetHolder(stubHolder{})

		transitions := 0
		w.Subscribe(ObserverFuncs{StateChanged: func(*Weapon, State, State) { transitions++ }})

		for i, n := 0, rapid.IntRange(1, 40).Draw(rt, "ops"); i < n; i++ {
			switch rapid.IntRange(0, 7).Draw(rt, "op") {
			case 0:
				_ = w.Equip()
			case 1:
				w.Unequip()
			case 2:
				w.StartFire()
			case 3:
				w.StopFire()
			case 4:
				w.StartReload()
			case 5:
				w.GiveAmmo(rapid.IntRange(0, 8).Draw(rt, "ammo"))
			case 6:
				clk.Advance(time.Duration(rapid.IntRange(0, 300).Draw(rt, "dt")) * time.Millisecond)
			case 7:
				_ = w.Restore(Snapshot{
					DefID:    def.ID,
					Magazine: rapid.IntRange(0, 4).Draw(rt, "magazine"),
					Total:    rapid.IntRange(0, 12).Draw(rt, "total"),
				})
			}

			state, shots, pending := w.State(), w.ledger.Total(), clk.Pending()
			before := transitions
			w.determineState()
			if w.State() != state || transitions != before {
				rt.Fatalf("determineState changed %v to %v with no new input", state, w.State())
			}
			if w.ledger.Total() != shots || clk.Pending() != pending {
				rt.Fatalf("determineState had side effects")
			}
		}
	})
}

func TestDetermineState_HeldTriggerThenEquipIsStable(t *testing.T) {
	clk := clock.NewManager()
	w, err := New(stubDef(), Deps{Clock: clk, Mesh: &stubMesh{}})
	require.NoError(t, err)
	w.SetHolder(stubHolder{})

	w.StartFire()
	require.NoError(t, w.Equip())
	require.Equal(t, StateFiring, w.State())
	magazine := w.ledger.Magazine()

	w.determineState()
	assert.Equal(t, StateFiring, w.State())
	assert.Equal(t, magazine, w.ledger.Magazine())
}

func TestSetState_SameStateHasNoSideEffects(t *testing.T) {
	clk := clock.NewManager()
	w, err := New(stubDef(), Deps{Clock: clk, Mesh: &stubMesh{}})
	require.NoError(t, err)
	w.SetHolder(stubHolder{})
	require.NoError(t, w.Equip())
	w.StartFire()
	require.Equal(t, StateFiring, w.State())
	require.True(t, w.fireTimer.Active())

	token := w.fireTimer.Token()
	w.setState(StateFiring)
	assert.Equal(t, token, w.fireTimer.Token(), "re-entering Firing must not restart the burst")
	assert.Equal(t, 3, w.MagazineAmmo())
}
