package weapon

import (
	"time"

	"github.com/cory-johannsen/armory/internal/game/geom"
)

// Shot describes one fired round.
type Shot struct {
	// Origin is where the projectile was spawned.
	Origin geom.Vec3
	// Direction is the unit launch direction.
	Direction geom.Vec3
	// At is the clock time of the shot.
	At time.Duration
	// Penetrating is true when the muzzle was inside geometry and the origin
	// was moved toward the crosshair.
	Penetrating bool
	// Target is the point under the crosshair, or the end of the probe.
	Target geom.Vec3
}

// Observer receives a weapon's notifications. Callbacks run synchronously on
// the clock goroutine and must not block.
type Observer interface {
	OnAmmoChanged(w *Weapon, magazine, total int)
	OnShotFired(w *Weapon, shot Shot)
	OnOutOfAmmo(w *Weapon)
	OnStateChanged(w *Weapon, from, to State)
	OnDiagnostic(w *Weapon, err error)
}

// ObserverFuncs adapts optional functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	AmmoChanged  func(w *Weapon, magazine, total int)
	ShotFired    func(w *Weapon, shot Shot)
	OutOfAmmo    func(w *Weapon)
	StateChanged func(w *Weapon, from, to State)
	Diagnostic   func(w *Weapon, err error)
}

func (f ObserverFuncs) OnAmmoChanged(w *Weapon, magazine, total int) {
	if f.AmmoChanged != nil {
		f.AmmoChanged(w, magazine, total)
	}
}

func (f ObserverFuncs) OnShotFired(w *Weapon, shot Shot) {
	if f.ShotFired != nil {
		f.ShotFired(w, shot)
	}
}

func (f ObserverFuncs) OnOutOfAmmo(w *Weapon) {
	if f.OutOfAmmo != nil {
		f.OutOfAmmo(w)
	}
}

func (f ObserverFuncs) OnStateChanged(w *Weapon, from, to State) {
	if f.StateChanged != nil {
		f.StateChanged(w, from, to)
	}
}

func (f ObserverFuncs) OnDiagnostic(w *Weapon, err error) {
	if f.Diagnostic != nil {
		f.Diagnostic(w, err)
	}
}

type subscription struct {
	id  int
	obs Observer
}

// observers is an ordered subscriber list owned by one weapon.
type observers struct {
	next int
	subs []subscription
}

func (o *observers) add(obs Observer) func() {
	o.next++
	id := o.next
	o.subs = append(o.subs, subscription{id: id, obs: obs})
	return func() {
		for i, s := range o.subs {
			if s.id == id {
				o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
				return
			}
		}
	}
}

func (o *observers) each(fn func(Observer)) {
	subs := make([]subscription, len(o.subs))
	copy(subs, o.subs)
	for _, s := range subs {
		fn(s.obs)
	}
}
