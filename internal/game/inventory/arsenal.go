package inventory

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/game/weapon"
)

// ErrNoWeaponOfType is returned by Equip when the arsenal carries no weapon
// of the requested type.
var ErrNoWeaponOfType = errors.New("inventory: no weapon of requested type")

// Factory builds a weapon instance from a definition.
type Factory func(def *weapon.Def) (*weapon.Weapon, error)

// AmmoPickup is a box of rounds for one weapon type lying in the world.
type AmmoPickup struct {
	Type   weapon.Type
	Amount int
}

// Arsenal is the set of weapons carried by one holder and the one currently
// in hand.
//
// Invariant: every carried weapon's Holder() is the arsenal's holder; at most
// one weapon is equipped and it is Current().
type Arsenal struct {
	holder  weapon.Holder
	logger  *zap.Logger
	weapons []*weapon.Weapon
	current *weapon.Weapon
}

// NewArsenal returns an empty Arsenal for holder.
//
// Precondition: holder and logger must be non-nil.
func NewArsenal(holder weapon.Holder, logger *zap.Logger) *Arsenal {
	if holder == nil {
		panic("inventory.NewArsenal: holder must not be nil")
	}
	if logger == nil {
		panic("inventory.NewArsenal: logger must not be nil")
	}
	return &Arsenal{holder: holder, logger: logger}
}

// Add puts w into the arsenal and assigns it to the holder.
//
// Precondition: w must not be nil.
// Postcondition: ByID(w.ID()) == w; returns an error if w is already carried.
func (a *Arsenal) Add(w *weapon.Weapon) error {
	if w == nil {
		return errors.New("inventory: Arsenal.Add: weapon must not be nil")
	}
	if a.ByID(w.ID()) != nil {
		return fmt.Errorf("inventory: Arsenal.Add: weapon %q already carried", w.ID())
	}
	w.SetHolder(a.holder)
	a.weapons = append(a.weapons, w)
	a.logger.Debug("weapon added", zap.String("weapon", w.ID()), zap.String("def", w.Def().ID))
	return nil
}

// Remove takes the weapon with id out of the arsenal, holstering it first,
// and returns it. The returned weapon has no holder.
func (a *Arsenal) Remove(id string) (*weapon.Weapon, bool) {
	for i, w := range a.weapons {
		if w.ID() != id {
			continue
		}
		if a.current == w {
			a.current = nil
		}
		w.SetHolder(nil)
		a.weapons = append(a.weapons[:i:i], a.weapons[i+1:]...)
		a.logger.Debug("weapon removed", zap.String("weapon", id))
		return w, true
	}
	return nil, false
}

// Weapons returns the carried weapons in the order they were added.
func (a *Arsenal) Weapons() []*weapon.Weapon {
	out := make([]*weapon.Weapon, len(a.weapons))
	copy(out, a.weapons)
	return out
}

// ByID returns the carried weapon with the given instance id, or nil.
func (a *Arsenal) ByID(id string) *weapon.Weapon {
	for _, w := range a.weapons {
		if w.ID() == id {
			return w
		}
	}
	return nil
}

// ByType returns the first carried weapon of type t, or nil.
func (a *Arsenal) ByType(t weapon.Type) *weapon.Weapon {
	for _, w := range a.weapons {
		if w.Def().Type == t {
			return w
		}
	}
	return nil
}

// Current returns the weapon in hand, or nil.
func (a *Arsenal) Current() *weapon.Weapon {
	return a.current
}

// Equip switches the weapon in hand to the first one of type t. The
// previous weapon is holstered first. If the new weapon cannot be equipped
// nothing is in hand afterwards.
func (a *Arsenal) Equip(t weapon.Type) error {
	next := a.ByType(t)
	if next == nil {
		return fmt.Errorf("%w: %s", ErrNoWeaponOfType, t)
	}
	if next == a.current && next.IsEquipped() {
		return nil
	}
	a.Unequip()
	if err := next.Equip(); err != nil {
		return fmt.Errorf("inventory: Arsenal.Equip %s: %w", t, err)
	}
	a.current = next
	a.logger.Info("weapon equipped", zap.String("weapon", next.ID()), zap.String("def", next.Def().ID))
	return nil
}

// Unequip holsters the weapon in hand, if any.
//
// Postcondition: Current() == nil.
func (a *Arsenal) Unequip() {
	if a.current == nil {
		return
	}
	a.current.Unequip()
	a.logger.Info("weapon holstered", zap.String("weapon", a.current.ID()))
	a.current = nil
}

// StartFire pulls the trigger of the weapon in hand.
func (a *Arsenal) StartFire() {
	if a.current != nil {
		a.current.StartFire()
	}
}

// StopFire releases the trigger of the weapon in hand.
func (a *Arsenal) StopFire() {
	if a.current != nil {
		a.current.StopFire()
	}
}

// Reload reloads the weapon in hand and reports whether a reload started.
func (a *Arsenal) Reload() bool {
	if a.current == nil {
		return false
	}
	return a.current.StartReload()
}

// SpawnStartWeapons builds one weapon per def through newWeapon and adds it.
// It stops at the first failure; weapons added before it are kept.
func (a *Arsenal) SpawnStartWeapons(defs []*weapon.Def, newWeapon Factory) error {
	for _, def := range defs {
		w, err := newWeapon(def)
		if err != nil {
			return fmt.Errorf("inventory: spawning start weapon %q: %w", def.ID, err)
		}
		if err := a.Add(w); err != nil {
			return err
		}
	}
	a.logger.Info("start weapons spawned", zap.Int("count", len(defs)))
	return nil
}

// PickupAmmo gives the pickup's rounds to the first carried weapon of the
// matching type and returns how many it took. The pickup is consumed when
// the result is positive.
func (a *Arsenal) PickupAmmo(p AmmoPickup) int {
	w := a.ByType(p.Type)
	if w == nil {
		a.logger.Debug("no weapon for ammo pickup", zap.String("type", string(p.Type)))
		return 0
	}
	taken := w.GiveAmmo(p.Amount)
	a.logger.Debug("ammo picked up",
		zap.String("weapon", w.ID()),
		zap.Int("offered", p.Amount),
		zap.Int("taken", taken),
	)
	return taken
}

// Snapshot returns the ammo state of every carried weapon in carry order.
func (a *Arsenal) Snapshot() []weapon.Snapshot {
	out := make([]weapon.Snapshot, 0, len(a.weapons))
	for _, w := range a.weapons {
		out = append(out, w.Snapshot())
	}
	return out
}

// Restore applies snapshots to carried weapons by definition ID. Each
// snapshot is applied to at most one weapon; snapshots for weapons not
// carried are skipped.
func (a *Arsenal) Restore(snaps []weapon.Snapshot) error {
	used := make(map[*weapon.Weapon]bool, len(a.weapons))
	for _, s := range snaps {
		for _, w := range a.weapons {
			if used[w] || w.Def().ID != s.DefID {
				continue
			}
			if err := w.Restore(s); err != nil {
				return err
			}
			used[w] = true
			break
		}
	}
	return nil
}

// Close releases every carried weapon.
func (a *Arsenal) Close() {
	a.Unequip()
	for _, w := range a.weapons {
		w.Close()
	}
	a.weapons = nil
}
