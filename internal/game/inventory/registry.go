package inventory

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/armory/internal/game/weapon"
)

// Registry holds all loaded weapon definitions indexed by ID.
type Registry struct {
	weapons map[string]*weapon.Def
}

// NewRegistry returns an empty Registry.
//
// Postcondition: all internal maps are initialised.
func NewRegistry() *Registry {
	return &Registry{weapons: make(map[string]*weapon.Def)}
}

// NewRegistryFromDefs registers every def.
//
// Postcondition: returns an error on the first duplicate ID.
func NewRegistryFromDefs(defs []*weapon.Def) (*Registry, error) {
	r := NewRegistry()
	for _, d := range defs {
		if err := r.RegisterWeapon(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RegisterWeapon adds d to the registry.
//
// Precondition:  d must not be nil.
// Postcondition: Weapon(d.ID) returns d; returns error if d.ID already registered.
func (r *Registry) RegisterWeapon(d *weapon.Def) error {
	if _, exists := r.weapons[d.ID]; exists {
		return fmt.Errorf("inventory: Registry.RegisterWeapon: weapon ID %q already registered", d.ID)
	}
	r.weapons[d.ID] = d
	return nil
}

// Weapon returns the Def for the given id, or nil if not found.
func (r *Registry) Weapon(id string) *weapon.Def {
	return r.weapons[id]
}

// Resolve looks up every id, failing on the first unknown one.
//
// Postcondition: len(result) == len(ids) on success.
func (r *Registry) Resolve(ids []string) ([]*weapon.Def, error) {
	out := make([]*weapon.Def, 0, len(ids))
	for _, id := range ids {
		d := r.Weapon(id)
		if d == nil {
			return nil, fmt.Errorf("inventory: Registry.Resolve: unknown weapon %q", id)
		}
		out = append(out, d)
	}
	return out, nil
}

// AllWeapons returns all registered Defs sorted by ID.
//
// Postcondition: len(result) == number of registered weapons.
func (r *Registry) AllWeapons() []*weapon.Def {
	out := make([]*weapon.Def, 0, len(r.weapons))
	for _, d := range r.weapons {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
