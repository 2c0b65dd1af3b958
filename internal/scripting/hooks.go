package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/armory/internal/game/geom"
	"github.com/cory-johannsen/armory/internal/game/weapon"
)

// Hook names called by WeaponHooks.
const (
	HookAmmoChanged  = "on_ammo_changed"
	HookShotFired    = "on_shot_fired"
	HookOutOfAmmo    = "on_out_of_ammo"
	HookStateChanged = "on_state_changed"
	HookDiagnostic   = "on_diagnostic"
)

// WeaponHooks forwards weapon notifications to Lua hooks in one scope. It
// implements weapon.Observer.
//
// Every hook receives a weapon table {id, def, type, magazine, total, state}
// as its first argument.
type WeaponHooks struct {
	mgr   *Manager
	scope string
}

// NewWeaponHooks returns an observer calling hooks in scope.
//
// Precondition: mgr must be non-nil.
func NewWeaponHooks(mgr *Manager, scope string) *WeaponHooks {
	if mgr == nil {
		panic("scripting.NewWeaponHooks: mgr must not be nil")
	}
	return &WeaponHooks{mgr: mgr, scope: scope}
}

// OnAmmoChanged calls on_ammo_changed(weapon, magazine, total).
func (h *WeaponHooks) OnAmmoChanged(w *weapon.Weapon, magazine, total int) {
	h.call(HookAmmoChanged, w, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{lua.LNumber(magazine), lua.LNumber(total)}
	})
}

// OnShotFired calls on_shot_fired(weapon, shot).
func (h *WeaponHooks) OnShotFired(w *weapon.Weapon, shot weapon.Shot) {
	h.call(HookShotFired, w, func(L *lua.LState) []lua.LValue {
		t := L.NewTable()
		L.SetField(t, "origin", vecTable(L, shot.Origin))
		L.SetField(t, "direction", vecTable(L, shot.Direction))
		L.SetField(t, "target", vecTable(L, shot.Target))
		L.SetField(t, "at_ms", lua.LNumber(shot.At.Milliseconds()))
		L.SetField(t, "penetrating", lua.LBool(shot.Penetrating))
		return []lua.LValue{t}
	})
}

// OnOutOfAmmo calls on_out_of_ammo(weapon).
func (h *WeaponHooks) OnOutOfAmmo(w *weapon.Weapon) {
	h.call(HookOutOfAmmo, w, nil)
}

// OnStateChanged calls on_state_changed(weapon, from, to) with state names.
func (h *WeaponHooks) OnStateChanged(w *weapon.Weapon, from, to weapon.State) {
	h.call(HookStateChanged, w, func(*lua.LState) []lua.LValue {
		return []lua.LValue{lua.LString(from.String()), lua.LString(to.String())}
	})
}

// OnDiagnostic calls on_diagnostic(weapon, message).
func (h *WeaponHooks) OnDiagnostic(w *weapon.Weapon, err error) {
	h.call(HookDiagnostic, w, func(*lua.LState) []lua.LValue {
		return []lua.LValue{lua.LString(err.Error())}
	})
}

// call builds arguments inside the target VM only when the hook exists.
func (h *WeaponHooks) call(hook string, w *weapon.Weapon, extra func(L *lua.LState) []lua.LValue) {
	v, lk := h.mgr.lookup(h.scope)
	if v == nil {
		return
	}
	lk.Lock()
	defined := v.L.GetGlobal(hook).Type() == lua.LTFunction
	var args []lua.LValue
	if defined {
		args = append(args, weaponTable(v.L, w))
		if extra != nil {
			args = append(args, extra(v.L)...)
		}
	}
	lk.Unlock()
	if !defined {
		return
	}
	_, _ = h.mgr.CallHook(h.scope, hook, args...)
}

func weaponTable(L *lua.LState, w *weapon.Weapon) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "id", lua.LString(w.ID()))
	L.SetField(t, "def", lua.LString(w.Def().ID))
	L.SetField(t, "type", lua.LString(string(w.Def().Type)))
	L.SetField(t, "magazine", lua.LNumber(w.MagazineAmmo()))
	L.SetField(t, "total", lua.LNumber(w.TotalAmmo()))
	L.SetField(t, "state", lua.LString(w.State().String()))
	return t
}

func vecTable(L *lua.LState, v geom.Vec3) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "x", lua.LNumber(v.X))
	L.SetField(t, "y", lua.LNumber(v.Y))
	L.SetField(t, "z", lua.LNumber(v.Z))
	return t
}
