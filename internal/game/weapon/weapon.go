// Package weapon implements the firing, ammunition and reload control core of
// a held weapon: a four-state machine driven by intents (equip, trigger,
// reload, ammo pickup) and by deferred calls on a shared clock.
//
// A Weapon is not safe for concurrent use. Every method and every timer
// callback must run on the goroutine that drives its clock.Manager.
package weapon

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/game/clock"
	"github.com/cory-johannsen/armory/internal/game/geom"
)

// Deps are the collaborators a Weapon talks to. Only Clock is required; nil
// collaborators are replaced with no-ops.
type Deps struct {
	Clock     *clock.Manager
	Probe     Probe
	Mesh      Mesh
	Spawner   Spawner
	Cosmetics CosmeticSink
	Logger    *zap.Logger
}

// Snapshot is the persistent part of a weapon's state.
type Snapshot struct {
	DefID    string
	Magazine int
	Total    int
}

// Weapon is one weapon instance.
type Weapon struct {
	id     string
	def    *Def
	logger *zap.Logger
	clk    *clock.Manager

	ledger      *Ledger
	aim         *AimResolver
	fireTimer   *Scheduler
	reloadTimer *Scheduler
	equipTimer  *Scheduler

	mesh      Mesh
	spawner   Spawner
	cosmetics CosmeticSink
	holder    Holder

	state         State
	equipped      bool
	wantsToFire   bool
	pendingReload bool
	pendingEquip  bool
	refiring      bool
	hasFired      bool
	lastFire      time.Duration
	// pullSpent marks a single-mode trigger pull that already fired its round.
	pullSpent bool
	// outOfAmmoLatched suppresses repeat out-of-ammo notifications until the
	// next trigger pull or ammo gain.
	outOfAmmoLatched bool

	observers observers
}

// New creates a holstered weapon for def with its initial ammunition.
//
// Precondition: def must satisfy Validate; deps.Clock must be non-nil.
// Postcondition: State() == StateIdle; IsEquipped() == false.
func New(def *Def, deps Deps) (*Weapon, error) {
	if def == nil {
		return nil, errors.New("weapon: New: def must not be nil")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if deps.Clock == nil {
		return nil, errors.New("weapon: New: clock must not be nil")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Mesh == nil {
		deps.Mesh = nopMesh{}
	}
	if deps.Spawner == nil {
		deps.Spawner = nopSpawner{}
	}
	if deps.Cosmetics == nil {
		deps.Cosmetics = nopCosmetics{}
	}

	id := uuid.NewString()
	w := &Weapon{
		id:          id,
		def:         def,
		logger:      deps.Logger.With(zap.String("weapon", id), zap.String("def", def.ID)),
		clk:         deps.Clock,
		aim:         NewAimResolver(deps.Probe, def.Aim),
		fireTimer:   NewScheduler(deps.Clock),
		reloadTimer: NewScheduler(deps.Clock),
		equipTimer:  NewScheduler(deps.Clock),
		mesh:        deps.Mesh,
		spawner:     deps.Spawner,
		cosmetics:   deps.Cosmetics,
	}
	w.ledger = NewLedger(def.MagazineCapacity, def.MaxAmmo, def.InitialAmmo(), w.ammoChanged)
	return w, nil
}

// ID returns the instance identifier.
func (w *Weapon) ID() string { return w.id }

// Def returns the weapon definition.
func (w *Weapon) Def() *Def { return w.def }

// State returns the current lifecycle state.
func (w *Weapon) State() State { return w.state }

// MagazineAmmo returns the rounds in the magazine.
func (w *Weapon) MagazineAmmo() int { return w.ledger.Magazine() }

// TotalAmmo returns every carried round, magazine included.
func (w *Weapon) TotalAmmo() int { return w.ledger.Total() }

// ReserveAmmo returns the rounds carried outside the magazine.
func (w *Weapon) ReserveAmmo() int { return w.ledger.Reserve() }

// IsEquipped reports whether the weapon is in its holder's hands.
func (w *Weapon) IsEquipped() bool { return w.equipped }

// WantsToFire reports whether the trigger is held.
func (w *Weapon) WantsToFire() bool { return w.wantsToFire }

// IsReloadPending reports whether a reload has started and not completed.
func (w *Weapon) IsReloadPending() bool { return w.pendingReload }

// Holder returns the current holder, or nil.
func (w *Weapon) Holder() Holder { return w.holder }

// LastFireTime returns the clock time of the most recent shot.
func (w *Weapon) LastFireTime() (time.Duration, bool) { return w.lastFire, w.hasFired }

// Subscribe registers obs and returns a function that removes it.
func (w *Weapon) Subscribe(obs Observer) (unsubscribe func()) {
	return w.observers.add(obs)
}

// HasAmmo reports whether a round is chambered.
func (w *Weapon) HasAmmo() bool {
	return w.ledger.HasAmmo()
}

// CanFire reports whether the state allows a shot.
func (w *Weapon) CanFire() bool {
	stateOK := w.state == StateIdle || w.state == StateFiring
	return w.equipped && stateOK && !w.pendingReload
}

// CanReload reports whether a reload would move any rounds.
func (w *Weapon) CanReload() bool {
	gotAmmo := !w.ledger.MagazineFull() && w.ledger.Reserve() > 0
	stateOK := w.state == StateIdle || w.state == StateFiring
	return gotAmmo && stateOK
}

// SetHolder assigns the weapon to h (nil clears it). Changing holders while
// equipped un-equips first.
func (w *Weapon) SetHolder(h Holder) {
	if w.holder == h {
		return
	}
	if w.equipped {
		w.Unequip()
	}
	w.holder = h
}

// checkHolder verifies the holder capability required to equip and fire.
func (w *Weapon) checkHolder() error {
	if w.holder == nil {
		return ErrNoHolder
	}
	if src, ok := w.holder.AimSource(); !ok || src == nil {
		return ErrNoAimSource
	}
	return nil
}

//----------------------------------------------------------------------------
// Firing
//----------------------------------------------------------------------------

// StartFire pulls the trigger. Pulling an empty trigger either starts a
// reload or reports out of ammo.
func (w *Weapon) StartFire() {
	if w.wantsToFire {
		return
	}
	w.wantsToFire = true
	w.pullSpent = false
	w.outOfAmmoLatched = false

	if w.equipped && w.CanFire() && !w.HasAmmo() {
		if !w.StartReload() {
			w.checkOutOfAmmo()
		}
	}
	w.determineState()
}

// StopFire releases the trigger.
func (w *Weapon) StopFire() {
	if !w.wantsToFire {
		return
	}
	w.wantsToFire = false
	w.determineState()
}

// determineState recomputes the state from the intents and pending flags, with
// precedence equip > reload > fire > idle. The outgoing state only matters
// while a reload is pending. Calling it again without an intervening change
// has no effect.
func (w *Weapon) determineState() {
	next := StateIdle
	if w.equipped {
		switch {
		case w.pendingEquip:
			next = StateEquipping
		case w.pendingReload:
			if w.state == StateReloading || w.CanReload() {
				next = StateReloading
			} else {
				next = w.state
			}
		case w.wantsToFire && !w.pullSpent && w.HasAmmo():
			next = StateFiring
		}
	}
	w.setState(next)
}

func (w *Weapon) setState(next State) {
	prev := w.state
	if prev == next {
		return
	}
	if prev == StateFiring {
		w.onBurstFinished()
	}
	w.state = next
	w.logger.Debug("weapon state changed",
		zap.Stringer("from", prev),
		zap.Stringer("to", next),
	)
	w.observers.each(func(o Observer) { o.OnStateChanged(w, prev, next) })
	if next == StateFiring {
		w.onBurstStarted()
	}
}

// onBurstStarted fires now, or after the remainder of the shot interval when
// the previous shot was too recent.
func (w *Weapon) onBurstStarted() {
	now := w.clk.Now()
	interval := w.def.TimeBetweenShots
	if w.hasFired && interval > 0 && w.lastFire+interval > now {
		delay := w.lastFire + interval - now
		w.logger.Debug("burst delayed by fire rate", zap.Duration("delay", delay))
		w.fireTimer.Arm(delay, w.handleFiring)
		return
	}
	w.handleFiring()
}

func (w *Weapon) onBurstFinished() {
	w.fireTimer.Cancel()
	w.refiring = false
}

// handleFiring fires one round and schedules the next.
func (w *Weapon) handleFiring() {
	fired := false
	if w.HasAmmo() && w.CanFire() {
		if err := w.fireRound(); err != nil {
			w.diagnose(err)
			w.onBurstFinished()
			w.wantsToFire = false
		} else {
			fired = true
			w.pullSpent = !w.def.IsAutomatic()
			if w.ledger.Total() == 0 {
				w.checkOutOfAmmo()
			}
		}
	} else {
		w.checkOutOfAmmo()
		w.onBurstFinished()
	}

	if !w.HasAmmo() && w.CanReload() {
		w.StartReload()
	}

	w.determineState()

	w.refiring = w.state == StateFiring && w.def.IsAutomatic() && w.def.TimeBetweenShots > 0
	if w.refiring {
		w.fireTimer.Arm(w.def.TimeBetweenShots, w.handleFiring)
	}

	if fired {
		w.lastFire = w.clk.Now()
		w.hasFired = true
	}
}

// fireRound resolves the aim, spawns the projectile, spends the round and
// plays the fire cosmetics.
func (w *Weapon) fireRound() error {
	sol, err := w.resolveAim()
	if err != nil {
		return err
	}

	origin := sol.Origin.Add(sol.Direction.Scale(w.def.Projectile.SpawnOffset))
	w.spawner.Spawn(origin, geom.RotatorFromDirection(sol.Direction), w.def.Projectile)
	w.ledger.ConsumeRound()

	w.playSound(w.def.Cues.Fire)
	w.cosmetics.PlayMuzzleEffect()
	w.cosmetics.PlayCameraShake()
	if clip := w.def.Animations.Fire; clip != "" {
		w.holder.PlayAnimation(clip)
	}

	shot := Shot{
		Origin:      origin,
		Direction:   sol.Direction,
		At:          w.clk.Now(),
		Penetrating: sol.Penetrating,
		Target:      sol.Target(),
	}
	w.observers.each(func(o Observer) { o.OnShotFired(w, shot) })
	return nil
}

func (w *Weapon) resolveAim() (Solution, error) {
	if err := w.checkHolder(); err != nil {
		return Solution{}, err
	}
	src, _ := w.holder.AimSource()
	camPos, camRot := src.ViewPoint()
	muzzle, ok := w.mesh.Socket(w.def.MuzzleSocket)
	if !ok {
		return Solution{}, fmt.Errorf("%w: %q", ErrNoMuzzle, w.def.MuzzleSocket)
	}
	return w.aim.Resolve(AimInput{
		ViewOrigin:     camPos,
		ViewRotation:   camRot,
		HolderLocation: w.holder.Location(),
		Muzzle:         muzzle,
	}), nil
}

// checkOutOfAmmo notifies once per depletion when nothing is left to reload.
func (w *Weapon) checkOutOfAmmo() {
	if w.ledger.Total() > 0 || w.outOfAmmoLatched {
		return
	}
	w.outOfAmmoLatched = true
	w.playSound(w.def.Cues.OutOfAmmo)
	w.logger.Info("out of ammo")
	w.observers.each(func(o Observer) { o.OnOutOfAmmo(w) })
}

//----------------------------------------------------------------------------
// Ammo
//----------------------------------------------------------------------------

// GiveAmmo adds up to amount rounds and returns how many were taken. An
// equipped weapon with an empty magazine starts reloading.
func (w *Weapon) GiveAmmo(amount int) int {
	added := w.ledger.Replenish(amount)
	if added > 0 {
		w.outOfAmmoLatched = false
	}
	if w.ledger.Magazine() <= 0 && w.equipped && w.CanReload() {
		w.StartReload()
	}
	return added
}

// Snapshot returns the persistent ammo state.
func (w *Weapon) Snapshot() Snapshot {
	return Snapshot{DefID: w.def.ID, Magazine: w.ledger.Magazine(), Total: w.ledger.Total()}
}

// Restore loads ammo counts from s, clamped to the definition's limits. An
// equipped weapon left with an empty magazine and a reserve starts reloading.
func (w *Weapon) Restore(s Snapshot) error {
	if s.DefID != w.def.ID {
		return fmt.Errorf("weapon: Restore: snapshot for %q applied to %q", s.DefID, w.def.ID)
	}
	w.ledger.Restore(s.Magazine, s.Total)
	if w.ledger.Magazine() <= 0 && w.equipped && w.CanReload() {
		w.StartReload()
	}
	w.determineState()
	return nil
}

func (w *Weapon) ammoChanged(magazine, total int) {
	w.observers.each(func(o Observer) { o.OnAmmoChanged(w, magazine, total) })
}

//----------------------------------------------------------------------------
// Reload
//----------------------------------------------------------------------------

// StartReload begins a reload and reports whether one started. The duration
// is the holder's reload animation, or Def.ReloadDuration without one.
func (w *Weapon) StartReload() bool {
	if !w.equipped || w.pendingReload || !w.CanReload() {
		return false
	}
	w.pendingReload = true
	w.determineState()

	var d time.Duration
	if clip := w.def.Animations.Reload; clip != "" {
		d = w.holder.PlayAnimation(clip)
	}
	if d <= 0 {
		d = w.def.ReloadDuration
	}
	w.playSound(w.def.Cues.Reload)
	w.reloadTimer.Arm(d, w.stopReload)
	w.logger.Debug("reload started", zap.Duration("duration", d))
	return true
}

// stopReload completes a reload. A completion arriving after the weapon left
// the reloading state is discarded.
func (w *Weapon) stopReload() {
	if w.state != StateReloading {
		w.logger.Debug("stale reload completion discarded", zap.Stringer("state", w.state))
		return
	}
	moved := w.ledger.Transfer()
	if moved > 0 {
		w.outOfAmmoLatched = false
	}
	w.pendingReload = false
	w.logger.Debug("reload finished", zap.Int("moved", moved))
	w.determineState()
}

func (w *Weapon) cancelReload() {
	if !w.pendingReload {
		return
	}
	if clip := w.def.Animations.Reload; clip != "" && w.holder != nil {
		w.holder.StopAnimation(clip)
	}
	w.pendingReload = false
	w.reloadTimer.Cancel()
}

//----------------------------------------------------------------------------
// Equip
//----------------------------------------------------------------------------

// Equip puts the weapon in its holder's hands. A holder without the required
// capability is reported as a diagnostic and the weapon stays holstered.
func (w *Weapon) Equip() error {
	if w.equipped {
		return nil
	}
	if err := w.checkHolder(); err != nil {
		w.diagnose(err)
		return err
	}

	w.equipped = true
	point := w.def.AttachSocket
	if point == "" {
		point = w.holder.AttachPoint()
	}
	w.mesh.Attach(w.holder, point, w.def.AttachOffset)

	d := w.def.EquipDuration
	if clip := w.def.Animations.Equip; clip != "" {
		if animD := w.holder.PlayAnimation(clip); animD > 0 {
			d = animD
		}
	}
	w.playSound(w.def.Cues.Equip)

	w.pendingEquip = true
	w.determineState()
	if d > 0 {
		w.equipTimer.Arm(d, w.onEquipFinished)
	} else {
		w.onEquipFinished()
	}
	return nil
}

func (w *Weapon) onEquipFinished() {
	w.pendingEquip = false
	w.determineState()
	if w.ledger.Magazine() <= 0 && w.CanReload() {
		w.StartReload()
	}
}

// Unequip holsters the weapon, cancelling any burst, reload or equip in
// flight.
//
// Postcondition: State() == StateIdle and no deferred call is pending.
func (w *Weapon) Unequip() {
	if !w.equipped {
		return
	}
	w.equipped = false
	w.mesh.Detach()
	w.wantsToFire = false
	w.onBurstFinished()
	w.cancelReload()
	if w.pendingEquip {
		if clip := w.def.Animations.Equip; clip != "" && w.holder != nil {
			w.holder.StopAnimation(clip)
		}
		w.pendingEquip = false
		w.equipTimer.Cancel()
	}
	w.determineState()
}

// Close cancels every pending call and releases the holder. The weapon must
// not be used afterwards.
func (w *Weapon) Close() {
	w.Unequip()
	w.fireTimer.Cancel()
	w.reloadTimer.Cancel()
	w.equipTimer.Cancel()
	w.holder = nil
}

func (w *Weapon) playSound(cue string) {
	if cue != "" {
		w.cosmetics.PlaySound(cue)
	}
}

func (w *Weapon) diagnose(err error) {
	w.logger.Warn("weapon diagnostic", zap.Error(err))
	w.observers.each(func(o Observer) { o.OnDiagnostic(w, err) })
}
