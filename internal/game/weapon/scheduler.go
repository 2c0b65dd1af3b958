package weapon

import (
	"time"

	"github.com/cory-johannsen/armory/internal/game/clock"
)

// Scheduler is a single-slot deferred call bound to one weapon. Arming
// replaces any pending call, so at most one is ever outstanding.
type Scheduler struct {
	clk    *clock.Manager
	handle clock.Handle
}

// NewScheduler returns an idle Scheduler on clk.
//
// Precondition: clk must be non-nil.
func NewScheduler(clk *clock.Manager) *Scheduler {
	if clk == nil {
		panic("weapon.NewScheduler: clk must not be nil")
	}
	return &Scheduler{clk: clk}
}

// Arm cancels any pending call and schedules fn after delay. It returns the
// token of the new call.
//
// Postcondition: Active() is true until fn runs or Cancel is called.
func (s *Scheduler) Arm(delay time.Duration, fn func()) clock.Handle {
	s.Cancel()
	var h clock.Handle
	h = s.clk.SetTimer(delay, func() {
		if s.handle == h {
			s.handle = 0
		}
		fn()
	})
	s.handle = h
	return h
}

// Cancel clears the pending call without running it and reports whether one
// was pending.
func (s *Scheduler) Cancel() bool {
	if s.handle == 0 {
		return false
	}
	h := s.handle
	s.handle = 0
	return s.clk.ClearTimer(h)
}

// Active reports whether a call is pending.
func (s *Scheduler) Active() bool {
	return s.handle != 0 && s.clk.IsActive(s.handle)
}

// Token returns the pending call's token, or zero.
func (s *Scheduler) Token() clock.Handle {
	if !s.Active() {
		return 0
	}
	return s.handle
}
