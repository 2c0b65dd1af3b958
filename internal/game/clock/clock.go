// Package clock provides the cooperative timer facility weapons schedule
// their deferred work on. Time is virtual: it only moves when the host calls
// Advance, so every callback runs on the host's goroutine and tests can step
// time deterministically.
package clock

import (
	"math"
	"time"
)

// Handle identifies one scheduled callback. The zero Handle is never issued.
type Handle uint64

type entry struct {
	deadline time.Duration
	seq      uint64
	fn       func()
}

// Manager holds pending one-shot callbacks keyed by Handle.
//
// Manager is not safe for concurrent use; it must be driven from a single
// goroutine (see Loop).
type Manager struct {
	now    time.Duration
	seq    uint64
	timers map[Handle]*entry
}

// NewManager returns a Manager whose virtual time starts at zero.
func NewManager() *Manager {
	return &Manager{timers: make(map[Handle]*entry)}
}

// Now returns the current virtual time.
func (m *Manager) Now() time.Duration {
	return m.now
}

// SetTimer schedules fn to run once, delay after Now. Negative delays are
// treated as zero; a zero-delay timer runs on the next Advance.
//
// Precondition: fn must not be nil.
// Postcondition: returns a non-zero Handle that IsActive until fn runs or
// ClearTimer is called.
func (m *Manager) SetTimer(delay time.Duration, fn func()) Handle {
	if fn == nil {
		panic("clock: SetTimer: fn must not be nil")
	}
	if delay < 0 {
		delay = 0
	}
	m.seq++
	h := Handle(m.seq)
	m.timers[h] = &entry{deadline: m.now + delay, seq: m.seq, fn: fn}
	return h
}

// ClearTimer cancels h. It reports whether h was pending.
//
// Postcondition: the callback for h never runs after ClearTimer returns.
func (m *Manager) ClearTimer(h Handle) bool {
	if _, ok := m.timers[h]; !ok {
		return false
	}
	delete(m.timers, h)
	return true
}

// IsActive reports whether h is still pending.
func (m *Manager) IsActive(h Handle) bool {
	_, ok := m.timers[h]
	return ok
}

// Remaining returns the time left before h fires.
func (m *Manager) Remaining(h Handle) (time.Duration, bool) {
	e, ok := m.timers[h]
	if !ok {
		return 0, false
	}
	return e.deadline - m.now, true
}

// Pending returns the number of scheduled callbacks.
func (m *Manager) Pending() int {
	return len(m.timers)
}

// Advance moves virtual time forward by dt, running every callback whose
// deadline falls inside the window in deadline order (ties in scheduling
// order). Now reports each callback's own deadline while it runs, so a
// callback that re-arms itself is paced from its deadline rather than from
// the end of the frame. It returns the number of callbacks run.
//
// Precondition: dt >= 0.
func (m *Manager) Advance(dt time.Duration) int {
	if dt < 0 {
		dt = 0
	}
	target := m.now + dt
	fired := 0
	for {
		h, e := m.next(target)
		if e == nil {
			break
		}
		delete(m.timers, h)
		m.now = e.deadline
		e.fn()
		fired++
	}
	m.now = target
	return fired
}

// next returns the earliest entry due at or before target.
func (m *Manager) next(target time.Duration) (Handle, *entry) {
	var (
		bestH Handle
		best  *entry
	)
	for h, e := range m.timers {
		if e.deadline > target {
			continue
		}
		if best == nil || e.deadline < best.deadline || (e.deadline == best.deadline && e.seq < best.seq) {
			bestH, best = h, e
		}
	}
	return bestH, best
}

// NextDeadline returns the time until the earliest pending callback.
func (m *Manager) NextDeadline() (time.Duration, bool) {
	if len(m.timers) == 0 {
		return 0, false
	}
	soonest := time.Duration(math.MaxInt64)
	for _, e := range m.timers {
		if e.deadline < soonest {
			soonest = e.deadline
		}
	}
	return soonest - m.now, true
}
