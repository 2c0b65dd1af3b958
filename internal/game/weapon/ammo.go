package weapon

import "fmt"

// Ledger owns a weapon's ammunition counters.
//
// total counts every carried round, including those in the magazine; the
// reserve is the part outside the magazine.
// Invariant: 0 <= magazine <= magazineCapacity, magazine <= total <= maxAmmo.
type Ledger struct {
	magazine         int
	total            int
	magazineCapacity int
	maxAmmo          int
	onChange         func(magazine, total int)
}

// NewLedger returns a Ledger carrying initial rounds with the magazine
// filled from them.
//
// Precondition: magazineCapacity > 0 and maxAmmo >= magazineCapacity (panics otherwise).
// Postcondition: total == clamp(initial, 0, maxAmmo); magazine == min(magazineCapacity, total).
func NewLedger(magazineCapacity, maxAmmo, initial int, onChange func(magazine, total int)) *Ledger {
	if magazineCapacity <= 0 {
		panic(fmt.Sprintf("weapon: NewLedger: magazineCapacity must be > 0, got %d", magazineCapacity))
	}
	if maxAmmo < magazineCapacity {
		panic(fmt.Sprintf("weapon: NewLedger: maxAmmo %d must be >= magazineCapacity %d", maxAmmo, magazineCapacity))
	}
	l := &Ledger{
		magazineCapacity: magazineCapacity,
		maxAmmo:          maxAmmo,
		onChange:         onChange,
	}
	l.total = clamp(initial, 0, maxAmmo)
	l.magazine = min(magazineCapacity, l.total)
	return l
}

// Magazine returns the rounds in the magazine.
func (l *Ledger) Magazine() int { return l.magazine }

// Total returns every carried round, magazine included.
func (l *Ledger) Total() int { return l.total }

// Reserve returns the rounds carried outside the magazine.
func (l *Ledger) Reserve() int { return l.total - l.magazine }

// MagazineCapacity returns the magazine size.
func (l *Ledger) MagazineCapacity() int { return l.magazineCapacity }

// MaxAmmo returns the carry limit.
func (l *Ledger) MaxAmmo() int { return l.maxAmmo }

// HasAmmo reports whether a round is chambered.
func (l *Ledger) HasAmmo() bool { return l.magazine > 0 }

// MagazineFull reports whether the magazine is at capacity.
func (l *Ledger) MagazineFull() bool { return l.magazine >= l.magazineCapacity }

// ConsumeRound spends one round from the magazine.
//
// Postcondition: returns false and changes nothing when the magazine is empty.
func (l *Ledger) ConsumeRound() bool {
	if l.magazine <= 0 {
		return false
	}
	l.magazine--
	l.total--
	l.changed()
	return true
}

// Replenish adds up to amount rounds to the reserve, bounded by the carry
// limit, and returns how many were added.
//
// Postcondition: 0 <= result <= max(amount, 0); total <= maxAmmo.
func (l *Ledger) Replenish(amount int) int {
	if amount <= 0 {
		return 0
	}
	added := min(amount, l.maxAmmo-l.total)
	if added <= 0 {
		return 0
	}
	l.total += added
	l.changed()
	return added
}

// Transfer moves as many reserve rounds into the magazine as fit and returns
// how many moved.
//
// Postcondition: result == min(magazineCapacity - magazine, Reserve()) before the call.
func (l *Ledger) Transfer() int {
	moved := min(l.magazineCapacity-l.magazine, l.Reserve())
	if moved <= 0 {
		return 0
	}
	l.magazine += moved
	l.changed()
	return moved
}

// Restore overwrites both counters, clamping them back into the invariant.
func (l *Ledger) Restore(magazine, total int) {
	l.total = clamp(total, 0, l.maxAmmo)
	l.magazine = clamp(magazine, 0, min(l.magazineCapacity, l.total))
	l.changed()
}

func (l *Ledger) changed() {
	if l.onChange != nil {
		l.onChange(l.magazine, l.total)
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
