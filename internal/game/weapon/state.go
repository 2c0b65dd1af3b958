package weapon

// State is the lifecycle state of a weapon. Exactly one is active at a time.
type State int

const (
	// StateIdle is equipped-and-ready or holstered.
	StateIdle State = iota
	// StateFiring means a burst is in progress.
	StateFiring
	// StateReloading means a reload timer is pending.
	StateReloading
	// StateEquipping means the equip animation has not finished.
	StateEquipping
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFiring:
		return "firing"
	case StateReloading:
		return "reloading"
	case StateEquipping:
		return "equipping"
	default:
		return "unknown"
	}
}
