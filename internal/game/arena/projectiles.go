package arena

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/game/geom"
	"github.com/cory-johannsen/armory/internal/game/weapon"
)

// Projectile defaults.
const (
	// DefaultProjectileSpeed is the base speed in units per second scaled by
	// ProjectileParams.SpeedMultiplier.
	DefaultProjectileSpeed = 5000.0
	// DefaultProjectileMaxDistance applies when ProjectileParams.MaxDistance is zero.
	DefaultProjectileMaxDistance = 20000.0
)

// Projectile is one round in flight.
type Projectile struct {
	ID        string
	Class     string
	Origin    geom.Vec3
	Position  geom.Vec3
	Direction geom.Vec3
	Speed     float64
	Damage    float64
	MaxDist   float64
	Traveled  float64
}

// Impact records a projectile stopping against geometry.
type Impact struct {
	ProjectileID string
	Class        string
	Point        geom.Vec3
	Normal       geom.Vec3
	Damage       float64
}

// Range moves projectiles through a World. It implements weapon.Spawner.
//
// Range is driven from the clock goroutine and is not safe for concurrent use.
type Range struct {
	world    *World
	logger   *zap.Logger
	inFlight map[string]*Projectile
	order    []string
	impacts  []Impact
	spawned  int
}

// NewRange returns an empty range over world.
func NewRange(world *World, logger *zap.Logger) *Range {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Range{world: world, logger: logger, inFlight: make(map[string]*Projectile)}
}

// Spawn implements weapon.Spawner.
func (r *Range) Spawn(origin geom.Vec3, rot geom.Rotator, p weapon.ProjectileParams) {
	speed := DefaultProjectileSpeed
	if p.SpeedMultiplier > 0 {
		speed *= p.SpeedMultiplier
	}
	damage := 1.0
	if p.DamageMultiplier > 0 {
		damage = p.DamageMultiplier
	}
	maxDist := p.MaxDistance
	if maxDist <= 0 {
		maxDist = DefaultProjectileMaxDistance
	}
	pr := &Projectile{
		ID:        uuid.NewString(),
		Class:     p.Class,
		Origin:    origin,
		Position:  origin,
		Direction: rot.Vector(),
		Speed:     speed,
		Damage:    damage,
		MaxDist:   maxDist,
	}
	r.inFlight[pr.ID] = pr
	r.order = append(r.order, pr.ID)
	r.spawned++
	r.logger.Debug("projectile spawned",
		zap.String("projectile", pr.ID),
		zap.String("class", pr.Class),
		zap.Float64("speed", pr.Speed),
	)
}

// Advance integrates every projectile for dt, stopping those that strike a
// box or exceed their range.
func (r *Range) Advance(dt time.Duration) {
	if dt <= 0 {
		return
	}
	live := r.order[:0]
	for _, id := range r.order {
		pr := r.inFlight[id]
		step := min(pr.Speed*dt.Seconds(), pr.MaxDist-pr.Traveled)
		next := pr.Position.Add(pr.Direction.Scale(step))

		hit := geom.Hit{Impact: next}
		if r.world != nil {
			hit = r.world.Trace(pr.Position, next)
		}
		if hit.Blocked {
			r.impacts = append(r.impacts, Impact{
				ProjectileID: pr.ID,
				Class:        pr.Class,
				Point:        hit.Impact,
				Normal:       hit.Normal,
				Damage:       pr.Damage,
			})
			r.logger.Info("projectile impact",
				zap.String("projectile", pr.ID),
				zap.Float64("x", hit.Impact.X),
				zap.Float64("y", hit.Impact.Y),
				zap.Float64("z", hit.Impact.Z),
			)
			delete(r.inFlight, id)
			continue
		}
		pr.Position = next
		pr.Traveled += step
		if pr.Traveled >= pr.MaxDist {
			r.logger.Debug("projectile expired", zap.String("projectile", pr.ID))
			delete(r.inFlight, id)
			continue
		}
		live = append(live, id)
	}
	r.order = live
}

// InFlight returns copies of the projectiles still moving, in spawn order.
func (r *Range) InFlight() []Projectile {
	out := make([]Projectile, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.inFlight[id])
	}
	return out
}

// Impacts returns every impact recorded so far.
func (r *Range) Impacts() []Impact {
	out := make([]Impact, len(r.impacts))
	copy(out, r.impacts)
	return out
}

// Spawned returns how many projectiles have been launched.
func (r *Range) Spawned() int { return r.spawned }
