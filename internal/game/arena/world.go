// Package arena hosts weapons in a minimal 3D space: axis-aligned boxes for
// ray traces, an avatar that holds and aims, a socketed weapon mesh, a
// projectile range and a logging cosmetic sink.
package arena

import (
	"errors"
	"fmt"
	"math"

	"github.com/cory-johannsen/armory/internal/game/geom"
)

// Box is a solid axis-aligned box.
type Box struct {
	Name string    `yaml:"name" mapstructure:"name"`
	Min  geom.Vec3 `yaml:"min" mapstructure:"min"`
	Max  geom.Vec3 `yaml:"max" mapstructure:"max"`
}

// Validate reports an error if the box is inverted or unnamed.
func (b Box) Validate() error {
	var errs []error
	if b.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z {
		errs = append(errs, fmt.Errorf("min %v must not exceed max %v", b.Min, b.Max))
	}
	if len(errs) > 0 {
		return fmt.Errorf("arena box %q: %w", b.Name, errors.Join(errs...))
	}
	return nil
}

// Contains reports whether p is inside or on the box.
func (b Box) Contains(p geom.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// intersect returns the entry fraction along start→end and the face normal.
// A segment starting inside the box hits at fraction 0.
func (b Box) intersect(start, end geom.Vec3) (float64, geom.Vec3, bool) {
	dir := end.Sub(start)
	tMin, tMax := 0.0, 1.0
	var normal geom.Vec3

	axes := [3]struct {
		s, d, lo, hi float64
		n            geom.Vec3
	}{
		{start.X, dir.X, b.Min.X, b.Max.X, geom.Vec3{X: 1}},
		{start.Y, dir.Y, b.Min.Y, b.Max.Y, geom.Vec3{Y: 1}},
		{start.Z, dir.Z, b.Min.Z, b.Max.Z, geom.Vec3{Z: 1}},
	}
	for _, a := range axes {
		if math.Abs(a.d) < 1e-12 {
			if a.s < a.lo || a.s > a.hi {
				return 0, geom.Zero, false
			}
			continue
		}
		t1 := (a.lo - a.s) / a.d
		t2 := (a.hi - a.s) / a.d
		n := a.n.Scale(-1)
		if t1 > t2 {
			t1, t2 = t2, t1
			n = a.n
		}
		if t1 > tMin {
			tMin = t1
			normal = n
		}
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, geom.Zero, false
		}
	}
	return tMin, normal, true
}

// World is the static geometry of an arena.
type World struct {
	boxes []Box
}

// NewWorld validates boxes and returns a World containing them.
func NewWorld(boxes []Box) (*World, error) {
	var errs []error
	for _, b := range boxes {
		if err := b.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	out := make([]Box, len(boxes))
	copy(out, boxes)
	return &World{boxes: out}, nil
}

// Boxes returns the world's boxes.
func (w *World) Boxes() []Box {
	out := make([]Box, len(w.boxes))
	copy(out, w.boxes)
	return out
}

// Trace returns the nearest box hit along start→end.
//
// Postcondition: when not blocked, Impact == end and Distance == |end-start|.
func (w *World) Trace(start, end geom.Vec3) geom.Hit {
	best := 2.0
	var normal geom.Vec3
	for _, b := range w.boxes {
		if t, n, ok := b.intersect(start, end); ok && t < best {
			best, normal = t, n
		}
	}
	if best > 1 {
		return geom.Hit{Impact: end, Distance: start.DistanceTo(end)}
	}
	impact := start.Add(end.Sub(start).Scale(best))
	return geom.Hit{
		Blocked:  true,
		Impact:   impact,
		Normal:   normal,
		Distance: start.DistanceTo(impact),
	}
}
