// Package geom provides the small amount of 3D vector math the weapon core
// needs: vectors, pitch/yaw/roll rotators, poses and trace hits.
//
// Units follow the host convention: distances in world units, angles in
// degrees, X forward, Y right, Z up.
package geom

import "math"

// nearlyZero is the squared length under which a vector is treated as zero.
const nearlyZero = 1e-8

// Vec3 is a 3D vector in world space.
type Vec3 struct {
	X, Y, Z float64
}

// Zero is the zero vector.
var Zero = Vec3{}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// LenSq returns the squared length of v.
func (v Vec3) LenSq() float64 {
	return v.Dot(v)
}

// Len returns the length of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.LenSq())
}

// IsZero reports whether v is too short to normalize.
func (v Vec3) IsZero() bool {
	return v.LenSq() < nearlyZero
}

// Normalize returns the unit vector in the direction of v, or Zero when v is
// too short to have a direction.
//
// Postcondition: result.Len() == 1 or result == Zero.
func (v Vec3) Normalize() Vec3 {
	ls := v.LenSq()
	if ls < nearlyZero {
		return Zero
	}
	return v.Scale(1 / math.Sqrt(ls))
}

// DistanceTo returns the distance between v and o.
func (v Vec3) DistanceTo(o Vec3) float64 {
	return o.Sub(v).Len()
}

// NearlyEqual reports whether every component of v and o differs by at most tol.
func (v Vec3) NearlyEqual(o Vec3, tol float64) bool {
	return math.Abs(v.X-o.X) <= tol && math.Abs(v.Y-o.Y) <= tol && math.Abs(v.Z-o.Z) <= tol
}

// Rotator is an orientation expressed as pitch, yaw and roll in degrees.
type Rotator struct {
	Pitch, Yaw, Roll float64
}

// Vector returns the unit forward vector of r. Roll does not affect it.
func (r Rotator) Vector() Vec3 {
	p := degToRad(r.Pitch)
	y := degToRad(r.Yaw)
	cp := math.Cos(p)
	return Vec3{cp * math.Cos(y), cp * math.Sin(y), math.Sin(p)}
}

// RotateVector rotates v from local space into the space described by r,
// applying roll, then pitch, then yaw.
func (r Rotator) RotateVector(v Vec3) Vec3 {
	roll := degToRad(r.Roll)
	pitch := degToRad(r.Pitch)
	yaw := degToRad(r.Yaw)

	// roll around X
	cr, sr := math.Cos(roll), math.Sin(roll)
	v = Vec3{v.X, v.Y*cr - v.Z*sr, v.Y*sr + v.Z*cr}
	// pitch around Y, positive pitch raises the nose
	cp, sp := math.Cos(pitch), math.Sin(pitch)
	v = Vec3{v.X*cp - v.Z*sp, v.Y, v.X*sp + v.Z*cp}
	// yaw around Z
	cy, sy := math.Cos(yaw), math.Sin(yaw)
	return Vec3{v.X*cy - v.Y*sy, v.X*sy + v.Y*cy, v.Z}
}

// Add returns the component-wise sum of r and o.
func (r Rotator) Add(o Rotator) Rotator {
	return Rotator{r.Pitch + o.Pitch, r.Yaw + o.Yaw, r.Roll + o.Roll}
}

// RotatorFromDirection returns the rotator whose forward vector is dir.
// A zero direction yields the zero rotator.
func RotatorFromDirection(dir Vec3) Rotator {
	if dir.IsZero() {
		return Rotator{}
	}
	yaw := math.Atan2(dir.Y, dir.X)
	pitch := math.Atan2(dir.Z, math.Sqrt(dir.X*dir.X+dir.Y*dir.Y))
	return Rotator{Pitch: radToDeg(pitch), Yaw: radToDeg(yaw)}
}

// LookAt returns the rotator pointing from 'from' toward 'to'.
func LookAt(from, to Vec3) Rotator {
	return RotatorFromDirection(to.Sub(from))
}

// AngleBetween returns the angle in degrees between two directions.
// Zero-length inputs yield 0.
func AngleBetween(a, b Vec3) float64 {
	an, bn := a.Normalize(), b.Normalize()
	if an == Zero || bn == Zero {
		return 0
	}
	d := math.Max(-1, math.Min(1, an.Dot(bn)))
	return radToDeg(math.Acos(d))
}

// Transform is a location plus orientation, used for sockets and attach offsets.
type Transform struct {
	Location Vec3    `yaml:"location" mapstructure:"location"`
	Rotation Rotator `yaml:"rotation" mapstructure:"rotation"`
}

// Forward returns the forward vector of t.
func (t Transform) Forward() Vec3 {
	return t.Rotation.Vector()
}

// Compose returns the world transform of a child whose transform relative to
// t is local. Rotations compose by component sum, which is exact when the
// parent only yaws.
func (t Transform) Compose(local Transform) Transform {
	return Transform{
		Location: t.Location.Add(t.Rotation.RotateVector(local.Location)),
		Rotation: t.Rotation.Add(local.Rotation),
	}
}

// Hit is the result of a single ray trace.
type Hit struct {
	// Blocked is true when the ray struck something before its end.
	Blocked bool
	// Impact is the point where the ray struck; the trace end when not blocked.
	Impact Vec3
	// Normal is the surface normal at Impact; Zero when not blocked.
	Normal Vec3
	// Distance is the distance from the trace start to Impact.
	Distance float64
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }

func radToDeg(r float64) float64 { return r * 180 / math.Pi }
