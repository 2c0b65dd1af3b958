package weapon

import "github.com/cory-johannsen/armory/internal/game/geom"

// AimInput is everything the resolver reads for one shot.
type AimInput struct {
	// ViewOrigin and ViewRotation are the holder's camera.
	ViewOrigin   geom.Vec3
	ViewRotation geom.Rotator
	// HolderLocation is used to move the probe start up to the holder so
	// nothing between camera and holder blocks it.
	HolderLocation geom.Vec3
	// Muzzle is the world transform of the muzzle socket.
	Muzzle geom.Transform
}

// Solution is the launch pose for one shot.
type Solution struct {
	Origin    geom.Vec3
	Direction geom.Vec3
	// Aim is the nominal view direction.
	Aim geom.Vec3
	// Probe is the forward visibility probe result.
	Probe geom.Hit
	// Penetrating is true when the muzzle was found inside geometry.
	Penetrating bool
}

// Target returns the point the shot is aimed at.
func (s Solution) Target() geom.Vec3 {
	return s.Probe.Impact
}

// AimResolver reconciles the camera-centred crosshair with the muzzle-offset
// launch point.
type AimResolver struct {
	probe  Probe
	tuning AimTuning
}

// NewAimResolver returns a resolver tracing through probe. Zero tuning
// fields and a nil PenetrationAngle take the package defaults.
func NewAimResolver(probe Probe, tuning AimTuning) *AimResolver {
	if probe == nil {
		probe = nopProbe{}
	}
	return &AimResolver{probe: probe, tuning: tuning.withDefaults()}
}

// Tuning returns the effective tuning.
func (r *AimResolver) Tuning() AimTuning {
	return r.tuning
}

// Resolve computes the launch origin and direction for one shot.
//
// Postcondition: result.Direction is a unit vector.
func (r *AimResolver) Resolve(in AimInput) Solution {
	aim := in.ViewRotation.Vector()
	start := probeStart(in.ViewOrigin, in.HolderLocation, aim)
	end := start.Add(aim.Scale(r.tuning.MaxRange))

	hit := r.probe.Trace(start, end)
	if !hit.Blocked {
		hit.Impact = end
	}

	sol := Solution{
		Origin: in.Muzzle.Location,
		Aim:    aim,
		Probe:  hit,
	}

	toTarget := hit.Impact.Sub(sol.Origin).Normalize()
	if toTarget == geom.Zero {
		sol.Direction = aim
		return sol
	}

	if hit.Blocked && r.penetrating(in.Muzzle, toTarget, aim) {
		sol.Penetrating = true
		sol.Origin = hit.Impact.Sub(aim.Scale(r.tuning.PenetrationBackoff))
		sol.Direction = aim
		return sol
	}

	sol.Direction = toTarget
	return sol
}

// penetrating reports whether the muzzle is poking through geometry: the
// target is behind the muzzle, or the deviation from the aim is large and a
// probe along the weapon body is blocked.
func (r *AimResolver) penetrating(muzzle geom.Transform, toTarget, aim geom.Vec3) bool {
	angle := geom.AngleBetween(toTarget, aim)
	if angle > 90 {
		return true
	}
	if angle <= *r.tuning.PenetrationAngle {
		return false
	}
	bodyStart := muzzle.Location.Sub(muzzle.Forward().Scale(r.tuning.PenetrationProbeDistance))
	return r.probe.Trace(bodyStart, muzzle.Location).Blocked
}

// probeStart moves the camera position forward along aim until it is level
// with the holder.
func probeStart(camera, holder, aim geom.Vec3) geom.Vec3 {
	return camera.Add(aim.Scale(holder.Sub(camera).Dot(aim)))
}
