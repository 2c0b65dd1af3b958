package weapon

import (
	"errors"
	"time"

	"github.com/cory-johannsen/armory/internal/game/geom"
)

// Holder capability errors, reported through Observer.OnDiagnostic.
var (
	// ErrNoHolder means an equip or shot was attempted without a holder.
	ErrNoHolder = errors.New("weapon: no holder")
	// ErrNoAimSource means the holder exposes no camera/aim source.
	ErrNoAimSource = errors.New("weapon: holder has no aim source")
	// ErrNoMuzzle means the weapon mesh has no muzzle socket.
	ErrNoMuzzle = errors.New("weapon: muzzle socket not found")
)

// AimSource is the holder's view: camera position and orientation.
type AimSource interface {
	ViewPoint() (geom.Vec3, geom.Rotator)
}

// Holder is the capability a character must provide to equip a weapon.
type Holder interface {
	// AttachPoint names the holder mesh socket weapons attach to.
	AttachPoint() string
	// AimSource returns the holder's view, or false when it has none.
	AimSource() (AimSource, bool)
	// Location is the holder's world position.
	Location() geom.Vec3
	// PlayAnimation starts clip and returns its duration; 0 when the clip
	// does not exist.
	PlayAnimation(clip string) time.Duration
	// StopAnimation stops clip if it is playing.
	StopAnimation(clip string)
}

// Mesh is the weapon's visual representation.
type Mesh interface {
	// Attach parents the mesh to the holder's point with a relative offset.
	Attach(h Holder, point string, offset geom.Transform)
	// Detach removes the mesh from any holder and hides it.
	Detach()
	// Socket returns the world transform of a named socket on the mesh.
	Socket(name string) (geom.Transform, bool)
}

// Probe is the world ray trace service.
type Probe interface {
	Trace(start, end geom.Vec3) geom.Hit
}

// Spawner launches projectiles or hit-scan effects.
type Spawner interface {
	Spawn(origin geom.Vec3, rot geom.Rotator, p ProjectileParams)
}

// CosmeticSink plays sounds and effects.
type CosmeticSink interface {
	PlaySound(cue string)
	PlayMuzzleEffect()
	PlayCameraShake()
}

type nopMesh struct{}

func (nopMesh) Attach(Holder, string, geom.Transform) {}
func (nopMesh) Detach()                               {}
func (nopMesh) Socket(string) (geom.Transform, bool)  { return geom.Transform{}, false }

type nopProbe struct{}

func (nopProbe) Trace(_, end geom.Vec3) geom.Hit { return geom.Hit{Impact: end} }

type nopSpawner struct{}

func (nopSpawner) Spawn(geom.Vec3, geom.Rotator, ProjectileParams) {}

type nopCosmetics struct{}

func (nopCosmetics) PlaySound(string) {}
func (nopCosmetics) PlayMuzzleEffect() {}
func (nopCosmetics) PlayCameraShake()  {}
