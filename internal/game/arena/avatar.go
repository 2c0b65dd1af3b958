package arena

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/game/geom"
	"github.com/cory-johannsen/armory/internal/game/weapon"
)

// Pitch limits for Look.
const (
	MinPitch = -89.0
	MaxPitch = 89.0
)

// AvatarConfig describes an avatar's body.
type AvatarConfig struct {
	ID       string    `yaml:"id" mapstructure:"id"`
	Location geom.Vec3 `yaml:"location" mapstructure:"location"`
	// EyeHeight is the camera pivot above Location.
	EyeHeight float64 `yaml:"eye_height" mapstructure:"eye_height"`
	// CameraDistance pulls the camera back from the pivot along the view.
	CameraDistance float64 `yaml:"camera_distance" mapstructure:"camera_distance"`
	// AttachPoint names the hand socket weapons attach to.
	AttachPoint string `yaml:"attach_point" mapstructure:"attach_point"`
	// Hand is the attach point relative to the avatar.
	Hand geom.Transform `yaml:"hand" mapstructure:"hand"`
	// Animations maps clip names to their length.
	Animations map[string]time.Duration `yaml:"animations" mapstructure:"animations"`
}

// Avatar is a character that can hold a weapon. It implements weapon.Holder
// and weapon.AimSource.
type Avatar struct {
	cfg     AvatarConfig
	logger  *zap.Logger
	loc     geom.Vec3
	view    geom.Rotator
	blind   bool
	playing map[string]bool
}

// NewAvatar returns an avatar at cfg.Location facing +X.
func NewAvatar(cfg AvatarConfig, logger *zap.Logger) *Avatar {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AttachPoint == "" {
		cfg.AttachPoint = "hand_r"
	}
	return &Avatar{
		cfg:     cfg,
		logger:  logger.With(zap.String("avatar", cfg.ID)),
		loc:     cfg.Location,
		playing: make(map[string]bool),
	}
}

// ID returns the avatar's identifier.
func (a *Avatar) ID() string { return a.cfg.ID }

// Location returns the avatar's feet position.
func (a *Avatar) Location() geom.Vec3 { return a.loc }

// MoveTo places the avatar at p.
func (a *Avatar) MoveTo(p geom.Vec3) { a.loc = p }

// View returns the current view rotation.
func (a *Avatar) View() geom.Rotator { return a.view }

// Look sets the view, clamping pitch to [MinPitch, MaxPitch].
func (a *Avatar) Look(yaw, pitch float64) {
	pitch = max(MinPitch, min(MaxPitch, pitch))
	a.view = geom.Rotator{Pitch: pitch, Yaw: yaw}
}

// SetBlind removes (true) or restores the avatar's camera.
func (a *Avatar) SetBlind(blind bool) { a.blind = blind }

// Transform returns the body transform; the body only yaws with the view.
func (a *Avatar) Transform() geom.Transform {
	return geom.Transform{Location: a.loc, Rotation: geom.Rotator{Yaw: a.view.Yaw}}
}

// AttachPoint implements weapon.Holder.
func (a *Avatar) AttachPoint() string { return a.cfg.AttachPoint }

// MountTransform returns the world transform of a named attach point.
func (a *Avatar) MountTransform(point string) (geom.Transform, bool) {
	if point != a.cfg.AttachPoint {
		return geom.Transform{}, false
	}
	return a.Transform().Compose(a.cfg.Hand), true
}

// AimSource implements weapon.Holder.
func (a *Avatar) AimSource() (weapon.AimSource, bool) {
	if a.blind {
		return nil, false
	}
	return a, true
}

// ViewPoint implements weapon.AimSource: the camera sits CameraDistance
// behind the eye pivot along the view.
func (a *Avatar) ViewPoint() (geom.Vec3, geom.Rotator) {
	pivot := a.loc.Add(geom.Vec3{Z: a.cfg.EyeHeight})
	return pivot.Sub(a.view.Vector().Scale(a.cfg.CameraDistance)), a.view
}

// PlayAnimation implements weapon.Holder.
func (a *Avatar) PlayAnimation(clip string) time.Duration {
	d, ok := a.cfg.Animations[clip]
	if !ok {
		a.logger.Debug("animation not found", zap.String("clip", clip))
		return 0
	}
	a.playing[clip] = true
	a.logger.Debug("animation started", zap.String("clip", clip), zap.Duration("length", d))
	return d
}

// StopAnimation implements weapon.Holder.
func (a *Avatar) StopAnimation(clip string) {
	if !a.playing[clip] {
		return
	}
	delete(a.playing, clip)
	a.logger.Debug("animation stopped", zap.String("clip", clip))
}

// Playing reports whether clip was started and not stopped.
func (a *Avatar) Playing(clip string) bool { return a.playing[clip] }
