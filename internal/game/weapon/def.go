package weapon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/armory/internal/game/geom"
)

// Type classifies a weapon for inventory lookup and ammo pickups.
type Type string

const (
	// TypePistol is a sidearm.
	TypePistol Type = "pistol"
	// TypeRifle is a long arm.
	TypeRifle Type = "rifle"
)

// FireMode controls whether a held trigger keeps firing.
type FireMode string

const (
	// FireModeSingle fires one round per trigger pull.
	FireModeSingle FireMode = "single"
	// FireModeAuto fires every TimeBetweenShots while the trigger is held.
	FireModeAuto FireMode = "auto"
)

// Aim tuning defaults.
const (
	DefaultMaxRange                 = 10000.0
	DefaultPenetrationAngle         = 60.0
	DefaultPenetrationProbeDistance = 150.0
	DefaultPenetrationBackoff       = 10.0
)

// ProjectileParams is handed to the Spawner with every shot.
type ProjectileParams struct {
	// Class names the projectile or hit-scan effect to spawn.
	Class string `yaml:"class"`
	// SpeedMultiplier scales the projectile's base speed.
	SpeedMultiplier float64 `yaml:"speed_multiplier"`
	// DamageMultiplier scales the projectile's base damage.
	DamageMultiplier float64 `yaml:"damage_multiplier"`
	// SpawnOffset moves the spawn point forward along the launch direction.
	SpawnOffset float64 `yaml:"spawn_offset"`
	// MaxDistance is how far the projectile travels before expiring.
	MaxDistance float64 `yaml:"max_distance"`
}

// AimTuning holds the crosshair reconciliation parameters.
type AimTuning struct {
	// MaxRange bounds the forward visibility probe.
	MaxRange float64 `yaml:"max_range"`
	// PenetrationAngle is the muzzle-to-target vs. aim deviation in degrees
	// above which the weapon body is probed for penetrating geometry. Nil
	// uses DefaultPenetrationAngle; 0 probes on any deviation.
	PenetrationAngle *float64 `yaml:"penetration_angle"`
	// PenetrationProbeDistance is the length of the probe behind the muzzle.
	PenetrationProbeDistance float64 `yaml:"penetration_probe_distance"`
	// PenetrationBackoff is how far in front of the impact point a
	// penetrating shot is launched.
	PenetrationBackoff float64 `yaml:"penetration_backoff"`
}

// withDefaults returns a copy of a with zero fields, and an unset
// PenetrationAngle, set to the defaults.
func (a AimTuning) withDefaults() AimTuning {
	if a.MaxRange == 0 {
		a.MaxRange = DefaultMaxRange
	}
	if a.PenetrationAngle == nil {
		angle := DefaultPenetrationAngle
		a.PenetrationAngle = &angle
	}
	if a.PenetrationProbeDistance == 0 {
		a.PenetrationProbeDistance = DefaultPenetrationProbeDistance
	}
	if a.PenetrationBackoff == 0 {
		a.PenetrationBackoff = DefaultPenetrationBackoff
	}
	return a
}

// Cues names the sounds played through the CosmeticSink. Empty cues are skipped.
type Cues struct {
	Fire      string `yaml:"fire"`
	OutOfAmmo string `yaml:"out_of_ammo"`
	Reload    string `yaml:"reload"`
	Equip     string `yaml:"equip"`
}

// Animations names the holder animations. Empty clips are skipped.
type Animations struct {
	Fire   string `yaml:"fire"`
	Reload string `yaml:"reload"`
	Equip  string `yaml:"equip"`
}

// Def is the immutable tuning of one weapon definition, loaded from YAML.
type Def struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Type     Type     `yaml:"type"`
	FireMode FireMode `yaml:"fire_mode"`

	MagazineCapacity int `yaml:"magazine_capacity"`
	MaxAmmo          int `yaml:"max_ammo"`
	InitialClips     int `yaml:"initial_clips"`

	TimeBetweenShots time.Duration `yaml:"time_between_shots"`
	// ReloadDuration is used when the holder has no reload animation.
	ReloadDuration time.Duration `yaml:"reload_duration"`
	// EquipDuration is used when the holder has no equip animation. Zero
	// equips synchronously.
	EquipDuration time.Duration `yaml:"equip_duration"`

	MuzzleSocket string `yaml:"muzzle_socket"`
	// AttachSocket overrides the holder's attach point when set.
	AttachSocket string         `yaml:"attach_socket"`
	AttachOffset geom.Transform `yaml:"attach_offset"`

	Projectile ProjectileParams `yaml:"projectile"`
	Aim        AimTuning        `yaml:"aim"`
	Cues       Cues             `yaml:"cues"`
	Animations Animations       `yaml:"animations"`
}

// InitialAmmo returns the rounds carried at spawn, clamped to MaxAmmo.
func (d *Def) InitialAmmo() int {
	n := d.InitialClips * d.MagazineCapacity
	if n > d.MaxAmmo {
		n = d.MaxAmmo
	}
	return n
}

// IsAutomatic reports whether a held trigger keeps firing.
func (d *Def) IsAutomatic() bool {
	return d.FireMode == FireModeAuto
}

// Validate checks that the Def satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *Def) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	switch d.Type {
	case TypePistol, TypeRifle:
	default:
		errs = append(errs, fmt.Errorf("Type must be one of [pistol, rifle], got %q", d.Type))
	}
	switch d.FireMode {
	case FireModeSingle, FireModeAuto:
	default:
		errs = append(errs, fmt.Errorf("FireMode must be one of [single, auto], got %q", d.FireMode))
	}
	if d.MagazineCapacity <= 0 {
		errs = append(errs, errors.New("MagazineCapacity must be > 0"))
	}
	if d.MaxAmmo < d.MagazineCapacity {
		errs = append(errs, errors.New("MaxAmmo must be >= MagazineCapacity"))
	}
	if d.InitialClips < 0 {
		errs = append(errs, errors.New("InitialClips must be >= 0"))
	}
	if d.TimeBetweenShots < 0 {
		errs = append(errs, errors.New("TimeBetweenShots must be >= 0"))
	}
	if d.ReloadDuration < 0 {
		errs = append(errs, errors.New("ReloadDuration must be >= 0"))
	}
	if d.EquipDuration < 0 {
		errs = append(errs, errors.New("EquipDuration must be >= 0"))
	}
	if d.MuzzleSocket == "" {
		errs = append(errs, errors.New("MuzzleSocket must not be empty"))
	}
	if d.Aim.MaxRange < 0 || d.Aim.PenetrationProbeDistance < 0 || d.Aim.PenetrationBackoff < 0 {
		errs = append(errs, errors.New("Aim distances must be >= 0"))
	}
	if pa := d.Aim.PenetrationAngle; pa != nil && (*pa < 0 || *pa > 180) {
		errs = append(errs, errors.New("Aim.PenetrationAngle must be in [0, 180]"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("weapon def %q validation failed: %v", d.ID, errs)
	}
	return nil
}

// ParseDef decodes and validates a single YAML weapon definition. Unset aim
// tuning takes the package defaults.
func ParseDef(data []byte) (*Def, error) {
	var d Def
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing weapon def: %w", err)
	}
	d.Aim = d.Aim.withDefaults()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadDefs reads all *.yaml files from dir, parses each as a Def, validates
// it, and returns them sorted by ID.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid Defs or the first encountered error.
func LoadDefs(dir string) ([]*Def, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadDefs: cannot read directory %q: %w", dir, err)
	}

	seen := make(map[string]string)
	var defs []*Def
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadDefs: cannot read file %q: %w", path, err)
		}
		d, err := ParseDef(data)
		if err != nil {
			return nil, fmt.Errorf("LoadDefs: invalid weapon in %q: %w", path, err)
		}
		if prev, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("LoadDefs: duplicate weapon id %q in %q and %q", d.ID, prev, path)
		}
		seen[d.ID] = path
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}
