package weapon_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/armory/internal/game/weapon"
)

const rifleYAML = `
id: assault-rifle
name: Assault Rifle
type: rifle
fire_mode: auto
magazine_capacity: 30
max_ammo: 210
initial_clips: 4
time_between_shots: 100ms
reload_duration: 2s
equip_duration: 500ms
muzzle_socket: MuzzleFlash
attach_offset:
  location: {x: 0, y: 2, z: -1}
projectile:
  class: rifle_round
  speed_multiplier: 1.5
  spawn_offset: 5
aim:
  max_range: 20000
cues:
  fire: rifle_fire
  out_of_ammo: dry_fire
animations:
  reload: reload_rifle
`

func TestParseDef_DecodesDurationsAndDefaults(t *testing.T) {
	d, err := weapon.ParseDef([]byte(rifleYAML))
	require.NoError(t, err)

	assert.Equal(t, "assault-rifle", d.ID)
	assert.Equal(t, weapon.TypeRifle, d.Type)
	assert.True(t, d.IsAutomatic())
	assert.Equal(t, 100*time.Millisecond, d.TimeBetweenShots)
	assert.Equal(t, 2*time.Second, d.ReloadDuration)
	assert.Equal(t, 500*time.Millisecond, d.EquipDuration)
	assert.Equal(t, 120, d.InitialAmmo())
	assert.Equal(t, 2.0, d.AttachOffset.Location.Y)
	assert.Equal(t, "rifle_round", d.Projectile.Class)
	assert.Equal(t, 5.0, d.Projectile.SpawnOffset)
	assert.Equal(t, "reload_rifle", d.Animations.Reload)
	assert.Equal(t, "dry_fire", d.Cues.OutOfAmmo)

	assert.Equal(t, 20000.0, d.Aim.MaxRange)
	require.NotNil(t, d.Aim.PenetrationAngle)
	assert.Equal(t, weapon.DefaultPenetrationAngle, *d.Aim.PenetrationAngle)
	assert.Equal(t, weapon.DefaultPenetrationProbeDistance, d.Aim.PenetrationProbeDistance)
	assert.Equal(t, weapon.DefaultPenetrationBackoff, d.Aim.PenetrationBackoff)
}

func TestParseDef_KeepsExplicitZeroPenetrationAngle(t *testing.T) {
	d, err := weapon.ParseDef([]byte("id: carbine\ntype: rifle\nfire_mode: auto\nmagazine_capacity: 20\nmax_ammo: 100\nmuzzle_socket: Muzzle\naim:\n  penetration_angle: 0\n"))
	require.NoError(t, err)
	require.NotNil(t, d.Aim.PenetrationAngle)
	assert.Zero(t, *d.Aim.PenetrationAngle)
}

func TestParseDef_RejectsInvalid(t *testing.T) {
	_, err := weapon.ParseDef([]byte("id: [unterminated"))
	assert.Error(t, err)

	_, err = weapon.ParseDef([]byte("id: x\ntype: bow\nfire_mode: auto\nmagazine_capacity: 1\nmax_ammo: 1\nmuzzle_socket: m\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Type must be one of")
}

func TestInitialAmmo_ClampedToMaxAmmo(t *testing.T) {
	d := testDef()
	d.InitialClips = 9
	assert.Equal(t, 50, d.InitialAmmo())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*weapon.Def)
		want   string
	}{
		{"empty id", func(d *weapon.Def) { d.ID = "" }, "ID must not be empty"},
		{"bad fire mode", func(d *weapon.Def) { d.FireMode = "burst" }, "FireMode must be one of"},
		{"zero magazine", func(d *weapon.Def) { d.MagazineCapacity = 0 }, "MagazineCapacity must be > 0"},
		{"max below magazine", func(d *weapon.Def) { d.MaxAmmo = 5 }, "MaxAmmo must be >= MagazineCapacity"},
		{"negative clips", func(d *weapon.Def) { d.InitialClips = -1 }, "InitialClips must be >= 0"},
		{"negative interval", func(d *weapon.Def) { d.TimeBetweenShots = -time.Millisecond }, "TimeBetweenShots must be >= 0"},
		{"negative reload", func(d *weapon.Def) { d.ReloadDuration = -time.Second }, "ReloadDuration must be >= 0"},
		{"no muzzle", func(d *weapon.Def) { d.MuzzleSocket = "" }, "MuzzleSocket must not be empty"},
		{"angle out of range", func(d *weapon.Def) { angle := 200.0; d.Aim.PenetrationAngle = &angle }, "PenetrationAngle"},
		{"negative angle", func(d *weapon.Def) { angle := -1.0; d.Aim.PenetrationAngle = &angle }, "PenetrationAngle"},
	}
	require.NoError(t, testDef().Validate())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := testDef()
			tc.mutate(d)
			err := d.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func writeDef(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadDefs_SortedAndSkipsNonYAML(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "rifle.yaml", rifleYAML)
	writeDef(t, dir, "pistol.yaml", "id: pistol\ntype: pistol\nfire_mode: single\nmagazine_capacity: 12\nmax_ammo: 60\nmuzzle_socket: Muzzle\n")
	writeDef(t, dir, "README.md", "not a weapon")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755))

	defs, err := weapon.LoadDefs(dir)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "assault-rifle", defs[0].ID)
	assert.Equal(t, "pistol", defs[1].ID)
}

func TestLoadDefs_RejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	writeDef(t, dir, "a.yaml", rifleYAML)
	writeDef(t, dir, "b.yaml", rifleYAML)
	_, err := weapon.LoadDefs(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate weapon id")
}

func TestLoadDefs_MissingDirectory(t *testing.T) {
	_, err := weapon.LoadDefs(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLoadDefs_ShippedContent(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := filepath.Join(wd, "..", "..", "..", "content", "weapons")

	defs, err := weapon.LoadDefs(dir)
	require.NoError(t, err)
	require.NotEmpty(t, defs)
	types := map[weapon.Type]bool{}
	for _, d := range defs {
		types[d.Type] = true
	}
	assert.True(t, types[weapon.TypePistol], "expected a pistol")
	assert.True(t, types[weapon.TypeRifle], "expected a rifle")
}
