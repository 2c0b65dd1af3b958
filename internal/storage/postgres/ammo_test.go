package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/armory/internal/game/weapon"
	"github.com/cory-johannsen/armory/internal/storage/postgres"
	"github.com/cory-johannsen/armory/internal/testutil"
)

func uniqueHolder(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func setupAmmoRepo(t *testing.T) *postgres.AmmoRepository {
	t.Helper()
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return postgres.NewAmmoRepository(pc.RawPool)
}

func TestAmmoRepository_SaveAndLoad(t *testing.T) {
	repo := setupAmmoRepo(t)
	ctx := context.Background()
	holder := uniqueHolder("player")

	snaps := []weapon.Snapshot{
		{DefID: "service-pistol", Magazine: 7, Total: 40},
		{DefID: "assault-rifle", Magazine: 0, Total: 0},
	}
	require.NoError(t, repo.Save(ctx, holder, snaps))

	got, err := repo.Load(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, snaps, got)
}

func TestAmmoRepository_SaveReplaces(t *testing.T) {
	repo := setupAmmoRepo(t)
	ctx := context.Background()
	holder := uniqueHolder("player")

	require.NoError(t, repo.Save(ctx, holder, []weapon.Snapshot{
		{DefID: "service-pistol", Magazine: 12, Total: 84},
		{DefID: "assault-rifle", Magazine: 30, Total: 240},
	}))
	require.NoError(t, repo.Save(ctx, holder, []weapon.Snapshot{
		{DefID: "assault-rifle", Magazine: 3, Total: 3},
	}))

	got, err := repo.Load(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, []weapon.Snapshot{{DefID: "assault-rifle", Magazine: 3, Total: 3}}, got)
}

func TestAmmoRepository_LoadUnknownHolderIsEmpty(t *testing.T) {
	repo := setupAmmoRepo(t)
	got, err := repo.Load(context.Background(), uniqueHolder("nobody"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAmmoRepository_HoldersAreIsolated(t *testing.T) {
	repo := setupAmmoRepo(t)
	ctx := context.Background()
	a, b := uniqueHolder("a"), uniqueHolder("b")

	require.NoError(t, repo.Save(ctx, a, []weapon.Snapshot{{DefID: "service-pistol", Magazine: 1, Total: 1}}))
	require.NoError(t, repo.Save(ctx, b, []weapon.Snapshot{{DefID: "assault-rifle", Magazine: 2, Total: 9}}))

	n, err := repo.Delete(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	gotA, err := repo.Load(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, gotA)
	gotB, err := repo.Load(ctx, b)
	require.NoError(t, err)
	assert.Len(t, gotB, 1)
}

func TestAmmoRepository_RejectsInvalidSnapshot(t *testing.T) {
	repo := setupAmmoRepo(t)
	ctx := context.Background()
	holder := uniqueHolder("player")

	require.NoError(t, repo.Save(ctx, holder, []weapon.Snapshot{{DefID: "service-pistol", Magazine: 5, Total: 10}}))
	err := repo.Save(ctx, holder, []weapon.Snapshot{{DefID: "service-pistol", Magazine: 11, Total: 10}})
	assert.Error(t, err)

	got, err := repo.Load(ctx, holder)
	require.NoError(t, err)
	assert.Equal(t, []weapon.Snapshot{{DefID: "service-pistol", Magazine: 5, Total: 10}}, got, "failed save leaves prior rows")

	assert.ErrorIs(t, repo.Save(ctx, "", nil), postgres.ErrEmptyHolderID)
}

func TestProperty_AmmoRepository_RoundTripPreservesOrder(t *testing.T) {
	repo := setupAmmoRepo(t)
	ctx := context.Background()
	holder := uniqueHolder("prop")

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 6).Draw(rt, "n")
		snaps := make([]weapon.Snapshot, n)
		for i := range snaps {
			total := rapid.IntRange(0, 500).Draw(rt, "total")
			snaps[i] = weapon.Snapshot{
				DefID:    rapid.SampledFrom([]string{"service-pistol", "assault-rifle"}).Draw(rt, "def"),
				Magazine: rapid.IntRange(0, total).Draw(rt, "mag"),
				Total:    total,
			}
		}
		if err := repo.Save(ctx, holder, snaps); err != nil {
			rt.Fatalf("save: %v", err)
		}
		got, err := repo.Load(ctx, holder)
		if err != nil {
			rt.Fatalf("load: %v", err)
		}
		if len(got) != len(snaps) {
			rt.Fatalf("loaded %d rows, saved %d", len(got), len(snaps))
		}
		for i := range snaps {
			if got[i] != snaps[i] {
				rt.Fatalf("row %d: got %+v want %+v", i, got[i], snaps[i])
			}
		}
	})
}
