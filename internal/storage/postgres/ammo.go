package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/armory/internal/game/weapon"
)

// ErrEmptyHolderID is returned when a holder ID is blank.
var ErrEmptyHolderID = errors.New("holder id must not be empty")

// AmmoRepository persists the ammo state of a holder's weapons. Rows are
// keyed by holder and carry slot, so a holder may carry two weapons built
// from the same definition.
type AmmoRepository struct {
	db *pgxpool.Pool
}

// NewAmmoRepository creates an AmmoRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewAmmoRepository(db *pgxpool.Pool) *AmmoRepository {
	return &AmmoRepository{db: db}
}

// Save replaces the stored snapshots for holderID with snaps, in order.
//
// Precondition: holderID must be non-empty; every snapshot must satisfy
// 0 <= Magazine <= Total.
// Postcondition: On success exactly len(snaps) rows exist for holderID. On
// error nothing is changed.
func (r *AmmoRepository) Save(ctx context.Context, holderID string, snaps []weapon.Snapshot) error {
	if holderID == "" {
		return ErrEmptyHolderID
	}
	for i, s := range snaps {
		if s.Magazine < 0 || s.Magazine > s.Total {
			return fmt.Errorf("snapshot %d (%s): magazine %d outside [0, %d]", i, s.DefID, s.Magazine, s.Total)
		}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM weapon_ammo WHERE holder_id = $1`, holderID); err != nil {
		return fmt.Errorf("clearing ammo for %s: %w", holderID, err)
	}

	batch := &pgx.Batch{}
	for slot, s := range snaps {
		batch.Queue(`
			INSERT INTO weapon_ammo (holder_id, slot, def_id, magazine, total, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW())`,
			holderID, slot, s.DefID, s.Magazine, s.Total,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting ammo for %s: %w", holderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing ammo for %s: %w", holderID, err)
	}
	return nil
}

// Load returns the stored snapshots for holderID in carry order. A holder
// with nothing saved yields an empty slice and no error.
//
// Precondition: holderID must be non-empty.
func (r *AmmoRepository) Load(ctx context.Context, holderID string) ([]weapon.Snapshot, error) {
	if holderID == "" {
		return nil, ErrEmptyHolderID
	}
	rows, err := r.db.Query(ctx, `
		SELECT def_id, magazine, total
		FROM weapon_ammo
		WHERE holder_id = $1
		ORDER BY slot`,
		holderID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying ammo for %s: %w", holderID, err)
	}
	snaps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (weapon.Snapshot, error) {
		var s weapon.Snapshot
		err := row.Scan(&s.DefID, &s.Magazine, &s.Total)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning ammo for %s: %w", holderID, err)
	}
	return snaps, nil
}

// Delete removes every stored snapshot for holderID.
//
// Postcondition: Returns the number of rows removed.
func (r *AmmoRepository) Delete(ctx context.Context, holderID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM weapon_ammo WHERE holder_id = $1`, holderID)
	if err != nil {
		return 0, fmt.Errorf("deleting ammo for %s: %w", holderID, err)
	}
	return tag.RowsAffected(), nil
}
