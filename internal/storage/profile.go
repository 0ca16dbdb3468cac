package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// GetProfile returns the single user profile, or defaults when none is saved.
func (db *DB) GetProfile(ctx context.Context) (*models.Profile, error) {
	p := &models.Profile{}
	err := db.SQL.QueryRowContext(ctx,
		`SELECT name, rest_timer_seconds, updated_at FROM user_profile WHERE id = 1`,
	).Scan(&p.Name, &p.RestTimerSeconds, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.Profile{RestTimerSeconds: models.DefaultRestTimerSeconds}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return p, nil
}

// SetProfileName updates the display name, creating the profile row if needed.
func (db *DB) SetProfileName(ctx context.Context, name string) error {
	_, err := db.SQL.ExecContext(ctx,
		db.rebind(`INSERT INTO user_profile (id, name, rest_timer_seconds, updated_at)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`),
		name, models.DefaultRestTimerSeconds, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving profile name: %w", err)
	}
	return nil
}

// RestTimerSeconds returns the persisted default rest duration.
func (db *DB) RestTimerSeconds(ctx context.Context) (int, error) {
	p, err := db.GetProfile(ctx)
	if err != nil {
		return 0, err
	}
	return p.RestTimerSeconds, nil
}

// SetRestTimerSeconds persists the default rest duration.
func (db *DB) SetRestTimerSeconds(ctx context.Context, seconds int) error {
	_, err := db.SQL.ExecContext(ctx,
		db.rebind(`INSERT INTO user_profile (id, name, rest_timer_seconds, updated_at)
		 VALUES (1, '', ?, ?)
		 ON CONFLICT (id) DO UPDATE SET rest_timer_seconds = excluded.rest_timer_seconds, updated_at = excluded.updated_at`),
		seconds, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving rest timer default: %w", err)
	}
	return nil
}
