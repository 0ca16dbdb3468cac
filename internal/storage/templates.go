package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// CreateTemplate inserts a template with its exercises and sets in one
// transaction. Missing IDs are generated; positions are taken from slice order.
func (db *DB) CreateTemplate(ctx context.Context, t *models.Template) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.CreatedAt = t.CreatedAt.UTC()

	return db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			db.rebind(`INSERT INTO workout_templates (id, name, created_at) VALUES (?, ?, ?)`),
			t.ID, t.Name, t.CreatedAt); err != nil {
			return fmt.Errorf("inserting template: %w", err)
		}

		for i := range t.Exercises {
			ex := &t.Exercises[i]
			if ex.ID == uuid.Nil {
				ex.ID = uuid.New()
			}
			ex.Position = i
			if _, err := tx.ExecContext(ctx,
				db.rebind(`INSERT INTO template_exercises (id, template_id, name, position) VALUES (?, ?, ?, ?)`),
				ex.ID, t.ID, ex.Name, ex.Position); err != nil {
				return fmt.Errorf("inserting template exercise %q: %w", ex.Name, err)
			}
			for j := range ex.Sets {
				s := &ex.Sets[j]
				s.Position = j
				if _, err := tx.ExecContext(ctx,
					db.rebind(`INSERT INTO template_sets (exercise_id, position, weight, reps) VALUES (?, ?, ?, ?)`),
					ex.ID, s.Position, nullFloat(s.Weight), nullInt(s.Reps)); err != nil {
					return fmt.Errorf("inserting template set: %w", err)
				}
			}
		}
		return nil
	})
}

// GetTemplate loads a template with its exercises and sets in position order.
func (db *DB) GetTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	t := &models.Template{}
	err := db.SQL.QueryRowContext(ctx,
		db.rebind(`SELECT id, name, created_at FROM workout_templates WHERE id = ?`), id,
	).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying template: %w", err)
	}

	rows, err := db.SQL.QueryContext(ctx,
		db.rebind(`SELECT e.id, e.name, e.position, s.position, s.weight, s.reps
		 FROM template_exercises e
		 LEFT JOIN template_sets s ON s.exercise_id = e.id
		 WHERE e.template_id = ?
		 ORDER BY e.position ASC, s.position ASC`), id)
	if err != nil {
		return nil, fmt.Errorf("querying template exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			exID   uuid.UUID
			name   string
			exPos  int
			setPos sql.NullInt64
			weight sql.NullFloat64
			reps   sql.NullInt64
		)
		if err := rows.Scan(&exID, &name, &exPos, &setPos, &weight, &reps); err != nil {
			return nil, fmt.Errorf("scanning template exercise: %w", err)
		}
		if n := len(t.Exercises); n == 0 || t.Exercises[n-1].ID != exID {
			t.Exercises = append(t.Exercises, models.TemplateExercise{ID: exID, Name: name, Position: exPos})
		}
		if setPos.Valid {
			ex := &t.Exercises[len(t.Exercises)-1]
			ex.Sets = append(ex.Sets, models.TemplateSet{
				Position: int(setPos.Int64),
				Weight:   floatPtr(weight),
				Reps:     intPtr(reps),
			})
		}
	}
	return t, rows.Err()
}

// ListTemplates returns all templates without their exercises, newest first.
func (db *DB) ListTemplates(ctx context.Context) ([]models.Template, error) {
	rows, err := db.SQL.QueryContext(ctx,
		`SELECT id, name, created_at FROM workout_templates ORDER BY created_at DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	var result []models.Template
	for rows.Next() {
		var t models.Template
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// DeleteTemplate removes a template; exercises and sets cascade. Completed
// workouts that referenced it keep their data and lose the reference.
func (db *DB) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	res, err := db.SQL.ExecContext(ctx, db.rebind(`DELETE FROM workout_templates WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	return nil
}
