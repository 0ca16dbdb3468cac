package mcp

import (
	"context"
	"time"

	"github.com/claude/liftlog/internal/history"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the history layer for MCP tools. Both Local (in
// process) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListCompletedWorkouts(ctx context.Context, start, end time.Time) ([]models.WorkoutSummary, error)
	GetCompletedWorkout(ctx context.Context, id uuid.UUID) (*models.CompletedWorkout, error)
	GetWorkoutStats(ctx context.Context, start, end time.Time) (*models.WorkoutStats, error)
	ListTemplates(ctx context.Context) ([]models.Template, error)
	AllPrevious(ctx context.Context, name string) ([]models.Previous, error)
	History(ctx context.Context, name string, limit int) ([]models.ExerciseHistoryEntry, error)
	Suggest(ctx context.Context, prefix string, limit int) ([]string, error)
}

// Local serves MCP tools from the database and resolver of this process.
type Local struct {
	*storage.DB
	*history.Resolver
}

// Compile-time checks.
var (
	_ DataSource = Local{}
	_ DataSource = (*HTTPClient)(nil)
)
