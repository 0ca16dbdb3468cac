package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 30 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -30)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolGetWorkouts = mcp.NewTool("get_workouts",
	mcp.WithDescription("List workouts started in a date range, newest first. Each row has name, date, start/end time, exercise and set counts. Workouts without an end time were abandoned."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get one workout with every exercise and set (weight in kg, reps) in logged order."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout ID (UUID) from get_workouts")),
)

var toolGetWorkoutStats = mcp.NewTool("get_workout_stats",
	mcp.WithDescription("Totals over finished workouts in a range: workout count, sets, reps, volume (kg x reps) and time trained."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolListTemplates = mcp.NewTool("list_templates",
	mcp.WithDescription("List saved workout templates with their exercises and target weight/reps."),
)

var toolGetPreviousSets = mcp.NewTool("get_previous_sets",
	mcp.WithDescription("Weight and reps logged for each set position the last time an exercise was performed. Names match exactly and are case-sensitive."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exact exercise name, e.g. 'Bench Press'")),
)

var toolGetExerciseHistory = mcp.NewTool("get_exercise_history",
	mcp.WithDescription("Past performances of one exercise, newest first, with the sets of each workout. Useful for progression questions."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exact exercise name")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of workouts. Defaults to 20.")),
)

var toolSuggestExercises = mcp.NewTool("suggest_exercises",
	mcp.WithDescription("Exercise names from history and templates starting with a prefix (case-insensitive), most used first. Use it to find the exact name for other tools."),
	mcp.WithString("prefix", mcp.Description("Name prefix. Empty lists the most used exercises.")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of names. Defaults to 10.")),
)

// --- Tool handlers ---

func (h *handlers) getWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	workouts, err := h.ds.ListCompletedWorkouts(ctx, start, end)
	if err != nil {
		h.log.Error("mcp get_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(workouts)
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid workout ID"), nil
	}

	w, err := h.ds.GetCompletedWorkout(ctx, id)
	if err != nil {
		h.log.Error("mcp get_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(w)
}

func (h *handlers) getWorkoutStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	stats, err := h.ds.GetWorkoutStats(ctx, start, end)
	if err != nil {
		h.log.Error("mcp get_workout_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats)
}

func (h *handlers) listTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates, err := h.ds.ListTemplates(ctx)
	if err != nil {
		h.log.Error("mcp list_templates", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(templates)
}

func (h *handlers) getPreviousSets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	prev, err := h.ds.AllPrevious(ctx, name)
	if err != nil {
		h.log.Error("mcp get_previous_sets", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if len(prev) == 0 {
		return mcp.NewToolResultText("no finished workout contains " + name), nil
	}
	return jsonResult(prev)
}

func (h *handlers) getExerciseHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	entries, err := h.ds.History(ctx, name, req.GetInt("limit", 20))
	if err != nil {
		h.log.Error("mcp get_exercise_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(entries)
}

func (h *handlers) suggestExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := h.ds.Suggest(ctx, req.GetString("prefix", ""), req.GetInt("limit", 10))
	if err != nil {
		h.log.Error("mcp suggest_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if names == nil {
		names = []string{}
	}
	return jsonResult(names)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
