// Package mcp exposes workout history to assistants over the Model Context
// Protocol.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog strength training history. Query finished workouts, per-exercise history, the values logged last time, templates and totals. Weights are kilograms."),
	)

	h := &handlers{ds: ds, log: log.With("component", "mcp")}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetWorkouts, Handler: h.getWorkouts},
		server.ServerTool{Tool: toolGetWorkout, Handler: h.getWorkout},
		server.ServerTool{Tool: toolGetWorkoutStats, Handler: h.getWorkoutStats},
		server.ServerTool{Tool: toolListTemplates, Handler: h.listTemplates},
		server.ServerTool{Tool: toolGetPreviousSets, Handler: h.getPreviousSets},
		server.ServerTool{Tool: toolGetExerciseHistory, Handler: h.getExerciseHistory},
		server.ServerTool{Tool: toolSuggestExercises, Handler: h.suggestExercises},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
		server.ServerResource{Resource: resTemplates, Handler: h.templates},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resRecentWorkouts = mcp.NewResource(
	"liftlog://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("Workouts started in the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

var resTemplates = mcp.NewResource(
	"liftlog://templates",
	"Workout Templates",
	mcp.WithResourceDescription("Saved templates with their exercises and target sets"),
	mcp.WithMIMEType("application/json"),
)
