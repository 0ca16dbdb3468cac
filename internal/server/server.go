package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/liftlog/internal/history"
	"github.com/claude/liftlog/internal/ingest/alpha"
	"github.com/claude/liftlog/internal/resttimer"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       *storage.DB
	engine   *session.Engine
	timer    *resttimer.Timer
	history  *history.Resolver
	alpha    *alpha.Provider
	log      *slog.Logger
	apiKey   string
	identity func(http.Handler) http.Handler
	router   chi.Router
}

// Options wires the server's collaborators.
type Options struct {
	DB      *storage.DB
	Engine  *session.Engine
	Timer   *resttimer.Timer
	History *history.Resolver
	Alpha   *alpha.Provider
	APIKey  string
	// WhoIs resolves tailnet callers; nil means every caller is the local user.
	WhoIs WhoIsClient
}

// New creates a new Server with all routes configured.
func New(opts Options, log *slog.Logger) *Server {
	s := &Server{
		db:       opts.DB,
		engine:   opts.Engine,
		timer:    opts.Timer,
		history:  opts.History,
		alpha:    opts.Alpha,
		log:      log.With("component", "server"),
		apiKey:   opts.APIKey,
		identity: DevIdentity,
		router:   chi.NewRouter(),
	}
	if opts.WhoIs != nil {
		s.identity = TailscaleIdentity(opts.WhoIs, s.log)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Mount attaches another handler, such as the MCP endpoint, under pattern.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}
		r.Use(s.identity)

		r.Get("/me", s.handleMe)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/", s.handleStartSession)
			r.Delete("/", s.handleCancelSession)
			r.Get("/events", s.handleSessionEvents)
			r.Put("/name", s.handleSetSessionName)
			r.Post("/finish", s.handleFinishSession)
			r.Post("/exercises", s.handleAddExercise)
			r.Post("/exercises/move", s.handleMoveExercise)
			r.Delete("/exercises/{exerciseID}", s.handleRemoveExercise)
			r.Put("/exercises/{exerciseID}/name", s.handleSetExerciseName)
			r.Post("/exercises/{exerciseID}/sets", s.handleAddSet)
			r.Patch("/exercises/{exerciseID}/sets/{index}", s.handleUpdateSet)
			r.Delete("/exercises/{exerciseID}/sets/{index}", s.handleRemoveSet)
			r.Post("/exercises/{exerciseID}/sets/{index}/toggle", s.handleToggleSet)
		})

		r.Route("/timer", func(r chi.Router) {
			r.Get("/", s.handleTimerStatus)
			r.Post("/start", s.handleTimerStart)
			r.Post("/skip", s.handleTimerSkip)
			r.Post("/dismiss", s.handleTimerDismiss)
			r.Put("/default", s.handleTimerDefault)
		})

		r.Get("/templates", s.handleListTemplates)
		r.Post("/templates", s.handleCreateTemplate)
		r.Get("/templates/{id}", s.handleGetTemplate)
		r.Delete("/templates/{id}", s.handleDeleteTemplate)

		r.Get("/workouts", s.handleListWorkouts)
		r.Get("/workouts/stats", s.handleWorkoutStats)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Delete("/workouts/{id}", s.handleDeleteWorkout)

		r.Get("/exercises/suggest", s.handleSuggestExercises)
		r.Get("/exercises/previous", s.handlePreviousSets)
		r.Get("/exercises/history", s.handleExerciseHistory)

		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handleUpdateProfile)

		r.Get("/imports", s.handleImportLogs)
		r.Post("/imports/alpha", s.handleAlphaImport)
	})
}
