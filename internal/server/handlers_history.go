package server

import (
	"net/http"
	"strings"

	"github.com/claude/liftlog/internal/importer"
	"github.com/claude/liftlog/internal/models"
)

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.db.ListTemplates(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var t models.Template
	if !decodeJSON(w, r, &t) {
		return
	}
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "template name required"})
		return
	}
	if err := s.db.CreateTemplate(r.Context(), &t); err != nil {
		s.writeError(w, err)
		return
	}
	s.history.Invalidate()
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	t, err := s.db.GetTemplate(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.db.DeleteTemplate(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.history.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	workouts, err := s.db.ListCompletedWorkouts(r.Context(), start, end)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleWorkoutStats(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	stats, err := s.db.GetWorkoutStats(r.Context(), start, end)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	workout, err := s.db.GetCompletedWorkout(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workout)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.db.DeleteCompletedWorkout(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.history.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSuggestExercises(w http.ResponseWriter, r *http.Request) {
	names, err := s.history.Suggest(r.Context(), r.URL.Query().Get("prefix"), intQuery(r, "limit", 10))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handlePreviousSets(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name parameter required"})
		return
	}
	prev, err := s.history.AllPrevious(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if prev == nil {
		prev = []models.Previous{}
	}
	writeJSON(w, http.StatusOK, prev)
}

func (s *Server) handleExerciseHistory(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name parameter required"})
		return
	}
	entries, err := s.history.History(r.Context(), name, intQuery(r, "limit", 20))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.ExerciseHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.db.GetProfile(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type profileRequest struct {
	Name             *string `json:"name"`
	RestTimerSeconds *int    `json:"rest_timer_seconds"`
}

// handleUpdateProfile changes the rest default through the timer so a new
// value takes effect for the next countdown without a restart.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RestTimerSeconds != nil {
		if err := s.timer.SetDefaultDuration(r.Context(), *req.RestTimerSeconds); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.Name != nil {
		if err := s.db.SetProfileName(r.Context(), strings.TrimSpace(*req.Name)); err != nil {
			s.writeError(w, err)
			return
		}
	}
	s.handleGetProfile(w, r)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.db.GetImportLogs(r.Context(), intQuery(r, "limit", 50))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// handleAlphaImport ingests an uploaded Alpha Progression CSV export.
// ?dry_run=true parses and counts without writing.
func (s *Server) handleAlphaImport(w http.ResponseWriter, r *http.Request) {
	dryRun := r.URL.Query().Get("dry_run") == "true"
	imp := importer.New(s.alpha, s.db, s.log, dryRun)

	result, err := imp.ImportReader(r.Context(), "upload.csv", r.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if result.Message != "" {
		writeJSON(w, http.StatusBadRequest, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
