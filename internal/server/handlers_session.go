package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/claude/liftlog/internal/session"
	"github.com/google/uuid"
)

type startRequest struct {
	TemplateID *uuid.UUID `json:"template_id"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type moveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// setRequest carries raw text; absent fields are left untouched.
type setRequest struct {
	Weight *string `json:"weight"`
	Reps   *string `json:"reps"`
}

func (s *Server) writeSession(w http.ResponseWriter, status int, sess *session.Session, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, status, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.engine.Snapshot()
	if sess == nil {
		s.writeError(w, session.ErrNoSession)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleStartSession starts from a template when template_id is given and
// ad hoc otherwise. An empty body is allowed.
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	var (
		sess *session.Session
		err  error
	)
	if req.TemplateID != nil {
		sess, err = s.engine.StartFromTemplate(r.Context(), *req.TemplateID)
	} else {
		sess, err = s.engine.StartAdHoc(r.Context())
	}
	s.writeSession(w, http.StatusCreated, sess, err)
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Cancel(); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.engine.Finish(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uuid.UUID{"workout_id": id})
}

func (s *Server) handleSetSessionName(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.engine.SetName(req.Name)
	s.writeSession(w, http.StatusOK, sess, err)
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.AddExercise()
	s.writeSession(w, http.StatusCreated, sess, err)
}

func (s *Server) handleMoveExercise(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.engine.MoveExercise(req.From, req.To)
	s.writeSession(w, http.StatusOK, sess, err)
}

func (s *Server) handleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "exerciseID")
	if !ok {
		return
	}
	sess, err := s.engine.RemoveExercise(id)
	s.writeSession(w, http.StatusOK, sess, err)
}

func (s *Server) handleSetExerciseName(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "exerciseID")
	if !ok {
		return
	}
	var req nameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.engine.SetExerciseName(id, req.Name)
	s.writeSession(w, http.StatusOK, sess, err)
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "exerciseID")
	if !ok {
		return
	}
	sess, err := s.engine.AddSet(id)
	s.writeSession(w, http.StatusCreated, sess, err)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "exerciseID")
	if !ok {
		return
	}
	idx, ok := indexParam(w, r)
	if !ok {
		return
	}
	var req setRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := s.engine.SetValues(id, idx, req.Weight, req.Reps)
	s.writeSession(w, http.StatusOK, sess, err)
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "exerciseID")
	if !ok {
		return
	}
	idx, ok := indexParam(w, r)
	if !ok {
		return
	}
	sess, err := s.engine.RemoveSet(id, idx)
	s.writeSession(w, http.StatusOK, sess, err)
}

func (s *Server) handleToggleSet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "exerciseID")
	if !ok {
		return
	}
	idx, ok := indexParam(w, r)
	if !ok {
		return
	}
	sess, err := s.engine.ToggleSetCompleted(id, idx)
	s.writeSession(w, http.StatusOK, sess, err)
}

type secondsRequest struct {
	Seconds int `json:"seconds"`
}

func (s *Server) handleTimerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.timer.Status())
}

// handleTimerStart starts a countdown of the given seconds, or of the
// default duration when seconds is absent.
func (s *Server) handleTimerStart(w http.ResponseWriter, r *http.Request) {
	var req secondsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Seconds == 0 {
		writeJSON(w, http.StatusOK, s.timer.StartDefault())
		return
	}
	writeJSON(w, http.StatusOK, s.timer.Start(req.Seconds))
}

func (s *Server) handleTimerSkip(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.timer.Skip())
}

func (s *Server) handleTimerDismiss(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.timer.Dismiss())
}

func (s *Server) handleTimerDefault(w http.ResponseWriter, r *http.Request) {
	var req secondsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.timer.SetDefaultDuration(r.Context(), req.Seconds); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"default_seconds": s.timer.DefaultDuration()})
}
