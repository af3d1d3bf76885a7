package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dohr-michael/dayplanner/internal/calendar"
	"github.com/dohr-michael/dayplanner/internal/tasks"
)

type rescheduleRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type moveRequest struct {
	Day string `json:"day"`
}

type dayResponse struct {
	Day   calendar.Day `json:"day"`
	Tasks []tasks.Task `json:"tasks"`
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := tasks.ParseListFilter(s.store, q.Get("status"), q.Get("day"), q.Get("priority"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, s.store.List(filter))
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in tasks.DraftInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}
	draft, err := tasks.ResolveDraft(s.store, in, s.defaults)
	if err != nil {
		writeError(w, err)
		return
	}
	task, err := s.store.Create(r.Context(), draft)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/tasks/"+task.ID)
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var patch tasks.Patch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, err)
		return
	}
	task, err := patch.Apply(r.Context(), s.store, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.Complete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleReopenTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.Reopen(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleRescheduleTask(w http.ResponseWriter, r *http.Request) {
	var req rescheduleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	current, err := s.store.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}

	start, end, err := s.parseInterval(current, req)
	if err != nil {
		writeError(w, err)
		return
	}
	task, err := s.store.Reschedule(r.Context(), id, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// parseInterval resolves a reschedule body against the task's current day.
// A missing end keeps the task's duration.
func (s *Server) parseInterval(current tasks.Task, req rescheduleRequest) (time.Time, time.Time, error) {
	loc := s.store.Location()
	if req.Start == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start is required", errBadRequest)
	}
	start, err := calendar.ParseTimeOn(req.Start, calendar.DayOf(current.Start, loc), loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if req.End == "" {
		return start, start.Add(current.Duration()), nil
	}
	end, err := calendar.ParseTimeOn(req.End, calendar.DayOf(start, loc), loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return start, end, nil
}

func (s *Server) handleMoveTask(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	day, err := s.resolveDay(req.Day)
	if err != nil {
		writeError(w, err)
		return
	}
	task, err := tasks.MoveToDay(r.Context(), s.store, chi.URLParam(r, "id"), day)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleCompleteDay(w http.ResponseWriter, r *http.Request) {
	day, err := s.resolveDay(chi.URLParam(r, "day"))
	if err != nil {
		writeError(w, err)
		return
	}
	changed, err := s.store.CompleteAllOnDay(r.Context(), day)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dayResponse{Day: day, Tasks: nonNil(changed)})
}

func (s *Server) handleClearDay(w http.ResponseWriter, r *http.Request) {
	day, err := s.resolveDay(chi.URLParam(r, "day"))
	if err != nil {
		writeError(w, err)
		return
	}
	removed, err := s.store.ClearDay(r.Context(), day)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dayResponse{Day: day, Tasks: nonNil(removed)})
}

func (s *Server) resolveDay(raw string) (calendar.Day, error) {
	day, err := calendar.ResolveDay(raw, s.store.Now(), s.store.Location())
	if err != nil {
		return calendar.Day{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return day, nil
}

func nonNil(list []tasks.Task) []tasks.Task {
	if list == nil {
		return []tasks.Task{}
	}
	return list
}
