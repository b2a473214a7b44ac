package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Heartless-Veteran/Project-Myriad-sub002/internal/download"
	"github.com/Heartless-Veteran/Project-Myriad-sub002/internal/history"
)

// Scheduler is the slice of the download scheduler the API needs.
type Scheduler interface {
	Enqueue(groupID, groupTitle string, unitIDs []string) (download.Task, error)
	Pause(id uuid.UUID) error
	Resume(id uuid.UUID) error
	Retry(id uuid.UUID) error
	Cancel(ctx context.Context, id uuid.UUID) error
	ClearCompleted() int
	Config() download.Config
	Reconfigure(cfg download.Config) error
}

// TaskReader exposes the live task table.
type TaskReader interface {
	Snapshot() []download.Task
	Get(id uuid.UUID) (download.Task, bool)
}

// ProgressReader exposes the aggregate view over the task table.
type ProgressReader interface {
	OverallProgress() float64
	HasActiveDownloads() bool
	StatusCounts() map[download.Status]int
}

// EventReader serves the per-task event journal.
type EventReader interface {
	Events(ctx context.Context, taskID uuid.UUID, limit int) ([]history.Event, error)
}

type Server struct {
	Scheduler Scheduler
	Tasks     TaskReader
	Progress  ProgressReader
	Events    EventReader
	Settings  *Settings
	Version   string
	Log       zerolog.Logger
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tasks", s.handleTasks)
	mux.HandleFunc("/tasks/clear", s.handleClear)
	mux.HandleFunc("/tasks/", s.handleTask)
	mux.HandleFunc("/progress", s.handleProgress)
	mux.HandleFunc("/settings", s.handleSettings)
	mux.HandleFunc("/meta", s.handleMeta)
	return mux
}

type TaskView struct {
	ID              string   `json:"id"`
	GroupID         string   `json:"group_id"`
	GroupTitle      string   `json:"group_title,omitempty"`
	UnitIDs         []string `json:"unit_ids"`
	Status          string   `json:"status"`
	Progress        float64  `json:"progress"`
	DownloadedBytes int64    `json:"downloaded_bytes"`
	TotalBytes      int64    `json:"total_bytes"`
	ErrorMessage    string   `json:"error_message,omitempty"`
	EnqueuedAt      string   `json:"enqueued_at"`
	StartedAt       string   `json:"started_at,omitempty"`
	CompletedAt     string   `json:"completed_at,omitempty"`
}

func toView(t download.Task) TaskView {
	v := TaskView{
		ID:              t.ID.String(),
		GroupID:         t.GroupID,
		GroupTitle:      t.GroupTitle,
		UnitIDs:         t.UnitIDs,
		Status:          string(t.Status),
		Progress:        t.Progress,
		DownloadedBytes: t.DownloadedBytes,
		TotalBytes:      t.TotalBytes,
		ErrorMessage:    t.ErrorMessage,
		EnqueuedAt:      t.EnqueuedAt.Format(time.RFC3339),
	}
	if !t.StartedAt.IsZero() {
		v.StartedAt = t.StartedAt.Format(time.RFC3339)
	}
	if !t.CompletedAt.IsZero() {
		v.CompletedAt = t.CompletedAt.Format(time.RFC3339)
	}
	return v
}

type addTaskRequest struct {
	GroupID    string   `json:"group_id"`
	GroupTitle string   `json:"group_title"`
	UnitIDs    []string `json:"unit_ids"`
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		tasks := s.Tasks.Snapshot()
		views := make([]TaskView, 0, len(tasks))
		for _, t := range tasks {
			views = append(views, toView(t))
		}
		writeJSON(w, http.StatusOK, views)
	case http.MethodPost:
		var req addTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		task, err := s.Scheduler.Enqueue(req.GroupID, req.GroupTitle, req.UnitIDs)
		if err != nil {
			writeErr(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusCreated, toView(task))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/tasks/")
	parts := strings.Split(path, "/")
	id, err := uuid.Parse(parts[0])
	if err != nil {
		writeErr(w, http.StatusBadRequest, errors.New("invalid task id"))
		return
	}
	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		task, ok := s.Tasks.Get(id)
		if !ok {
			writeErr(w, http.StatusNotFound, errors.New("task not found"))
			return
		}
		writeJSON(w, http.StatusOK, toView(task))
		return
	}
	switch parts[1] {
	case "events":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				limit = parsed
			}
		}
		events, err := s.Events.Events(r.Context(), id, limit)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		if events == nil {
			events = []history.Event{}
		}
		writeJSON(w, http.StatusOK, events)
	case "pause", "resume", "retry":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if _, ok := s.Tasks.Get(id); !ok {
			writeErr(w, http.StatusNotFound, errors.New("task not found"))
			return
		}
		var actErr error
		switch parts[1] {
		case "pause":
			actErr = s.Scheduler.Pause(id)
		case "resume":
			actErr = s.Scheduler.Resume(id)
		case "retry":
			actErr = s.Scheduler.Retry(id)
		}
		if actErr != nil {
			writeErr(w, statusFor(actErr), actErr)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case "cancel":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := s.Scheduler.Cancel(r.Context(), id); err != nil {
			writeErr(w, statusFor(err), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	n := s.Scheduler.ClearCompleted()
	s.Log.Debug().Int("cleared", n).Msg("completed tasks cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	counts := make(map[string]int)
	for status, n := range s.Progress.StatusCounts() {
		counts[string(status)] = n
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"overall_progress": s.Progress.OverallProgress(),
		"active":           s.Progress.HasActiveDownloads(),
		"counts":           counts,
	})
}

type settingsView struct {
	MaxConcurrent     int  `json:"max_concurrent"`
	NetworkRestricted bool `json:"network_restricted"`
}

type settingsRequest struct {
	MaxConcurrent     *int  `json:"max_concurrent"`
	NetworkRestricted *bool `json:"network_restricted"`
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg := s.Scheduler.Config()
		writeJSON(w, http.StatusOK, settingsView{
			MaxConcurrent:     cfg.MaxConcurrent,
			NetworkRestricted: cfg.NetworkRestricted,
		})
	case http.MethodPut:
		var req settingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		cfg := s.Scheduler.Config()
		if req.MaxConcurrent != nil {
			cfg.MaxConcurrent = *req.MaxConcurrent
		}
		if req.NetworkRestricted != nil {
			cfg.NetworkRestricted = *req.NetworkRestricted
		}
		if err := s.Scheduler.Reconfigure(cfg); err != nil {
			writeErr(w, statusFor(err), err)
			return
		}
		if s.Settings != nil {
			if err := s.Settings.Save(cfg); err != nil {
				s.Log.Error().Err(err).Msg("persist settings")
				writeErr(w, http.StatusInternalServerError, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, settingsView{
			MaxConcurrent:     cfg.MaxConcurrent,
			NetworkRestricted: cfg.NetworkRestricted,
		})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"version": s.Version})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, download.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, download.ErrDuplicateTask), errors.Is(err, download.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
