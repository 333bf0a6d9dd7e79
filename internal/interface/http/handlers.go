package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/edudash-hub/edudash-engine/internal/application/command"
	"github.com/edudash-hub/edudash-engine/internal/application/query"
	"github.com/edudash-hub/edudash-engine/internal/domain/classroom"
	"github.com/edudash-hub/edudash-engine/internal/domain/lesson"
	"github.com/edudash-hub/edudash-engine/internal/domain/shared"
	"github.com/edudash-hub/edudash-engine/internal/domain/user"
	"github.com/edudash-hub/edudash-engine/internal/infrastructure/external/aigateway"
	"github.com/edudash-hub/edudash-engine/internal/infrastructure/persistence/docstore"
	"github.com/edudash-hub/edudash-engine/pkg/logger"
)

// maxBodyBytes bounds request bodies; restore payloads carry a whole
// document, everything else is small.
const maxBodyBytes = 8 << 20

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case shared.IsValidation(err), errors.Is(err, shared.ErrInvalidDocument):
		status = http.StatusBadRequest
	case errors.Is(err, shared.ErrUnknownCollection), shared.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, shared.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, shared.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, shared.ErrProviderNotConfigured):
		status = http.StatusConflict
	case errors.Is(err, shared.ErrProviderRequest):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", logger.Err(err))
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ═══════════════════════════════════════════════════════════════════════════
// Identity
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind  string `json:"kind"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	rec, err := s.deps.Register.Handle(r.Context(), command.RegisterUserCommand{
		Kind:  user.Kind(req.Kind),
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.deps.Store.User(mux.Vars(r)["id"])
	if !ok {
		s.writeError(w, shared.ErrUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Kind  string `json:"kind"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	rec, err := s.deps.Resolve.Handle(r.Context(), query.ResolveUserQuery{
		Email: req.Email,
		Kind:  user.Kind(req.Kind),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	marker := s.deps.Session.Begin(rec, s.deps.Now())
	writeJSON(w, http.StatusOK, map[string]any{"session": marker, "user": rec})
}

func (s *Server) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	marker, ok := s.deps.Session.Current()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no active session"})
		return
	}
	writeJSON(w, http.StatusOK, marker)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.deps.Session.End()
	w.WriteHeader(http.StatusNoContent)
}

// ═══════════════════════════════════════════════════════════════════════════
// Content
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) handleCreateLesson(w http.ResponseWriter, r *http.Request) {
	var l lesson.Lesson
	if err := decodeJSON(r, &l); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if l.Status == "" {
		l.Status = lesson.StatusActive
	}
	if err := l.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	created, err := s.deps.Store.CreateLesson(l)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Track the lesson on its author's teacher profile.
	if created.CreatedByTeacherID != "" {
		_, _, err = s.deps.Store.UpdateUser(created.CreatedByTeacherID, func(u *user.Record) {
			if u.IsTeacher() {
				u.LessonsCreated = append(u.LessonsCreated, created.ID)
			}
		})
		if err != nil {
			s.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Store.Lessons())
}

func (s *Server) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var c classroom.Class
	if err := decodeJSON(r, &c); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if err := c.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	created, err := s.deps.Store.CreateClass(c)
	if err != nil {
		s.writeError(w, err)
		return
	}

	_, _, err = s.deps.Store.UpdateUser(created.TeacherID, func(u *user.Record) {
		if u.IsTeacher() {
			u.ClassesOwned = append(u.ClassesOwned, created.ID)
		}
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleEnrollStudent(w http.ResponseWriter, r *http.Request) {
	classID := mux.Vars(r)["id"]
	var req struct {
		StudentID string `json:"studentId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	student, ok := s.deps.Store.User(req.StudentID)
	if !ok || !student.IsStudent() {
		s.writeError(w, shared.ErrStudentNotFound)
		return
	}

	updated, found, err := s.deps.Store.UpdateClass(classID, func(c *classroom.Class) {
		if !c.HasStudent(req.StudentID) {
			c.StudentIDs = append(c.StudentIDs, req.StudentID)
		}
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !found {
		s.writeError(w, shared.NewDomainError("classroom", "Enroll", shared.ErrNotFound, "class not found"))
		return
	}

	_, _, err = s.deps.Store.UpdateUser(req.StudentID, func(u *user.Record) {
		enrolled := false
		for _, id := range u.ClassesEnrolled {
			if id == classID {
				enrolled = true
				break
			}
		}
		if !enrolled {
			u.ClassesEnrolled = append(u.ClassesEnrolled, classID)
		}
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	var a classroom.Assignment
	if err := decodeJSON(r, &a); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if err := a.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	created, err := s.deps.Store.CreateAssignment(a)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ═══════════════════════════════════════════════════════════════════════════
// Generic collections
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) handleCollectionSnapshot(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Store.Snapshot(mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCollectionQuery(w http.ResponseWriter, r *http.Request) {
	var filters map[string]any
	if err := decodeJSON(r, &filters); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	items, err := s.deps.Store.Query(mux.Vars(r)["name"], filters)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) handleRecordCompletion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentID        string  `json:"studentId"`
		LessonID         string  `json:"lessonId"`
		ScorePercent     float64 `json:"scorePercent"`
		TimeSpentMinutes int     `json:"timeSpentMinutes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	// The engine trusts its input; the score is clamped here at the boundary.
	if req.ScorePercent < 0 {
		req.ScorePercent = 0
	}
	if req.ScorePercent > 100 {
		req.ScorePercent = 100
	}
	if req.TimeSpentMinutes < 0 {
		req.TimeSpentMinutes = 0
	}

	res, err := s.deps.RecordCompletion.Handle(r.Context(), command.RecordCompletionCommand{
		StudentID:        req.StudentID,
		LessonID:         req.LessonID,
		ScorePercent:     req.ScorePercent,
		TimeSpentMinutes: req.TimeSpentMinutes,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleStudentOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := s.deps.Overview.Handle(r.Context(), query.StudentOverviewQuery{
		StudentID: mux.Vars(r)["id"],
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

// ═══════════════════════════════════════════════════════════════════════════
// Settings and backup
// ═══════════════════════════════════════════════════════════════════════════

type providerView struct {
	Model        string `json:"model"`
	Enabled      bool   `json:"enabled"`
	APIKeyStored bool   `json:"apiKeyStored"`
}

type settingsView struct {
	Providers       map[string]providerView `json:"aiProviders"`
	DefaultProvider string                  `json:"defaultProvider"`
	Theme           string                  `json:"theme"`
	Language        string                  `json:"language"`
}

func viewOf(settings docstore.Settings) settingsView {
	out := settingsView{
		Providers:       make(map[string]providerView, len(settings.Providers)),
		DefaultProvider: settings.DefaultProvider,
		Theme:           settings.Theme,
		Language:        settings.Language,
	}
	for name, ps := range settings.Providers {
		out.Providers[name] = providerView{
			Model:        ps.Model,
			Enabled:      ps.Enabled,
			APIKeyStored: ps.APIKey != "",
		}
	}
	return out
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewOf(s.deps.Store.Settings()))
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Providers map[string]struct {
			APIKey  *string `json:"apiKey"`
			Model   *string `json:"model"`
			Enabled *bool   `json:"enabled"`
		} `json:"aiProviders"`
		DefaultProvider *string `json:"defaultProvider"`
		Theme           *string `json:"theme"`
		Language        *string `json:"language"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	if req.DefaultProvider != nil {
		if _, ok := docstore.DefaultProviders()[*req.DefaultProvider]; !ok {
			s.writeError(w, shared.NewDomainError("settings", "Update", shared.ErrInvalidFormat,
				fmt.Sprintf("unknown provider %q", *req.DefaultProvider)))
			return
		}
	}

	// Keys are sealed before they reach the persisted document. An absent
	// apiKey field keeps the stored key; an empty string clears it.
	sealed := make(map[string]string)
	if s.deps.Secrets != nil {
		for name, p := range req.Providers {
			if p.APIKey != nil && *p.APIKey != "" {
				v, err := s.deps.Secrets.Seal(*p.APIKey)
				if err != nil {
					s.writeError(w, err)
					return
				}
				sealed[name] = v
			}
		}
	}

	err := s.deps.Store.UpdateSettings(func(settings *docstore.Settings) {
		if settings.Providers == nil {
			settings.Providers = docstore.DefaultProviders()
		}
		for name, p := range req.Providers {
			ps := settings.Providers[name]
			if p.Model != nil {
				ps.Model = *p.Model
			}
			if p.Enabled != nil {
				ps.Enabled = *p.Enabled
			}
			if p.APIKey != nil {
				if *p.APIKey == "" {
					ps.APIKey = ""
				} else if v, ok := sealed[name]; ok {
					ps.APIKey = v
				} else {
					ps.APIKey = *p.APIKey
				}
			}
			settings.Providers[name] = ps
		}
		if req.DefaultProvider != nil {
			settings.DefaultProvider = *req.DefaultProvider
		}
		if req.Theme != nil {
			settings.Theme = *req.Theme
		}
		if req.Language != nil {
			settings.Language = *req.Language
		}
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(s.deps.Store.Settings()))
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	data, filename, err := s.deps.Store.ExportJSON()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "read body: " + err.Error()})
		return
	}

	if err := s.deps.Store.Import(data); err != nil {
		s.writeError(w, err)
		return
	}

	// Any in-memory view of the old document is stale now.
	s.deps.Session.End()
	if s.deps.Bus != nil {
		s.deps.Bus.Publish(shared.DocumentRestoredEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventDocumentRestored, docstore.StorageKey, s.deps.Now()),
		})
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

// ═══════════════════════════════════════════════════════════════════════════
// AI generation
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider    string  `json:"provider"`
		Prompt      string  `json:"prompt"`
		MaxTokens   int     `json:"maxTokens"`
		Temperature float64 `json:"temperature"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if req.Prompt == "" {
		s.writeError(w, shared.NewDomainError("gateway", "Generate", shared.ErrEmptyValue, "prompt is required"))
		return
	}

	out, err := s.deps.Gateway.Generate(r.Context(), req.Provider, req.Prompt, aigateway.Options{
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": out})
}
