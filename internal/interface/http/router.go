package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.recoverMiddleware, s.loggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Identity
	api.HandleFunc("/users", s.handleRegisterUser).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", s.handleGetUser).Methods(http.MethodGet)
	api.HandleFunc("/session", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/session", s.handleCurrentSession).Methods(http.MethodGet)
	api.HandleFunc("/session", s.handleLogout).Methods(http.MethodDelete)

	// Content
	api.HandleFunc("/lessons", s.handleCreateLesson).Methods(http.MethodPost)
	api.HandleFunc("/lessons", s.handleListLessons).Methods(http.MethodGet)
	api.HandleFunc("/classes", s.handleCreateClass).Methods(http.MethodPost)
	api.HandleFunc("/classes/{id}/students", s.handleEnrollStudent).Methods(http.MethodPost)
	api.HandleFunc("/assignments", s.handleCreateAssignment).Methods(http.MethodPost)

	// Generic read-only collection access
	api.HandleFunc("/collections/{name}", s.handleCollectionSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/collections/{name}/query", s.handleCollectionQuery).Methods(http.MethodPost)

	// Progress
	api.HandleFunc("/completions", s.handleRecordCompletion).Methods(http.MethodPost)
	api.HandleFunc("/students/{id}/overview", s.handleStudentOverview).Methods(http.MethodGet)

	// Settings and backup
	api.HandleFunc("/settings", s.handleGetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", s.handleUpdateSettings).Methods(http.MethodPut)
	api.HandleFunc("/backup", s.handleBackup).Methods(http.MethodGet)
	api.HandleFunc("/restore", s.handleRestore).Methods(http.MethodPost)

	// AI generation
	api.HandleFunc("/ai/generate", s.handleGenerate).Methods(http.MethodPost)

	return r
}
