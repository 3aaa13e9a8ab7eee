package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
	"marcel.works/pointing/app/model"
)

const queryTimeout = 3 * time.Second

// SessionQuerier answers read-only questions about live sessions.
type SessionQuerier interface {
	Lookup(ctx context.Context, code string) (model.SessionSummary, bool, error)
	SessionCount(ctx context.Context) (int, error)
}

// HistoryReader reads archived voted tasks.
type HistoryReader interface {
	History(ctx context.Context, code string) ([]model.VotedTask, error)
}

type API struct {
	sessions SessionQuerier
	history  HistoryReader
	logger   *zap.Logger
}

// NewRouter mounts the WebSocket endpoint and the HTTP API. history may be nil
// when no archive is configured.
func NewRouter(ws http.HandlerFunc, sessions SessionQuerier, history HistoryReader, logger *zap.Logger) http.Handler {
	api := &API{sessions: sessions, history: history, logger: logger}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Get("/ws", ws)
	router.Get("/healthz", api.health)
	router.Route("/api", func(r chi.Router) {
		r.Get("/characters", api.characters)
		r.Get("/sessions/{code}", api.session)
		r.Get("/sessions/{code}/history", api.sessionHistory)
	})
	return router
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	count, err := a.sessions.SessionCount(ctx)
	if err != nil {
		a.fail(w, r, http.StatusServiceUnavailable, "unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "sessions": count})
}

func (a *API) characters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Characters())
}

func (a *API) session(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	summary, ok, err := a.sessions.Lookup(ctx, chi.URLParam(r, "code"))
	if err != nil {
		a.fail(w, r, http.StatusServiceUnavailable, "unavailable", err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) sessionHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()
	code := chi.URLParam(r, "code")

	summary, ok, err := a.sessions.Lookup(ctx, code)
	if err != nil {
		a.fail(w, r, http.StatusServiceUnavailable, "unavailable", err)
		return
	}
	if ok {
		writeJSON(w, http.StatusOK, summary.VotedTasks)
		return
	}
	if a.history == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}

	tasks, err := a.history.History(ctx, code)
	if err != nil {
		a.fail(w, r, http.StatusBadGateway, "history unavailable", err)
		return
	}
	if len(tasks) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if !errors.Is(err, context.Canceled) {
		a.logger.Error(message,
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
