package server

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"mercator-hq/keeper/pkg/event"
	"mercator-hq/keeper/pkg/journal"
)

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 1000
)

// Status is the body of GET /status.
type Status struct {
	State     string    `json:"state"`
	Version   uint64    `json:"config_version"`
	LoadedAt  time.Time `json:"loaded_at,omitzero"`
	LastError string    `json:"last_error,omitempty"`
	Uptime    string    `json:"uptime"`
}

func (s *Server[C]) handleStatus(w http.ResponseWriter, r *http.Request) {
	rt := s.ctl.Runtime()
	st := Status{
		State:  rt.State().String(),
		Uptime: time.Since(s.started).Round(time.Second).String(),
	}
	if snap := rt.Config(); snap != nil {
		st.Version = snap.Version()
		st.LoadedAt = snap.LoadedAt()
	}
	if err := rt.LastError(); err != nil {
		st.LastError = err.Error()
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server[C]) handleJournal(w http.ResponseWriter, r *http.Request) {
	limit := defaultJournalLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxJournalLimit)
	}

	entries, err := s.ctl.Runtime().Journal().Recent(r.Context(), limit)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to read journal", "error", err)
		writeError(w, http.StatusInternalServerError, "journal unavailable")
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server[C]) handleReload(w http.ResponseWriter, r *http.Request) {
	limiter := s.limiter.Load()
	if !limiter.Allow() {
		retry := 1.0
		if l := float64(limiter.Limit()); l > 0 {
			retry = math.Ceil(1 / l)
		}
		w.Header().Set("Retry-After", strconv.Itoa(int(retry)))
		writeError(w, http.StatusTooManyRequests, "reload rate limit exceeded")
		return
	}

	s.ctl.Post(event.Reload().From("admin:" + requestIDFrom(r.Context())))
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":     "reload queued",
		"request_id": requestIDFrom(r.Context()),
	})
}
