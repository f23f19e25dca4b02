package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	s.serveCachedReport(w, r, userCachePrefix(sess.UserID)+"dashboard", func(ctx context.Context) (any, error) {
		return s.reports.Dashboard(ctx, sess.UserID)
	})
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	s.serveCachedReport(w, r, userCachePrefix(sess.UserID)+"entries", func(ctx context.Context) (any, error) {
		return s.reports.Entries(ctx, sess.UserID)
	})
}

// serveCachedReport serves an already-rendered payload when fresh, else
// builds it, caches the encoding, and sends it.
func (s *Server) serveCachedReport(w http.ResponseWriter, r *http.Request, key string, build func(context.Context) (any, error)) {
	if body, found := s.reportCache.Get(key); found {
		slog.DebugContext(r.Context(), "Report cache hit", "key", key)
		writeRawJSON(w, http.StatusOK, body)
		return
	}

	payload, err := build(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Report build error", "error", err, "key", key)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(r.Context(), "Report encode error", "error", err, "key", key)
		writeError(w, http.StatusInternalServerError, "failed to encode report")
		return
	}

	s.reportCache.Set(key, body)
	writeRawJSON(w, http.StatusOK, body)
}
