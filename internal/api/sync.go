// internal/api/sync.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	custom_errors "starsync/internal/errors"
	"starsync/internal/model"
)

type tooSoonResponse struct {
	Error      string    `json:"error"`
	WaitTime   int       `json:"waitTime"`
	LastSyncAt time.Time `json:"lastSyncAt"`
}

type progressEvent struct {
	Type string `json:"type"`
	model.SyncProgress
}

type completeEvent struct {
	Type string `json:"type"`
	model.SyncResult
}

type errorEvent struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Result  *model.SyncResult `json:"result,omitempty"`
}

// syncStatus reports whether the user may trigger a sync now.
// GET /sync
func (h *Handler) syncStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.syncer.Status(r.Context(), userID(r))
	if err != nil {
		h.logger.Error("Failed to get sync status", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// triggerSync runs a manual sync for the session user.
// POST /sync?stream=true|false
func (h *Handler) triggerSync(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.runTimeout)
	defer cancel()

	stream, _ := strconv.ParseBool(r.URL.Query().Get("stream"))
	if stream {
		h.streamSync(ctx, w, userID(r))
		return
	}

	result, err := h.syncer.TriggerManual(ctx, userID(r), nil)
	if err != nil {
		h.respondTriggerError(w, err)
		return
	}
	code := http.StatusOK
	if !result.Success {
		code = http.StatusInternalServerError
	}
	respondWithJSON(w, code, result)
}

// streamSync forwards progress as server-sent events. Headers are sent with the
// first event so a rejected trigger can still answer with a plain status code.
func (h *Handler) streamSync(ctx context.Context, w http.ResponseWriter, userID int64) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	started := false
	send := func(event any) {
		if !started {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		data, err := json.Marshal(event)
		if err != nil {
			h.logger.Error("Failed to encode sync event", "error", err)
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	result, err := h.syncer.TriggerManual(ctx, userID, func(p model.SyncProgress) {
		send(progressEvent{Type: "progress", SyncProgress: p})
	})
	switch {
	case err != nil && !started:
		h.respondTriggerError(w, err)
	case err != nil:
		send(errorEvent{Type: "error", Message: err.Error()})
	case !result.Success:
		send(errorEvent{Type: "error", Message: strings.Join(result.Errors, "; "), Result: &result})
	default:
		send(completeEvent{Type: "complete", SyncResult: result})
	}
}

func (h *Handler) respondTriggerError(w http.ResponseWriter, err error) {
	var tooSoon *custom_errors.TooSoonError
	if errors.As(err, &tooSoon) {
		respondWithJSON(w, http.StatusTooManyRequests, tooSoonResponse{
			Error:      "Sync requested too soon",
			WaitTime:   tooSoon.WaitSeconds(),
			LastSyncAt: tooSoon.LastSyncAt,
		})
		return
	}
	h.logger.Error("Failed to trigger sync", "error", err)
	respondWithError(w, http.StatusInternalServerError, "Internal server error")
}

// cronSync runs the scheduled sweep.
// GET|POST /cron/sync
func (h *Handler) cronSync(w http.ResponseWriter, r *http.Request) {
	if !h.cronAuthorized(r) {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	summary, err := h.syncer.RunSweep(r.Context())
	if err != nil {
		h.logger.Error("Scheduled sweep failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// cronAuthorized accepts the secret bare or as a bearer token.
func (h *Handler) cronAuthorized(r *http.Request) bool {
	if h.cronSecret == "" {
		return false
	}
	got := strings.TrimSpace(r.Header.Get("Authorization"))
	if scheme, token, ok := strings.Cut(got, " "); ok && strings.EqualFold(scheme, "Bearer") {
		got = strings.TrimSpace(token)
	}
	return got == h.cronSecret
}
