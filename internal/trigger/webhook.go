package trigger

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/specialistvlad/shipgrid/internal/ctxlog"
	"github.com/specialistvlad/shipgrid/internal/model"
)

// RunFunc executes one orchestration run for a validated release. The
// returned error reflects the run's terminal state, not individual target
// failures.
type RunFunc func(r *http.Request, release ValidatedRelease) error

// Webhook accepts POST /dispatch requests carrying a DispatchEvent and
// runs one orchestration per event, synchronously.
type Webhook struct {
	listener *Listener
	run      RunFunc
}

// NewWebhook builds the webhook handler around the given run function.
func NewWebhook(listener *Listener, run RunFunc) *Webhook {
	return &Webhook{listener: listener, run: run}
}

// ServeHTTP implements http.Handler.
func (h *Webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(r.Context())

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var event model.DispatchEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "malformed dispatch payload", http.StatusBadRequest)
		return
	}

	release, err := h.listener.Receive(event)
	if err != nil {
		logger.Warn("Rejected dispatch event.", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.Info("Accepted dispatch event.", "version", release.Version)
	if err := h.run(r, release); err != nil {
		if errors.Is(err, ErrInvalidTrigger) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "tag": release.Tag()})
}
