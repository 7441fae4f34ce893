package interactions

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/utfunderscore/serverless-discord/internal/platform/middleware"
)

const defaultMaxBodyBytes = 1 << 20

// Outcome labels reported to MetricsRecorder.
const (
	OutcomeOK           = "ok"
	OutcomeUnauthorized = "unauthorized"
	OutcomeBadRequest   = "bad_request"
	OutcomeError        = "error"
)

// MetricsRecorder receives per-request observations.
type MetricsRecorder interface {
	ObserveOutcome(outcome string, elapsed time.Duration)
	ObserveRejection(reason string)
	ObserveInteraction(kind string)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) ObserveOutcome(string, time.Duration) {}
func (NopMetrics) ObserveRejection(string)              {}
func (NopMetrics) ObserveInteraction(string)            {}

// HandlerConfig holds optional handler settings.
type HandlerConfig struct {
	MaxBodyBytes int64
	Metrics      MetricsRecorder
}

// Handler serves the Discord interactions endpoint.
type Handler struct {
	verifier     Verifier
	policy       *Policy
	maxBodyBytes int64
	metrics      MetricsRecorder
}

// ErrNilVerifier is returned by NewHandler when no verifier is given.
var ErrNilVerifier = errors.New("interactions handler requires a verifier")

// NewHandler creates an interactions handler. policy may be nil.
func NewHandler(verifier Verifier, policy *Policy, cfg HandlerConfig) (*Handler, error) {
	if verifier == nil {
		return nil, ErrNilVerifier
	}
	if policy == nil {
		policy = NewPolicy(nil)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NopMetrics{}
	}
	return &Handler{
		verifier:     verifier,
		policy:       policy,
		maxBodyBytes: cfg.MaxBodyBytes,
		metrics:      cfg.Metrics,
	}, nil
}

var invalidRequest = map[string]string{"error": "Invalid request"}

// HandleInteraction handles POST /interactions. Every authentication failure
// is answered with the same 401 and every decode failure with the same 400;
// the specific reason only goes to logs and metrics.
func (h *Handler) HandleInteraction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reject(w, start, requestID, http.StatusBadRequest, OutcomeBadRequest, "body_too_large")
			return
		}
		slog.Error("reading interaction body failed", "request_id", requestID, "error", err)
		h.metrics.ObserveOutcome(OutcomeError, time.Since(start))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read body"})
		return
	}

	if err := h.verifier.Verify(r.Header, body); err != nil {
		h.reject(w, start, requestID, http.StatusUnauthorized, OutcomeUnauthorized, FailureReason(err))
		return
	}

	env, err := Decode(body)
	if err != nil {
		h.reject(w, start, requestID, http.StatusBadRequest, OutcomeBadRequest, FailureReason(err))
		slog.Debug("interaction decode detail", "request_id", requestID, "error", err)
		return
	}
	kind := TypeName(env.Type())
	h.metrics.ObserveInteraction(kind)

	reply, err := h.policy.Respond(r.Context(), env)
	if err != nil {
		slog.Error("interaction responder failed",
			"request_id", requestID,
			"interaction_id", env.Common().ID.String(),
			"type", kind,
			"error", err,
		)
		h.metrics.ObserveOutcome(OutcomeError, time.Since(start))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}

	slog.Info("interaction handled",
		"request_id", requestID,
		"interaction_id", env.Common().ID.String(),
		"type", kind,
		"reply_type", int(reply.Type),
	)
	h.metrics.ObserveOutcome(OutcomeOK, time.Since(start))
	writeJSON(w, http.StatusOK, reply)
}

func (h *Handler) reject(w http.ResponseWriter, start time.Time, requestID string, status int, outcome, reason string) {
	slog.Warn("interaction rejected", "request_id", requestID, "status", status, "reason", reason)
	h.metrics.ObserveRejection(reason)
	h.metrics.ObserveOutcome(outcome, time.Since(start))
	writeJSON(w, status, invalidRequest)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
