package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"triage-chatbot/internal/classify"
	"triage-chatbot/internal/core"
	"triage-chatbot/pkg"
)

// Both gateway flavors satisfy the controller contract.
var (
	_ core.Gateway = (*TriageClient)(nil)
	_ core.Gateway = (*Local)(nil)
)

// Local is an offline gateway backed by a classifier strategy. It stands in
// for the remote triage service in demos and when no backend is configured.
// The optional delay imitates network latency so the typing indicator is
// visible.
type Local struct {
	classifier classify.Classifier
	delay      time.Duration
	logger     *slog.Logger
}

// NewLocal wraps a classifier as a gateway. A nil logger falls back to
// slog.Default.
func NewLocal(classifier classify.Classifier, delay time.Duration, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{
		classifier: classifier,
		delay:      delay,
		logger:     logger.With("component", "gateway", "mode", "local"),
	}
}

// Send classifies the patient text locally after the simulated delay.
func (g *Local) Send(ctx context.Context, req pkg.ChatRequest) (*pkg.ChatResponse, error) {
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	resp, err := g.classifier.Classify(ctx, req.Message)
	if err != nil {
		return nil, err
	}
	resp.SessionID = req.SessionID
	g.logger.Debug("classified locally",
		"session_id", req.SessionID,
		"alert_level", resp.AlertLevel,
		"suggested_department", resp.SuggestedDepartment)
	return resp, nil
}

// Reset is a no-op: the local gateway keeps no server-side context.
func (g *Local) Reset(_ context.Context, sessionID string) error {
	g.logger.Debug("reset", "session_id", sessionID)
	return nil
}

// NewSessionID mints a fresh session id.
func (g *Local) NewSessionID() string {
	return uuid.NewString()
}
