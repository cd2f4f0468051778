package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/olympiad-progress-api/internal/middleware"
)

// Progress event types.
const (
	EventBadgeAwarded    = "badge.awarded"
	EventRewardRedeemed  = "reward.redeemed"
	EventRewardFulfilled = "reward.fulfilled"
)

// ProgressEvent is the message broadcast when a student's standing changes.
type ProgressEvent struct {
	Type       string                 `json:"type"`
	StudentID  uint                   `json:"student_id"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// ProgressEventPublisher fans progress events out to other processes.
type ProgressEventPublisher interface {
	Publish(ctx context.Context, event ProgressEvent)
}

type natsProgressPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewProgressEventPublisher publishes events to NATS. A nil connection yields
// a publisher that only logs at debug level.
func NewProgressEventPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) ProgressEventPublisher {
	if subject == "" {
		subject = "progress.events"
	}
	return &natsProgressPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "progress_events").Logger(),
	}
}

func (p *natsProgressPublisher) Publish(ctx context.Context, event ProgressEvent) {
	if p.conn == nil {
		p.logger.Debug().Str("type", event.Type).Uint("student_id", event.StudentID).Msg("progress event dropped, nats disabled")
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to encode progress event")
		return
	}

	msg := nats.NewMsg(p.subject + "." + event.Type)
	msg.Data = payload
	if correlation := middleware.CorrelationIDFromContext(ctx); correlation != "" {
		msg.Header.Set(middleware.CorrelationHeader, correlation)
	}
	if err := p.conn.PublishMsg(msg); err != nil {
		p.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("failed to publish progress event")
	}
}

// noopPublisher is used when no publisher is wired.
type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, ProgressEvent) {}
