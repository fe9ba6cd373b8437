// Package events publishes best-effort domain events after mutations commit.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"socialgraph/internal/config"
	"socialgraph/internal/middleware"
	"socialgraph/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Event types.
const (
	PostCreated    = "post.created"
	PostDeleted    = "post.deleted"
	PostLiked      = "post.liked"
	CommentCreated = "comment.created"
	UserFollowed   = "user.followed"
	UserUnfollowed = "user.unfollowed"
)

// Event is the message published for a committed mutation.
type Event struct {
	Type       string    `json:"type"`
	ActorID    uint      `json:"actor_id"`
	SubjectID  uint      `json:"subject_id"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent stamps the event with the current time.
func NewEvent(eventType string, actorID, subjectID uint, payload any) Event {
	return Event{
		Type:       eventType,
		ActorID:    actorID,
		SubjectID:  subjectID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events to a backend.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Backend() string
	Close() error
}

// Emit publishes evt and swallows failures after logging and counting them.
// A nil publisher is a no-op.
func Emit(ctx context.Context, p Publisher, evt Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, evt); err != nil {
		observability.EventPublishFailures.WithLabelValues(p.Backend(), evt.Type).Inc()
		middleware.Logger.WarnContext(ctx, "event publish failed",
			slog.String("event_type", evt.Type),
			slog.String("backend", p.Backend()),
			slog.String("error", err.Error()),
		)
	}
}

// New builds the publisher selected by EVENTS_BACKEND. The redis backend
// falls back to no-op when rdb is nil.
func New(cfg *config.Config, rdb *redis.Client) (Publisher, error) {
	switch cfg.EventsBackend {
	case "redis":
		if rdb == nil {
			middleware.Logger.Warn("Redis unavailable, domain events disabled")
			return NopPublisher{}, nil
		}
		return NewRedisPublisher(rdb), nil
	case "kafka":
		return NewKafkaPublisher(cfg.KafkaBrokerList(), cfg.KafkaTopic), nil
	case "", "none":
		return NopPublisher{}, nil
	default:
		return nil, fmt.Errorf("unsupported events backend %q", cfg.EventsBackend)
	}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Backend() string                     { return "none" }
func (NopPublisher) Close() error                        { return nil }
