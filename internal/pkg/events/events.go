// Package events publishes committed ledger facts to Redis so that
// real-time consumers (push, websockets, analytics) can react to them.
// Publishing happens after commit and never fails the originating operation.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Channel is the Redis pub/sub channel carrying ledger events.
const Channel = "luvy:events"

// Event types
const (
	WalletCredited                 = "wallet.credited"
	WalletDebited                  = "wallet.debited"
	ReceiptApproved                = "receipt.approved"
	ReceiptRejected                = "receipt.rejected"
	ProgressionLevelUp             = "progression.level_up"
	ProgressionAchievementUnlocked = "progression.achievement_unlocked"
	ProgressionChallengeCompleted  = "progression.challenge_completed"
	ReferralCompleted              = "referral.completed"
)

// Event is one committed fact.
type Event struct {
	Type       string         `json:"type"`
	UserID     uuid.UUID      `json:"user_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// New builds an event stamped with the current time.
func New(eventType string, userID uuid.UUID, payload map[string]any) Event {
	return Event{
		Type:       eventType,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher delivers committed events.
type Publisher interface {
	Publish(ctx context.Context, events ...Event)
}

// NewPublisher returns a Redis publisher, or a no-op one when client is nil.
func NewPublisher(client *redis.Client) Publisher {
	if client == nil {
		return NopPublisher{}
	}
	return &RedisPublisher{client: client, channel: Channel}
}

// RedisPublisher publishes JSON-encoded events on a pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// Publish sends each event. Failures are logged and swallowed.
func (p *RedisPublisher) Publish(ctx context.Context, events ...Event) {
	for _, e := range events {
		raw, err := json.Marshal(e)
		if err != nil {
			log.Error().Err(err).Str("type", e.Type).Msg("Failed to encode event")
			continue
		}
		if err := p.client.Publish(ctx, p.channel, raw).Err(); err != nil {
			log.Warn().Err(err).Str("type", e.Type).Str("user_id", e.UserID.String()).Msg("Failed to publish event")
		}
	}
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, ...Event) {}

// Recorder collects events in memory. Used by tests.
type Recorder struct {
	Events []Event
}

// Publish appends events.
func (r *Recorder) Publish(_ context.Context, events ...Event) {
	r.Events = append(r.Events, events...)
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []string {
	types := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		types = append(types, e.Type)
	}
	return types
}
