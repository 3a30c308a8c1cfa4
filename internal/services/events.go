package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"taskpulse-backend/internal/models"
)

const (
	EventTimerStarted = "timer.started"
	EventTimerStopped = "timer.stopped"
)

// EventPublisher pushes timer lifecycle events toward connected dashboards.
type EventPublisher interface {
	PublishTimerEvent(ctx context.Context, userID uuid.UUID, event string, entry *models.TimeEntry)
}

// RedisEventPublisher publishes to the per-user channel the websocket hub
// subscribes to. Delivery is best effort: a failed publish is logged and the
// request proceeds.
type RedisEventPublisher struct {
	redis *redis.Client
}

func NewRedisEventPublisher(client *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{redis: client}
}

func UserChannel(userID uuid.UUID) string {
	return "user_updates:" + userID.String()
}

func (p *RedisEventPublisher) PublishTimerEvent(ctx context.Context, userID uuid.UUID, event string, entry *models.TimeEntry) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":  event,
		"entry": entry,
	})
	if err != nil {
		return
	}

	if err := p.redis.Publish(ctx, UserChannel(userID), payload).Err(); err != nil {
		log.Printf("failed to publish %s for user %s: %v", event, userID, err)
	}
}
