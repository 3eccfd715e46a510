// Package realtime publishes per-user events on redis pub/sub. A socket
// gateway subscribes to the user channels and delivers them to clients.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	EventNewMatch   = "newMatch"
	EventNewMessage = "newMessage"
)

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type Publisher struct {
	redis  redis.Cmdable
	prefix string
	logger logger.Logger
}

func NewPublisher(rdb redis.Cmdable, prefix string, log logger.Logger) *Publisher {
	return &Publisher{redis: rdb, prefix: prefix, logger: log}
}

// Channel is the redis channel a user's socket session listens on.
func (p *Publisher) Channel(userID string) string {
	return fmt.Sprintf("%s:user:%s", p.prefix, userID)
}

// Publish sends event to userID and returns the number of live subscribers.
func (p *Publisher) Publish(ctx context.Context, userID string, event Event) (int64, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("encode %s event: %w", event.Type, err)
	}

	receivers, err := p.redis.Publish(ctx, p.Channel(userID), data).Result()
	if err != nil {
		return 0, fmt.Errorf("publish %s to %s: %w", event.Type, userID, err)
	}

	metrics.RealtimeEventsPublished.WithLabelValues(event.Type).Inc()
	p.logger.Debug("realtime event published", map[string]interface{}{
		"event":     event.Type,
		"userId":    userID,
		"receivers": receivers,
	})
	return receivers, nil
}
