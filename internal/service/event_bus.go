package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coursehub/course-online-server/internal/config"
	"github.com/coursehub/course-online-server/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CourseEventBus publishes course changes on Redis PubSub and lets stream
// handlers subscribe per course. Every server replica sees every event.
type CourseEventBus struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewCourseEventBus creates a new CourseEventBus.
func NewCourseEventBus(rdb *redis.Client, log zerolog.Logger) *CourseEventBus {
	return &CourseEventBus{
		rdb: rdb,
		log: log.With().Str("component", "course_events").Logger(),
	}
}

// Publish sends evt to the course channel.
func (b *CourseEventBus) Publish(ctx context.Context, evt model.CourseEvent) error {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	channel := config.CacheKey.CourseEventsChannel(evt.CourseID)
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe returns the events of courseID until ctx is done. The channel is
// closed when the subscription ends.
func (b *CourseEventBus) Subscribe(ctx context.Context, courseID int) (<-chan model.CourseEvent, error) {
	channel := config.CacheKey.CourseEventsChannel(courseID)
	sub := b.rdb.Subscribe(ctx, channel)
	// Wait for the subscription confirmation so no event published right
	// after this call returns is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	out := make(chan model.CourseEvent, 16)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var evt model.CourseEvent
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					b.log.Warn().Err(err).Str("channel", channel).Msg("Dropping malformed event")
					continue
				}
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
