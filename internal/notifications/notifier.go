// Package notifications provides the best-effort event trigger used for
// downstream notification flows. Delivery mechanics live outside this
// service; this package only publishes events into Redis channels with
// at-least-once, fire-and-forget semantics.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Event names published by the core engine.
const (
	EventLike           = "like"
	EventEntryPublished = "entry_published"
)

// Event is the payload carried by every trigger.
type Event struct {
	Context     string `json:"context"`
	RecipientID uint   `json:"recipient_id"`
	ActorID     uint   `json:"actor_id,omitempty"`
	SubjectID   string `json:"subject_id,omitempty"`
}

// Notifier publishes notification events into Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Trigger publishes an event to the recipient's channel. Errors are returned
// for logging but callers must never fail their own operation on them.
func (n *Notifier) Trigger(ctx context.Context, event Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, ExplorerChannel(event.RecipientID), string(payload)).Err()
}

// PublishBroadcast sends a payload to all connected listeners.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, "notifications:broadcast", payload).Err()
}

// StartPatternSubscriber subscribes to `notifications:explorer:*` and the
// broadcast channel and calls onMessage for each incoming message.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "notifications:explorer:*", "notifications:broadcast")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in PatternSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// ExplorerChannel derives the Redis channel name for an explorer.
func ExplorerChannel(explorerID uint) string {
	return "notifications:explorer:" + strconv.FormatUint(uint64(explorerID), 10)
}
