package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Redis is an Adapter backed by a pair of redis/go-redis pub/sub channels —
// used when the API process handling the streaming connection is not the
// same process running the Executor (spec.md §4.6's note that the channel
// may relay across a process boundary).
type Redis struct {
	client *redis.Client
	sub    *redis.PubSub

	eventsKey    string
	decisionsKey string

	mu       sync.Mutex
	closed   bool
	awaiting bool
}

// NewRedis builds a Redis adapter for one plan run, keyed by runID so
// concurrent runs never cross streams.
func NewRedis(client *redis.Client, runID string) *Redis {
	decisionsKey := fmt.Sprintf("docorch:plan:%s:decisions", runID)
	return &Redis{
		client:       client,
		sub:          client.Subscribe(context.Background(), decisionsKey),
		eventsKey:    fmt.Sprintf("docorch:plan:%s:events", runID),
		decisionsKey: decisionsKey,
	}
}

func (r *Redis) Send(ctx context.Context, ev Event) error {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.eventsKey, payload).Err()
}

func (r *Redis) Await(ctx context.Context) (Decision, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return Decision{}, ErrClosed
	}
	if r.awaiting {
		r.mu.Unlock()
		return Decision{}, ErrDecisionInFlight
	}
	r.awaiting = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.awaiting = false
		r.mu.Unlock()
	}()

	select {
	case msg, ok := <-r.sub.Channel():
		if !ok {
			return Decision{}, ErrClosed
		}
		var d Decision
		if err := json.Unmarshal([]byte(msg.Payload), &d); err != nil {
			return Decision{}, err
		}
		return d, nil
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	}
}

// PublishDecision is the producer-side counterpart to Await, called by
// whatever process is terminating the user's websocket connection and
// relaying their choice onto the decisions channel.
func (r *Redis) PublishDecision(ctx context.Context, d Decision) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.decisionsKey, payload).Err()
}

// Subscribe returns a channel of raw Events for a consumer on another
// process to range over, mirroring InProcess.Events for the redis case.
func (r *Redis) Subscribe(ctx context.Context) (<-chan Event, error) {
	sub := r.client.Subscribe(ctx, r.eventsKey)
	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			out <- ev
		}
	}()
	return out, nil
}

func (r *Redis) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.sub.Close()
}
