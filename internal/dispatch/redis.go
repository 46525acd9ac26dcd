package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	dueKey         = "roomly:dispatch:due"
	eventKeyPrefix = "roomly:dispatch:event:"
)

// popDue atomically removes and returns members of the due set whose score is
// at or below the given timestamp.
var popDue = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, 100)
for _, m in ipairs(due) do
	redis.call('ZREM', KEYS[1], m)
end
return due
`)

// RedisDispatcher keeps pending tasks in a Redis sorted set scored by their
// fire instant, with a per-event member set for cancellation. Tasks survive
// process restarts; any replica polling the set can deliver them.
type RedisDispatcher struct {
	client       *redis.Client
	handler      Handler
	logger       zerolog.Logger
	pollInterval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewRedisDispatcher creates a dispatcher backed by the given client.
func NewRedisDispatcher(client *redis.Client, handler Handler, pollInterval time.Duration, logger zerolog.Logger) *RedisDispatcher {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &RedisDispatcher{
		client:       client,
		handler:      handler,
		logger:       logger.With().Str("component", "dispatch").Logger(),
		pollInterval: pollInterval,
		stopCh:       make(chan struct{}),
	}
}

func eventKey(eventID int64) string {
	return fmt.Sprintf("%s%d", eventKeyPrefix, eventID)
}

// Schedule enqueues the task; it becomes visible to the poll loop once its
// fire instant passes.
func (d *RedisDispatcher) Schedule(ctx context.Context, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	pipe := d.client.TxPipeline()
	pipe.ZAdd(ctx, dueKey, redis.Z{Score: float64(task.FireAt.Unix()), Member: payload})
	pipe.SAdd(ctx, eventKey(task.EventID), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("schedule task: %w", err)
	}

	d.logger.Debug().
		Str("task_id", task.ID).
		Int64("event_id", task.EventID).
		Str("kind", string(task.Kind)).
		Time("fire_at", task.FireAt).
		Msg("task scheduled")
	return nil
}

// CancelEvent drops every pending task tied to the event.
func (d *RedisDispatcher) CancelEvent(ctx context.Context, eventID int64) error {
	key := eventKey(eventID)
	members, err := d.client.SMembers(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("cancel event %d: %w", eventID, err)
	}

	pipe := d.client.TxPipeline()
	for _, m := range members {
		pipe.ZRem(ctx, dueKey, m)
	}
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cancel event %d: %w", eventID, err)
	}
	return nil
}

// Start begins the poll loop.
func (d *RedisDispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.wg.Add(1)
	go d.loop(ctx)
	d.logger.Info().Dur("poll_interval", d.pollInterval).Msg("dispatcher started")
}

// Stop halts the poll loop and waits for in-flight deliveries.
func (d *RedisDispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stopCh)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info().Msg("dispatcher stopped")
}

func (d *RedisDispatcher) loop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.deliverDue(ctx)
		}
	}
}

func (d *RedisDispatcher) deliverDue(ctx context.Context) {
	res, err := popDue.Run(ctx, d.client, []string{dueKey}, time.Now().Unix()).StringSlice()
	if err != nil && err != redis.Nil {
		d.logger.Error().Err(err).Msg("pop due tasks")
		return
	}

	for _, payload := range res {
		var task Task
		if err := json.Unmarshal([]byte(payload), &task); err != nil {
			d.logger.Error().Err(err).Str("payload", payload).Msg("malformed task dropped")
			continue
		}
		d.client.SRem(ctx, eventKey(task.EventID), payload)

		d.wg.Add(1)
		go func(t Task) {
			defer d.wg.Done()
			d.handler(ctx, t)
		}(task)
	}
}
