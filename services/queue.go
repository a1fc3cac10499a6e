package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"studioworkers/logger"
)

// QueueClient pops at most one job payload per call. A nil payload with a nil
// error means the queue was empty.
type QueueClient interface {
	PopJob(ctx context.Context, queueName string) (map[string]interface{}, error)
}

// MemoryQueue is a FIFO queue used in tests and local runs. It holds a single
// list and ignores queue names.
type MemoryQueue struct {
	mu   sync.Mutex
	jobs []map[string]interface{}
}

func NewMemoryQueue(jobs ...map[string]interface{}) *MemoryQueue {
	return &MemoryQueue{jobs: append([]map[string]interface{}(nil), jobs...)}
}

func (q *MemoryQueue) PopJob(_ context.Context, _ string) (map[string]interface{}, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return nil, nil
	}
	job := q.jobs[0]
	q.jobs[0] = nil
	q.jobs = q.jobs[1:]
	return job, nil
}

func (q *MemoryQueue) PushJob(_ context.Context, _ string, payload map[string]interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.jobs = append(q.jobs, payload)
	return nil
}

func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// RedisQueue pops JSON job payloads from the head of a Redis list.
type RedisQueue struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisQueue(client *redis.Client, log *slog.Logger) *RedisQueue {
	return &RedisQueue{client: client, logger: logger.OrDefault(log)}
}

// DialRedis connects using a redis:// URL and checks the connection.
func DialRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// PopJob does a single LPOP. Entries that are not a JSON object are dropped
// and reported as an empty pop.
func (q *RedisQueue) PopJob(ctx context.Context, queueName string) (map[string]interface{}, error) {
	raw, err := q.client.LPop(ctx, queueName).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis lpop %s: %w", queueName, err)
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		q.logger.Warn("Dropping malformed job payload",
			slog.String("queue", queueName),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	payload, ok := decoded.(map[string]interface{})
	if !ok {
		q.logger.Warn("Dropping non-object job payload",
			slog.String("queue", queueName),
			slog.String("type", fmt.Sprintf("%T", decoded)),
		)
		return nil, nil
	}
	return payload, nil
}

// PushJob appends payload to the tail so PopJob sees jobs in FIFO order.
func (q *RedisQueue) PushJob(ctx context.Context, queueName string, payload map[string]interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	if err := q.client.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("redis rpush %s: %w", queueName, err)
	}
	return nil
}
