package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/tripora/backend/internal/config"
	"github.com/tripora/backend/pkg/logger"
)

const (
	TaskTypeNotification = "notification:send"
)

// NotificationTask is a queued customer notification.
type NotificationTask struct {
	Kind      string `json:"kind"` // ticket_cancelled, booking_confirmed
	BookingID string `json:"booking_id,omitempty"`
	TicketID  string `json:"ticket_id,omitempty"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// TaskQueue defines the interface for notification delivery.
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(task *NotificationTask) error
	// IsAsync returns true if the queue processes tasks asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// NewTaskQueue builds the queue from config: Redis-backed asynq when
// enabled, synchronous in-process delivery otherwise.
func NewTaskQueue(cfg *config.Config) TaskQueue {
	if cfg.Redis.Enabled {
		queue, err := NewAsyncQueue(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, falling back to sync notification queue")
			return NewSyncQueue()
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("async notification queue initialized")
		return queue
	}
	logger.Info().Msg("sync notification queue initialized (redis disabled)")
	return NewSyncQueue()
}

// AsyncQueue implements TaskQueue using asynq (Redis-based).
type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before committing to async mode
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

func (q *AsyncQueue) Enqueue(task *NotificationTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeNotification, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("id", info.ID).Str("queue", info.Queue).Msg("notification task enqueued")
	return nil
}

func (q *AsyncQueue) IsAsync() bool { return true }

func (q *AsyncQueue) Close() error { return q.client.Close() }

// SyncQueue implements TaskQueue with in-process delivery (no Redis).
type SyncQueue struct {
	mu        sync.RWMutex
	processor func(context.Context, *NotificationTask) error
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function that delivers notifications.
func (q *SyncQueue) SetProcessor(processor func(context.Context, *NotificationTask) error) {
	q.mu.Lock()
	q.processor = processor
	q.mu.Unlock()
}

// Enqueue delivers the task in a background goroutine so the caller is not
// blocked on notification transport.
func (q *SyncQueue) Enqueue(task *NotificationTask) error {
	q.mu.RLock()
	processor := q.processor
	q.mu.RUnlock()

	if processor == nil {
		logger.Warn().Str("kind", task.Kind).Msg("no notification processor set, task dropped")
		return nil
	}

	go func() {
		if err := processor(context.Background(), task); err != nil {
			logger.Error().Err(err).Str("kind", task.Kind).Msg("notification delivery failed")
		}
	}()
	return nil
}

func (q *SyncQueue) IsAsync() bool { return false }

func (q *SyncQueue) Close() error { return nil }
