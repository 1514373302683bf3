package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/tripora/backend/internal/config"
	"github.com/tripora/backend/pkg/logger"
)

// Worker processes notification tasks from the async queue.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor func(context.Context, *NotificationTask) error
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewWorker creates a worker bound to the Redis queue; returns nil when
// Redis is disabled.
func NewWorker(cfg *config.RedisConfig) *Worker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Warn().Err(err).Str("type", task.Type()).Msg("notification task failed")
			}),
		},
	)

	return &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

// SetProcessor sets the function that delivers notifications.
func (w *Worker) SetProcessor(processor func(context.Context, *NotificationTask) error) {
	w.processor = processor
}

// Start begins processing tasks.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeNotification, w.handleNotificationTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Info().Msg("notification worker starting")
		if err := w.server.Run(w.mux); err != nil {
			logger.Error().Err(err).Msg("notification worker stopped with error")
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Info().Msg("notification worker shut down")
}

func (w *Worker) handleNotificationTask(ctx context.Context, t *asynq.Task) error {
	var task NotificationTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		return err
	}

	if w.processor == nil {
		logger.Warn().Msg("no notification processor set")
		return nil
	}
	return w.processor(ctx, &task)
}
