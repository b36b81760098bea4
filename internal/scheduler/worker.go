package scheduler

import (
	"context"
	"fmt"

	"barberia_backend/internal/idp"
	"barberia_backend/platform/apperr"
	"barberia_backend/platform/config"
	"barberia_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	provider idp.Provider
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, provider idp.Provider, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		provider: provider,
		log:      log,
	}

	mux.HandleFunc(TaskOrphanIdentityDelete, w.handleOrphanIdentityDelete)

	return w, nil
}

// handleOrphanIdentityDelete retries the compensating provider-account
// delete. Transient failures return an error so asynq retries with backoff;
// a rejected or already-consumed token cannot succeed later, so the task is
// dropped with a loud log instead of retried forever.
func (w *Worker) handleOrphanIdentityDelete(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseOrphanIdentityDeletePayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	err = w.provider.DeleteAccount(ctx, payload.IDToken)
	if err == nil {
		w.log.Info("orphan identity deleted", "email", payload.Email)
		return nil
	}

	switch apperr.GetKind(err) {
	case apperr.KindUnauthorized, apperr.KindNotFound:
		w.log.Error("orphan identity unrecoverable, manual cleanup required",
			"email", payload.Email, "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	default:
		w.log.UpstreamError("idp", "orphan identity delete", err)
		return err
	}
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
