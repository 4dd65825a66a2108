package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"blinklean/internal/database"
	"blinklean/internal/domain"
	"blinklean/internal/metrics"
	"blinklean/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	wakeupKey     = "reconcile:wakeup"
	deadLetterKey = "reconcile:deadletter"
	batchSize     = 20
)

// TaskStore persists reconcile tasks.
type TaskStore interface {
	EnqueueReconcile(ctx context.Context, task *models.ReconcileTask) error
	GetPendingReconcileTasks(ctx context.Context, limit int) ([]*models.ReconcileTask, error)
	UpdateReconcileTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// Reconciler repairs bookings whose payment settled while the booking update failed.
// Tasks live in sqlite; Redis or a local channel only wakes the loop early.
type Reconciler struct {
	tasks        TaskStore
	bookings     domain.BookingRepository
	payments     domain.PaymentRepository
	redis        *redis.Client
	retryPolicy  RetryPolicy
	wakeup       chan struct{}
	pollInterval time.Duration
	logger       *zerolog.Logger
	now          func() time.Time
}

func NewReconciler(
	tasks TaskStore,
	bookings domain.BookingRepository,
	payments domain.PaymentRepository,
	redisClient *redis.Client,
	retry RetryPolicy,
	pollInterval time.Duration,
	logger *zerolog.Logger,
) *Reconciler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Reconciler{
		tasks:        tasks,
		bookings:     bookings,
		payments:     payments,
		redis:        redisClient,
		retryPolicy:  retry.withDefaults(),
		wakeup:       make(chan struct{}, models.ReconcileQueueSize),
		pollInterval: pollInterval,
		logger:       logger,
		now:          time.Now,
	}
}

// EnqueueReconcile persists the task and wakes the loop.
func (w *Reconciler) EnqueueReconcile(ctx context.Context, task *models.ReconcileTask) error {
	if task.TaskType == "" {
		return errors.New("task type is required")
	}
	if task.BookingID == 0 {
		return errors.New("booking id is required")
	}
	if err := w.tasks.EnqueueReconcile(ctx, task); err != nil {
		return fmt.Errorf("persist reconcile task: %w", err)
	}
	metrics.IncReconcile("enqueued")

	if w.redis != nil {
		err := w.redis.LPush(ctx, wakeupKey, strconv.FormatInt(task.ID, 10)).Err()
		if err == nil {
			return nil
		}
		w.logger.Warn().Err(err).Int64("task_id", task.ID).Msg("redis wakeup failed, using local queue")
	}

	select {
	case w.wakeup <- struct{}{}:
	default:
	}
	return nil
}

// Start runs until ctx is done.
func (w *Reconciler) Start(ctx context.Context) {
	w.logger.Info().Dur("poll_interval", w.pollInterval).Msg("reconciler started")
	defer w.logger.Info().Msg("reconciler stopped")

	for {
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error().Err(err).Msg("reconcile batch failed")
		}
		if !w.wait(ctx) {
			return
		}
	}
}

// wait blocks until a wakeup or the poll interval elapses. It returns false once ctx is done.
func (w *Reconciler) wait(ctx context.Context) bool {
	if w.redis != nil {
		_, err := w.redis.BRPop(ctx, w.pollInterval, wakeupKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.logger.Warn().Err(err).Msg("redis BRPOP failed")
			return w.sleep(ctx)
		}
		return ctx.Err() == nil
	}
	return w.sleep(ctx)
}

func (w *Reconciler) sleep(ctx context.Context) bool {
	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-w.wakeup:
		return true
	case <-timer.C:
		return true
	}
}

// RunOnce processes due tasks and returns how many were completed.
func (w *Reconciler) RunOnce(ctx context.Context) (int, error) {
	tasks, err := w.tasks.GetPendingReconcileTasks(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch pending reconcile tasks: %w", err)
	}

	done := 0
	for _, task := range tasks {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
		if w.processTask(ctx, task) {
			done++
		}
	}
	return done, nil
}

func (w *Reconciler) processTask(ctx context.Context, task *models.ReconcileTask) bool {
	log := w.logger.With().Int64("task_id", task.ID).Int64("booking_id", task.BookingID).Str("task_type", task.TaskType).Logger()

	err := w.handle(ctx, task)
	if err == nil {
		if err := w.tasks.UpdateReconcileTaskStatus(ctx, task.ID, database.TaskStatusCompleted, "", nil); err != nil {
			log.Error().Err(err).Msg("failed to mark reconcile task completed")
		}
		metrics.IncReconcile("completed")
		log.Info().Msg("reconcile task completed")
		return true
	}

	var perm permanentError
	if errors.As(err, &perm) {
		w.fail(ctx, task, err, &log)
		return false
	}
	w.retryOrFail(ctx, task, err, &log)
	return false
}

type permanentError struct{ error }

func (e permanentError) Unwrap() error { return e.error }

func (w *Reconciler) handle(ctx context.Context, task *models.ReconcileTask) error {
	switch task.TaskType {
	case models.ReconcileMarkBookingPaid:
		var payload models.ReconcilePayload
		if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
			return permanentError{fmt.Errorf("decode payload: %w", err)}
		}
		payment, err := w.payments.GetPaymentByReference(ctx, payload.OrderID)
		if err != nil {
			var nf domain.NotFoundError
			if errors.As(err, &nf) {
				return permanentError{err}
			}
			return err
		}
		if payment.Status != models.PaymentStatusSuccess {
			return permanentError{fmt.Errorf("payment %s is %s, not success", payload.OrderID, payment.Status)}
		}
		if payment.BookingID != task.BookingID {
			return permanentError{fmt.Errorf("payment %s belongs to booking %d", payload.OrderID, payment.BookingID)}
		}
		return w.bookings.MarkBookingPaid(ctx, task.BookingID)
	default:
		return permanentError{fmt.Errorf("unknown task type: %s", task.TaskType)}
	}
}

func (w *Reconciler) retryOrFail(ctx context.Context, task *models.ReconcileTask, cause error, log *zerolog.Logger) {
	attempt := task.RetryCount + 1
	if w.retryPolicy.Exhausted(attempt) {
		w.fail(ctx, task, cause, log)
		return
	}

	next := w.now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.tasks.UpdateReconcileTaskStatus(ctx, task.ID, database.TaskStatusRetry, cause.Error(), &next); err != nil {
		log.Error().Err(err).Msg("failed to schedule reconcile retry")
	}
	metrics.IncReconcile("retry")
	log.Warn().Err(cause).Int("attempt", attempt).Time("next_retry_at", next).Msg("reconcile task will be retried")
}

func (w *Reconciler) fail(ctx context.Context, task *models.ReconcileTask, cause error, log *zerolog.Logger) {
	if err := w.tasks.UpdateReconcileTaskStatus(ctx, task.ID, database.TaskStatusFailed, cause.Error(), nil); err != nil {
		log.Error().Err(err).Msg("failed to mark reconcile task failed")
	}
	metrics.IncReconcile("failed")
	log.Error().Err(cause).Msg("reconcile task moved to dead letter")
	w.pushDeadLetter(ctx, task, log)
}

func (w *Reconciler) pushDeadLetter(ctx context.Context, task *models.ReconcileTask, log *zerolog.Logger) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		log.Error().Err(err).Msg("encode dead letter")
		return
	}
	if err := w.redis.LPush(ctx, deadLetterKey, data).Err(); err != nil {
		log.Error().Err(err).Msg("dead letter push failed")
	}
}
