package database

import (
	"context"
	"fmt"
	"time"

	"blinklean/internal/models"
)

const (
	TaskStatusPending   = "pending"
	TaskStatusRetry     = "retry"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

const reconcileColumns = `id, task_type, booking_id, payment_id, payload, status, retry_count, last_error,
       created_at, processed_at, next_retry_at`

func scanReconcileTask(row rowScanner) (*models.ReconcileTask, error) {
	var t models.ReconcileTask
	err := row.Scan(
		&t.ID, &t.TaskType, &t.BookingID, &t.PaymentID, &t.Payload, &t.Status, &t.RetryCount,
		&t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// EnqueueReconcile ставит задачу сверки в очередь
func (db *DB) EnqueueReconcile(ctx context.Context, task *models.ReconcileTask) error {
	if task.Status == "" {
		task.Status = TaskStatusPending
	}
	now := time.Now()
	query := `INSERT INTO reconcile_queue (task_type, booking_id, payment_id, payload, status, retry_count, last_error, created_at, next_retry_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		task.TaskType,
		task.BookingID,
		task.PaymentID,
		task.Payload,
		task.Status,
		task.RetryCount,
		task.LastError,
		now,
		task.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue reconcile task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	return nil
}

// GetPendingReconcileTasks возвращает задачи, готовые к выполнению
func (db *DB) GetPendingReconcileTasks(ctx context.Context, limit int) ([]*models.ReconcileTask, error) {
	query := `SELECT ` + reconcileColumns + ` FROM reconcile_queue
              WHERE status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC, id ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending reconcile tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.ReconcileTask
	for rows.Next() {
		t, err := scanReconcileTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reconcile task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (db *DB) UpdateReconcileTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	var (
		query string
		args  []interface{}
		now   = time.Now()
	)

	var lastErr interface{}
	if errMsg != "" {
		lastErr = errMsg
	}

	switch status {
	case TaskStatusRetry:
		query = `UPDATE reconcile_queue SET status = ?, last_error = ?, next_retry_at = ?, retry_count = retry_count + 1 WHERE id = ?`
		args = []interface{}{status, lastErr, nextRetryAt, id}
	case TaskStatusCompleted, TaskStatusFailed:
		query = `UPDATE reconcile_queue SET status = ?, last_error = ?, next_retry_at = NULL, processed_at = ? WHERE id = ?`
		args = []interface{}{status, lastErr, now, id}
	default:
		query = `UPDATE reconcile_queue SET status = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
		args = []interface{}{status, lastErr, nextRetryAt, id}
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update reconcile task status: %w", err)
	}
	return nil
}

// GetFailedReconcileTasks возвращает задачи, исчерпавшие попытки
func (db *DB) GetFailedReconcileTasks(ctx context.Context) ([]*models.ReconcileTask, error) {
	query := `SELECT ` + reconcileColumns + ` FROM reconcile_queue WHERE status = 'failed' ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get failed reconcile tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.ReconcileTask
	for rows.Next() {
		t, err := scanReconcileTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reconcile task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
