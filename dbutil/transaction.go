package dbutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// TransactionOptions defines options for transaction handling
type TransactionOptions struct {
	IsolationLevel sql.IsolationLevel
	ReadOnly       bool
	Timeout        time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
}

// DefaultTransactionOptions returns sensible defaults for most use cases
func DefaultTransactionOptions() TransactionOptions {
	return TransactionOptions{
		IsolationLevel: sql.LevelReadCommitted,
		ReadOnly:       false,
		Timeout:        30 * time.Second,
		RetryAttempts:  3,
		RetryDelay:     100 * time.Millisecond,
	}
}

// TransactionFunc represents a function to execute within a transaction
type TransactionFunc func(tx *sql.Tx) error

// TransactionManager handles transactions with retry on transient failures
type TransactionManager struct {
	cm     *ConnectionManager
	logger *zap.Logger
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(cm *ConnectionManager, logger *zap.Logger) *TransactionManager {
	return &TransactionManager{
		cm:     cm,
		logger: logger,
	}
}

// ExecuteTransaction runs a function within a transaction with automatic
// retry on serialization failures and transient connection errors.
func (tm *TransactionManager) ExecuteTransaction(ctx context.Context, opts TransactionOptions, fn TransactionFunc) error {
	var lastErr error

	for attempt := 0; attempt <= opts.RetryAttempts; attempt++ {
		err := tm.executeTransactionOnce(ctx, opts, fn)
		if err == nil {
			if attempt > 0 {
				tm.logger.Info("Transaction succeeded after retry",
					zap.Int("attempt", attempt+1))
			}
			return nil
		}

		lastErr = err

		if !isRetryableError(err) {
			return err
		}

		if attempt < opts.RetryAttempts {
			tm.logger.Warn("Transaction failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", opts.RetryAttempts+1),
				zap.Error(err))

			// Exponential backoff
			delay := opts.RetryDelay * time.Duration(1<<attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	tm.logger.Error("Transaction failed after all retry attempts",
		zap.Int("total_attempts", opts.RetryAttempts+1),
		zap.Error(lastErr))

	return lastErr
}

func (tm *TransactionManager) executeTransactionOnce(ctx context.Context, opts TransactionOptions, fn TransactionFunc) error {
	txCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	txOpts := &sql.TxOptions{
		Isolation: opts.IsolationLevel,
		ReadOnly:  opts.ReadOnly,
	}

	tx, err := tm.cm.BeginTx(txCtx, txOpts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && rollbackErr != sql.ErrTxDone {
				tm.logger.Error("Failed to rollback transaction", zap.Error(rollbackErr))
			}
		}
	}()

	if err := fn(tx); err != nil {
		return fmt.Errorf("transaction function failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	committed = true
	return nil
}

// ExecuteReadOnlyTransaction is optimized for consistent multi-row reads
func (tm *TransactionManager) ExecuteReadOnlyTransaction(ctx context.Context, fn TransactionFunc) error {
	opts := TransactionOptions{
		IsolationLevel: sql.LevelRepeatableRead,
		ReadOnly:       true,
		Timeout:        15 * time.Second,
		RetryAttempts:  2,
		RetryDelay:     50 * time.Millisecond,
	}

	return tm.ExecuteTransaction(ctx, opts, fn)
}

// CompensatedTransaction coordinates a database transaction with side
// effects that live outside it (normalized-text files on disk). Steps run in
// order; when one fails, the compensation hooks of the already-executed steps
// run in reverse order.
type CompensatedTransaction struct {
	id          string
	steps       []CompensatedStep
	logger      *zap.Logger
	compensated bool
}

// CompensatedStep is one unit of work with an optional undo hook
type CompensatedStep struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
	executed   bool
}

// NewCompensatedTransaction creates a coordinator for the given operation id
func NewCompensatedTransaction(id string, logger *zap.Logger) *CompensatedTransaction {
	return &CompensatedTransaction{
		id:     id,
		logger: logger,
		steps:  make([]CompensatedStep, 0),
	}
}

// AddStep appends a step
func (ct *CompensatedTransaction) AddStep(step CompensatedStep) {
	ct.steps = append(ct.steps, step)
}

// Execute runs all steps, compensating on the first failure
func (ct *CompensatedTransaction) Execute(ctx context.Context) error {
	for i := range ct.steps {
		step := &ct.steps[i]

		ct.logger.Debug("Executing step",
			zap.String("operation_id", ct.id),
			zap.String("step_name", step.Name),
			zap.Int("step_index", i))

		if err := step.Execute(ctx); err != nil {
			ct.logger.Error("Step failed",
				zap.String("operation_id", ct.id),
				zap.String("step_name", step.Name),
				zap.Error(err))

			ct.compensate(ctx, i)
			return fmt.Errorf("step '%s' failed: %w", step.Name, err)
		}

		step.executed = true
	}

	return nil
}

func (ct *CompensatedTransaction) compensate(ctx context.Context, failedStepIndex int) {
	if ct.compensated {
		return
	}
	ct.compensated = true

	for i := failedStepIndex - 1; i >= 0; i-- {
		step := &ct.steps[i]
		if !step.executed || step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			ct.logger.Error("Step compensation failed",
				zap.String("operation_id", ct.id),
				zap.String("step_name", step.Name),
				zap.Error(err))
			// Keep compensating the remaining steps.
		}
	}
}

// isRetryableError checks if an error is retryable
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	// lib/pq errors carry only the message in Error(); the SQLSTATE is in Code.
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		errStr += " " + string(pqErr.Code)
	}

	// PostgreSQL error codes and transport failures worth a retry
	retryable := []string{
		"40001", // serialization_failure
		"40P01", // deadlock_detected
		"53300", // too_many_connections
		"connection refused",
		"connection reset",
		"connection timed out",
	}

	for _, candidate := range retryable {
		if strings.Contains(errStr, candidate) {
			return true
		}
	}

	return false
}
