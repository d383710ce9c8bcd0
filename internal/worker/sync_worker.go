package worker

import (
	"context"
	"fmt"
	"time"

	"budgetbot/internal/amqp"
	"budgetbot/internal/core"
	"budgetbot/internal/log"
	"budgetbot/internal/sheets"
	"budgetbot/internal/storage"
)

// SyncWorker mirrors expense rows from SQLite to an external ledger.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	writer    sheets.ExpenseWriter
	logger    *log.Logger
	batchSize int
}

func NewSyncWorker(st *storage.SQLiteRepository, writer sheets.ExpenseWriter, logger *log.Logger, batchSize int) *SyncWorker {
	if batchSize < 1 {
		batchSize = 50
	}
	return &SyncWorker{
		storage:   st,
		writer:    writer,
		logger:    logger.WithComponent(log.ComponentWorker),
		batchSize: batchSize,
	}
}

// HandleSyncMessage mirrors one expense named by an AMQP message.
// An expense deleted before the message arrives is not an error.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	expense, err := w.storage.GetExpense(ctx, msg.ID)
	if err == storage.ErrNotFound {
		w.logger.WarnContext(ctx, "expense gone before sync, skipping", log.FieldExpenseID, msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	return w.syncExpense(ctx, expense)
}

// ProcessPendingExpenses mirrors expenses whose sync messages were lost.
func (w *SyncWorker) ProcessPendingExpenses(ctx context.Context) error {
	pending, err := w.storage.ListUnsyncedExpenses(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unsynced expenses: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "processing pending expenses", "count", len(pending))

	for _, e := range pending {
		if err := w.syncExpense(ctx, e); err != nil {
			w.logger.ErrorContext(ctx, "failed to sync pending expense",
				log.FieldExpenseID, e.ID, log.FieldError, err)
		}
	}
	return nil
}

// RunPendingSweep calls ProcessPendingExpenses on a fixed interval until ctx
// is cancelled. It runs one sweep immediately to catch up after downtime.
func (w *SyncWorker) RunPendingSweep(ctx context.Context, interval time.Duration) error {
	if err := w.ProcessPendingExpenses(ctx); err != nil {
		w.logger.ErrorContext(ctx, "startup sweep failed", log.FieldError, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPendingExpenses(ctx); err != nil {
				w.logger.ErrorContext(ctx, "pending sweep failed", log.FieldError, err)
			}
		}
	}
}

func (w *SyncWorker) syncExpense(ctx context.Context, e core.Expense) error {
	rowRef, err := w.writer.Append(ctx, e)
	if err != nil {
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.storage.MarkExpenseSynced(ctx, e.ID); err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}

	w.logger.InfoContext(ctx, "expense mirrored",
		log.FieldExpenseID, e.ID,
		log.FieldUserID, e.UserID,
		"row_ref", rowRef)
	return nil
}
