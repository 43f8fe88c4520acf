// Package worker applies tracker events to the spreadsheet mirror.
package worker

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// SyncWorker mirrors recorded transactions and clears into a sheet.
type SyncWorker struct {
	mirror sheets.TransactionMirror
	logger *log.Logger
}

func NewSyncWorker(mirror sheets.TransactionMirror, logger *log.Logger) *SyncWorker {
	return &SyncWorker{mirror: mirror, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleEvent applies one event. A returned error asks for redelivery.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.Event) error {
	switch ev.Kind {
	case amqp.KindTransactionRecorded:
		tx := *ev.Transaction
		ref, err := w.mirror.AppendTransaction(ctx, tx)
		if err != nil {
			return fmt.Errorf("mirror transaction %d: %w", tx.ID, err)
		}
		w.logger.InfoContext(ctx, "Transaction synced",
			log.FieldEventID, ev.ID,
			log.FieldTxID, tx.ID,
			log.FieldOperation, log.OpSync,
			"ref", ref)
	case amqp.KindDataCleared:
		if err := w.mirror.ClearTransactions(ctx); err != nil {
			return fmt.Errorf("clear mirror: %w", err)
		}
		w.logger.InfoContext(ctx, "Mirror cleared", log.FieldEventID, ev.ID, log.FieldOperation, log.OpClear)
	default:
		// EventFromJSON rejects unknown kinds; anything else is dropped.
		w.logger.WarnContext(ctx, "Ignoring unknown event", log.FieldEventID, ev.ID, "kind", ev.Kind)
	}
	return nil
}

// Consumer is the event source the worker runs on.
type Consumer interface {
	ConsumeWithRetry(ctx context.Context, handler func(context.Context, *amqp.Event) error) error
}

// Run consumes events until ctx ends.
func (w *SyncWorker) Run(ctx context.Context, c Consumer) error {
	w.logger.InfoContext(ctx, "Sync worker started")
	err := c.ConsumeWithRetry(ctx, w.HandleEvent)
	w.logger.InfoContext(ctx, "Sync worker stopped", log.FieldError, err)
	return err
}
