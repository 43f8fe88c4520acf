// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/dashboard"
	"fintrack/internal/export"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// User-facing messages.
const (
	ClearedMessage      = "All data has been cleared. Starting fresh!"
	ClearFailedMessage  = "Sorry, there was a problem clearing your data. Please try again."
	ExportedMessage     = "Your data has been saved! Check your downloads folder for two files:\n\n1. CSV file (open with Excel)\n2. Backup file (keep it safe!)"
	ExportFailedMessage = "Sorry, there was a problem saving your data. Please try again."
)

type AlertKind string

const (
	AlertSuccess AlertKind = "success"
	AlertWarning AlertKind = "warning"
	AlertError   AlertKind = "error"
)

type Alert struct {
	Kind    AlertKind
	Message string
}

// Result is what every command returns: a fresh render, the charts drawn
// for it, and alerts to show.
type Result struct {
	View   dashboard.View
	Charts dashboard.Charts
	Alerts []Alert
}

// EventPublisher receives best-effort notifications about data changes.
type EventPublisher interface {
	PublishTransactionRecorded(ctx context.Context, tx core.Transaction) error
	PublishDataCleared(ctx context.Context) error
}

type (
	// TransactionInput is the raw form input for a new transaction.
	TransactionInput struct {
		Type        string
		Amount      string
		Category    string
		Date        string // YYYY-MM-DD, empty means today
		Description string
		Recurring   bool
	}

	SavingsGoalInput struct {
		Amount      string
		Description string
	}
)

// Export is the pair of files produced by an export.
type Export struct {
	CSVName    string
	CSV        []byte
	BackupName string
	Backup     []byte
}

// TrackerService runs the tracker commands against the stored records.
// Every command re-reads the store and renders from scratch.
type TrackerService struct {
	records   *store.Records
	publisher EventPublisher
	session   *dashboard.Session
	logger    *log.Logger
	now       func() time.Time
}

// NewTrackerService wires the service. publisher may be nil.
func NewTrackerService(records *store.Records, publisher EventPublisher, logger *log.Logger) *TrackerService {
	return &TrackerService{
		records:   records,
		publisher: publisher,
		session:   dashboard.NewSession(dashboard.NewSpecDrawer()),
		logger:    logger.WithComponent(log.ComponentTracker),
		now:       time.Now,
	}
}

// WithClock overrides the clock used for default dates and export names.
func (s *TrackerService) WithClock(now func() time.Time) *TrackerService {
	s.now = now
	return s
}

// WithDrawer replaces the chart drawer. Charts from the previous drawer are
// destroyed.
func (s *TrackerService) WithDrawer(d dashboard.Drawer) *TrackerService {
	_ = s.session.Close()
	s.session = dashboard.NewSession(d)
	return s
}

// Today is the default date offered by the transaction form.
func (s *TrackerService) Today() core.Date {
	return core.Today(s.now())
}

// Dashboard renders the current state. The budget alert is included when
// triggered.
func (s *TrackerService) Dashboard(ctx context.Context) (Result, error) {
	return s.render(ctx)
}

// AddTransaction validates in, appends it and renders.
func (s *TrackerService) AddTransaction(ctx context.Context, in TransactionInput) (Result, core.Transaction, error) {
	tx, err := s.parseTransaction(in)
	if err != nil {
		return Result{}, core.Transaction{}, err
	}

	tx, err = s.records.Append(ctx, tx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to record transaction", log.FieldOperation, log.OpAppend, log.FieldError, err)
		return Result{}, core.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}
	log.NewStructuredLogger(s.logger).LogTransactionRecorded(ctx, tx.ID, string(tx.Type), tx.Amount.Cents, tx.Category, tx.Date.String(), tx.Recurring)

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionRecorded(ctx, tx); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish transaction event", log.FieldTxID, tx.ID, log.FieldError, err)
		}
	}

	res, err := s.render(ctx)
	return res, tx, err
}

func (s *TrackerService) parseTransaction(in TransactionInput) (core.Transaction, error) {
	typ := core.TxType(strings.TrimSpace(in.Type))
	if !typ.Valid() {
		return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrInvalidType, in.Type)
	}
	cents, err := core.ParseDecimalToCents(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date := s.Today()
	if strings.TrimSpace(in.Date) != "" {
		if date, err = core.ParseDate(in.Date); err != nil {
			return core.Transaction{}, err
		}
	}
	tx := core.Transaction{
		Type:        typ,
		Amount:      core.Money{Cents: cents},
		Category:    strings.TrimSpace(in.Category),
		Date:        date,
		Description: strings.TrimSpace(in.Description),
		Recurring:   in.Recurring,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// SetBudget overwrites the monthly budget.
func (s *TrackerService) SetBudget(ctx context.Context, amount string) (Result, error) {
	cents, err := core.ParseDecimalToCents(amount)
	if err != nil {
		return Result{}, err
	}
	if err := s.records.SetBudget(ctx, core.Money{Cents: cents}); err != nil {
		return Result{}, fmt.Errorf("save budget: %w", err)
	}
	return s.render(ctx)
}

// SetSavingsGoal overwrites the savings goal.
func (s *TrackerService) SetSavingsGoal(ctx context.Context, in SavingsGoalInput) (Result, error) {
	cents, err := core.ParseDecimalToCents(in.Amount)
	if err != nil {
		return Result{}, err
	}
	goal := core.SavingsGoal{Amount: core.Money{Cents: cents}, Description: strings.TrimSpace(in.Description)}
	if err := goal.Validate(); err != nil {
		return Result{}, err
	}
	if err := s.records.SetSavingsGoal(ctx, goal); err != nil {
		return Result{}, fmt.Errorf("save savings goal: %w", err)
	}
	return s.render(ctx)
}

// SetTheme persists the theme and renders with it.
func (s *TrackerService) SetTheme(ctx context.Context, theme string) (Result, error) {
	t, err := core.ParseTheme(theme)
	if err != nil {
		return Result{}, err
	}
	if err := s.records.SetTheme(ctx, t); err != nil {
		return Result{}, fmt.Errorf("save theme: %w", err)
	}
	return s.render(ctx)
}

// ClearAll deletes every record. On failure the store may be partially
// cleared; the error carries every failed delete.
func (s *TrackerService) ClearAll(ctx context.Context) (Result, error) {
	if err := s.records.Clear(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to clear data", log.FieldOperation, log.OpClear, log.FieldError, err)
		return Result{}, fmt.Errorf("clear data: %w", err)
	}
	s.logger.InfoContext(ctx, "All data cleared", log.FieldOperation, log.OpClear)

	if s.publisher != nil {
		if err := s.publisher.PublishDataCleared(ctx); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish clear event", log.FieldError, err)
		}
	}

	res, err := s.render(ctx)
	if err != nil {
		return res, err
	}
	res.Alerts = append([]Alert{{Kind: AlertSuccess, Message: ClearedMessage}}, res.Alerts...)
	return res, nil
}

// Snapshot reads all stored records.
func (s *TrackerService) Snapshot(ctx context.Context) (store.Snapshot, error) {
	snap, err := s.records.Snapshot(ctx)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("read records: %w", err)
	}
	return snap, nil
}

// Export produces the CSV sheet and JSON backup named for today.
func (s *TrackerService) Export(ctx context.Context) (Export, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Export{}, err
	}
	backup, err := export.ToBackup(snap)
	if err != nil {
		return Export{}, err
	}
	csvName, backupName := export.FileNames(s.now())
	return Export{
		CSVName:    csvName,
		CSV:        []byte(export.ToCSV(snap.Transactions)),
		BackupName: backupName,
		Backup:     backup,
	}, nil
}

// Restore replaces the stored data with a parsed backup.
func (s *TrackerService) Restore(ctx context.Context, b export.Backup) error {
	if err := s.records.Restore(ctx, b.Transactions, b.Budget, b.SavingsGoal); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}
	s.logger.InfoContext(ctx, "Backup restored", "transactions", len(b.Transactions))
	return nil
}

// Close tears down the live charts.
func (s *TrackerService) Close() error {
	return s.session.Close()
}

func (s *TrackerService) render(ctx context.Context) (Result, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Result{}, err
	}
	view, charts, err := s.session.Render(StateFromSnapshot(snap))
	if err != nil {
		s.logger.WarnContext(ctx, "Chart redraw failed", log.FieldOperation, log.OpRender, log.FieldError, err)
	}
	res := Result{View: view, Charts: charts}
	if view.BudgetAlert != "" {
		res.Alerts = append(res.Alerts, Alert{Kind: AlertWarning, Message: view.BudgetAlert})
	}
	return res, nil
}

// StateFromSnapshot maps stored records to render input.
func StateFromSnapshot(s store.Snapshot) dashboard.State {
	return dashboard.State{
		Transactions:   s.Transactions,
		Budget:         s.Budget,
		HasBudget:      s.HasBudget,
		SavingsGoal:    s.SavingsGoal,
		HasSavingsGoal: s.HasSavingsGoal,
		Theme:          s.Theme,
	}
}
