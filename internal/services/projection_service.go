// Package services orchestrates storage, the projection engine and AMQP.
// Handlers and workers talk to a ProjectionService; they never drive the
// engine directly.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/engine"
	"cashflow/internal/storage"
)

// ScenarioWriter is implemented by repositories that can persist new
// what-if scenarios.
type ScenarioWriter interface {
	AddScenario(ctx context.Context, s core.Scenario) error
}

// ProjectionRequest describes one projection run.
type ProjectionRequest struct {
	ScenarioID  string // empty means the base timeline
	WindowStart core.Date
	WindowEnd   core.Date
	AsOf        core.Date // zero means today
	Policy      engine.CategoryPolicy
}

// Projection is the full result of a projection run: the reconciled
// occurrence timeline plus both aggregated views over the same window.
type Projection struct {
	ScenarioID  string
	WindowStart core.Date
	WindowEnd   core.Date
	AsOf        core.Date
	Occurrences []core.Occurrence
	Actuals     []core.Actual
	Categories  []engine.CategoryTotal
	Timeline    []engine.SeriesPoint
}

// ProjectionService orchestrates entry operations and projection runs
// across storage and AMQP.
type ProjectionService struct {
	storage    storage.Repository
	amqpClient *amqp.Client
}

func NewProjectionService(storage storage.Repository, amqpClient *amqp.Client) *ProjectionService {
	return &ProjectionService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CreateEntry validates and saves an entry, assigning an id when the caller
// left it empty, and publishes a change message for the refresh worker.
func (s *ProjectionService) CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	// Save first (fast, reliable)
	if err := s.storage.AddEntry(ctx, e); err != nil {
		return core.Entry{}, fmt.Errorf("save entry: %w", err)
	}

	// Publish async change message (non-blocking)
	if err := s.publishEntryChanged(ctx, e.ID, amqp.OpCreated, e.ScenarioID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish entry changed message",
			"entry_id", e.ID, "error", err)
		// Don't fail the request - entry is saved locally
	}

	return e, nil
}

// UpdateEntry replaces a stored entry and publishes a change message.
func (s *ProjectionService) UpdateEntry(ctx context.Context, e core.Entry) error {
	if err := s.storage.UpdateEntry(ctx, e); err != nil {
		return fmt.Errorf("update entry: %w", err)
	}

	if err := s.publishEntryChanged(ctx, e.ID, amqp.OpUpdated, e.ScenarioID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish entry changed message",
			"entry_id", e.ID, "error", err)
	}

	return nil
}

// DeleteEntry removes an entry and publishes a change message.
func (s *ProjectionService) DeleteEntry(ctx context.Context, id string) error {
	e, err := s.storage.GetEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("load entry: %w", err)
	}

	if err := s.storage.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	if err := s.publishEntryChanged(ctx, id, amqp.OpDeleted, e.ScenarioID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish entry changed message",
			"entry_id", id, "error", err)
	}

	return nil
}

// GetEntry loads a single entry.
func (s *ProjectionService) GetEntry(ctx context.Context, id string) (core.Entry, error) {
	return s.storage.GetEntry(ctx, id)
}

// ListEntries loads every stored entry across all scenarios.
func (s *ProjectionService) ListEntries(ctx context.Context) ([]core.Entry, error) {
	return s.storage.GetAllEntries(ctx)
}

// CreateScenario registers a what-if overlay. It fails when the configured
// backend cannot persist scenarios.
func (s *ProjectionService) CreateScenario(ctx context.Context, name, description string) (core.Scenario, error) {
	w, ok := s.storage.(ScenarioWriter)
	if !ok {
		return core.Scenario{}, fmt.Errorf("backend does not support creating scenarios")
	}

	sc := core.Scenario{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := w.AddScenario(ctx, sc); err != nil {
		return core.Scenario{}, fmt.Errorf("save scenario: %w", err)
	}
	return sc, nil
}

// ListScenarios loads the scenario registry.
func (s *ProjectionService) ListScenarios(ctx context.Context) ([]core.Scenario, error) {
	return s.storage.GetAllScenarios(ctx)
}

// ListCategories loads the category registry.
func (s *ProjectionService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.storage.GetAllCategories(ctx)
}

// ListAccounts loads the account registry.
func (s *ProjectionService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.storage.GetAllAccounts(ctx)
}

// ListDebts loads the debt registry.
func (s *ProjectionService) ListDebts(ctx context.Context) ([]core.Debt, error) {
	return s.storage.GetAllDebts(ctx)
}

// Project runs the full pipeline for one scenario and window: merge the
// base timeline with the scenario overlay, materialize projected
// occurrences, reconcile them against actuals and aggregate both views.
func (s *ProjectionService) Project(ctx context.Context, req ProjectionRequest) (Projection, error) {
	if req.WindowStart.IsZero() || req.WindowEnd.IsZero() {
		return Projection{}, fmt.Errorf("projection window is required")
	}
	if req.WindowStart.After(req.WindowEnd.Time) {
		return Projection{}, fmt.Errorf("window start %s is after window end %s", req.WindowStart, req.WindowEnd)
	}
	if req.AsOf.IsZero() {
		req.AsOf = core.DateOf(time.Now())
	}

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return Projection{}, err
	}
	if req.ScenarioID != "" {
		if _, ok := snap.Scenario(req.ScenarioID); !ok {
			return Projection{}, fmt.Errorf("%w: scenario %s", core.ErrNotFound, req.ScenarioID)
		}
	}

	base, overlay, err := s.storage.GetEntriesForProjection(ctx, req.ScenarioID)
	if err != nil {
		return Projection{}, fmt.Errorf("load entries: %w", err)
	}

	merged, err := engine.Merge(base, overlay)
	if err != nil {
		return Projection{}, fmt.Errorf("merge scenario %s: %w", req.ScenarioID, err)
	}

	occurrences, err := engine.Materialize(merged, req.WindowStart, req.WindowEnd)
	if err != nil {
		return Projection{}, fmt.Errorf("materialize: %w", err)
	}

	var actualEntries []core.Entry
	for _, e := range merged {
		if e.Type == core.EntryActualTransaction {
			actualEntries = append(actualEntries, e)
		}
	}

	occurrences, actuals, err := engine.Reconcile(occurrences, actualEntries, req.AsOf)
	if err != nil {
		return Projection{}, fmt.Errorf("reconcile: %w", err)
	}

	categories, err := engine.CategoryTotals(merged, snap, req.Policy)
	if err != nil {
		return Projection{}, fmt.Errorf("category totals: %w", err)
	}

	timeline, err := engine.DailySeries(actuals, snap, req.WindowStart, req.WindowEnd, req.Policy)
	if err != nil {
		return Projection{}, fmt.Errorf("daily series: %w", err)
	}

	slog.InfoContext(ctx, "Projection complete",
		"scenario_id", req.ScenarioID,
		"window_start", req.WindowStart.String(),
		"window_end", req.WindowEnd.String(),
		"occurrence_count", len(occurrences),
		"actual_count", len(actuals))

	return Projection{
		ScenarioID:  req.ScenarioID,
		WindowStart: req.WindowStart,
		WindowEnd:   req.WindowEnd,
		AsOf:        req.AsOf,
		Occurrences: occurrences,
		Actuals:     actuals,
		Categories:  categories,
		Timeline:    timeline,
	}, nil
}

// CategorySummary aggregates the scenario's recurring templates into
// monthly-equivalent totals per category.
func (s *ProjectionService) CategorySummary(ctx context.Context, scenarioID string, policy engine.CategoryPolicy) ([]engine.CategoryTotal, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	base, overlay, err := s.storage.GetEntriesForProjection(ctx, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	merged, err := engine.Merge(base, overlay)
	if err != nil {
		return nil, fmt.Errorf("merge scenario %s: %w", scenarioID, err)
	}

	totals, err := engine.CategoryTotals(merged, snap, policy)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	return totals, nil
}

// Timeline buckets the scenario's actual transactions into the per-day,
// per-category series for the given range.
func (s *ProjectionService) Timeline(ctx context.Context, scenarioID string, rangeStart, rangeEnd core.Date, policy engine.CategoryPolicy) ([]engine.SeriesPoint, error) {
	if rangeStart.After(rangeEnd.Time) {
		return nil, fmt.Errorf("range start %s is after range end %s", rangeStart, rangeEnd)
	}

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	base, overlay, err := s.storage.GetEntriesForProjection(ctx, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	merged, err := engine.Merge(base, overlay)
	if err != nil {
		return nil, fmt.Errorf("merge scenario %s: %w", scenarioID, err)
	}

	var actualEntries []core.Entry
	for _, e := range merged {
		if e.Type == core.EntryActualTransaction {
			actualEntries = append(actualEntries, e)
		}
	}
	// Reconciliation status does not influence the series; an empty
	// occurrence set just leaves every actual unplanned.
	_, actuals, err := engine.Reconcile(nil, actualEntries, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	series, err := engine.DailySeries(actuals, snap, rangeStart, rangeEnd, policy)
	if err != nil {
		return nil, fmt.Errorf("daily series: %w", err)
	}
	return series, nil
}

func (s *ProjectionService) loadSnapshot(ctx context.Context) (core.Snapshot, error) {
	cats, err := s.storage.GetAllCategories(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("load categories: %w", err)
	}
	accounts, err := s.storage.GetAllAccounts(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("load accounts: %w", err)
	}
	debts, err := s.storage.GetAllDebts(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("load debts: %w", err)
	}
	scenarios, err := s.storage.GetAllScenarios(ctx)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("load scenarios: %w", err)
	}
	return core.NewSnapshot(cats, accounts, debts, scenarios), nil
}

func (s *ProjectionService) publishEntryChanged(ctx context.Context, entryID, op, scenarioID string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping change message")
		return nil
	}

	return s.amqpClient.PublishEntryChanged(ctx, entryID, op, scenarioID)
}

// Close closes both storage and AMQP connections
func (s *ProjectionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close projection service: %v", errs)
	}

	return nil
}
