// Package storage provides the document store the engine projects from:
// entries keyed by id plus the category/account/debt/scenario registries.
// Two implementations exist, a SQLite-backed repository and an in-memory
// store used as the default backend and in tests.
package storage

import (
	"context"

	"cashflow/internal/core"
)

// Repository is the storage collaborator boundary. All ids are opaque
// strings, amounts are integer cents and dates are calendar days.
type Repository interface {
	GetAllEntries(ctx context.Context) ([]core.Entry, error)
	GetEntry(ctx context.Context, id string) (core.Entry, error)
	AddEntry(ctx context.Context, e core.Entry) error
	UpdateEntry(ctx context.Context, e core.Entry) error
	DeleteEntry(ctx context.Context, id string) error

	GetAllCategories(ctx context.Context) ([]core.Category, error)
	GetAllAccounts(ctx context.Context) ([]core.Account, error)
	GetAllDebts(ctx context.Context) ([]core.Debt, error)
	GetAllScenarios(ctx context.Context) ([]core.Scenario, error)

	// GetEntriesForProjection returns the base timeline and the given
	// scenario's overlay separately. It performs no validation or
	// deduplication; engine.Merge is the single source of truth for the
	// effective set.
	GetEntriesForProjection(ctx context.Context, scenarioID string) (base, overlay []core.Entry, err error)

	Close() error
}
