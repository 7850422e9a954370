package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cashflow/internal/core"
)

// MemoryRepository is a mutex-guarded in-memory Repository. It backs the
// default data backend and the test suites; every read returns copies so
// callers can treat results as snapshots.
type MemoryRepository struct {
	mu         sync.Mutex
	entries    map[string]core.Entry
	order      []string // insertion order of entry ids
	categories []core.Category
	accounts   []core.Account
	debts      []core.Debt
	scenarios  []core.Scenario
}

// NewMemoryRepository creates an empty store seeded with the given
// registries. Pass nil categories to get the default set.
func NewMemoryRepository(cats []core.Category, accounts []core.Account, debts []core.Debt, scenarios []core.Scenario) *MemoryRepository {
	if cats == nil {
		cats = DefaultCategories()
	}
	return &MemoryRepository{
		entries:    make(map[string]core.Entry),
		categories: cats,
		accounts:   accounts,
		debts:      debts,
		scenarios:  scenarios,
	}
}

// DefaultCategories mirrors the seed applied by the SQLite migrations.
func DefaultCategories() []core.Category {
	return []core.Category{
		{ID: "5c2e49a1-7f30-4f0a-9a6f-0f6f2a1d8b01", Name: "Salary", Description: "Regular employment income", IsPos: true},
		{ID: "5c2e49a1-7f30-4f0a-9a6f-0f6f2a1d8b02", Name: "Other Income", Description: "Interest, gifts, refunds", IsPos: true},
		{ID: "5c2e49a1-7f30-4f0a-9a6f-0f6f2a1d8b03", Name: "Rent", Description: "Rent or mortgage payments"},
		{ID: "5c2e49a1-7f30-4f0a-9a6f-0f6f2a1d8b04", Name: "Groceries"},
		{ID: "5c2e49a1-7f30-4f0a-9a6f-0f6f2a1d8b05", Name: "Utilities", Description: "Power, water, internet"},
		{ID: "5c2e49a1-7f30-4f0a-9a6f-0f6f2a1d8b06", Name: "Transport"},
		{ID: "5c2e49a1-7f30-4f0a-9a6f-0f6f2a1d8b07", Name: "Entertainment"},
		{ID: "5c2e49a1-7f30-4f0a-9a6f-0f6f2a1d8b08", Name: "Healthcare"},
	}
}

func (m *MemoryRepository) GetAllEntries(_ context.Context) ([]core.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Entry, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.entries[id])
	}
	return out, nil
}

func (m *MemoryRepository) GetEntry(_ context.Context, id string) (core.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return core.Entry{}, fmt.Errorf("%w: entry %s", core.ErrNotFound, id)
	}
	return e, nil
}

func (m *MemoryRepository) AddEntry(_ context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.entries[e.ID]; dup {
		return fmt.Errorf("%w: %s", core.ErrDuplicateID, e.ID)
	}
	m.entries[e.ID] = e
	m.order = append(m.order, e.ID)
	return nil
}

func (m *MemoryRepository) UpdateEntry(_ context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.ID]; !ok {
		return fmt.Errorf("%w: entry %s", core.ErrNotFound, e.ID)
	}
	m.entries[e.ID] = e
	return nil
}

func (m *MemoryRepository) DeleteEntry(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return fmt.Errorf("%w: entry %s", core.ErrNotFound, id)
	}
	delete(m.entries, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryRepository) GetAllCategories(_ context.Context) ([]core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Category, len(m.categories))
	copy(out, m.categories)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryRepository) GetAllAccounts(_ context.Context) ([]core.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Account, len(m.accounts))
	copy(out, m.accounts)
	return out, nil
}

func (m *MemoryRepository) GetAllDebts(_ context.Context) ([]core.Debt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Debt, len(m.debts))
	copy(out, m.debts)
	return out, nil
}

func (m *MemoryRepository) GetAllScenarios(_ context.Context) ([]core.Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Scenario, len(m.scenarios))
	copy(out, m.scenarios)
	return out, nil
}

// AddScenario registers a what-if overlay.
func (m *MemoryRepository) AddScenario(_ context.Context, s core.Scenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.scenarios {
		if existing.ID == s.ID {
			return fmt.Errorf("%w: scenario %s", core.ErrDuplicateID, s.ID)
		}
	}
	m.scenarios = append(m.scenarios, s)
	return nil
}

func (m *MemoryRepository) GetEntriesForProjection(_ context.Context, scenarioID string) ([]core.Entry, []core.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var base, overlay []core.Entry
	for _, id := range m.order {
		e := m.entries[id]
		switch e.ScenarioID {
		case "":
			base = append(base, e)
		case scenarioID:
			overlay = append(overlay, e)
		}
	}
	if scenarioID == "" {
		overlay = nil
	}
	return base, overlay, nil
}

func (m *MemoryRepository) Close() error { return nil }
