package core

// Snapshot is a read-only view of the registries supplied to each engine
// call. The engine never mutates it, so one snapshot may back any number of
// concurrent projections.
type Snapshot struct {
	categories map[string]Category
	accounts   map[string]Account
	debts      map[string]Debt
	scenarios  map[string]Scenario
}

func NewSnapshot(cats []Category, accounts []Account, debts []Debt, scenarios []Scenario) Snapshot {
	s := Snapshot{
		categories: make(map[string]Category, len(cats)),
		accounts:   make(map[string]Account, len(accounts)),
		debts:      make(map[string]Debt, len(debts)),
		scenarios:  make(map[string]Scenario, len(scenarios)),
	}
	for _, c := range cats {
		s.categories[c.ID] = c
	}
	for _, a := range accounts {
		s.accounts[a.ID] = a
	}
	for _, d := range debts {
		s.debts[d.ID] = d
	}
	for _, sc := range scenarios {
		s.scenarios[sc.ID] = sc
	}
	return s
}

// Category looks up a category by id.
func (s Snapshot) Category(id string) (Category, bool) {
	c, ok := s.categories[id]
	return c, ok
}

func (s Snapshot) Account(id string) (Account, bool) {
	a, ok := s.accounts[id]
	return a, ok
}

func (s Snapshot) Scenario(id string) (Scenario, bool) {
	sc, ok := s.scenarios[id]
	return sc, ok
}

// IncomeCategories returns every category with IsPos set.
func (s Snapshot) IncomeCategories() []Category {
	var out []Category
	for _, c := range s.categories {
		if c.IsPos {
			out = append(out, c)
		}
	}
	return out
}

// ExpenseCategories returns every category with IsPos unset.
func (s Snapshot) ExpenseCategories() []Category {
	var out []Category
	for _, c := range s.categories {
		if !c.IsPos {
			out = append(out, c)
		}
	}
	return out
}
