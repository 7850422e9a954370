package engine

import (
	"errors"
	"testing"

	"cashflow/internal/core"
)

func testSnapshot() core.Snapshot {
	return core.NewSnapshot(
		[]core.Category{
			{ID: "c-sal", Name: "Salary", IsPos: true},
			{ID: "c-rent", Name: "Rent"},
			{ID: "c-food", Name: "Groceries"},
		},
		nil, nil, nil,
	)
}

func monthlyTemplate(id, categoryID string, cents int64) core.Entry {
	return core.Entry{
		ID: id, Type: core.EntryRecurringTemplate, CategoryID: categoryID,
		Rule: core.RecurrenceRule{
			Frequency: core.FreqMonthly, Interval: 1, SeriesStart: core.NewDate(2024, 1, 1),
		},
		ProjectedAmount: core.Money{Cents: cents},
	}
}

func TestCategoryTotalsRentExample(t *testing.T) {
	entries := []core.Entry{monthlyTemplate("rent", "c-rent", -50000)}

	got, err := CategoryTotals(entries, testSnapshot(), FailOnUnknownCategory)
	if err != nil {
		t.Fatalf("CategoryTotals() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d totals, want 1", len(got))
	}
	want := CategoryTotal{Group: "Rent", Value: 500, IsPos: false}
	if got[0] != want {
		t.Errorf("total = %+v, want %+v", got[0], want)
	}
}

func TestCategoryTotalsNetsIncomeAgainstExpenses(t *testing.T) {
	entries := []core.Entry{
		monthlyTemplate("salary", "c-sal", 300000),
		monthlyTemplate("rent", "c-rent", -50000),
	}

	got, err := CategoryTotals(entries, testSnapshot(), FailOnUnknownCategory)
	if err != nil {
		t.Fatalf("CategoryTotals() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d totals, want 2: %+v", len(got), got)
	}
	if got[0].Group != NetTotalLabel || got[0].Value != 2500 || !got[0].IsPos {
		t.Errorf("net total = %+v, want {Net Total 2500 true}", got[0])
	}
	if got[1].Group != "Rent" || got[1].Value != 500 {
		t.Errorf("rent total = %+v, want {Rent 500 false}", got[1])
	}
}

func TestCategoryTotalsMonthlyEquivalentNormalization(t *testing.T) {
	tests := []struct {
		name  string
		freq  core.Frequency
		cents int64
		want  int64
	}{
		{"daily times 365 over 12", core.FreqDaily, -1200, 365},   // 12/day -> 365/mo
		{"weekly times 52 over 12", core.FreqWeekly, -1200, 52},   // 12/wk -> 52/mo
		{"monthly as-is", core.FreqMonthly, -1200, 12},
		{"yearly divided by 12", core.FreqYearly, -1200, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := monthlyTemplate("e", "c-rent", tt.cents)
			e.Rule.Frequency = tt.freq
			got, err := CategoryTotals([]core.Entry{e}, testSnapshot(), FailOnUnknownCategory)
			if err != nil {
				t.Fatalf("CategoryTotals() error: %v", err)
			}
			if got[0].Value != tt.want {
				t.Errorf("value = %d, want %d", got[0].Value, tt.want)
			}
		})
	}
}

func TestCategoryTotalsRoundsOnceAfterSummation(t *testing.T) {
	// Two weekly 1.01 amounts are each 4.38 units monthly; rounding per
	// entry would give 4+4=8, rounding once after summation gives 9.
	entries := []core.Entry{
		monthlyTemplate("a", "c-food", -101),
		monthlyTemplate("b", "c-food", -101),
	}
	entries[0].Rule.Frequency = core.FreqWeekly
	entries[1].Rule.Frequency = core.FreqWeekly

	got, err := CategoryTotals(entries, testSnapshot(), FailOnUnknownCategory)
	if err != nil {
		t.Fatalf("CategoryTotals() error: %v", err)
	}
	// 2 * 101 * 52 / 12 = 875.33 cents -> 9 units
	if got[0].Value != 9 {
		t.Errorf("value = %d, want 9", got[0].Value)
	}
}

func TestCategoryTotalsIgnoresNonTemplates(t *testing.T) {
	entries := []core.Entry{
		monthlyTemplate("rent", "c-rent", -50000),
		{
			ID: "bonus", Type: core.EntryOneTimeProjection, CategoryID: "c-sal",
			ProjectedDate: core.NewDate(2024, 2, 1), ProjectedAmount: core.Money{Cents: 500000},
		},
		{
			ID: "coffee", Type: core.EntryActualTransaction, CategoryID: "c-food",
			TransactionDate: core.NewDate(2024, 1, 5), ActualAmount: core.Money{Cents: -450},
		},
	}
	got, err := CategoryTotals(entries, testSnapshot(), FailOnUnknownCategory)
	if err != nil {
		t.Fatalf("CategoryTotals() error: %v", err)
	}
	if len(got) != 1 || got[0].Group != "Rent" {
		t.Errorf("totals = %+v, want only Rent", got)
	}
}

func TestCategoryTotalsUnknownCategoryPolicy(t *testing.T) {
	entries := []core.Entry{monthlyTemplate("ghost", "c-gone", -1200)}

	if _, err := CategoryTotals(entries, testSnapshot(), FailOnUnknownCategory); !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}

	got, err := CategoryTotals(entries, testSnapshot(), LabelUnknownCategory)
	if err != nil {
		t.Fatalf("CategoryTotals() error: %v", err)
	}
	if len(got) != 1 || got[0].Group != UncategorizedLabel {
		t.Errorf("totals = %+v, want single Uncategorized row", got)
	}
}

func TestDailySeries(t *testing.T) {
	actuals := []core.Actual{
		{EntryID: "a1", Date: core.NewDate(2024, 1, 2), Amount: core.Money{Cents: -450}, CategoryID: "c-food", Status: core.StatusUnplanned},
		{EntryID: "a2", Date: core.NewDate(2024, 1, 2), Amount: core.Money{Cents: -1050}, CategoryID: "c-food", Status: core.StatusUnplanned},
		{EntryID: "a3", Date: core.NewDate(2024, 1, 2), Amount: core.Money{Cents: 300000}, CategoryID: "c-sal", Status: core.StatusMatched},
		{EntryID: "a4", Date: core.NewDate(2024, 1, 5), Amount: core.Money{Cents: 50000}, CategoryID: "c-rent", Status: core.StatusMatched},
		{EntryID: "out", Date: core.NewDate(2024, 2, 1), Amount: core.Money{Cents: -100}, CategoryID: "c-food", Status: core.StatusUnplanned},
	}

	got, err := DailySeries(actuals, testSnapshot(), core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31), FailOnUnknownCategory)
	if err != nil {
		t.Fatalf("DailySeries() error: %v", err)
	}
	want := []SeriesPoint{
		{Date: core.NewDate(2024, 1, 2), Group: "Groceries", Value: -15},
		{Date: core.NewDate(2024, 1, 2), Group: "Salary", Value: 3000},
		// Rent is an expense category: sign is normalized negative even
		// though the amount was stored positive.
		{Date: core.NewDate(2024, 1, 5), Group: "Rent", Value: -500},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d points, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Group != want[i].Group || got[i].Value != want[i].Value || !got[i].Date.Equal(want[i].Date.Time) {
			t.Errorf("point %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDailySeriesGapsContributeNoPoints(t *testing.T) {
	actuals := []core.Actual{
		{EntryID: "a1", Date: core.NewDate(2024, 1, 10), Amount: core.Money{Cents: -100}, CategoryID: "c-food", Status: core.StatusUnplanned},
	}
	got, err := DailySeries(actuals, testSnapshot(), core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31), FailOnUnknownCategory)
	if err != nil {
		t.Fatalf("DailySeries() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d points, want 1", len(got))
	}
}

func TestDailySeriesUnknownCategoryPolicy(t *testing.T) {
	actuals := []core.Actual{
		{EntryID: "a1", Date: core.NewDate(2024, 1, 10), Amount: core.Money{Cents: -100}, CategoryID: "c-gone", Status: core.StatusUnplanned},
	}
	if _, err := DailySeries(actuals, testSnapshot(), core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31), FailOnUnknownCategory); !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	got, err := DailySeries(actuals, testSnapshot(), core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31), LabelUnknownCategory)
	if err != nil {
		t.Fatalf("DailySeries() error: %v", err)
	}
	if len(got) != 1 || got[0].Group != UncategorizedLabel {
		t.Errorf("points = %+v, want single Uncategorized point", got)
	}
}
