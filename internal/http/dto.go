package http

import (
	"fmt"

	"cashflow/internal/core"
	"cashflow/internal/engine"
	"cashflow/internal/services"
)

// entryPayload is the wire form of a ledger entry. Amounts travel as
// integer cents; the *_amount string fields accept decimal input
// ("1.234,56" or "1234.56") as an alternative on writes.
type entryPayload struct {
	ID          string `json:"id,omitempty"`
	Type        string `json:"type"`
	ScenarioID  string `json:"scenario_id,omitempty"`
	CategoryID  string `json:"category_id,omitempty"`
	AccountID   string `json:"account_id,omitempty"`
	Description string `json:"description,omitempty"`

	Rule *rulePayload `json:"rule,omitempty"`

	ProjectedAmountCents int64     `json:"projected_amount_cents,omitempty"`
	ProjectedAmount      string    `json:"projected_amount,omitempty"`
	ProjectedDate        core.Date `json:"projected_date,omitempty"`

	TransactionDate     core.Date `json:"transaction_date,omitempty"`
	ActualAmountCents   int64     `json:"actual_amount_cents,omitempty"`
	ActualAmount        string    `json:"actual_amount,omitempty"`
	LinkedProjectionID  string    `json:"linked_projection_id,omitempty"`
	LinkedProjectedDate core.Date `json:"linked_projected_date,omitempty"`

	CancellationDate core.Date `json:"cancellation_date,omitempty"`
}

type rulePayload struct {
	Frequency   string    `json:"frequency"`
	Interval    int       `json:"interval"`
	SeriesStart core.Date `json:"series_start"`
	Until       core.Date `json:"until,omitempty"`
	Count       int       `json:"count,omitempty"`
}

func (p entryPayload) toEntry() (core.Entry, error) {
	e := core.Entry{
		ID:          p.ID,
		Type:        core.EntryType(p.Type),
		ScenarioID:  p.ScenarioID,
		CategoryID:  p.CategoryID,
		AccountID:   p.AccountID,
		Description: p.Description,

		ProjectedDate:       p.ProjectedDate,
		TransactionDate:     p.TransactionDate,
		LinkedProjectionID:  p.LinkedProjectionID,
		LinkedProjectedDate: p.LinkedProjectedDate,
		CancellationDate:    p.CancellationDate,
	}

	if p.Rule != nil {
		e.Rule = core.RecurrenceRule{
			Frequency:   core.Frequency(p.Rule.Frequency),
			Interval:    p.Rule.Interval,
			SeriesStart: p.Rule.SeriesStart,
			Until:       p.Rule.Until,
			Count:       p.Rule.Count,
		}
	}

	projected, err := amountCents(p.ProjectedAmount, p.ProjectedAmountCents)
	if err != nil {
		return core.Entry{}, fmt.Errorf("projected amount: %w", err)
	}
	e.ProjectedAmount = core.Money{Cents: projected}

	actual, err := amountCents(p.ActualAmount, p.ActualAmountCents)
	if err != nil {
		return core.Entry{}, fmt.Errorf("actual amount: %w", err)
	}
	e.ActualAmount = core.Money{Cents: actual}

	return e, nil
}

func amountCents(decimal string, cents int64) (int64, error) {
	if decimal == "" {
		return cents, nil
	}
	return core.ParseDecimalToCents(decimal)
}

func fromEntry(e core.Entry) entryPayload {
	p := entryPayload{
		ID:          e.ID,
		Type:        string(e.Type),
		ScenarioID:  e.ScenarioID,
		CategoryID:  e.CategoryID,
		AccountID:   e.AccountID,
		Description: e.Description,
	}

	switch e.Type {
	case core.EntryRecurringTemplate:
		p.Rule = &rulePayload{
			Frequency:   string(e.Rule.Frequency),
			Interval:    e.Rule.Interval,
			SeriesStart: e.Rule.SeriesStart,
			Until:       e.Rule.Until,
			Count:       e.Rule.Count,
		}
		p.ProjectedAmountCents = e.ProjectedAmount.Cents
	case core.EntryOneTimeProjection:
		p.ProjectedAmountCents = e.ProjectedAmount.Cents
		p.ProjectedDate = e.ProjectedDate
	case core.EntryActualTransaction:
		p.TransactionDate = e.TransactionDate
		p.ActualAmountCents = e.ActualAmount.Cents
		p.LinkedProjectionID = e.LinkedProjectionID
		p.LinkedProjectedDate = e.LinkedProjectedDate
	case core.EntryCancellation:
		p.LinkedProjectionID = e.LinkedProjectionID
		p.CancellationDate = e.CancellationDate
	}

	return p
}

type occurrencePayload struct {
	SourceEntryID string    `json:"source_entry_id"`
	ScheduledDate core.Date `json:"scheduled_date"`
	AmountCents   int64     `json:"amount_cents"`
	CategoryID    string    `json:"category_id"`
	AccountID     string    `json:"account_id,omitempty"`
	ScenarioID    string    `json:"scenario_id,omitempty"`
	Status        string    `json:"status"`
}

type actualPayload struct {
	EntryID     string    `json:"entry_id"`
	Date        core.Date `json:"date"`
	AmountCents int64     `json:"amount_cents"`
	CategoryID  string    `json:"category_id"`
	AccountID   string    `json:"account_id,omitempty"`
	ScenarioID  string    `json:"scenario_id,omitempty"`
	Status      string    `json:"status"`
}

type projectionResponse struct {
	ScenarioID  string                 `json:"scenario_id,omitempty"`
	WindowStart core.Date              `json:"window_start"`
	WindowEnd   core.Date              `json:"window_end"`
	AsOf        core.Date              `json:"as_of"`
	Occurrences []occurrencePayload    `json:"occurrences"`
	Actuals     []actualPayload        `json:"actuals"`
	Categories  []engine.CategoryTotal `json:"categories"`
	Timeline    []engine.SeriesPoint   `json:"timeline"`
}

func fromProjection(p services.Projection) projectionResponse {
	resp := projectionResponse{
		ScenarioID:  p.ScenarioID,
		WindowStart: p.WindowStart,
		WindowEnd:   p.WindowEnd,
		AsOf:        p.AsOf,
		Occurrences: make([]occurrencePayload, 0, len(p.Occurrences)),
		Actuals:     make([]actualPayload, 0, len(p.Actuals)),
		Categories:  p.Categories,
		Timeline:    p.Timeline,
	}
	if resp.Categories == nil {
		resp.Categories = []engine.CategoryTotal{}
	}
	if resp.Timeline == nil {
		resp.Timeline = []engine.SeriesPoint{}
	}
	for _, o := range p.Occurrences {
		resp.Occurrences = append(resp.Occurrences, occurrencePayload{
			SourceEntryID: o.SourceEntryID,
			ScheduledDate: o.ScheduledDate,
			AmountCents:   o.Amount.Cents,
			CategoryID:    o.CategoryID,
			AccountID:     o.AccountID,
			ScenarioID:    o.ScenarioID,
			Status:        string(o.Status),
		})
	}
	for _, a := range p.Actuals {
		resp.Actuals = append(resp.Actuals, actualPayload{
			EntryID:     a.EntryID,
			Date:        a.Date,
			AmountCents: a.Amount.Cents,
			CategoryID:  a.CategoryID,
			AccountID:   a.AccountID,
			ScenarioID:  a.ScenarioID,
			Status:      string(a.Status),
		})
	}
	return resp
}

type scenarioPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type categoryPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPos       bool   `json:"isPos"`
}

type balancePayload struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BalanceCents int64  `json:"balance_cents"`
}
