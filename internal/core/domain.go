package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	FreqNone    Frequency = "none"
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
	FreqYearly  Frequency = "yearly"
)

const (
	EntryRecurringTemplate EntryType = "recurring_template"
	EntryOneTimeProjection EntryType = "one_time_projection"
	EntryActualTransaction EntryType = "actual_transaction"
	EntryCancellation      EntryType = "cancellation"
)

const (
	StatusProjected OccurrenceStatus = "projected"
	StatusFulfilled OccurrenceStatus = "fulfilled"
	StatusMissed    OccurrenceStatus = "missed"

	StatusMatched   ActualStatus = "matched"
	StatusUnplanned ActualStatus = "unplanned"
)

type (
	Frequency string

	EntryType string

	OccurrenceStatus string

	ActualStatus string

	// Date is a calendar day with no time-of-day or timezone component.
	// All dates crossing the storage boundary are normalized to UTC midnight.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Category struct {
		ID          string
		Name        string
		Description string
		IsPos       bool // income when true, expense when false
	}

	Account struct {
		ID      string
		Name    string
		Balance Money
	}

	Debt struct {
		ID      string
		Name    string
		Balance Money
	}

	Scenario struct {
		ID          string
		Name        string
		Description string
		CreatedAt   time.Time
	}

	// RecurrenceRule describes how a recurring template repeats.
	// At most one of Until and Count may bound the series; with neither set
	// the series is open-ended and bounded only by the query window.
	RecurrenceRule struct {
		Frequency   Frequency
		Interval    int
		SeriesStart Date
		Until       Date // zero date means unbounded
		Count       int  // zero means unbounded
	}

	// Entry is the tagged union stored by the document store. Type selects
	// which of the variant field groups is meaningful.
	Entry struct {
		ID          string
		Type        EntryType
		ScenarioID  string // empty means the base timeline
		CategoryID  string
		AccountID   string
		Description string

		// recurring_template
		Rule            RecurrenceRule
		ProjectedAmount Money // shared with one_time_projection

		// one_time_projection
		ProjectedDate Date

		// actual_transaction
		TransactionDate     Date
		ActualAmount        Money
		LinkedProjectionID  string // shared with cancellation
		LinkedProjectedDate Date   // projected date of the occurrence this actual fulfils

		// cancellation
		CancellationDate Date
	}

	// Occurrence is a single dated instance derived from a template or
	// one-off projection. Occurrences are computed per query and never stored.
	Occurrence struct {
		SourceEntryID string
		ScheduledDate Date
		Amount        Money
		CategoryID    string
		AccountID     string
		ScenarioID    string
		Status        OccurrenceStatus
	}

	// Actual is an actual_transaction annotated by reconciliation.
	Actual struct {
		EntryID    string
		Date       Date
		Amount     Money
		CategoryID string
		AccountID  string
		ScenarioID string
		Status     ActualStatus
	}
)

var (
	ErrInvalidRule             = errors.New("invalid recurrence rule")
	ErrDuplicateID             = errors.New("duplicate entry id")
	ErrDuplicateReconciliation = errors.New("duplicate reconciliation")
	ErrUnknownCategory         = errors.New("unknown category")

	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category id")
	ErrUnknownEntryType = errors.New("unknown entry type")
	ErrNotFound         = errors.New("not found")
)

// NewDate creates a Date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary instant to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MarshalJSON renders the date as a plain YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts a YYYY-MM-DD string; empty means the zero date.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// AddMonths returns the date n months later, clamping the day of month to
// the last valid day of the target month (Jan 31 + 1 month is Feb 28/29).
func (d Date) AddMonths(n int) Date {
	y, m, day := d.Date()
	target := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := daysInMonth(target.Year(), target.Month())
	if day > last {
		day = last
	}
	return NewDate(target.Year(), int(target.Month()), day)
}

// AddYears returns the date n years later, clamping Feb 29 to Feb 28 on
// non-leap years.
func (d Date) AddYears(n int) Date {
	y, m, day := d.Date()
	last := daysInMonth(y+n, m)
	if day > last {
		day = last
	}
	return NewDate(y+n, int(m), day)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (f Frequency) Valid() bool {
	switch f {
	case FreqNone, FreqDaily, FreqWeekly, FreqMonthly, FreqYearly:
		return true
	default:
		return false
	}
}

func (r RecurrenceRule) Validate() error {
	if !r.Frequency.Valid() {
		return ErrInvalidRule
	}
	if r.Interval < 1 {
		return ErrInvalidRule
	}
	if err := r.SeriesStart.Validate(); err != nil {
		return ErrInvalidRule
	}
	if !r.Until.IsZero() && r.Count > 0 {
		// At most one terminal bound.
		return ErrInvalidRule
	}
	return nil
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return errors.New("entry must have an id")
	}
	switch e.Type {
	case EntryRecurringTemplate:
		if err := e.Rule.Validate(); err != nil {
			return err
		}
		if e.CategoryID == "" {
			return ErrEmptyCategory
		}
		if e.ProjectedAmount.Cents == 0 {
			return ErrInvalidAmount
		}
	case EntryOneTimeProjection:
		if err := e.ProjectedDate.Validate(); err != nil {
			return err
		}
		if e.CategoryID == "" {
			return ErrEmptyCategory
		}
		if e.ProjectedAmount.Cents == 0 {
			return ErrInvalidAmount
		}
	case EntryActualTransaction:
		if err := e.TransactionDate.Validate(); err != nil {
			return err
		}
		if e.CategoryID == "" {
			return ErrEmptyCategory
		}
		if e.ActualAmount.Cents == 0 {
			return ErrInvalidAmount
		}
	case EntryCancellation:
		if e.LinkedProjectionID == "" {
			return errors.New("cancellation must reference a projection")
		}
		if err := e.CancellationDate.Validate(); err != nil {
			return err
		}
	default:
		return ErrUnknownEntryType
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}
