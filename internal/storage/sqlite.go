package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cashflow/internal/core"

	_ "modernc.org/sqlite"
)

const entryColumns = `id, entry_type, scenario_id, category_id, account_id, description,
	frequency, recur_interval, series_start, until_date, occurrence_count, projected_amount_cents,
	projected_date, transaction_date, actual_amount_cents, linked_projection_id, linked_projected_date,
	cancellation_date`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) GetAllEntries(ctx context.Context) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *SQLiteRepository) GetEntry(ctx context.Context, id string) (core.Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, fmt.Errorf("%w: entry %s", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry %s: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) AddEntry(ctx context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entryArgs(e)...)
	if err != nil {
		return fmt.Errorf("insert entry %s: %w", e.ID, err)
	}
	slog.InfoContext(ctx, "Entry saved",
		"id", e.ID,
		"entry_type", string(e.Type),
		"scenario_id", e.ScenarioID)
	return nil
}

func (r *SQLiteRepository) UpdateEntry(ctx context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE entries SET
		entry_type = ?, scenario_id = ?, category_id = ?, account_id = ?, description = ?,
		frequency = ?, recur_interval = ?, series_start = ?, until_date = ?, occurrence_count = ?,
		projected_amount_cents = ?, projected_date = ?, transaction_date = ?, actual_amount_cents = ?,
		linked_projection_id = ?, linked_projected_date = ?, cancellation_date = ?
		WHERE id = ?`,
		append(entryArgs(e)[1:], e.ID)...)
	if err != nil {
		return fmt.Errorf("update entry %s: %w", e.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entry %s: %w", e.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: entry %s", core.ErrNotFound, e.ID)
	}
	return nil
}

func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: entry %s", core.ErrNotFound, id)
	}
	slog.InfoContext(ctx, "Entry deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) GetAllCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, is_pos FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var isPos int
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &isPos); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.IsPos = isPos != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetAllAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, balance_cents FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Balance.Cents); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetAllDebts(ctx context.Context) ([]core.Debt, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, balance_cents FROM debts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query debts: %w", err)
	}
	defer rows.Close()

	var out []core.Debt
	for rows.Next() {
		var d core.Debt
		if err := rows.Scan(&d.ID, &d.Name, &d.Balance.Cents); err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetAllScenarios(ctx context.Context) ([]core.Scenario, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, created_at FROM scenarios ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query scenarios: %w", err)
	}
	defer rows.Close()

	var out []core.Scenario
	for rows.Next() {
		var s core.Scenario
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan scenario: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AddScenario registers a what-if overlay. Not part of the Repository
// boundary the engine depends on; the HTTP surface uses it directly.
func (r *SQLiteRepository) AddScenario(ctx context.Context, s core.Scenario) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scenarios (id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.Name, s.Description, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert scenario %s: %w", s.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetEntriesForProjection(ctx context.Context, scenarioID string) ([]core.Entry, []core.Entry, error) {
	base, err := r.entriesByScenario(ctx, "")
	if err != nil {
		return nil, nil, err
	}
	if scenarioID == "" {
		return base, nil, nil
	}
	overlay, err := r.entriesByScenario(ctx, scenarioID)
	if err != nil {
		return nil, nil, err
	}
	return base, overlay, nil
}

func (r *SQLiteRepository) entriesByScenario(ctx context.Context, scenarioID string) ([]core.Entry, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if scenarioID == "" {
		rows, err = r.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE scenario_id IS NULL OR scenario_id = '' ORDER BY id`)
	} else {
		rows, err = r.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE scenario_id = ? ORDER BY id`, scenarioID)
	}
	if err != nil {
		return nil, fmt.Errorf("query entries for scenario %q: %w", scenarioID, err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// entryArgs flattens an entry into the column order of entryColumns,
// mapping empty optional fields to NULL.
func entryArgs(e core.Entry) []any {
	return []any{
		e.ID,
		string(e.Type),
		nullString(e.ScenarioID),
		e.CategoryID,
		nullString(e.AccountID),
		e.Description,
		nullString(string(e.Rule.Frequency)),
		nullInt(int64(e.Rule.Interval)),
		nullDate(e.Rule.SeriesStart),
		nullDate(e.Rule.Until),
		nullInt(int64(e.Rule.Count)),
		nullInt(e.ProjectedAmount.Cents),
		nullDate(e.ProjectedDate),
		nullDate(e.TransactionDate),
		nullInt(e.ActualAmount.Cents),
		nullString(e.LinkedProjectionID),
		nullDate(e.LinkedProjectedDate),
		nullDate(e.CancellationDate),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (core.Entry, error) {
	var e core.Entry
	var entryType string
	var scenarioID, accountID, frequency, linkedID sql.NullString
	var interval, count, projCents, actualCents sql.NullInt64
	var seriesStart, until, projDate, txDate, linkedDate, cancelDate sql.NullString
	err := row.Scan(&e.ID, &entryType, &scenarioID, &e.CategoryID, &accountID, &e.Description,
		&frequency, &interval, &seriesStart, &until, &count, &projCents,
		&projDate, &txDate, &actualCents, &linkedID, &linkedDate,
		&cancelDate)
	if err != nil {
		return core.Entry{}, err
	}

	e.Type = core.EntryType(entryType)
	e.ScenarioID = scenarioID.String
	e.AccountID = accountID.String
	e.Rule.Frequency = core.Frequency(frequency.String)
	e.Rule.Interval = int(interval.Int64)
	e.Rule.Count = int(count.Int64)
	e.ProjectedAmount.Cents = projCents.Int64
	e.ActualAmount.Cents = actualCents.Int64
	e.LinkedProjectionID = linkedID.String

	for _, f := range []struct {
		src sql.NullString
		dst *core.Date
	}{
		{seriesStart, &e.Rule.SeriesStart},
		{until, &e.Rule.Until},
		{projDate, &e.ProjectedDate},
		{txDate, &e.TransactionDate},
		{linkedDate, &e.LinkedProjectedDate},
		{cancelDate, &e.CancellationDate},
	} {
		if !f.src.Valid || f.src.String == "" {
			continue
		}
		d, err := core.ParseDate(f.src.String)
		if err != nil {
			return core.Entry{}, fmt.Errorf("parse stored date %q: %w", f.src.String, err)
		}
		*f.dst = d
	}
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]core.Entry, error) {
	var out []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}

func nullDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}
