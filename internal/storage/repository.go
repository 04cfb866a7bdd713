package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"contributi/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// DSN adds the pragmas every connection needs to a database path.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// NewSQLiteRepository opens the database at dbPath, creating its directory
// and schema when missing.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateContribution stores c and returns it with its assigned ID.
func (r *SQLiteRepository) CreateContribution(ctx context.Context, c core.Contribution) (core.Contribution, error) {
	id, err := r.queries.CreateContribution(ctx, CreateContributionParams{
		Name:      c.Name,
		Amount:    c.Amount,
		MonthYear: c.MonthYear.String(),
		Date:      c.Date.String(),
		Details:   sql.NullString{String: c.Details, Valid: c.Details != ""},
	})
	if err != nil {
		return core.Contribution{}, fmt.Errorf("create contribution: %w", err)
	}
	c.ID = id

	slog.InfoContext(ctx, "Contribution saved to SQLite",
		"id", c.ID,
		"name", c.Name,
		"amount", c.Amount,
		"month_year", c.MonthYear)

	return c, nil
}

// ListContributions returns the contributions matching f ordered by date.
func (r *SQLiteRepository) ListContributions(ctx context.Context, f core.MonthFilter) ([]core.Contribution, error) {
	var (
		rows []ContributionRow
		err  error
	)
	if f.All {
		rows, err = r.queries.ListContributions(ctx)
	} else {
		rows, err = r.queries.ListContributionsByMonth(ctx, f.Month.String())
	}
	if err != nil {
		return nil, fmt.Errorf("list contributions (month=%s): %w", f.Label(), err)
	}

	out := make([]core.Contribution, 0, len(rows))
	for _, row := range rows {
		c, err := toContribution(row)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// SummarizeContributions returns one total per distinct name matching f.
func (r *SQLiteRepository) SummarizeContributions(ctx context.Context, f core.MonthFilter) ([]core.PersonTotal, error) {
	var (
		rows []PersonTotalRow
		err  error
	)
	if f.All {
		rows, err = r.queries.SumByName(ctx)
	} else {
		rows, err = r.queries.SumByNameForMonth(ctx, f.Month.String())
	}
	if err != nil {
		return nil, fmt.Errorf("summarize contributions (month=%s): %w", f.Label(), err)
	}

	out := make([]core.PersonTotal, len(rows))
	for i, row := range rows {
		out[i] = core.PersonTotal{Name: row.Name, Total: row.TotalAmount}
	}
	return out, nil
}

// GetContribution returns core.ErrNotFound when id does not exist.
func (r *SQLiteRepository) GetContribution(ctx context.Context, id int64) (core.Contribution, error) {
	row, err := r.queries.GetContribution(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Contribution{}, fmt.Errorf("contribution %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Contribution{}, fmt.Errorf("get contribution by id: %w", err)
	}
	return toContribution(row)
}

// DeleteContribution returns core.ErrNotFound when id does not exist.
func (r *SQLiteRepository) DeleteContribution(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteContribution(ctx, id)
	if err != nil {
		return fmt.Errorf("delete contribution: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("contribution %d: %w", id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Contribution deleted from SQLite", "id", id)
	return nil
}

// GetOrCreateAdmin returns the admin with username, creating it first if needed.
func (r *SQLiteRepository) GetOrCreateAdmin(ctx context.Context, username string) (core.Admin, error) {
	created, err := r.queries.InsertAdminIfMissing(ctx, username)
	if err != nil {
		return core.Admin{}, fmt.Errorf("insert admin: %w", err)
	}

	row, err := r.queries.GetAdminByUsername(ctx, username)
	if err != nil {
		return core.Admin{}, fmt.Errorf("get admin by username: %w", err)
	}

	if created > 0 {
		slog.InfoContext(ctx, "Admin created", "id", row.ID, "username", row.Username)
	}
	return core.Admin{ID: row.ID, Username: row.Username}, nil
}

// GetAdmin returns core.ErrNotFound when id does not exist.
func (r *SQLiteRepository) GetAdmin(ctx context.Context, id int64) (core.Admin, error) {
	row, err := r.queries.GetAdmin(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Admin{}, fmt.Errorf("admin %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Admin{}, fmt.Errorf("get admin by id: %w", err)
	}
	return core.Admin{ID: row.ID, Username: row.Username}, nil
}

// CountAdmins returns the number of admin identities.
func (r *SQLiteRepository) CountAdmins(ctx context.Context) (int64, error) {
	n, err := r.queries.CountAdmins(ctx)
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}

func toContribution(row ContributionRow) (core.Contribution, error) {
	date, err := time.Parse(time.DateOnly, row.Date)
	if err != nil {
		return core.Contribution{}, fmt.Errorf("parse date of contribution %d: %w", row.ID, err)
	}
	return core.Contribution{
		ID:        row.ID,
		Name:      row.Name,
		Amount:    row.Amount,
		Date:      core.Date{Time: date},
		MonthYear: core.MonthKey(row.MonthYear),
		Details:   row.Details.String,
	}, nil
}
