package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the raw SQL for the contributions and admins tables.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// ContributionRow mirrors one row of the contributions table.
type ContributionRow struct {
	ID        int64
	Name      string
	Amount    float64
	MonthYear string
	Date      string
	Details   sql.NullString
}

type PersonTotalRow struct {
	Name        string
	TotalAmount float64
}

type AdminRow struct {
	ID       int64
	Username string
}

type CreateContributionParams struct {
	Name      string
	Amount    float64
	MonthYear string
	Date      string
	Details   sql.NullString
}

const createContribution = `
INSERT INTO contributions (name, amount, month_year, date, details)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateContribution(ctx context.Context, arg CreateContributionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createContribution,
		arg.Name,
		arg.Amount,
		arg.MonthYear,
		arg.Date,
		arg.Details,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const contributionColumns = `id, name, amount, month_year, date, details`

const getContribution = `SELECT ` + contributionColumns + ` FROM contributions WHERE id = ?`

func (q *Queries) GetContribution(ctx context.Context, id int64) (ContributionRow, error) {
	row := q.db.QueryRowContext(ctx, getContribution, id)
	var i ContributionRow
	err := row.Scan(&i.ID, &i.Name, &i.Amount, &i.MonthYear, &i.Date, &i.Details)
	return i, err
}

const listContributions = `SELECT ` + contributionColumns + ` FROM contributions ORDER BY date, id`

func (q *Queries) ListContributions(ctx context.Context) ([]ContributionRow, error) {
	return q.queryContributions(ctx, listContributions)
}

const listContributionsByMonth = `SELECT ` + contributionColumns + `
FROM contributions
WHERE month_year = ?
ORDER BY date, id`

func (q *Queries) ListContributionsByMonth(ctx context.Context, monthYear string) ([]ContributionRow, error) {
	return q.queryContributions(ctx, listContributionsByMonth, monthYear)
}

func (q *Queries) queryContributions(ctx context.Context, query string, args ...any) ([]ContributionRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ContributionRow{}
	for rows.Next() {
		var i ContributionRow
		if err := rows.Scan(&i.ID, &i.Name, &i.Amount, &i.MonthYear, &i.Date, &i.Details); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const sumByName = `
SELECT name, SUM(amount) AS total_amount
FROM contributions
GROUP BY name`

func (q *Queries) SumByName(ctx context.Context) ([]PersonTotalRow, error) {
	return q.queryTotals(ctx, sumByName)
}

const sumByNameForMonth = `
SELECT name, SUM(amount) AS total_amount
FROM contributions
WHERE month_year = ?
GROUP BY name`

func (q *Queries) SumByNameForMonth(ctx context.Context, monthYear string) ([]PersonTotalRow, error) {
	return q.queryTotals(ctx, sumByNameForMonth, monthYear)
}

func (q *Queries) queryTotals(ctx context.Context, query string, args ...any) ([]PersonTotalRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []PersonTotalRow{}
	for rows.Next() {
		var i PersonTotalRow
		if err := rows.Scan(&i.Name, &i.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteContribution = `DELETE FROM contributions WHERE id = ?`

// DeleteContribution returns the number of deleted rows.
func (q *Queries) DeleteContribution(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteContribution, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const insertAdminIfMissing = `INSERT INTO admins (username) VALUES (?) ON CONFLICT (username) DO NOTHING`

func (q *Queries) InsertAdminIfMissing(ctx context.Context, username string) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertAdminIfMissing, username)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getAdminByUsername = `SELECT id, username FROM admins WHERE username = ?`

func (q *Queries) GetAdminByUsername(ctx context.Context, username string) (AdminRow, error) {
	row := q.db.QueryRowContext(ctx, getAdminByUsername, username)
	var i AdminRow
	err := row.Scan(&i.ID, &i.Username)
	return i, err
}

const getAdmin = `SELECT id, username FROM admins WHERE id = ?`

func (q *Queries) GetAdmin(ctx context.Context, id int64) (AdminRow, error) {
	row := q.db.QueryRowContext(ctx, getAdmin, id)
	var i AdminRow
	err := row.Scan(&i.ID, &i.Username)
	return i, err
}

const countAdmins = `SELECT COUNT(*) FROM admins`

func (q *Queries) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countAdmins).Scan(&n)
	return n, err
}
