package storage

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contributi/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "contributi.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seed(t *testing.T, repo *SQLiteRepository, name string, amount float64, at time.Time) core.Contribution {
	t.Helper()
	c, err := repo.CreateContribution(context.Background(), core.NewContribution(name, amount, "", at))
	require.NoError(t, err)
	return c
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contributi.db")

	first, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	seed(t, first, "Alice", 10, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, first.Close())

	second, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	defer second.Close()

	all, err := second.ListContributions(context.Background(), core.AllMonths())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateAndGetContribution(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	in := core.NewContribution("Alice", 50, "March share", time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC))
	created, err := repo.CreateContribution(ctx, in)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := repo.GetContribution(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, 50.0, got.Amount)
	assert.Equal(t, "2024-03-15", got.Date.String())
	assert.Equal(t, core.MonthKey("03-2024"), got.MonthYear)
	assert.Equal(t, core.MonthKeyOf(got.Date.Time), got.MonthYear)
	assert.Equal(t, "March share", got.Details)

	_, err = repo.GetContribution(ctx, created.ID+100)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListOrdersByDateThenID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	late := seed(t, repo, "Bob", 5, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
	early := seed(t, repo, "Alice", 7, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
	sameDay := seed(t, repo, "Carol", 3, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
	seed(t, repo, "Dave", 1, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))

	got, err := repo.ListContributions(ctx, core.ForMonth("03-2024"))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{early.ID, late.ID, sameDay.ID}, []int64{got[0].ID, got[1].ID, got[2].ID})

	all, err := repo.ListContributions(ctx, core.AllMonths())
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestSummaryMatchesGroupedList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	march := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	seed(t, repo, "Alice", 50, march)
	seed(t, repo, "Alice", 30, march)
	seed(t, repo, "Bob", 12.5, march)
	seed(t, repo, "alice", 1, march)
	seed(t, repo, "Alice", 99, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))

	filter := core.ForMonth("03-2024")
	list, err := repo.ListContributions(ctx, filter)
	require.NoError(t, err)
	summary, err := repo.SummarizeContributions(ctx, filter)
	require.NoError(t, err)

	byName := func(rows []core.PersonTotal) []core.PersonTotal {
		sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
		return rows
	}
	assert.Equal(t, byName(core.Summarize(list)), byName(summary))

	totals := map[string]float64{}
	for _, row := range summary {
		totals[row.Name] = row.Total
	}
	assert.Equal(t, 80.0, totals["Alice"])
	assert.Equal(t, 1.0, totals["alice"])
	assert.Equal(t, 12.5, totals["Bob"])
}

func TestEmptyMonthYieldsEmptyResults(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seed(t, repo, "Alice", 50, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))

	list, err := repo.ListContributions(ctx, core.ForMonth("01-2020"))
	require.NoError(t, err)
	assert.Empty(t, list)

	summary, err := repo.SummarizeContributions(ctx, core.ForMonth("01-2020"))
	require.NoError(t, err)
	assert.Empty(t, summary)
}

func TestDeleteContribution(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	keep := seed(t, repo, "Alice", 50, at)
	gone := seed(t, repo, "Bob", 20, at)

	require.NoError(t, repo.DeleteContribution(ctx, gone.ID))

	all, err := repo.ListContributions(ctx, core.AllMonths())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep.ID, all[0].ID)

	err = repo.DeleteContribution(ctx, gone.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	all, err = repo.ListContributions(ctx, core.AllMonths())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetOrCreateAdmin(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.GetOrCreateAdmin(ctx, "admin")
	require.NoError(t, err)
	second, err := repo.GetOrCreateAdmin(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	n, err := repo.CountAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetAdmin(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Username)

	_, err = repo.GetAdmin(ctx, first.ID+1)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
