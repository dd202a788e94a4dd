package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================
// MOCK DB ADAPTER
// ============================================================

type pgxMockAdapter struct {
	mock pgxmock.PgxPoolIface
}

func (a *pgxMockAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return a.mock.Exec(ctx, sql, args...)
}

func (a *pgxMockAdapter) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return a.mock.Query(ctx, sql, args...)
}

func (a *pgxMockAdapter) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return a.mock.QueryRow(ctx, sql, args...)
}

func (a *pgxMockAdapter) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	return a.mock.BeginTx(ctx, txOptions)
}

func (a *pgxMockAdapter) Close() {
	a.mock.Close()
}

func (a *pgxMockAdapter) Ping(ctx context.Context) error {
	return a.mock.Ping(ctx)
}

func setupMockDB(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRunRepository) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	adapter := &pgxMockAdapter{mock: mock}
	repo := NewPostgresRunRepository(adapter)

	return mock, repo
}

// ============================================================
// CREATE TESTS
// ============================================================

func TestPostgresRunRepository_Create_Success(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()
	now := time.Now()

	run := &Run{
		Network:    []byte(`{"nodes":["A","B"],"edges":[{"from":"A","to":"B","capacity":7}],"source":"A","sink":"B"}`),
		Result:     []byte(`{"max_flow":7,"status":"optimal"}`),
		MaxFlow:    7,
		Status:     "optimal",
		Iterations: 1,
		NodeCount:  2,
		EdgeCount:  1,
		DurationMs: 3,
	}

	rows := pgxmock.NewRows([]string{"id", "created_at"}).
		AddRow("run-123", now)

	mock.ExpectQuery(`INSERT INTO runs`).
		WithArgs(
			run.Network,
			run.Result,
			run.MaxFlow,
			run.Status,
			run.Iterations,
			run.NodeCount,
			run.EdgeCount,
			run.DurationMs,
		).
		WillReturnRows(rows)

	err := repo.Create(ctx, run)

	require.NoError(t, err)
	assert.Equal(t, "run-123", run.ID)
	assert.Equal(t, now, run.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunRepository_Create_Error(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()

	run := &Run{
		Network: []byte(`{}`),
		Result:  []byte(`{}`),
		Status:  "optimal",
	}

	mock.ExpectQuery(`INSERT INTO runs`).
		WithArgs(
			run.Network,
			run.Result,
			run.MaxFlow,
			run.Status,
			run.Iterations,
			run.NodeCount,
			run.EdgeCount,
			run.DurationMs,
		).
		WillReturnError(errors.New("database error"))

	err := repo.Create(ctx, run)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ============================================================
// GET BY ID TESTS
// ============================================================

func TestPostgresRunRepository_GetByID_Success(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()
	now := time.Now()

	rows := pgxmock.NewRows([]string{
		"id", "network", "result", "max_flow", "status",
		"iterations", "node_count", "edge_count", "duration_ms", "created_at",
	}).AddRow(
		"run-123", []byte(`{"nodes":["A","D"]}`), []byte(`{"max_flow":13}`), 13.0, "optimal",
		2, 4, 4, int64(7), now,
	)

	mock.ExpectQuery(`FROM runs\s+WHERE id = \$1`).
		WithArgs("run-123").
		WillReturnRows(rows)

	run, err := repo.GetByID(ctx, "run-123")

	require.NoError(t, err)
	assert.Equal(t, "run-123", run.ID)
	assert.Equal(t, 13.0, run.MaxFlow)
	assert.Equal(t, "optimal", run.Status)
	assert.Equal(t, 2, run.Iterations)
	assert.Equal(t, 4, run.NodeCount)
	assert.Equal(t, 4, run.EdgeCount)
	assert.Equal(t, int64(7), run.DurationMs)
	assert.JSONEq(t, `{"max_flow":13}`, string(run.Result))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunRepository_GetByID_NotFound(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()

	mock.ExpectQuery(`FROM runs\s+WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	run, err := repo.GetByID(ctx, "nonexistent")

	assert.Error(t, err)
	assert.Nil(t, run)
	assert.Equal(t, ErrRunNotFound, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunRepository_GetByID_DatabaseError(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()

	mock.ExpectQuery(`FROM runs\s+WHERE id = \$1`).
		WithArgs("run-123").
		WillReturnError(errors.New("connection lost"))

	run, err := repo.GetByID(ctx, "run-123")

	assert.Error(t, err)
	assert.Nil(t, run)
	assert.Contains(t, err.Error(), "failed to get run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ============================================================
// DELETE TESTS
// ============================================================

func TestPostgresRunRepository_Delete_Success(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM runs WHERE id = \$1`).
		WithArgs("run-123").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(ctx, "run-123")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunRepository_Delete_NotFound(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM runs WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(ctx, "nonexistent")

	assert.Error(t, err)
	assert.Equal(t, ErrRunNotFound, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunRepository_Delete_Error(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM runs WHERE id = \$1`).
		WithArgs("run-123").
		WillReturnError(errors.New("database error"))

	err := repo.Delete(ctx, "run-123")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ============================================================
// LIST TESTS
// ============================================================

func TestPostgresRunRepository_List_Success(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()
	now := time.Now()

	countRows := pgxmock.NewRows([]string{"count"}).AddRow(int64(2))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM runs WHERE TRUE`).
		WillReturnRows(countRows)

	selectRows := pgxmock.NewRows([]string{
		"id", "max_flow", "status", "iterations",
		"node_count", "edge_count", "duration_ms", "created_at",
	}).
		AddRow("run-1", 13.0, "optimal", 2, 4, 4, int64(7), now).
		AddRow("run-2", 7.0, "optimal", 1, 2, 1, int64(3), now)

	mock.ExpectQuery(`FROM runs\s+WHERE TRUE\s+ORDER BY created_at DESC`).
		WithArgs(20, 0).
		WillReturnRows(selectRows)

	opts := &ListOptions{Limit: 20, Offset: 0}
	runs, total, err := repo.List(ctx, opts)

	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, runs, 2)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "run-2", runs[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunRepository_List_WithStatusFilter(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()
	now := time.Now()

	countRows := pgxmock.NewRows([]string{"count"}).AddRow(int64(1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM runs WHERE TRUE AND status = \$1`).
		WithArgs("not_converged").
		WillReturnRows(countRows)

	selectRows := pgxmock.NewRows([]string{
		"id", "max_flow", "status", "iterations",
		"node_count", "edge_count", "duration_ms", "created_at",
	}).
		AddRow("run-3", 4.0, "not_converged", 10, 6, 9, int64(12), now)

	mock.ExpectQuery(`FROM runs\s+WHERE TRUE AND status = \$1`).
		WithArgs("not_converged", 20, 0).
		WillReturnRows(selectRows)

	opts := &ListOptions{
		Limit:  20,
		Offset: 0,
		Filter: &ListFilter{Status: "not_converged"},
	}
	runs, total, err := repo.List(ctx, opts)

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, runs, 1)
	assert.Equal(t, "not_converged", runs[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunRepository_List_WithFlowRange(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()
	minFlow := 5.0
	maxFlow := 50.0

	countRows := pgxmock.NewRows([]string{"count"}).AddRow(int64(0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM runs WHERE TRUE AND max_flow >= \$1 AND max_flow <= \$2`).
		WithArgs(minFlow, maxFlow).
		WillReturnRows(countRows)

	selectRows := pgxmock.NewRows([]string{
		"id", "max_flow", "status", "iterations",
		"node_count", "edge_count", "duration_ms", "created_at",
	})
	mock.ExpectQuery(`FROM runs\s+WHERE TRUE AND max_flow >= \$1 AND max_flow <= \$2`).
		WithArgs(minFlow, maxFlow, 20, 0).
		WillReturnRows(selectRows)

	opts := &ListOptions{
		Limit:  20,
		Filter: &ListFilter{MinFlow: &minFlow, MaxFlow: &maxFlow},
	}
	runs, total, err := repo.List(ctx, opts)

	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, runs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunRepository_List_SortByMaxFlow(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()

	countRows := pgxmock.NewRows([]string{"count"}).AddRow(int64(0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM runs WHERE TRUE`).
		WillReturnRows(countRows)

	selectRows := pgxmock.NewRows([]string{
		"id", "max_flow", "status", "iterations",
		"node_count", "edge_count", "duration_ms", "created_at",
	})
	mock.ExpectQuery(`FROM runs\s+WHERE TRUE\s+ORDER BY max_flow DESC`).
		WithArgs(20, 0).
		WillReturnRows(selectRows)

	opts := &ListOptions{Limit: 20, Sort: SortByMaxFlowDesc}
	_, _, err := repo.List(ctx, opts)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunRepository_List_DefaultOptions(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()

	countRows := pgxmock.NewRows([]string{"count"}).AddRow(int64(0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM runs WHERE TRUE`).
		WillReturnRows(countRows)

	selectRows := pgxmock.NewRows([]string{
		"id", "max_flow", "status", "iterations",
		"node_count", "edge_count", "duration_ms", "created_at",
	})
	mock.ExpectQuery(`FROM runs\s+WHERE TRUE\s+ORDER BY created_at DESC`).
		WithArgs(20, 0).
		WillReturnRows(selectRows)

	runs, total, err := repo.List(ctx, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, runs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunRepository_List_LimitCapped(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()

	countRows := pgxmock.NewRows([]string{"count"}).AddRow(int64(0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM runs WHERE TRUE`).
		WillReturnRows(countRows)

	selectRows := pgxmock.NewRows([]string{
		"id", "max_flow", "status", "iterations",
		"node_count", "edge_count", "duration_ms", "created_at",
	})
	mock.ExpectQuery(`FROM runs\s+WHERE TRUE`).
		WithArgs(100, 0).
		WillReturnRows(selectRows)

	opts := &ListOptions{Limit: 500, Offset: 0}
	_, _, err := repo.List(ctx, opts)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunRepository_List_CountError(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM runs WHERE TRUE`).
		WillReturnError(errors.New("count error"))

	opts := &ListOptions{Limit: 20, Offset: 0}
	runs, total, err := repo.List(ctx, opts)

	assert.Error(t, err)
	assert.Nil(t, runs)
	assert.Equal(t, int64(0), total)
	assert.Contains(t, err.Error(), "failed to count runs")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunRepository_List_SelectError(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()

	countRows := pgxmock.NewRows([]string{"count"}).AddRow(int64(5))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM runs WHERE TRUE`).
		WillReturnRows(countRows)

	mock.ExpectQuery(`FROM runs\s+WHERE TRUE`).
		WithArgs(20, 0).
		WillReturnError(errors.New("select error"))

	opts := &ListOptions{Limit: 20, Offset: 0}
	runs, total, err := repo.List(ctx, opts)

	assert.Error(t, err)
	assert.Nil(t, runs)
	assert.Equal(t, int64(0), total)
	assert.Contains(t, err.Error(), "failed to list runs")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ============================================================
// STATISTICS TESTS
// ============================================================

func TestPostgresRunRepository_Statistics_Success(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()
	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	statsRows := pgxmock.NewRows([]string{"count", "avg_flow", "avg_iterations", "avg_duration"}).
		AddRow(int64(5), 42.5, 3.2, 120.0)
	mock.ExpectQuery(`COALESCE\(AVG\(max_flow\), 0\)`).
		WillReturnRows(statsRows)

	statusRows := pgxmock.NewRows([]string{"status", "count"}).
		AddRow("optimal", int64(4)).
		AddRow("not_converged", int64(1))
	mock.ExpectQuery(`GROUP BY status`).
		WillReturnRows(statusRows)

	dailyRows := pgxmock.NewRows([]string{"date", "count", "total_flow"}).
		AddRow(day, 3, 39.0).
		AddRow(day.AddDate(0, 0, -1), 2, 173.5)
	mock.ExpectQuery(`GROUP BY DATE\(created_at\)`).
		WillReturnRows(dailyRows)

	stats, err := repo.Statistics(ctx, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalRuns)
	assert.Equal(t, 42.5, stats.AverageMaxFlow)
	assert.Equal(t, 3.2, stats.AverageIterations)
	assert.Equal(t, 120.0, stats.AverageDurationMs)
	assert.Equal(t, int64(4), stats.RunsByStatus["optimal"])
	assert.Equal(t, int64(1), stats.RunsByStatus["not_converged"])
	require.Len(t, stats.DailyStats, 2)
	assert.Equal(t, "2025-03-14", stats.DailyStats[0].Date)
	assert.Equal(t, 3, stats.DailyStats[0].Count)
	assert.Equal(t, 39.0, stats.DailyStats[0].TotalFlow)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunRepository_Statistics_WithPeriod(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	statsRows := pgxmock.NewRows([]string{"count", "avg_flow", "avg_iterations", "avg_duration"}).
		AddRow(int64(0), 0.0, 0.0, 0.0)
	mock.ExpectQuery(`WHERE TRUE AND created_at >= \$1 AND created_at <= \$2`).
		WithArgs(start, end).
		WillReturnRows(statsRows)

	statusRows := pgxmock.NewRows([]string{"status", "count"})
	mock.ExpectQuery(`GROUP BY status`).
		WithArgs(start, end).
		WillReturnRows(statusRows)

	dailyRows := pgxmock.NewRows([]string{"date", "count", "total_flow"})
	mock.ExpectQuery(`GROUP BY DATE\(created_at\)`).
		WithArgs(start, end).
		WillReturnRows(dailyRows)

	stats, err := repo.Statistics(ctx, &start, &end)

	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalRuns)
	assert.Empty(t, stats.RunsByStatus)
	assert.Empty(t, stats.DailyStats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunRepository_Statistics_Error(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	ctx := context.Background()

	mock.ExpectQuery(`COALESCE\(AVG\(max_flow\), 0\)`).
		WillReturnError(errors.New("database error"))

	stats, err := repo.Statistics(ctx, nil, nil)

	assert.Error(t, err)
	assert.Nil(t, stats)
	assert.Contains(t, err.Error(), "failed to get stats")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ============================================================
// CONSTRUCTOR TEST
// ============================================================

func TestNewPostgresRunRepository(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	adapter := &pgxMockAdapter{mock: mock}
	repo := NewPostgresRunRepository(adapter)

	assert.NotNil(t, repo)
}
