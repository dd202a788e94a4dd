package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"flownet/pkg/database"
	"flownet/pkg/telemetry"
)

// PostgresRunRepository PostgreSQL реализация
type PostgresRunRepository struct {
	db database.DB
}

// NewPostgresRunRepository создаёт новый репозиторий
func NewPostgresRunRepository(db database.DB) *PostgresRunRepository {
	return &PostgresRunRepository{db: db}
}

func (r *PostgresRunRepository) Create(ctx context.Context, run *Run) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRunRepository.Create")
	defer span.End()

	query := `
		INSERT INTO runs (
			network, result, max_flow, status,
			iterations, node_count, edge_count, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		run.Network,
		run.Result,
		run.MaxFlow,
		run.Status,
		run.Iterations,
		run.NodeCount,
		run.EdgeCount,
		run.DurationMs,
	).Scan(&run.ID, &run.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

func (r *PostgresRunRepository) GetByID(ctx context.Context, id string) (*Run, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRunRepository.GetByID")
	defer span.End()

	query := `
		SELECT
			id, network, result, max_flow, status,
			iterations, node_count, edge_count, duration_ms, created_at
		FROM runs
		WHERE id = $1
	`

	run := &Run{}

	err := r.db.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.Network,
		&run.Result,
		&run.MaxFlow,
		&run.Status,
		&run.Iterations,
		&run.NodeCount,
		&run.EdgeCount,
		&run.DurationMs,
		&run.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

func (r *PostgresRunRepository) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRunRepository.Delete")
	defer span.End()

	query := `DELETE FROM runs WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrRunNotFound
	}

	return nil
}

func (r *PostgresRunRepository) List(
	ctx context.Context,
	opts *ListOptions,
) ([]*RunSummary, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRunRepository.List")
	defer span.End()

	if opts == nil {
		opts = &ListOptions{Limit: 20, Offset: 0, Sort: SortByCreatedDesc}
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}

	// Строим WHERE clause
	where, args := r.buildWhereClause(opts.Filter)

	// Получаем общее количество
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM runs WHERE %s`, where)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count runs: %w", err)
	}

	// Получаем записи
	orderBy := r.buildOrderBy(opts.Sort)

	selectQuery := fmt.Sprintf(`
		SELECT
			id, max_flow, status, iterations,
			node_count, edge_count, duration_ms, created_at
		FROM runs
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, where, orderBy, len(args)+1, len(args)+2)

	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []*RunSummary
	for rows.Next() {
		summary := &RunSummary{}

		err := rows.Scan(
			&summary.ID,
			&summary.MaxFlow,
			&summary.Status,
			&summary.Iterations,
			&summary.NodeCount,
			&summary.EdgeCount,
			&summary.DurationMs,
			&summary.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan run: %w", err)
		}

		results = append(results, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	return results, total, nil
}

func (r *PostgresRunRepository) buildWhereClause(filter *ListFilter) (string, []any) {
	conditions := []string{"TRUE"}
	var args []any
	argNum := 1

	if filter != nil {
		if filter.Status != "" {
			conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
			args = append(args, filter.Status)
			argNum++
		}

		if filter.MinFlow != nil {
			conditions = append(conditions, fmt.Sprintf("max_flow >= $%d", argNum))
			args = append(args, *filter.MinFlow)
			argNum++
		}

		if filter.MaxFlow != nil {
			conditions = append(conditions, fmt.Sprintf("max_flow <= $%d", argNum))
			args = append(args, *filter.MaxFlow)
			argNum++
		}

		if filter.StartTime != nil {
			conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argNum))
			args = append(args, *filter.StartTime)
			argNum++
		}

		if filter.EndTime != nil {
			conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argNum))
			args = append(args, *filter.EndTime)
		}
	}

	return strings.Join(conditions, " AND "), args
}

func (r *PostgresRunRepository) buildOrderBy(sort SortOrder) string {
	switch sort {
	case SortByCreatedAsc:
		return "created_at ASC"
	case SortByMaxFlowDesc:
		return "max_flow DESC"
	case SortByMaxFlowAsc:
		return "max_flow ASC"
	case SortByIterationsDesc:
		return "iterations DESC"
	case SortByIterationsAsc:
		return "iterations ASC"
	case SortByDurationDesc:
		return "duration_ms DESC"
	case SortByDurationAsc:
		return "duration_ms ASC"
	default:
		return "created_at DESC"
	}
}

func (r *PostgresRunRepository) Statistics(
	ctx context.Context,
	startTime, endTime *time.Time,
) (*RunStatistics, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRunRepository.Statistics")
	defer span.End()

	stats := &RunStatistics{
		RunsByStatus: make(map[string]int64),
		DailyStats:   []DailyRunStats{},
	}

	// Базовые условия
	where := "TRUE"
	var args []any
	argNum := 1

	if startTime != nil {
		where += fmt.Sprintf(" AND created_at >= $%d", argNum)
		args = append(args, *startTime)
		argNum++
	}
	if endTime != nil {
		where += fmt.Sprintf(" AND created_at <= $%d", argNum)
		args = append(args, *endTime)
	}

	// Общая статистика
	statsQuery := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COALESCE(AVG(max_flow), 0),
			COALESCE(AVG(iterations), 0),
			COALESCE(AVG(duration_ms), 0)
		FROM runs
		WHERE %s
	`, where)

	err := r.db.QueryRow(ctx, statsQuery, args...).Scan(
		&stats.TotalRuns,
		&stats.AverageMaxFlow,
		&stats.AverageIterations,
		&stats.AverageDurationMs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	// Статистика по статусам
	statusQuery := fmt.Sprintf(`
		SELECT status, COUNT(*)
		FROM runs
		WHERE %s
		GROUP BY status
	`, where)

	statusRows, err := r.db.Query(ctx, statusQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get status stats: %w", err)
	}
	defer statusRows.Close()

	for statusRows.Next() {
		var status string
		var count int64
		if err := statusRows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status stats: %w", err)
		}
		stats.RunsByStatus[status] = count
	}

	// Дневная статистика
	dailyQuery := fmt.Sprintf(`
		SELECT
			DATE(created_at) as date,
			COUNT(*) as count,
			COALESCE(SUM(max_flow), 0) as total_flow
		FROM runs
		WHERE %s
		GROUP BY DATE(created_at)
		ORDER BY date DESC
		LIMIT 30
	`, where)

	dailyRows, err := r.db.Query(ctx, dailyQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}
	defer dailyRows.Close()

	for dailyRows.Next() {
		var ds DailyRunStats
		var date time.Time
		if err := dailyRows.Scan(&date, &ds.Count, &ds.TotalFlow); err != nil {
			return nil, fmt.Errorf("failed to scan daily stats: %w", err)
		}
		ds.Date = date.Format("2006-01-02")
		stats.DailyStats = append(stats.DailyStats, ds)
	}

	return stats, nil
}
