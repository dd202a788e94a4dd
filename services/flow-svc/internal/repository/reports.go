package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"flownet/pkg/database"
	"flownet/pkg/telemetry"
)

// PostgresReportRepository хранилище отчётов на PostgreSQL
type PostgresReportRepository struct {
	db database.DB
}

// NewPostgresReportRepository создаёт новый репозиторий
func NewPostgresReportRepository(db database.DB) *PostgresReportRepository {
	return &PostgresReportRepository{db: db}
}

// Create сохраняет новый отчёт
func (r *PostgresReportRepository) Create(ctx context.Context, params *CreateReportParams) (*StoredReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresReportRepository.Create")
	defer span.End()

	report := &StoredReport{
		ID:               uuid.New(),
		RunID:            params.RunID,
		Format:           params.Format,
		Content:          params.Content,
		ContentType:      params.ContentType,
		Filename:         params.Filename,
		SizeBytes:        int64(len(params.Content)),
		GenerationTimeMs: params.GenerationTimeMs,
		Tags:             params.Tags,
		CreatedAt:        time.Now().UTC(),
	}

	if params.TTL > 0 {
		expiresAt := report.CreatedAt.Add(params.TTL)
		report.ExpiresAt = &expiresAt
	}

	query := `
		INSERT INTO reports (
			id, run_id, format,
			content, content_type, filename, size_bytes,
			generation_time_ms, tags,
			created_at, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	_, err := r.db.Exec(ctx, query,
		report.ID, report.RunID, report.Format,
		report.Content, report.ContentType, report.Filename, report.SizeBytes,
		report.GenerationTimeMs, report.Tags,
		report.CreatedAt, report.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert report: %w", err)
	}

	return report, nil
}

// Get возвращает отчёт по ID
func (r *PostgresReportRepository) Get(ctx context.Context, id uuid.UUID) (*StoredReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresReportRepository.Get")
	defer span.End()

	query := `
		SELECT
			id, run_id, format,
			content, content_type, filename, size_bytes,
			generation_time_ms, tags, created_at, expires_at
		FROM reports
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	return r.scanReport(row)
}

// GetContent возвращает только контент
func (r *PostgresReportRepository) GetContent(ctx context.Context, id uuid.UUID) ([]byte, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresReportRepository.GetContent")
	defer span.End()

	query := `SELECT content FROM reports WHERE id = $1`

	var content []byte
	err := r.db.QueryRow(ctx, query, id).Scan(&content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	return content, nil
}

// GetByRunAndFormat возвращает свежайший неистёкший отчёт запуска в формате.
// Используется как кэш перед повторной генерацией.
func (r *PostgresReportRepository) GetByRunAndFormat(ctx context.Context, runID, format string) (*StoredReport, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresReportRepository.GetByRunAndFormat")
	defer span.End()

	query := `
		SELECT
			id, run_id, format,
			content, content_type, filename, size_bytes,
			generation_time_ms, tags, created_at, expires_at
		FROM reports
		WHERE run_id = $1 AND format = $2
			AND (expires_at IS NULL OR expires_at > NOW())
		ORDER BY created_at DESC
		LIMIT 1`

	row := r.db.QueryRow(ctx, query, runID, format)
	return r.scanReport(row)
}

// List возвращает список отчётов
func (r *PostgresReportRepository) List(ctx context.Context, params *ReportListParams) (*ReportListResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresReportRepository.List")
	defer span.End()

	if params.Limit <= 0 {
		params.Limit = 20
	}
	if params.Limit > 100 {
		params.Limit = 100
	}
	if params.OrderBy == "" {
		params.OrderBy = "created_at"
	}

	conditions, args := r.buildListConditions(params)
	whereClause := strings.Join(conditions, " AND ")

	validOrderBy := map[string]bool{"created_at": true, "size_bytes": true}
	if !validOrderBy[params.OrderBy] {
		params.OrderBy = "created_at"
	}

	orderDir := "ASC"
	if params.OrderDesc {
		orderDir = "DESC"
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM reports WHERE %s", whereClause)
	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}

	argIdx := len(args) + 1
	query := fmt.Sprintf(`
		SELECT
			id, run_id, format,
			content_type, filename, size_bytes,
			generation_time_ms, tags, created_at, expires_at
		FROM reports
		WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		whereClause, params.OrderBy, orderDir, argIdx, argIdx+1)

	args = append(args, params.Limit+1, params.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*StoredReport
	for rows.Next() {
		report, err := r.scanReportWithoutContent(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	hasMore := len(reports) > params.Limit
	if hasMore {
		reports = reports[:params.Limit]
	}

	return &ReportListResult{Reports: reports, TotalCount: totalCount, HasMore: hasMore}, nil
}

// Delete удаляет отчёт
func (r *PostgresReportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresReportRepository.Delete")
	defer span.End()

	query := `DELETE FROM reports WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}

// DeleteExpired удаляет устаревшие отчёты
func (r *PostgresReportRepository) DeleteExpired(ctx context.Context) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresReportRepository.DeleteExpired")
	defer span.End()

	query := `DELETE FROM reports WHERE expires_at < NOW()`
	result, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired: %w", err)
	}
	return result.RowsAffected(), nil
}

// === Вспомогательные методы ===

func (r *PostgresReportRepository) buildListConditions(params *ReportListParams) ([]string, []any) {
	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.RunID != "" {
		conditions = append(conditions, fmt.Sprintf("run_id = $%d", argIdx))
		args = append(args, params.RunID)
		argIdx++
	}

	if params.Format != "" {
		conditions = append(conditions, fmt.Sprintf("format = $%d", argIdx))
		args = append(args, params.Format)
		argIdx++
	}

	if len(params.Tags) > 0 {
		conditions = append(conditions, fmt.Sprintf("tags && $%d", argIdx))
		args = append(args, pq.Array(params.Tags))
		argIdx++
	}

	if params.CreatedAfter != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, params.CreatedAfter)
		argIdx++
	}

	if params.CreatedBefore != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, params.CreatedBefore)
		// Не инкрементируем - последнее использование
	}

	return conditions, args
}

func (r *PostgresReportRepository) scanReport(row pgx.Row) (*StoredReport, error) {
	var report StoredReport
	var expiresAt sql.NullTime

	err := row.Scan(
		&report.ID, &report.RunID, &report.Format,
		&report.Content, &report.ContentType, &report.Filename, &report.SizeBytes,
		&report.GenerationTimeMs, &report.Tags, &report.CreatedAt, &expiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	if expiresAt.Valid {
		report.ExpiresAt = &expiresAt.Time
	}

	return &report, nil
}

func (r *PostgresReportRepository) scanReportWithoutContent(rows pgx.Rows) (*StoredReport, error) {
	var report StoredReport
	var expiresAt sql.NullTime

	err := rows.Scan(
		&report.ID, &report.RunID, &report.Format,
		&report.ContentType, &report.Filename, &report.SizeBytes,
		&report.GenerationTimeMs, &report.Tags, &report.CreatedAt, &expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	if expiresAt.Valid {
		report.ExpiresAt = &expiresAt.Time
	}

	return &report, nil
}
