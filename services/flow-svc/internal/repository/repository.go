package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Ошибки хранилища
var (
	ErrRunNotFound    = errors.New("run not found")
	ErrReportNotFound = errors.New("report not found")
)

// RunRepository интерфейс хранилища запусков решателя
type RunRepository interface {
	// Create сохраняет запуск, присваивая ID и CreatedAt
	Create(ctx context.Context, run *Run) error

	// GetByID возвращает запуск вместе с JSON сети и результата
	GetByID(ctx context.Context, id string) (*Run, error)

	// Delete удаляет запуск
	Delete(ctx context.Context, id string) error

	// List возвращает страницу истории и общее число записей
	List(ctx context.Context, opts *ListOptions) ([]*RunSummary, int64, error)

	// Statistics возвращает агрегированную статистику за период
	Statistics(ctx context.Context, startTime, endTime *time.Time) (*RunStatistics, error)
}

// ReportRepository интерфейс хранилища сгенерированных отчётов
type ReportRepository interface {
	// Create сохраняет новый отчёт
	Create(ctx context.Context, params *CreateReportParams) (*StoredReport, error)

	// Get возвращает отчёт по ID (включая контент)
	Get(ctx context.Context, id uuid.UUID) (*StoredReport, error)

	// GetContent возвращает только контент отчёта
	GetContent(ctx context.Context, id uuid.UUID) ([]byte, error)

	// GetByRunAndFormat возвращает свежайший неистёкший отчёт запуска
	GetByRunAndFormat(ctx context.Context, runID, format string) (*StoredReport, error)

	// List возвращает список отчётов с фильтрацией
	List(ctx context.Context, params *ReportListParams) (*ReportListResult, error)

	// Delete удаляет отчёт
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteExpired удаляет устаревшие отчёты
	DeleteExpired(ctx context.Context) (int64, error)
}
