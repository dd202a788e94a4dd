// services/flow-svc/factory.go
package flowsvc

import (
	"net/http"
	"time"

	"flownet/pkg/config"
	"flownet/pkg/database"
	"flownet/pkg/passhash"
	"flownet/services/flow-svc/internal/handlers"
	"flownet/services/flow-svc/internal/repository"
)

// Options зависимости собираемого сервиса; nil поле отключает
// соответствующую подсистему
type Options struct {
	Config *config.Config

	// DB источник персистентности запусков и отчётов (nil — in-memory ответы
	// без истории)
	DB database.DB

	// Tokens менеджер JWT для маршрутов авторизации
	Tokens *passhash.JWTManager
}

// NewHandler собирает маршруты сервиса поверх переданных зависимостей.
// Внешним потребителям (интеграционные тесты, встраивание в чужой mux)
// внутренние пакеты недоступны, поэтому вся сборка идёт здесь.
func NewHandler(opts Options) http.Handler {
	deps := handlers.Deps{
		Config: opts.Config,
		Tokens: opts.Tokens,
	}
	if opts.DB != nil {
		deps.Runs = repository.NewPostgresRunRepository(opts.DB)
		deps.Reports = repository.NewPostgresReportRepository(opts.DB)
	}

	mux := http.NewServeMux()
	handlers.NewFlowHandler(deps).RegisterRoutes(mux)
	return mux
}

// PublicPaths маршруты, доступные без токена
func PublicPaths() map[string]bool {
	return handlers.PublicPaths()
}

// RequiredScopes требуемый scope по маршруту
func RequiredScopes() map[string]string {
	return handlers.RequiredScopes()
}

// NewBenchmarkHandler создаёт HTTP обработчик сервиса для внешних бенчмарков:
// маршруты API без цепочки middleware, без кэша и без персистентности.
// Конфигурация повторяет значения по умолчанию загрузчика.
func NewBenchmarkHandler() http.Handler {
	cfg := &config.Config{
		Solver: config.SolverConfig{
			MaxIterations: 10000,
			Timeout:       30 * time.Second,
			MaxNodes:      16,
			RecordPaths:   true,
			VerifyResults: true,
		},
		Generator: config.GeneratorConfig{
			MaxNodes:    16,
			MaxLayers:   4,
			MinCapacity: 1.0,
			MaxCapacity: 20.0,
			ExtraEdges:  0.3,
		},
		Report: config.ReportConfig{
			DefaultTTL:         30 * 24 * time.Hour,
			MaxReportSizeBytes: 50 * 1024 * 1024,
			MaxEdgesInTable:    50,
			MaxPathsInTable:    20,
			DefaultCompanyName: "Flownet",
		},
	}

	mux := http.NewServeMux()
	handlers.NewFlowHandler(handlers.Deps{Config: cfg}).RegisterRoutes(mux)
	return mux
}
