// Package main is the entry point for the flow-svc microservice.
//
// flow-svc computes maximum flow and minimum cut on small directed
// capacitated networks and exposes the results over an HTTP/JSON API.
// It bundles the solver core with network validation, random network
// generation, solve-run history and multi-format report generation.
//
// # Service Overview
//
// The service exposes the following capabilities over HTTP:
//   - Maximum flow / minimum cut computation (Edmonds-Karp)
//   - Structural and policy validation of network definitions
//   - Layered random network generation
//   - Persisted solve-run history with aggregate statistics
//   - Report downloads (JSON, CSV, Markdown, Excel, PDF)
//   - Client-credential token issuance (JWT)
//
// # Architecture
//
// The service follows a layered architecture with clear separation of concerns:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                    HTTP Transport Layer                     │
//	│  Middleware: request-id, recovery, CORS, rate-limit,        │
//	│  tracing, metrics, logging, auth, audit (pkg/middleware)    │
//	├─────────────────────────────────────────────────────────────┤
//	│                      Handler Layer                          │
//	│  (internal/handlers/*.go)                                   │
//	│  - Request decoding and validation                          │
//	│  - Caching logic                                            │
//	│  - Response shaping (api/v1 types)                          │
//	├─────────────────────────────────────────────────────────────┤
//	│                      Engine Layer                           │
//	│  (internal/engine/*.go)                                     │
//	│  - Edmonds-Karp augmentation loop (state machine)           │
//	│  - Iteration guard, path recording                          │
//	├─────────────────────────────────────────────────────────────┤
//	│                       Graph Layer                           │
//	│  (internal/graph/*.go)                                      │
//	│  - Residual: dense residual capacity matrix                 │
//	│  - Deterministic BFS, path reconstruction                   │
//	│  - ScratchPool: matrix reuse across computations            │
//	├─────────────────────────────────────────────────────────────┤
//	│                     Analysis Layer                          │
//	│  (internal/analysis/*.go)                                   │
//	│  - Per-edge flow decomposition, min-cut extraction          │
//	│  - Summary statistics, flow-law verification                │
//	├─────────────────────────────────────────────────────────────┤
//	│                    Persistence Layer                        │
//	│  (internal/repository/*.go)                                 │
//	│  - Solve runs and generated reports in PostgreSQL           │
//	└─────────────────────────────────────────────────────────────┘
//
// # Configuration
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Environment variables (prefix: FLOWNET_)
//  2. Config files (config.yaml, config/config.yaml, /etc/flownet/config.yaml)
//  3. Default values
//
// Key configuration options (environment variable format):
//
//	# Application
//	FLOWNET_APP_NAME           - Service name (default: flownet)
//	FLOWNET_APP_VERSION        - Service version (default: 1.0.0)
//	FLOWNET_APP_ENVIRONMENT    - Environment: development, staging, production
//
//	# HTTP Server
//	FLOWNET_HTTP_PORT            - HTTP server port (default: 8080)
//	FLOWNET_HTTP_READ_TIMEOUT    - Read timeout (default: 30s)
//	FLOWNET_HTTP_WRITE_TIMEOUT   - Write timeout (default: 30s)
//	FLOWNET_HTTP_MAX_BODY_BYTES  - Max request body size (default: 4MB)
//
//	# Logging
//	FLOWNET_LOG_LEVEL     - Log level: debug, info, warn, error (default: info)
//	FLOWNET_LOG_FORMAT    - Log format: json, text (default: json)
//	FLOWNET_LOG_OUTPUT    - Output: stdout, stderr, file (default: stdout)
//	FLOWNET_LOG_FILE_PATH - Log file path when output=file
//
//	# Solver
//	FLOWNET_SOLVER_MAX_ITERATIONS - Augmentation cap (default: 10000)
//	FLOWNET_SOLVER_MAX_NODES      - Max nodes per network (default: 16)
//	FLOWNET_SOLVER_RECORD_PATHS   - Record augmenting paths (default: false)
//	FLOWNET_SOLVER_VERIFY_RESULTS - Verify flow laws after solve (default: true)
//	FLOWNET_SOLVER_SAVE_RUNS      - Persist solve runs (default: true)
//
//	# Caching
//	FLOWNET_CACHE_ENABLED     - Enable result caching (default: false)
//	FLOWNET_CACHE_DRIVER      - Cache backend: memory, redis (default: memory)
//	FLOWNET_CACHE_HOST        - Redis host (default: localhost)
//	FLOWNET_CACHE_DEFAULT_TTL - Cache TTL duration (default: 5m)
//
//	# Database (solve-run history and stored reports)
//	FLOWNET_DATABASE_HOST         - PostgreSQL host (default: localhost)
//	FLOWNET_DATABASE_PORT         - PostgreSQL port (default: 5432)
//	FLOWNET_DATABASE_DATABASE     - Database name (default: flownet)
//	FLOWNET_DATABASE_AUTO_MIGRATE - Apply embedded migrations (default: true)
//
//	# Tracing (OpenTelemetry)
//	FLOWNET_TRACING_ENABLED     - Enable distributed tracing (default: false)
//	FLOWNET_TRACING_ENDPOINT    - OTLP endpoint (default: localhost:4317)
//	FLOWNET_TRACING_SAMPLE_RATE - Sampling rate 0.0-1.0 (default: 0.1)
//
//	# Metrics (Prometheus)
//	FLOWNET_METRICS_ENABLED   - Enable Prometheus metrics (default: true)
//	FLOWNET_METRICS_PORT      - Metrics HTTP port (default: 9090)
//	FLOWNET_METRICS_NAMESPACE - Metrics namespace (default: flownet)
//
//	# Rate Limiting
//	FLOWNET_RATE_LIMIT_ENABLED  - Enable rate limiting (default: true)
//	FLOWNET_RATE_LIMIT_REQUESTS - Requests per window (default: 100)
//	FLOWNET_RATE_LIMIT_WINDOW   - Time window (default: 1m)
//
//	# Authentication
//	FLOWNET_AUTH_ENABLED    - Require bearer tokens (default: false)
//	FLOWNET_AUTH_SECRET_KEY - JWT signing key
//
// # Middleware Chain
//
// Every request passes through (outermost first):
//  1. RequestID - Generates/propagates X-Request-ID
//  2. Recovery  - Catches panics and returns structured 500s
//  3. CORS      - Cross-origin headers and preflight handling
//  4. RateLimit - Per-client limiting, fail-open on backend errors
//  5. Tracing   - OpenTelemetry span per request (if enabled)
//  6. Metrics   - Prometheus request counters and latency histogram
//  7. Logging   - Structured request/response logging
//  8. Audit     - Compliance journal for mutating requests (if enabled)
//  9. Auth      - JWT validation with per-route scopes (if enabled)
//
// # Health Checks
//
// The service exposes HTTP probes:
//
//	GET /healthz - Liveness: process is up
//	GET /readyz  - Readiness: serving and (when persistence is on) database pings
//
// Probe endpoints are excluded from rate limiting, audit and auth.
//
// # Graceful Shutdown
//
// The service handles SIGINT and SIGTERM:
//  1. Drops readiness (load balancer stops sending traffic)
//  2. Waits for in-flight requests (up to http.shutdown_timeout)
//  3. Flushes telemetry and audit buffers
//  4. Closes rate limiter, cache and database connections
//
// # API Usage Examples
//
// Solving a max-flow problem:
//
//	curl -s -X POST localhost:8080/v1/flow/solve -d '{
//	  "network": {
//	    "nodes": ["A", "B", "C", "D"],
//	    "edges": [
//	      {"from": "A", "to": "B", "capacity": 10},
//	      {"from": "A", "to": "C", "capacity": 5},
//	      {"from": "B", "to": "D", "capacity": 8},
//	      {"from": "C", "to": "D", "capacity": 10}
//	    ],
//	    "source": "A",
//	    "sink": "D"
//	  }
//	}'
//
// Response (abbreviated):
//
//	{
//	  "maxFlow": 13,
//	  "maximal": true,
//	  "minCut": {"groupS": ["A"], "groupT": ["B", "C", "D"], "cutCapacity": 13},
//	  "summary": {"saturatedEdges": 2, "sourceEfficiency": 0.8667}
//	}
//
// Generating a random layered network and validating it:
//
//	curl -s -X POST localhost:8080/v1/networks/generate -d '{"layers": 3, "seed": 42}'
//	curl -s -X POST localhost:8080/v1/networks/validate -d @network.json
//
// Downloading a report for a persisted run:
//
//	curl -s localhost:8080/v1/solves/<id>/report?format=pdf -o flow.pdf
//
// # Error Handling
//
// Errors follow the pkg/apperror taxonomy:
//
//	400 INVALID_NETWORK et al. - Malformed or out-of-bounds network input
//	401 UNAUTHENTICATED        - Missing/invalid bearer token
//	404 NOT_FOUND              - Unknown run or report ID
//	422 ITERATION_LIMIT        - Solver hit the defensive iteration cap
//	429 RATE_LIMITED           - Rate limit exceeded
//	500 NEGATIVE_RESIDUAL etc. - Internal invariant violation (solver bug)
//
// # Dependencies
//
// External services (all optional):
//
//	PostgreSQL - Solve-run history and stored reports (solver.save_runs)
//	Redis      - Distributed cache and rate limiting backends
//	OTLP       - Trace collector (tracing.enabled)
package main

import (
	"context"
	"log"
	"time"

	"flownet/migrations"
	"flownet/pkg/cache"
	"flownet/pkg/config"
	"flownet/pkg/database"
	"flownet/pkg/logger"
	"flownet/pkg/metrics"
	"flownet/pkg/middleware"
	"flownet/pkg/passhash"
	"flownet/pkg/server"
	"flownet/services/flow-svc/internal/handlers"
	"flownet/services/flow-svc/internal/repository"
)

func main() {
	// =========================================================================
	// Configuration Loading
	// =========================================================================
	//
	// MustLoad loads configuration with the following priority:
	//   1. Environment variables (FLOWNET_* prefix)
	//   2. Config files (config.yaml in standard locations)
	//   3. Default values from pkg/config/loader.go
	cfg := config.MustLoad()

	// =========================================================================
	// Logger Initialization
	// =========================================================================
	//
	// Supported outputs:
	//   - stdout/stderr: Direct console output
	//   - file: File output with automatic rotation (via lumberjack)
	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	ctx := context.Background()

	// =========================================================================
	// Metrics Initialization (Prometheus)
	// =========================================================================
	//
	// Registers the flownet metric families (HTTP, solve, network, report,
	// cache) in the default registry. The /metrics server itself is started
	// by server.Run() on the metrics port.
	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)

	// =========================================================================
	// Cache Initialization
	// =========================================================================
	//
	// The solve cache stores computation results keyed by the canonical
	// network hash, so identical payloads are answered without re-running
	// the solver. Backends:
	//   - memory: In-process LRU cache (fast, not shared between instances)
	//   - redis: Distributed cache (shared, requires Redis server)
	//
	// The cache is optional; the service continues without it on failure.
	var solveCache *cache.SolveCache
	if cfg.Cache.Enabled {
		baseCache, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Log.Warn("Failed to create cache, continuing without cache", "error", err)
		} else {
			solveCache = cache.NewSolveCache(baseCache, cfg.Cache.DefaultTTL)
			logger.Log.Info("Solve cache initialized",
				"driver", cfg.Cache.Driver,
				"ttl", cfg.Cache.DefaultTTL,
			)
		}
	}

	// =========================================================================
	// Database Initialization (optional persistence)
	// =========================================================================
	//
	// When solver.save_runs is on, solve runs and generated reports are
	// persisted to PostgreSQL. Embedded goose migrations are applied on
	// startup (database.auto_migrate). Persistence is optional: if the
	// database is unreachable the service starts in degraded mode — solve,
	// validate and generate keep working, history and stored reports 404.
	var (
		db      *database.PostgresDB
		runs    repository.RunRepository
		reports repository.ReportRepository
	)
	if cfg.Solver.SaveRuns {
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		pg, err := database.NewPostgresDB(connectCtx, &cfg.Database)
		cancel()
		if err != nil {
			logger.Log.Warn("Failed to connect to database, starting in degraded mode", "error", err)
		} else {
			if cfg.Database.AutoMigrate {
				if err := database.RunMigrations(ctx, pg.Pool(), &cfg.Database, migrations.PostgresMigrations, "postgres"); err != nil {
					log.Fatalf("failed to apply migrations: %v", err)
				}
			}
			db = pg
			runs = repository.NewPostgresRunRepository(db)
			reports = repository.NewPostgresReportRepository(db)
			logger.Log.Info("Database connected",
				"host", cfg.Database.Host,
				"database", cfg.Database.Database,
			)
		}
	}
	if db != nil {
		defer db.Close()
	}

	// =========================================================================
	// Token Manager
	// =========================================================================
	//
	// Issues and validates the JWTs used by the /v1/auth endpoints and the
	// auth middleware. Created unconditionally so the token endpoint works
	// even when enforcement (auth.enabled) is off.
	tokens := passhash.NewJWTManager(passhash.JWTConfigFromAuth(&cfg.Auth))

	// =========================================================================
	// HTTP Server and Route Registration
	// =========================================================================
	//
	// server.NewWithOptions assembles the middleware chain (recovery,
	// request-id, CORS, rate limit, tracing, metrics, logging, audit, auth)
	// around a ServeMux, wires /healthz and /readyz, and configures
	// H2C + graceful shutdown. Readiness includes a database ping when
	// persistence is active.
	var opts server.ServerOptions
	if db != nil {
		opts.ReadyCheck = db.HealthCheck
	}
	if cfg.Auth.Enabled {
		opts.Auth = &middleware.AuthConfig{
			Manager:        tokens,
			PublicPaths:    handlers.PublicPaths(),
			RequiredScopes: handlers.RequiredScopes(),
		}
	}
	srv := server.NewWithOptions(cfg, &opts)

	flowHandler := handlers.NewFlowHandler(handlers.Deps{
		Config:  cfg,
		Cache:   solveCache,
		Runs:    runs,
		Reports: reports,
		Tokens:  tokens,
	})
	flowHandler.RegisterRoutes(srv.GetMux())

	// =========================================================================
	// Server Startup
	// =========================================================================
	logger.Info("Starting flow service",
		"port", cfg.HTTP.Port,
		"environment", cfg.App.Environment,
		"version", cfg.App.Version,
		"cache_enabled", solveCache != nil,
		"persistence_enabled", db != nil,
		"auth_enabled", cfg.Auth.Enabled,
	)

	// Run blocks until SIGINT/SIGTERM, then shuts down gracefully:
	// readiness drops first, in-flight requests drain, telemetry and
	// audit buffers flush, auxiliary servers stop.
	if err := srv.Run(); err != nil {
		logger.Fatal("server failed", "error", err)
	}
}
