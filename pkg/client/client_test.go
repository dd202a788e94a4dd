package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "flownet/api/v1"
	"flownet/pkg/apperror"
	"flownet/pkg/domain"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.Timeout = 5 * time.Second
	cfg.RetryBackoff = time.Millisecond
	return New(cfg)
}

func diamondNetwork() v1.Network {
	return v1.Network{
		Nodes: []string{"A", "B", "C", "D"},
		Edges: []domain.Edge{
			{From: "A", To: "B", Capacity: 10},
			{From: "A", To: "C", Capacity: 5},
			{From: "B", To: "D", Capacity: 8},
			{From: "C", To: "D", Capacity: 10},
		},
		Source: "A",
		Sink:   "D",
	}
}

func TestSolve_Success(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/flow/solve", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var req v1.SolveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "A", req.Network.Source)

		_ = json.NewEncoder(w).Encode(v1.SolveResponse{
			MaxFlow: 13,
			Maximal: true,
			Status:  v1.StatusOptimal,
		})
	})

	c := testClient(t, mux)
	resp, err := c.Solve(context.Background(), &v1.SolveRequest{Network: diamondNetwork()})
	require.NoError(t, err)
	assert.InDelta(t, 13.0, resp.MaxFlow, 1e-9)
	assert.True(t, resp.Maximal)
}

func TestSolve_PartialResultDecoded(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/flow/solve", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(v1.SolveResponse{
			MaxFlow:    8,
			Maximal:    false,
			Status:     v1.StatusNotConverged,
			Iterations: 1,
		})
	})

	c := testClient(t, mux)
	resp, err := c.Solve(context.Background(), &v1.SolveRequest{Network: diamondNetwork()})
	require.NoError(t, err)
	assert.Equal(t, v1.StatusNotConverged, resp.Status)
	assert.False(t, resp.Maximal)
	assert.InDelta(t, 8.0, resp.MaxFlow, 1e-9)
}

func TestSolve_ValidationErrorDecoded(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/flow/solve", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"SOURCE_EQUALS_SINK","message":"source and sink must differ","field":"sink"}}`))
	})

	c := testClient(t, mux)
	_, err := c.Solve(context.Background(), &v1.SolveRequest{Network: diamondNetwork()})
	require.Error(t, err)

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.CodeSourceEqualsSink, appErr.Code)
	assert.Equal(t, "sink", appErr.Field)
}

func TestDo_RetriesOnServiceUnavailable(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/solver/info", func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(v1.SolverInfo{
			Algorithms: []v1.AlgorithmInfo{{Name: "edmonds_karp"}},
		})
	})

	c := testClient(t, mux)
	info, err := c.SolverInfo(context.Background())
	require.NoError(t, err)
	require.Len(t, info.Algorithms, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/solver/info", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	c := testClient(t, mux)
	info, err := c.SolverInfo(context.Background())

	// Последняя попытка тоже считается неудачной: наружу уходит ошибка,
	// а не ответ с временным статусом
	require.Error(t, err)
	assert.Nil(t, info)
	assert.Equal(t, int32(4), calls.Load())
	assert.Contains(t, err.Error(), "after 4 attempts")
	assert.Contains(t, err.Error(), "502")
}

func TestDo_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/solves/{id}", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"run not found"}}`))
	})

	c := testClient(t, mux)
	_, err := c.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
}

func TestListRuns_QueryParams(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/solves", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "20", q.Get("offset"))
		assert.Equal(t, "optimal", q.Get("status"))
		assert.Equal(t, "max_flow", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("order"))

		_ = json.NewEncoder(w).Encode(v1.RunList{Total: 42, Limit: 10, Offset: 20})
	})

	c := testClient(t, mux)
	list, err := c.ListRuns(context.Background(), &v1.ListRunsParams{
		Limit:  10,
		Offset: 20,
		Status: v1.StatusOptimal,
		Sort:   "max_flow",
		Order:  "desc",
	})
	require.NoError(t, err)
	assert.Equal(t, 42, list.Total)
}

func TestDownloadReport_ParsesDisposition(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/solves/{id}/report", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="flow_report.csv"`)
		_, _ = w.Write([]byte("from,to,capacity,flow\n"))
	})

	c := testClient(t, mux)
	download, err := c.DownloadReport(context.Background(), "run-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", download.ContentType)
	assert.Equal(t, "flow_report.csv", download.Filename)
	assert.Contains(t, string(download.Content), "capacity")
}

func TestToken_StoresAccessToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/token", func(w http.ResponseWriter, r *http.Request) {
		var req v1.TokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ci", req.ClientID)

		_ = json.NewEncoder(w).Encode(v1.TokenResponse{
			AccessToken: "issued-token",
			TokenType:   "Bearer",
		})
	})
	mux.HandleFunc("DELETE /v1/cache", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer issued-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})

	c := testClient(t, mux)
	resp, err := c.Token(context.Background(), "ci", "secret")
	require.NoError(t, err)
	assert.Equal(t, "issued-token", resp.AccessToken)

	// Токен подставляется в последующие запросы
	require.NoError(t, c.InvalidateCache(context.Background()))
}

func TestHealthy(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	c := testClient(t, mux)
	assert.True(t, c.Healthy(context.Background()))

	down := New(&Config{BaseURL: "http://127.0.0.1:1", MaxRetries: 0, Timeout: time.Second})
	assert.False(t, down.Healthy(context.Background()))
}
