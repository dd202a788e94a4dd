// Package client содержит типизированный HTTP клиент API flownet.
// Используется интеграционными тестами и внешними потребителями сервиса.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	v1 "flownet/api/v1"
	"flownet/pkg/apperror"
)

// Config конфигурация клиента
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Token bearer токен, добавляемый к каждому запросу (опционально)
	Token string
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      "http://localhost:8080",
		Timeout:      30 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 200 * time.Millisecond,
	}
}

// Client клиент API flownet
type Client struct {
	cfg  *Config
	http *http.Client
}

// New создаёт нового клиента
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// SetToken устанавливает bearer токен для последующих запросов
func (c *Client) SetToken(token string) {
	c.cfg.Token = token
}

// Solve вычисляет максимальный поток для сети. Ответ 422 несёт частичный
// результат (лимит итераций достигнут до схождения) и возвращается
// без ошибки: вызывающий различает исходы по полю Status
func (c *Client) Solve(ctx context.Context, req *v1.SolveRequest) (*v1.SolveResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.roundTrip(ctx, http.MethodPost, "/v1/flow/solve", nil, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusUnprocessableEntity {
		return nil, decodeError(resp)
	}

	var out v1.SolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// SolverInfo возвращает метаданные решателя
func (c *Client) SolverInfo(ctx context.Context) (*v1.SolverInfo, error) {
	var resp v1.SolverInfo
	if err := c.do(ctx, http.MethodGet, "/v1/solver/info", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// InvalidateCache сбрасывает кэш результатов
func (c *Client) InvalidateCache(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/v1/cache", nil, nil, nil)
}

// Validate проверяет описание сети
func (c *Client) Validate(ctx context.Context, req *v1.ValidateRequest) (*v1.ValidateResponse, error) {
	var resp v1.ValidateResponse
	if err := c.do(ctx, http.MethodPost, "/v1/networks/validate", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Generate создаёт случайную слоистую сеть
func (c *Client) Generate(ctx context.Context, req *v1.GenerateRequest) (*v1.GenerateResponse, error) {
	var resp v1.GenerateResponse
	if err := c.do(ctx, http.MethodPost, "/v1/networks/generate", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetRun возвращает сохранённый запуск по ID
func (c *Client) GetRun(ctx context.Context, id string) (*v1.Run, error) {
	var resp v1.Run
	if err := c.do(ctx, http.MethodGet, "/v1/solves/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListRuns возвращает страницу истории запусков
func (c *Client) ListRuns(ctx context.Context, params *v1.ListRunsParams) (*v1.RunList, error) {
	query := url.Values{}
	if params != nil {
		if params.Limit > 0 {
			query.Set("limit", strconv.Itoa(params.Limit))
		}
		if params.Offset > 0 {
			query.Set("offset", strconv.Itoa(params.Offset))
		}
		if params.Status != "" {
			query.Set("status", params.Status)
		}
		if params.MinFlow > 0 {
			query.Set("min_flow", strconv.FormatFloat(params.MinFlow, 'f', -1, 64))
		}
		if params.Sort != "" {
			query.Set("sort", params.Sort)
		}
		if params.Order != "" {
			query.Set("order", params.Order)
		}
	}

	var resp v1.RunList
	if err := c.do(ctx, http.MethodGet, "/v1/solves", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunStatistics возвращает агрегированную статистику запусков
func (c *Client) RunStatistics(ctx context.Context) (*v1.RunStats, error) {
	var resp v1.RunStats
	if err := c.do(ctx, http.MethodGet, "/v1/solves/stats", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteRun удаляет сохранённый запуск
func (c *Client) DeleteRun(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/solves/"+url.PathEscape(id), nil, nil, nil)
}

// ReportDownload скачанный отчёт
type ReportDownload struct {
	Content     []byte
	ContentType string
	Filename    string
}

// DownloadReport скачивает отчёт о запуске в указанном формате
// (json, csv, markdown, xlsx, pdf)
func (c *Client) DownloadReport(ctx context.Context, runID, format string) (*ReportDownload, error) {
	query := url.Values{}
	if format != "" {
		query.Set("format", format)
	}
	return c.download(ctx, "/v1/solves/"+url.PathEscape(runID)+"/report", query)
}

// ListReports возвращает страницу сохранённых отчётов
func (c *Client) ListReports(ctx context.Context, runID string, limit, offset int) (*v1.ReportList, error) {
	query := url.Values{}
	if runID != "" {
		query.Set("run_id", runID)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	var resp v1.ReportList
	if err := c.do(ctx, http.MethodGet, "/v1/reports", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetReport возвращает метаданные сохранённого отчёта
func (c *Client) GetReport(ctx context.Context, id string) (*v1.Report, error) {
	var resp v1.Report
	if err := c.do(ctx, http.MethodGet, "/v1/reports/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DownloadStoredReport скачивает содержимое сохранённого отчёта
func (c *Client) DownloadStoredReport(ctx context.Context, id string) (*ReportDownload, error) {
	return c.download(ctx, "/v1/reports/"+url.PathEscape(id)+"/content", nil)
}

// DeleteReport удаляет сохранённый отчёт
func (c *Client) DeleteReport(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/reports/"+url.PathEscape(id), nil, nil, nil)
}

// Token обменивает client credentials на пару токенов и запоминает
// access токен для последующих запросов
func (c *Client) Token(ctx context.Context, clientID, clientSecret string) (*v1.TokenResponse, error) {
	var resp v1.TokenResponse
	req := &v1.TokenRequest{ClientID: clientID, ClientSecret: clientSecret}
	if err := c.do(ctx, http.MethodPost, "/v1/auth/token", nil, req, &resp); err != nil {
		return nil, err
	}
	c.cfg.Token = resp.AccessToken
	return &resp, nil
}

// Refresh обновляет access токен по refresh токену
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*v1.TokenResponse, error) {
	var resp v1.TokenResponse
	req := &v1.RefreshRequest{RefreshToken: refreshToken}
	if err := c.do(ctx, http.MethodPost, "/v1/auth/refresh", nil, req, &resp); err != nil {
		return nil, err
	}
	c.cfg.Token = resp.AccessToken
	return &resp, nil
}

// Healthy сообщает, отвечает ли сервис на liveness probe
func (c *Client) Healthy(ctx context.Context) bool {
	err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, nil)
	return err == nil
}

// do выполняет запрос с повторами и декодирует ответ в out (если не nil).
// Тело запроса сериализуется заранее, поэтому повтор безопасен.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	resp, err := c.roundTrip(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// download выполняет запрос, возвращая сырое содержимое ответа
func (c *Client) download(ctx context.Context, path string, query url.Values) (*ReportDownload, error) {
	resp, err := c.roundTrip(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, decodeError(resp)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read report content: %w", err)
	}

	download := &ReportDownload{
		Content:     content,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			download.Filename = params["filename"]
		}
	}
	return download, nil
}

// roundTrip отправляет запрос, повторяя его при сетевых ошибках и
// временных статусах (502, 503, 504) с линейным backoff
func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Response, error) {
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	attempts := c.cfg.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.RetryBackoff * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", uuid.NewString())
		if c.cfg.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if isRetryableStatus(resp.StatusCode) {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("server returned %s", resp.Status)
			continue
		}
		return resp, nil
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", attempts, lastErr)
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// errorResponse тело ошибки API (зеркало middleware.ErrorResponse)
type errorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Field   string         `json:"field,omitempty"`
		Details map[string]any `json:"details,omitempty"`
	} `json:"error"`
}

// decodeError преобразует JSON ошибку API обратно в *apperror.Error,
// чтобы вызывающий код различал классы ошибок по коду
func decodeError(resp *http.Response) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var body errorResponse
	if err := json.Unmarshal(payload, &body); err != nil || body.Error.Code == "" {
		return apperror.New(apperror.CodeInternal,
			fmt.Sprintf("unexpected response %s", resp.Status))
	}

	appErr := apperror.New(apperror.ErrorCode(body.Error.Code), body.Error.Message)
	if body.Error.Field != "" {
		appErr = appErr.WithField(body.Error.Field)
	}
	for k, v := range body.Error.Details {
		appErr = appErr.WithDetails(k, v)
	}
	return appErr
}
