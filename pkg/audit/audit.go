// Package audit ведёт журнал операций flownet: кто запустил расчёт,
// что было провалидировано, какие отчёты выгружены. Записи пишутся
// асинхронно в один из бэкендов (stdout, файл с ротацией, БД).
package audit

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Action — тип операции в журнале.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionRead   Action = "READ"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	// ActionLogin — выдача или обновление токена клиенту.
	ActionLogin Action = "LOGIN"
	// ActionSolve — запуск расчёта максимального потока.
	ActionSolve Action = "SOLVE"
	// ActionValidate — проверка присланной сети без расчёта.
	ActionValidate Action = "VALIDATE"
	// ActionGenerate — генерация синтетической сети.
	ActionGenerate Action = "GENERATE"
	// ActionAnalyze — построение отчёта по сохранённому расчёту.
	ActionAnalyze Action = "ANALYZE"
)

// Outcome — результат операции.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
	// OutcomeDenied — операция отклонена проверкой токена или скоупов.
	OutcomeDenied Outcome = "DENIED"
)

// Entry — одна запись журнала.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	// Method — маршрут или внутренняя операция, например "POST /v1/flow/solve".
	Method  string  `json:"method"`
	Action  Action  `json:"action"`
	Outcome Outcome `json:"outcome"`
	// UserID — client_id из токена; пустой для публичных маршрутов.
	UserID    string `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	// Resource — тип затронутого объекта: "network", "run", "report".
	Resource     string         `json:"resource,omitempty"`
	ResourceID   string         `json:"resource_id,omitempty"`
	RequestID    string         `json:"request_id,omitempty"`
	DurationMs   int64          `json:"duration_ms"`
	ErrorCode    string         `json:"error_code,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Logger — бэкенд журнала. Query опционален: файловый и stdout
// бэкенды его не поддерживают и возвращают ошибку.
type Logger interface {
	Log(ctx context.Context, entry *Entry) error
	Query(ctx context.Context, filter *QueryFilter) ([]*Entry, error)
	Close() error
}

// QueryFilter — критерии выборки записей журнала.
type QueryFilter struct {
	StartTime  *time.Time
	EndTime    *time.Time
	Service    string
	Method     string
	Action     Action
	Outcome    Outcome
	UserID     string
	Resource   string
	ResourceID string
	Limit      int
	Offset     int
}

// Config — настройки журнала.
type Config struct {
	Enabled     bool          `koanf:"enabled"`
	Backend     string        `koanf:"backend"`   // "stdout" или "file"
	FilePath    string        `koanf:"file_path"` // путь к файлу для бэкенда "file"
	MaxSize     int           `koanf:"max_size"`  // МБ до ротации файла
	MaxAge      int           `koanf:"max_age"`   // дней хранения ротированных файлов
	Compress    bool          `koanf:"compress"`
	BufferSize  int           `koanf:"buffer_size"`
	FlushPeriod time.Duration `koanf:"flush_period"`

	// ExcludePaths — маршруты, не попадающие в журнал (health, metrics).
	ExcludePaths    []string `koanf:"exclude_paths"`
	IncludeRequest  bool     `koanf:"include_request"`
	IncludeResponse bool     `koanf:"include_response"`
	// MaskFields — поля метаданных, значения которых маскируются.
	MaskFields []string `koanf:"mask_fields"`
}

// DefaultConfig возвращает настройки по умолчанию: включённый журнал в stdout.
func DefaultConfig() *Config {
	return &Config{
		Enabled:     true,
		Backend:     "stdout",
		BufferSize:  1000,
		FlushPeriod: 5 * time.Second,
		MaskFields:  []string{"client_secret", "password", "token", "refresh_token"},
	}
}

// Builder собирает Entry цепочкой вызовов.
type Builder struct {
	entry *Entry
}

// NewEntry создаёт Builder с текущим временем и пустыми метаданными.
func NewEntry() *Builder {
	return &Builder{
		entry: &Entry{
			Timestamp: time.Now(),
			Metadata:  make(map[string]any),
		},
	}
}

func (b *Builder) Service(s string) *Builder {
	b.entry.Service = s
	return b
}

func (b *Builder) Method(m string) *Builder {
	b.entry.Method = m
	return b
}

func (b *Builder) Action(a Action) *Builder {
	b.entry.Action = a
	return b
}

func (b *Builder) Outcome(o Outcome) *Builder {
	b.entry.Outcome = o
	return b
}

// User записывает идентификатор клиента из токена.
func (b *Builder) User(id, username string) *Builder {
	b.entry.UserID = id
	b.entry.Username = username
	return b
}

// Client записывает адрес и user-agent вызывающей стороны.
func (b *Builder) Client(ip, userAgent string) *Builder {
	b.entry.ClientIP = ip
	b.entry.UserAgent = userAgent
	return b
}

// Resource записывает тип и идентификатор затронутого объекта.
func (b *Builder) Resource(resource, resourceID string) *Builder {
	b.entry.Resource = resource
	b.entry.ResourceID = resourceID
	return b
}

func (b *Builder) RequestID(id string) *Builder {
	b.entry.RequestID = id
	return b
}

func (b *Builder) Duration(d time.Duration) *Builder {
	b.entry.DurationMs = d.Milliseconds()
	return b
}

// Error записывает код и сообщение ошибки для неуспешного исхода.
func (b *Builder) Error(code, message string) *Builder {
	b.entry.ErrorCode = code
	b.entry.ErrorMessage = message
	return b
}

// Meta добавляет произвольную пару ключ-значение в метаданные.
func (b *Builder) Meta(key string, value any) *Builder {
	b.entry.Metadata[key] = value
	return b
}

// Build завершает сборку. Если ID не задан, генерирует его.
func (b *Builder) Build() *Entry {
	if b.entry.ID == "" {
		b.entry.ID = generateID()
	}
	return b.entry
}

// MarshalJSON сериализует Entry без рекурсии через алиас типа.
func (e *Entry) MarshalJSON() ([]byte, error) {
	type Alias Entry
	return json.Marshal((*Alias)(e))
}

// generateID строит идентификатор записи: временная метка плюс случайный суффикс.
func generateID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return time.Now().Format("20060102150405") + "-00000000"
	}
	return time.Now().Format("20060102150405") + "-" + hex.EncodeToString(b)
}
