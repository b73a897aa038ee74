// Package gateway wraps the REST task API behind a timeout/cancellation
// boundary. Every call returns either a result or a typed error (NetworkError,
// AbortError, ServerError); nothing escapes as a panic.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kastheco/tareas/task"
)

const (
	DefaultListTimeout     = 6000 * time.Millisecond
	DefaultMutationTimeout = 8000 * time.Millisecond

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 8 << 20
)

// ExportFormat selects the server export encoding.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
)

// Gateway is the consumed REST surface.
type Gateway interface {
	List(ctx context.Context, sortKey, order string) ([]task.Task, error)
	Create(ctx context.Context, description string, priority task.Priority) (string, error)
	Rename(ctx context.Context, id int64, description string) (string, error)
	SetCompleted(ctx context.Context, id int64, completed bool) (string, error)
	SetPriority(ctx context.Context, id int64, priority task.Priority) (string, error)
	Delete(ctx context.Context, id int64) (string, error)
	BatchDelete(ctx context.Context, ids []int64) (string, error)
	BatchComplete(ctx context.Context, ids []int64, completed bool) (string, error)
	BatchPriority(ctx context.Context, ids []int64, priority task.Priority) (string, error)
	Export(ctx context.Context, format ExportFormat) ([]byte, error)
	Ping(ctx context.Context) error
}

// HTTPGateway is a Gateway speaking JSON over HTTP.
type HTTPGateway struct {
	baseURL         string
	client          *http.Client
	listTimeout     time.Duration
	mutationTimeout time.Duration
	token           string
}

// Option configures an HTTPGateway.
type Option func(*HTTPGateway)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *HTTPGateway) { g.client = c }
}

// WithListTimeout sets the timeout for list, export and ping calls.
func WithListTimeout(d time.Duration) Option {
	return func(g *HTTPGateway) {
		if d > 0 {
			g.listTimeout = d
		}
	}
}

// WithMutationTimeout sets the timeout for mutating calls.
func WithMutationTimeout(d time.Duration) Option {
	return func(g *HTTPGateway) {
		if d > 0 {
			g.mutationTimeout = d
		}
	}
}

// WithToken sends "Authorization: Bearer <token>" on every request.
func WithToken(token string) Option {
	return func(g *HTTPGateway) { g.token = token }
}

// NewHTTPGateway returns a gateway for the API rooted at baseURL
// (e.g. "http://localhost:8080/api"). Task routes live under baseURL/tasks.
func NewHTTPGateway(baseURL string, opts ...Option) *HTTPGateway {
	g := &HTTPGateway{
		baseURL:         strings.TrimRight(baseURL, "/"),
		client:          &http.Client{},
		listTimeout:     DefaultListTimeout,
		mutationTimeout: DefaultMutationTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// BaseURL returns the API root this gateway talks to.
func (g *HTTPGateway) BaseURL() string { return g.baseURL }

// envelope is the union of every JSON body shape the API returns.
type envelope struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Tasks   json.RawMessage `json:"tasks"`
}

func (g *HTTPGateway) List(ctx context.Context, sortKey, order string) ([]task.Task, error) {
	q := url.Values{}
	if sortKey != "" {
		q.Set("sort", sortKey)
	}
	if order != "" {
		q.Set("order", order)
	}
	path := "/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	body, err := g.do(ctx, "list tasks", g.listTimeout, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	// The reference server answers with a bare array.
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var tasks []task.Task
		if err := json.Unmarshal(trimmed, &tasks); err != nil {
			return nil, fmt.Errorf("list tasks: decode: %w", err)
		}
		return tasks, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("list tasks: decode: %w", err)
	}
	var tasks []task.Task
	if len(env.Tasks) > 0 && string(env.Tasks) != "null" {
		if err := json.Unmarshal(env.Tasks, &tasks); err != nil {
			return nil, fmt.Errorf("list tasks: decode tasks: %w", err)
		}
	}
	return tasks, nil
}

func (g *HTTPGateway) Create(ctx context.Context, description string, priority task.Priority) (string, error) {
	payload := map[string]any{"descripcion": description, "prioridad": string(priority)}
	return g.mutate(ctx, "create task", http.MethodPost, "/tasks", payload)
}

func (g *HTTPGateway) Rename(ctx context.Context, id int64, description string) (string, error) {
	payload := map[string]any{"descripcion": description}
	return g.mutate(ctx, "rename task", http.MethodPut, taskPath(id), payload)
}

func (g *HTTPGateway) SetCompleted(ctx context.Context, id int64, completed bool) (string, error) {
	payload := map[string]any{"completada": completed}
	return g.mutate(ctx, "update task", http.MethodPost, taskPath(id), payload)
}

func (g *HTTPGateway) SetPriority(ctx context.Context, id int64, priority task.Priority) (string, error) {
	payload := map[string]any{"prioridad": string(priority)}
	return g.mutate(ctx, "update task", http.MethodPost, taskPath(id), payload)
}

func (g *HTTPGateway) Delete(ctx context.Context, id int64) (string, error) {
	return g.mutate(ctx, "delete task", http.MethodDelete, taskPath(id), nil)
}

func (g *HTTPGateway) BatchDelete(ctx context.Context, ids []int64) (string, error) {
	payload := map[string]any{"ids": ids}
	return g.mutate(ctx, "delete tasks", http.MethodDelete, "/tasks/batch/delete", payload)
}

func (g *HTTPGateway) BatchComplete(ctx context.Context, ids []int64, completed bool) (string, error) {
	payload := map[string]any{"ids": ids, "completed": completed}
	return g.mutate(ctx, "complete tasks", http.MethodPost, "/tasks/batch/complete", payload)
}

func (g *HTTPGateway) BatchPriority(ctx context.Context, ids []int64, priority task.Priority) (string, error) {
	payload := map[string]any{"ids": ids, "prioridad": string(priority)}
	return g.mutate(ctx, "prioritize tasks", http.MethodPost, "/tasks/batch/prioridad", payload)
}

func (g *HTTPGateway) Export(ctx context.Context, format ExportFormat) ([]byte, error) {
	path := "/tasks/export?" + url.Values{"format": {string(format)}}.Encode()
	return g.do(ctx, "export tasks", g.listTimeout, http.MethodGet, path, nil)
}

// Ping performs a cheap list round trip; any 2xx counts as reachable.
func (g *HTTPGateway) Ping(ctx context.Context) error {
	_, err := g.do(ctx, "ping", g.listTimeout, http.MethodGet, "/tasks", nil)
	return err
}

func (g *HTTPGateway) mutate(ctx context.Context, op, method, path string, payload any) (string, error) {
	body, err := g.do(ctx, op, g.mutationTimeout, method, path, payload)
	if err != nil {
		return "", err
	}
	var env envelope
	// No body, or a body that is not JSON, is still a success.
	_ = json.Unmarshal(body, &env)
	return env.Message, nil
}

// do runs one request under its own timeout and maps every failure mode onto
// the gateway error taxonomy.
func (g *HTTPGateway) do(ctx context.Context, op string, timeout time.Duration, method, path string, payload any) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(callCtx, method, g.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, g.transportError(ctx, callCtx, op, timeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, g.transportError(ctx, callCtx, op, timeout, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServerError{Op: op, Status: resp.StatusCode, Message: serverMessage(resp.StatusCode, body)}
	}
	return body, nil
}

func (g *HTTPGateway) transportError(parent, callCtx context.Context, op string, timeout time.Duration, err error) error {
	if parent.Err() != nil {
		// The caller gave up; that is neither a timeout nor an outage.
		return fmt.Errorf("%s: %w", op, parent.Err())
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return &AbortError{Op: op, Timeout: timeout}
	}
	return &NetworkError{Op: op, Err: err}
}

func serverMessage(status int, body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Error != "" {
			return env.Error
		}
		if env.Message != "" {
			return env.Message
		}
	}
	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("%s (%d)", text, status)
	}
	return "request failed with status " + strconv.Itoa(status)
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}
