// Package client talks to the workflow service that stores and runs workflows.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	BasePath = "/api/workflows"

	DefaultPollInterval = time.Second
)

// Client is stateless apart from its configuration and safe for concurrent use.
// No call is retried.
type Client struct {
	baseURL      string
	http         *http.Client
	tracer       trace.Tracer
	logger       *slog.Logger
	pollInterval time.Duration
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// New creates a client for the service at serverURL, e.g. http://localhost:8080.
func New(serverURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(serverURL, "/") + BasePath,
		http:         http.DefaultClient,
		tracer:       otelhelper.DefaultTracer(),
		logger:       slog.Default(),
		pollInterval: DefaultPollInterval,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With("module", "client")

	return c
}

func (c *Client) endpoint(parts ...string) string {
	if len(parts) == 0 {
		return c.baseURL
	}

	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}

	return c.baseURL + "/" + strings.Join(escaped, "/")
}

// do sends the request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, target string, body any) ([]byte, error) {
	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}

		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.String(otelhelper.HTTPMethodKey, method))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int(otelhelper.HTTPStatusKey, resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return data, nil
}

// List returns the ids of every workflow. The service may answer with ids or
// with full workflow objects.
func (c *Client) List(ctx context.Context) (ids []string, err error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client.List")
	defer func() { otelhelper.Finish(span, err) }()

	data, err := c.do(ctx, http.MethodGet, c.endpoint(), nil)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage

	err = json.Unmarshal(data, &items)
	if err != nil {
		return nil, fmt.Errorf("failed to decode workflow list: %w", err)
	}

	ids = make([]string, 0, len(items))

	for _, item := range items {
		var id string
		if json.Unmarshal(item, &id) == nil {
			ids = append(ids, id)

			continue
		}

		var obj struct {
			ID string `json:"id"`
		}

		err = json.Unmarshal(item, &obj)
		if err != nil {
			return nil, fmt.Errorf("failed to decode workflow list entry: %w", err)
		}

		ids = append(ids, obj.ID)
	}

	return ids, nil
}

// ListWorkflows fetches every workflow returned by List.
func (c *Client) ListWorkflows(ctx context.Context) ([]*models.Workflow, error) {
	ids, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		w, err := c.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, w)
	}

	return workflows, nil
}

func (c *Client) Get(ctx context.Context, id string) (w *models.Workflow, err error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client.Get", attribute.String(otelhelper.WorkflowIDKey, id))
	defer func() { otelhelper.Finish(span, err) }()

	data, err := c.do(ctx, http.MethodGet, c.endpoint(id), nil)
	if err != nil {
		return nil, err
	}

	return decodeWorkflow(data)
}

func decodeWorkflow(data []byte) (*models.Workflow, error) {
	var w models.Workflow

	err := json.Unmarshal(data, &w)
	if err != nil {
		return nil, fmt.Errorf("failed to decode workflow: %w", err)
	}

	return models.FromWire(&w), nil
}

// Save creates the workflow with POST when it has no id and replaces it with
// PUT otherwise. It returns the workflow as stored by the service.
func (c *Client) Save(ctx context.Context, w *models.Workflow) (saved *models.Workflow, err error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client.Save",
		attribute.String(otelhelper.WorkflowIDKey, w.ID),
		attribute.String(otelhelper.WorkflowNameKey, w.Name),
	)
	defer func() { otelhelper.Finish(span, err) }()

	method, target := http.MethodPost, c.endpoint()
	if w.ID != "" {
		method, target = http.MethodPut, c.endpoint(w.ID)
	}

	wire := models.ToWire(w)

	data, err := c.do(ctx, method, target, wire)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		if wire.ID == "" {
			return nil, fmt.Errorf("save did not return a workflow id: %w", ErrEmptyResponse)
		}

		return models.FromWire(wire), nil
	}

	saved, err = decodeWorkflow(data)
	if err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "workflow saved", "workflow_id", saved.ID, "method", method)

	return saved, nil
}

func (c *Client) Delete(ctx context.Context, id string) (err error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client.Delete", attribute.String(otelhelper.WorkflowIDKey, id))
	defer func() { otelhelper.Finish(span, err) }()

	data, err := c.do(ctx, http.MethodDelete, c.endpoint(id), nil)
	if err != nil {
		return err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var result struct {
		Success *bool `json:"success"`
	}

	if json.Unmarshal(data, &result) == nil && result.Success != nil && !*result.Success {
		return fmt.Errorf("%w: %s", ErrDeleteRejected, id)
	}

	return nil
}

// Execute starts a run and returns its execution id.
func (c *Client) Execute(ctx context.Context, id string, inputs map[string]any) (executionID string, err error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client.Execute", attribute.String(otelhelper.WorkflowIDKey, id))
	defer func() { otelhelper.Finish(span, err) }()

	if inputs == nil {
		inputs = map[string]any{}
	}

	data, err := c.do(ctx, http.MethodPost, c.endpoint(id, "execute"), inputs)
	if err != nil {
		return "", err
	}

	executionID = scalarField(data, "executionId")
	if executionID == "" {
		return "", fmt.Errorf("execute did not return an execution id: %w", ErrEmptyResponse)
	}

	span.SetAttributes(attribute.String(otelhelper.ExecutionIDKey, executionID))

	return executionID, nil
}

// Status returns the state of a run.
func (c *Client) Status(ctx context.Context, id, executionID string) (status models.ExecutionStatus, err error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client.Status",
		attribute.String(otelhelper.WorkflowIDKey, id),
		attribute.String(otelhelper.ExecutionIDKey, executionID),
	)
	defer func() { otelhelper.Finish(span, err) }()

	data, err := c.do(ctx, http.MethodGet, c.endpoint(id, "executions", executionID), nil)
	if err != nil {
		return "", err
	}

	value := scalarField(data, "status")
	if value == "" {
		return "", fmt.Errorf("status response was empty: %w", ErrEmptyResponse)
	}

	return models.ExecutionStatus(strings.ToUpper(value)), nil
}

// PollStatus calls Status every poll interval until the run reaches a
// terminal state or ctx is done. onStatus, if set, sees every answer.
func (c *Client) PollStatus(ctx context.Context, id, executionID string, onStatus func(models.ExecutionStatus)) (models.ExecutionStatus, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.Status(ctx, id, executionID)
		if err != nil {
			return "", err
		}

		if onStatus != nil {
			onStatus(status)
		}

		if status.IsTerminal() {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return status, ctx.Err()
		case <-ticker.C:
		}
	}
}

// scalarField reads key from a JSON object, a bare JSON string, or plain text.
func scalarField(data []byte, key string) string {
	trimmed := bytes.TrimSpace(data)

	var obj map[string]any
	if json.Unmarshal(trimmed, &obj) == nil {
		if v, ok := obj[key]; ok && v != nil {
			return strings.TrimSpace(fmt.Sprint(v))
		}

		return ""
	}

	var s string
	if json.Unmarshal(trimmed, &s) == nil {
		return strings.TrimSpace(s)
	}

	return string(trimmed)
}
