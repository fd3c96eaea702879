package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/dukex/flowcanvas/pkg/models"
	"github.com/dukex/flowcanvas/pkg/otelhelper"
	"github.com/r3labs/sse/v2"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/cenkalti/backoff.v1"
)

// NodeExecutionEventName is the SSE event name carrying node progress.
const NodeExecutionEventName = "node-execution"

// EventHandler receives each node execution event in arrival order.
type EventHandler func(models.NodeExecutionEvent)

// Debug starts a debug run and streams its node execution events to handler
// until the service closes the stream or ctx is done. Cancelling ctx is not
// an error.
func (c *Client) Debug(ctx context.Context, id string, inputs map[string]any, handler EventHandler) (err error) {
	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "client.Debug", attribute.String(otelhelper.WorkflowIDKey, id))
	defer func() { otelhelper.Finish(span, err) }()

	if inputs == nil {
		inputs = map[string]any{}
	}

	body, err := json.Marshal(inputs)
	if err != nil {
		return err
	}

	stream := c.newStream(c.endpoint(id, "debug"), body)
	logger := c.logger.With("workflow_id", id)

	err = stream.SubscribeRawWithContext(ctx, func(msg *sse.Event) {
		if msg == nil || string(msg.Event) != NodeExecutionEventName {
			return
		}

		var event models.NodeExecutionEvent

		decodeErr := json.Unmarshal(msg.Data, &event)
		if decodeErr != nil {
			logger.WarnContext(ctx, "skipping malformed node execution event", "error", decodeErr)

			return
		}

		handler(event)
	})

	if ctx.Err() != nil {
		logger.DebugContext(ctx, "debug stream cancelled")

		return nil
	}

	return err
}

// newStream builds an SSE client that posts body instead of issuing a GET
// and never reconnects.
func (c *Client) newStream(target string, body []byte) *sse.Client {
	stream := sse.NewClient(target)

	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	stream.Connection = &http.Client{
		Transport: &postTransport{base: base, body: body},
		Jar:       c.http.Jar,
	}
	stream.Headers["Content-Type"] = "application/json"
	stream.ReconnectStrategy = &backoff.StopBackOff{}
	stream.ResponseValidator = func(_ *sse.Client, resp *http.Response) error {
		if resp.StatusCode == http.StatusOK {
			return nil
		}

		_ = resp.Body.Close()

		return backoff.Permanent(newAPIError(resp))
	}

	return stream
}

type postTransport struct {
	base http.RoundTripper
	body []byte
}

func (t *postTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	post := req.Clone(req.Context())
	post.Method = http.MethodPost
	post.ContentLength = int64(len(t.body))
	post.Body = io.NopCloser(bytes.NewReader(t.body))
	post.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(t.body)), nil
	}

	return t.base.RoundTrip(post)
}
