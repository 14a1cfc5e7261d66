package freightapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "freightchat/freightapi"

// Client talks to the primary API and the worker data service.
// It holds no session state; callers pass the bearer token per call.
type Client struct {
	APIBase    string
	WorkerBase string
	HTTP       *http.Client

	tracer trace.Tracer
}

func NewClient(apiBase, workerBase string, timeout time.Duration) *Client {
	return &Client{
		APIBase:    strings.TrimRight(apiBase, "/"),
		WorkerBase: strings.TrimRight(workerBase, "/"),
		HTTP: &http.Client{
			Timeout: timeout,
		},
		tracer: otel.Tracer(tracerName),
	}
}

// File is an in-memory upload payload.
type File struct {
	Filename string
	Data     []byte
}

type request struct {
	span      string
	method    string
	url       string
	token     string
	body      io.Reader
	mediaType string
}

func (c *Client) jsonRequest(span, method, url, token string, payload interface{}) (*request, error) {
	r := &request{span: span, method: method, url: url, token: token}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		r.body = bytes.NewReader(b)
		r.mediaType = "application/json"
	}
	return r, nil
}

func (c *Client) multipartRequest(span, url, token, field string, file File, fields map[string]string) (*request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(field, file.Filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	return &request{
		span:      span,
		method:    http.MethodPost,
		url:       url,
		token:     token,
		body:      &buf,
		mediaType: w.FormDataContentType(),
	}, nil
}

// do sends r and decodes a 2xx body into out. Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, r *request, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, r.span,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", r.method),
			attribute.String("http.url", r.url),
		),
	)
	defer span.End()

	err := c.send(ctx, span, r, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) send(ctx context.Context, span trace.Span, r *request, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, r.method, r.url, r.body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if r.mediaType != "" {
		req.Header.Set("Content-Type", r.mediaType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.url, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorText(body)}
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// errorText extracts the backend's error text from a JSON body, if any.
func errorText(body []byte) string {
	var env struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	if env.Error != "" {
		return env.Error
	}
	return env.Message
}

// checkSuccess turns a 2xx {success:false} payload into *APIError.
func checkSuccess(status Status) error {
	if status.Success {
		return nil
	}
	return &APIError{StatusCode: http.StatusOK, Message: status.Error}
}
