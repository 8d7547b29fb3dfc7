package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"dormweb/pkg/apperrors"
	"dormweb/pkg/circuitbreaker"
	"dormweb/pkg/logging"
)

const (
	DefaultTimeout = 30 * time.Second

	msgNoResponse  = "Network request failed. Please check your connection."
	msgUnavailable = "Backend service is temporarily unavailable. Please try again later."
)

// File is a multipart upload attached to a Request.
type File struct {
	Field       string
	FileName    string
	ContentType string
	Content     io.Reader
}

type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	File    *File
	Token   string
	Headers map[string]string
}

// Client is the single configured HTTP transport to the backend REST API.
// Every non-2xx response and every transport failure leaves Do as an
// *apperrors.Error.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	breaker    *circuitbreaker.CircuitBreaker
	logger     *slog.Logger
	tracer     trace.Tracer
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout overrides the client timeout regardless of option order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logging.Discard(),
		tracer:     otel.Tracer("dormweb/transport"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	c.logger = c.logger.With(slog.String("component", "transport"))
	return c
}

// CountsAgainstBreaker reports whether err signals an unhealthy backend
// rather than a bad request. Requests aborted by the caller never count.
func CountsAgainstBreaker(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	appErr, ok := apperrors.As(err)
	if !ok {
		return true
	}
	return appErr.Kind == apperrors.KindNetwork || (appErr.Kind == apperrors.KindServer && appErr.Status >= 500)
}

// Do performs req and decodes a 2xx JSON body into out (which may be nil).
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Network(msgNoResponse).Wrap(err)
	}
	if c.breaker == nil {
		return c.do(ctx, req, out)
	}
	err := c.breaker.Execute(func() error { return c.do(ctx, req, out) })
	if errors.Is(err, circuitbreaker.ErrOpen) {
		c.logger.Warn("circuit open, request rejected", slog.String("path", req.Path))
		return apperrors.Network(msgUnavailable).Wrap(err)
	}
	return err
}

func (c *Client) do(ctx context.Context, req Request, out any) error {
	ctx, span := c.tracer.Start(ctx, req.Method+" "+req.Path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return apperrors.Network(err.Error()).Wrap(err)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.logger.Debug("backend request aborted", slog.String("method", req.Method),
				slog.String("path", req.Path), slog.String("reason", ctxErr.Error()))
			return apperrors.Network(msgNoResponse).Wrap(fmt.Errorf("%w: %w", ctxErr, err))
		}
		c.logger.Error("backend request failed", slog.String("method", req.Method),
			slog.String("path", req.Path), slog.String("error", err.Error()))
		return apperrors.Network(msgNoResponse).Wrap(err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.logger.Debug("backend response", slog.String("method", req.Method), slog.String("path", req.Path),
		slog.Int("status", resp.StatusCode), slog.Duration("latency", time.Since(start)))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return apperrors.Network(err.Error()).Wrap(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		appErr := errorFromStatus(resp.StatusCode, body)
		span.SetStatus(codes.Error, appErr.Message)
		return appErr
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return apperrors.Network(fmt.Sprintf("failed to decode response: %v", err)).Wrap(err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType = "application/json"
	)
	switch {
	case req.File != nil:
		buf := &bytes.Buffer{}
		mw := multipart.NewWriter(buf)
		part, err := mw.CreateFormFile(req.File.Field, req.File.FileName)
		if err != nil {
			return nil, fmt.Errorf("failed to create multipart body: %w", err)
		}
		if _, err := io.Copy(part, req.File.Content); err != nil {
			return nil, fmt.Errorf("failed to copy upload: %w", err)
		}
		if err := mw.Close(); err != nil {
			return nil, fmt.Errorf("failed to close multipart body: %w", err)
		}
		body = buf
		contentType = mw.FormDataContentType()
	case req.Body != nil:
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

type errorBody struct {
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
}

// backendMessage pulls a human message out of an error body. The backend sends
// either a string or a list of validation messages.
func backendMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if len(eb.Message) > 0 {
		var s string
		if err := json.Unmarshal(eb.Message, &s); err == nil && s != "" {
			return s
		}
		var list []string
		if err := json.Unmarshal(eb.Message, &list); err == nil && len(list) > 0 {
			return strings.Join(list, "; ")
		}
	}
	return eb.Error
}

func errorFromStatus(status int, body []byte) *apperrors.Error {
	msg := backendMessage(body)
	switch {
	case status == http.StatusNotFound:
		if msg == "" {
			msg = "Resource not found"
		}
		e := apperrors.Validation(msg)
		e.Status = http.StatusNotFound
		return e
	case status >= 400 && status < 500:
		if msg == "" {
			msg = fmt.Sprintf("Client error: %d", status)
		}
		e := apperrors.Validation(msg)
		e.Status = status
		return e
	case status >= 500:
		if msg == "" {
			msg = fmt.Sprintf("Server error: %d", status)
		}
		return apperrors.Server(msg, status)
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP error: %d", status)
	}
	return apperrors.Server(msg, status)
}

// EncodeQuery flattens params into query values. A "filters" entry holding a
// map becomes filters[key]=value pairs; empty values are dropped.
func EncodeQuery(params map[string]any) url.Values {
	q := url.Values{}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := params[k]
		if k == "filters" {
			if filters, ok := v.(map[string]string); ok {
				fkeys := make([]string, 0, len(filters))
				for fk := range filters {
					fkeys = append(fkeys, fk)
				}
				sort.Strings(fkeys)
				for _, fk := range fkeys {
					if filters[fk] != "" {
						q.Add("filters["+fk+"]", filters[fk])
					}
				}
				continue
			}
		}
		if s := queryValue(v); s != "" {
			q.Set(k, s)
		}
	}
	return q
}

func queryValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		if t == 0 {
			return ""
		}
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
