package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Request builds and executes a single HTTP request.
type Request struct {
	client         *http.Client
	requestCounter metric.Int64Counter
	providerName   string
	tracer         trace.Tracer
	baseURL        string
	headers        map[string]string
	queryParams    map[string]string
	body           any
	result         any
}

// Response wraps http.Response with the drained body.
type Response struct {
	*http.Response
	body []byte
}

// Body returns the response body.
func (r *Response) Body() []byte { return r.body }

// IsError reports whether the status code indicates an error (>= 400).
func (r *Response) IsError() bool { return r.StatusCode >= 400 }

// SetHeader sets a request header.
func (r *Request) SetHeader(key, value string) *Request {
	r.headers[key] = value
	return r
}

// SetQueryParam sets a query parameter.
func (r *Request) SetQueryParam(key, value string) *Request {
	if r.queryParams == nil {
		r.queryParams = make(map[string]string)
	}
	r.queryParams[key] = value
	return r
}

// SetBody sets the JSON request body.
func (r *Request) SetBody(body any) *Request {
	r.body = body
	return r
}

// SetResult sets the destination for JSON decoding of 2xx responses.
func (r *Request) SetResult(result any) *Request {
	r.result = result
	return r
}

// Get executes a GET request against path (joined with the base URL).
func (r *Request) Get(ctx context.Context, path string) (*Response, error) {
	return r.execute(ctx, http.MethodGet, path)
}

// Post executes a POST request against path.
func (r *Request) Post(ctx context.Context, path string) (*Response, error) {
	return r.execute(ctx, http.MethodPost, path)
}

func (r *Request) execute(ctx context.Context, method, path string) (*Response, error) {
	fullURL := r.buildURL(path)

	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("http.%s", strings.ToLower(method)),
		trace.WithAttributes(
			attribute.String("provider", r.providerName),
			attribute.String("url", fullURL),
		),
	)
	defer span.End()

	var bodyReader io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	r.requestCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", r.providerName),
		attribute.String("method", method),
	))

	resp, err := r.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read response body: %w", err)
	}

	span.SetAttributes(attribute.Int("status_code", resp.StatusCode))

	wrapped := &Response{Response: resp, body: body}
	if wrapped.IsError() {
		span.SetStatus(codes.Error, resp.Status)
		return wrapped, nil
	}

	if r.result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, r.result); err != nil {
			span.RecordError(err)
			return wrapped, fmt.Errorf("decode response: %w", err)
		}
	}

	span.SetStatus(codes.Ok, "")
	return wrapped, nil
}

func (r *Request) buildURL(path string) string {
	full := path
	if r.baseURL != "" && !strings.HasPrefix(path, "http") {
		full = strings.TrimSuffix(r.baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	}
	if len(r.queryParams) == 0 {
		return full
	}
	values := url.Values{}
	for k, v := range r.queryParams {
		values.Set(k, v)
	}
	sep := "?"
	if strings.Contains(full, "?") {
		sep = "&"
	}
	return full + sep + values.Encode()
}
