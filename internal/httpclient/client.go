// Package httpclient provides an OTEL-instrumented HTTP client for upstream
// service adapters.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultDialKeepAlive   = 10 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	metricRequestCounter = "http_client_requests_total"
)

// Client builds and executes instrumented requests against one upstream.
type Client struct {
	client         *http.Client
	requestCounter metric.Int64Counter
	providerName   string
	tracer         trace.Tracer
	baseURL        string
	defaultHeaders map[string]string
}

// Options configures a Client.
type Options struct {
	providerName   string
	baseURL        string
	requestTimeout time.Duration
	headers        map[string]string
	httpClient     *http.Client
}

// Option is a functional option for Client.
type Option func(*Options)

// WithProviderName labels metrics and spans with the upstream's name.
func WithProviderName(name string) Option {
	return func(o *Options) { o.providerName = name }
}

// WithBaseURL sets the URL prefix for relative request paths.
func WithBaseURL(url string) Option {
	return func(o *Options) { o.baseURL = url }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.requestTimeout = d }
}

// WithHeaders sets headers applied to every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *Options) { o.headers = headers }
}

// WithHTTPClient substitutes the underlying http.Client (tests).
func WithHTTPClient(c *http.Client) Option {
	return func(o *Options) { o.httpClient = c }
}

// New creates an instrumented HTTP client.
func New(opts ...Option) (*Client, error) {
	options := &Options{
		providerName:   "default",
		requestTimeout: defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(options)
	}

	httpClient := options.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: options.requestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					KeepAlive: defaultDialKeepAlive,
				}).DialContext,
				MaxConnsPerHost: defaultMaxConnsPerHost,
				IdleConnTimeout: defaultIdleConnTimeout,
			},
		}
	}

	httpClient.Transport = otelhttp.NewTransport(
		httpClient.Transport,
		otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
			return otelhttptrace.NewClientTrace(ctx)
		}),
	)

	meter := otel.Meter(
		"instrumented_http_client",
		metric.WithInstrumentationAttributes(attribute.String("provider", options.providerName)),
	)
	requestCounter, err := meter.Int64Counter(
		metricRequestCounter,
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		client:         httpClient,
		requestCounter: requestCounter,
		providerName:   options.providerName,
		tracer:         otel.Tracer("instrumented_http_client"),
		baseURL:        options.baseURL,
		defaultHeaders: options.headers,
	}, nil
}

// NewRequest creates a request builder.
func (c *Client) NewRequest() *Request {
	headers := make(map[string]string, len(c.defaultHeaders))
	for k, v := range c.defaultHeaders {
		headers[k] = v
	}
	return &Request{
		client:         c.client,
		requestCounter: c.requestCounter,
		providerName:   c.providerName,
		tracer:         c.tracer,
		baseURL:        c.baseURL,
		headers:        headers,
	}
}
