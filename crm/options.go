package crm

import (
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	endpoint   Endpoint
	namespace  string
	format     string
	scope      string
	timeout    time.Duration
	httpClient *http.Client
	transport  Transport
	debug      bool
}

func defaultOptions() clientOptions {
	return clientOptions{
		endpoint:  DefaultEndpoint(),
		namespace: DefaultNamespace,
		format:    DefaultFormat,
		scope:     DefaultScope,
		timeout:   DefaultTimeout,
	}
}

// WithEndpoint sets the scheme, host and port requests are sent to.
func WithEndpoint(ep Endpoint) Option {
	return func(o *clientOptions) {
		o.endpoint = ep
	}
}

// WithNamespace sets the path prefix before the format segment.
func WithNamespace(namespace string) Option {
	return func(o *clientOptions) {
		if namespace != "" {
			o.namespace = namespace
		}
	}
}

// WithFormat sets the response format path segment.
func WithFormat(format string) Option {
	return func(o *clientOptions) {
		if format != "" {
			o.format = format
		}
	}
}

// WithScope sets the scope query parameter.
func WithScope(scope string) Option {
	return func(o *clientOptions) {
		if scope != "" {
			o.scope = scope
		}
	}
}

// WithTimeout sets the HTTP client timeout.
// Ignored when WithHTTPClient or WithTransport is also given.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithTransport replaces the transport entirely.
func WithTransport(t Transport) Option {
	return func(o *clientOptions) {
		o.transport = t
	}
}

// WithDebug logs every URL the client builds.
func WithDebug(debug bool) Option {
	return func(o *clientOptions) {
		o.debug = debug
	}
}
