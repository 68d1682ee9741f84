package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds a single API call.
const DefaultTimeout = 30 * time.Second

// Payload is a decoded response body, before classification.
type Payload struct {
	StatusCode int
	// Body is the value found under the top-level "response" key.
	Body json.RawMessage
	// Text is set instead of Body when the API answered 414.
	Text string
}

// Transport performs a GET against a fully built URL.
type Transport interface {
	Get(ctx context.Context, rawURL string) (*Payload, error)
}

// HTTPTransport is the net/http backed Transport.
type HTTPTransport struct {
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewHTTPTransport creates a transport. A nil client gets DefaultTimeout.
func NewHTTPTransport(httpClient *http.Client, logger zerolog.Logger) *HTTPTransport {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPTransport{
		httpClient: httpClient,
		logger:     logger,
	}
}

// envelope is the wrapper every API response is nested under.
type envelope struct {
	Response json.RawMessage `json:"response"`
}

// Get issues the request and unwraps the response envelope.
func (t *HTTPTransport) Get(ctx context.Context, rawURL string) (*Payload, error) {
	redacted := RedactToken(rawURL)
	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, encodeRequestQuery(rawURL), nil)
	if err != nil {
		return nil, &TransportError{Op: "build request", URL: redacted, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "GET", URL: redacted, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read body", URL: redacted, StatusCode: resp.StatusCode, Err: err}
	}

	t.logger.Debug().
		Str("request_id", requestID).
		Str("url", redacted).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Int("bytes", len(body)).
		Msg("CRM API request completed")

	if resp.StatusCode == http.StatusRequestURITooLong {
		return &Payload{StatusCode: resp.StatusCode, Text: string(body)}, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &TransportError{
			Op:         "decode response",
			URL:        redacted,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), 512),
			Err:        err,
		}
	}
	if len(env.Response) == 0 || string(env.Response) == "null" {
		return nil, &TransportError{
			Op:         "decode response",
			URL:        redacted,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), 512),
			Err:        fmt.Errorf("%w: missing response envelope", ErrMalformedResponse),
		}
	}

	return &Payload{StatusCode: resp.StatusCode, Body: env.Response}, nil
}

// encodeRequestQuery percent-encodes the bytes of the query that may not
// appear raw in a request line. Existing escapes and separators are kept.
func encodeRequestQuery(rawURL string) string {
	i := strings.IndexByte(rawURL, '?')
	if i < 0 {
		return rawURL
	}

	const hex = "0123456789ABCDEF"
	query := rawURL[i+1:]

	var sb strings.Builder
	sb.Grow(len(rawURL) + 16)
	sb.WriteString(rawURL[:i+1])
	for j := 0; j < len(query); j++ {
		b := query[j]
		if b <= ' ' || b >= 0x7f || b == '"' || b == '#' || b == '<' || b == '>' {
			sb.WriteByte('%')
			sb.WriteByte(hex[b>>4])
			sb.WriteByte(hex[b&0x0f])
			continue
		}
		sb.WriteByte(b)
	}
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// IsURITooLong reports whether err came from a 414 response.
func IsURITooLong(err error) bool {
	return errors.Is(err, ErrURITooLong)
}
