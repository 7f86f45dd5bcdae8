package llm

import (
	"context"
	"net/http"
)

type contextKey string

const (
	requestIDKey    contextKey = "llm_request_id"
	requestIDHeader            = "X-Request-Id"
)

// WithRequestID attaches the inbound request id so outbound LLM calls can be correlated.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request id set by WithRequestID, if any.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// contextAwareTransport copies the request id from the context into the X-Request-Id header.
type contextAwareTransport struct {
	base http.RoundTripper
}

func (t *contextAwareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := RequestIDFromContext(req.Context())
	if id == "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set(requestIDHeader, id)
	return t.base.RoundTrip(clone)
}

func newHTTPClient() *http.Client {
	return &http.Client{Transport: &contextAwareTransport{base: http.DefaultTransport}}
}
