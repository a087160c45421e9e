package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "generation_request_id"

// requestIDHeader correlates provider requests with a generation run.
const requestIDHeader = "X-Request-Id"

// WithRequestID attaches a generation request ID to ctx. Provider HTTP
// requests made with ctx carry it in the X-Request-Id header.
func WithRequestID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the generation request ID, if present.
func RequestIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(requestIDKey).(uuid.UUID)
	return id, ok
}

// contextAwareTransport copies the request ID from the request context
// into a header.
type contextAwareTransport struct {
	base http.RoundTripper
}

func (t *contextAwareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if id, ok := RequestIDFromContext(req.Context()); ok {
		req = req.Clone(req.Context())
		req.Header.Set(requestIDHeader, id.String())
	}
	return t.base.RoundTrip(req)
}

// newHTTPClient builds the client shared by the providers. A zero timeout
// leaves deadlines to the caller's context.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &contextAwareTransport{base: http.DefaultTransport},
		Timeout:   timeout,
	}
}
