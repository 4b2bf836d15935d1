package ratelimit

import (
	"net/http"
	"strconv"
)

// WriteHeaders stamps the X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset headers onto a response. Retry-After is added only
// when the request was denied.
func WriteHeaders(w http.ResponseWriter, res Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
	if !res.Allowed {
		h.Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
	}
}

// headerWriter holds a rate limit decision and stamps it onto the response
// the moment the wrapped handler commits one, whether through WriteHeader
// or a direct body write.
type headerWriter struct {
	http.ResponseWriter
	result Result
	sent   bool
}

// NewResponseWriter wraps w so the rate limit headers land on whatever
// response the handler ends up producing.
func NewResponseWriter(w http.ResponseWriter, res Result) *headerWriter {
	return &headerWriter{ResponseWriter: w, result: res}
}

func (hw *headerWriter) stamp() {
	if hw.sent {
		return
	}
	hw.sent = true
	WriteHeaders(hw.ResponseWriter, hw.result)
}

func (hw *headerWriter) WriteHeader(code int) {
	hw.stamp()
	hw.ResponseWriter.WriteHeader(code)
}

func (hw *headerWriter) Write(b []byte) (int, error) {
	hw.stamp()
	return hw.ResponseWriter.Write(b)
}

// Unwrap exposes the underlying writer for http.ResponseController.
func (hw *headerWriter) Unwrap() http.ResponseWriter {
	return hw.ResponseWriter
}

// BuildKey derives the bucket key for one request. The scope prefix keeps
// an IP and a session with the same identifier in separate buckets.
func BuildKey(scope Scope, identifier, tierName string) string {
	prefix := "unknown"
	switch scope {
	case ScopeIP:
		prefix = "ip"
	case ScopeSession:
		prefix = "session"
	}
	return prefix + ":" + identifier + ":" + tierName
}
