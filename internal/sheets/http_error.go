package sheets

import (
	"fmt"
	"net/http"
	"strings"
)

// HTTPError is a sanitized summary of a non-2xx export response.
//
// Export endpoints respond with full HTML pages on failure; keep only a
// short snippet rather than carrying the body around.
type HTTPError struct {
	Op         string
	StatusCode int
	Status     string

	// Snippet is a truncated, single-line hint from the response body.
	Snippet string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "sheet export error"
	}
	msg := fmt.Sprintf("sheet export error: op=%s status=%s", strings.TrimSpace(e.Op), strings.TrimSpace(e.Status))
	if s := strings.TrimSpace(e.Snippet); s != "" {
		msg += " body=" + s
	}
	return msg
}

func newHTTPError(op string, resp *http.Response, body []byte) *HTTPError {
	h := &HTTPError{Op: op}
	if resp != nil {
		h.StatusCode = resp.StatusCode
		h.Status = resp.Status
	}
	h.Snippet = truncateBody(body)
	return h
}

func truncateBody(body []byte) string {
	const max = 256
	b := body
	if len(b) > max {
		b = b[:max]
	}
	s := string(b)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(body) > max {
		return s + "..."
	}
	return s
}
