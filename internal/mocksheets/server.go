// Package mocksheets implements a minimal spreadsheet-export lookalike for
// tests: per-gid CSV fixtures behind the same URL shape the real host
// serves, plus injectable failures and call recording.
package mocksheets

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// Call records a request made to the mock server.
type Call struct {
	Method  string
	Path    string
	SheetID string
	GID     string
}

// Server serves CSV fixtures keyed by gid.
type Server struct {
	mu       sync.Mutex
	calls    []Call
	csvByGID map[string]string

	// failures maps gid to a status code to respond with. A negative
	// remaining count fails forever; a positive one decrements per hit,
	// which lets tests exercise retry-then-succeed flows.
	failures map[string]*failure
}

type failure struct {
	status    int
	remaining int
}

// New constructs an empty mock server.
func New() *Server {
	return &Server{
		csvByGID: make(map[string]string),
		failures: make(map[string]*failure),
	}
}

// SetCSV registers the CSV body served for a gid.
func (s *Server) SetCSV(gid, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.csvByGID[gid] = body
}

// FailWith makes every request for gid respond with the given status.
func (s *Server) FailWith(gid string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[gid] = &failure{status: status, remaining: -1}
}

// FailNTimes makes the next n requests for gid respond with the given
// status before falling through to the fixture.
func (s *Server) FailNTimes(gid string, status int, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[gid] = &failure{status: status, remaining: n}
}

// Calls returns a snapshot of requests seen so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Handler returns an http.Handler serving the export surface:
// GET /spreadsheets/d/{sheetID}/export?format=csv&gid={gid}.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/spreadsheets/d/", s.handleExport)
	return mux
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/spreadsheets/d/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "export" {
		http.NotFound(w, r)
		return
	}
	sheetID := parts[0]
	gid := r.URL.Query().Get("gid")

	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, SheetID: sheetID, GID: gid})
	if f, ok := s.failures[gid]; ok && f.remaining != 0 {
		if f.remaining > 0 {
			f.remaining--
		}
		status := f.status
		s.mu.Unlock()
		http.Error(w, fmt.Sprintf("injected failure for gid %s", gid), status)
		return
	}
	body, ok := s.csvByGID[gid]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	_, _ = w.Write([]byte(body))
}
