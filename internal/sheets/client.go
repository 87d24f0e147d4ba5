// Package sheets fetches the raw CSV text behind public spreadsheet
// exports. It only retrieves bytes; parsing belongs to sheetcsv.
package sheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dealroom-caching/tokyo-ecosystem-data/internal/fetchpool"
)

// DefaultBaseURL is the public spreadsheet export host.
const DefaultBaseURL = "https://docs.google.com"

// Source describes one tab of the source spreadsheet.
type Source struct {
	// Key is the name the tab's table is stored under in the snapshot.
	Key string
	// Name is the human-readable tab title, used only for logging.
	Name string
	// GID is the export sub-identifier of the tab.
	GID string
}

// Client fetches CSV exports for the tabs of one spreadsheet.
type Client struct {
	baseURL *url.URL
	sheetID string
	http    *http.Client
}

// NewClient constructs a client for the given spreadsheet. baseURL may be
// empty to use DefaultBaseURL; tests point it at a local server. timeout
// bounds each export request end to end.
func NewClient(baseURL, sheetID string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	sheetID = strings.TrimSpace(sheetID)
	if sheetID == "" {
		return nil, fmt.Errorf("sheet id is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: base,
		sheetID: sheetID,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// FetchCSV retrieves the raw CSV text for one source tab.
//
// Non-2xx responses yield a *HTTPError; rate limiting and server-side
// failures are additionally wrapped in *fetchpool.TransientError so the
// caller's retry loop can distinguish them. The response body is returned
// as-is; the parser only looks at the character stream, never the MIME
// type.
func (c *Client) FetchCSV(ctx context.Context, src Source) (string, error) {
	u := c.exportURL(src)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", src.Key, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("fetch %s: read body: %w", src.Key, err)
	}
	if resp.StatusCode/100 != 2 {
		herr := newHTTPError("export "+src.Key, resp, b)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", &fetchpool.TransientError{Err: herr}
		}
		return "", herr
	}
	return string(b), nil
}

func (c *Client) exportURL(src Source) *url.URL {
	u := c.baseURL.ResolveReference(&url.URL{
		Path: fmt.Sprintf("spreadsheets/d/%s/export", url.PathEscape(c.sheetID)),
	})
	q := url.Values{}
	q.Set("format", "csv")
	q.Set("gid", strings.TrimSpace(src.GID))
	u.RawQuery = q.Encode()
	return u
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse export base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("export base URL must include a host (got %q)", raw)
	}
	// Base path must end with a slash so ResolveReference treats it as a directory.
	u.Path = strings.TrimRight(u.Path, "/") + "/"
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
