package patentfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/joelkehle/patent-research/internal/patentdoc"
)

const (
	defaultBaseURL = "https://patents.google.com"
	defaultTimeout = 30 * time.Second

	// Detail pages with inline descriptions run to a few MB.
	maxBodyBytes = 8 << 20
)

// browserHeaders make the request look like a regular browser session; the
// patent pages are served without them, but rate limiting is stricter.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Fetcher struct {
	baseURL string
	client  *http.Client
}

func New(cfg Config) *Fetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Fetcher{baseURL: cfg.BaseURL, client: client}
}

// Error reports that the patent page could not be retrieved. It is distinct
// from a parsed-but-empty record: extraction problems degrade to sentinel
// fields, only the network layer produces an Error.
type Error struct {
	PatentID   string
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("patent fetch %s: %v", e.PatentID, e.Err)
	}
	return fmt.Sprintf("patent fetch %s: unexpected status %d", e.PatentID, e.StatusCode)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

func (e *Error) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// PageURL returns the page address a raw patent number resolves to. Handy
// for "open it yourself" hints when a fetch fails.
func (f *Fetcher) PageURL(rawNumber string) string {
	return fmt.Sprintf("%s/patent/%s/en", f.baseURL, patentdoc.Normalize(rawNumber))
}

// Fetch normalizes rawNumber, retrieves its detail page, and extracts the
// bibliographic fields. A non-nil error is always a *Error; when the page
// arrives, extraction never fails, it fills what it can and leaves the rest
// at sentinels.
func (f *Fetcher) Fetch(ctx context.Context, rawNumber string) (patentdoc.Record, error) {
	id := patentdoc.Normalize(rawNumber)
	pageURL := fmt.Sprintf("%s/patent/%s/en", f.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return patentdoc.Record{}, &Error{PatentID: id, URL: pageURL, Err: err}
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	res, err := f.client.Do(req)
	if err != nil {
		log.Printf("patent-fetch request failed id=%s err=%v", id, err)
		return patentdoc.Record{}, &Error{PatentID: id, URL: pageURL, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		log.Printf("patent-fetch unexpected status id=%s status=%d", id, res.StatusCode)
		return patentdoc.Record{}, &Error{PatentID: id, URL: pageURL, StatusCode: res.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		log.Printf("patent-fetch body read failed id=%s err=%v", id, err)
		return patentdoc.Record{}, &Error{PatentID: id, URL: pageURL, Err: err}
	}

	rec := patentdoc.ExtractHTML(string(body), id)
	log.Printf("patent-fetch ok id=%s title_len=%d claims_len=%d images=%d",
		id, len(rec.Title), len(rec.Claims), len(rec.Images))
	return rec, nil
}
