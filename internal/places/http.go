package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/neexbeast/vietnam-poi-finder/internal/metrics"
)

const (
	httpTimeout     = 10 * time.Second
	overpassTimeout = 30 * time.Second

	// userAgent identifies us to OpenStreetMap services, which require one.
	userAgent = "VietnamPOIFinder/1.0"
)

// secretParams are query parameters that carry credentials.
var secretParams = []string{"appid", "key", "api_key", "apikey"}

// redactURL masks credential query parameters so the URL is safe to put in
// errors and logs.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable url>"
	}
	q := u.Query()
	masked := false
	for _, k := range secretParams {
		if q.Has(k) {
			q.Set(k, "REDACTED")
			masked = true
		}
	}
	if masked {
		u.RawQuery = q.Encode()
	}
	return u.Redacted()
}

// newHTTPClient returns an http.Client with the given timeout.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// request describes one upstream call.
type request struct {
	provider    string
	method      string
	url         string
	body        io.Reader
	contentType string
	// requireJSON rejects responses whose Content-Type is not JSON.
	requireJSON bool
}

// do performs the request and decodes the JSON response into dst.
func do(ctx context.Context, client *http.Client, r request, dst any) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream(r.provider, time.Since(start).Seconds(), err) }()

	safeURL := redactURL(r.url)

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, r.body)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", safeURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	resp, err := client.Do(req)
	if err != nil {
		// *url.Error repeats the request URL, so only its cause is kept.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("%s %s: %w", r.method, safeURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: r.method, URL: safeURL, StatusCode: resp.StatusCode}
	}

	if r.requireJSON {
		ct := resp.Header.Get("Content-Type")
		if !strings.Contains(ct, "application/json") {
			return fmt.Errorf("%s %s returned non-JSON content type %q", r.method, safeURL, ct)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", safeURL, err)
	}

	return nil
}

// doGet performs a GET request and decodes the JSON response into dst.
func doGet(ctx context.Context, client *http.Client, provider, rawURL string, dst any) error {
	return do(ctx, client, request{provider: provider, method: http.MethodGet, url: rawURL}, dst)
}
