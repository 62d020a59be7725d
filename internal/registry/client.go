// Package registry talks to the external landings registry service and maps
// its raw payloads into domain landings. All calls are read-only; error
// handling at the source boundary lives in the fetcher, which degrades
// failures to empty results.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DataKind selects which registry feed to query.
type DataKind string

const (
	KindDeclaration DataKind = "declaration"
	KindELog        DataKind = "eLog"
	KindSalesNotes  DataKind = "salesNotes"
)

// RawLanding is the registry's wire shape for declaration, eLog, and
// sales-note entries.
type RawLanding struct {
	PLN         string         `json:"pln"`
	LandingDate string         `json:"landingDate"`
	Items       []RawCatchItem `json:"items"`
}

// RawCatchItem is one species line as the registry reports it. Conversion
// factors are not on the wire; mapping looks them up.
type RawCatchItem struct {
	Species      string  `json:"species"`
	State        string  `json:"state"`
	Presentation string  `json:"presentation"`
	Weight       float64 `json:"weight"`
}

// RawCatchActivity is the under-10-metre feed: one document per vessel/day.
type RawCatchActivity struct {
	PLN        string         `json:"pln"`
	Date       string         `json:"date"`
	Activities []RawCatchItem `json:"activities"`
}

// Client is the port the fetcher uses. CatchActivity returns (nil, nil) when
// the registry has no document for the vessel/day.
type Client interface {
	LandingData(ctx context.Context, date time.Time, pln string, kind DataKind) ([]RawLanding, error)
	CatchActivity(ctx context.Context, date time.Time, pln string) (*RawCatchActivity, error)
}

// HTTPClient implements Client against the registry's JSON API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTP(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) LandingData(ctx context.Context, date time.Time, pln string, kind DataKind) ([]RawLanding, error) {
	endpoint := fmt.Sprintf("%s/v1/landings?%s", c.baseURL, url.Values{
		"kind": {string(kind)},
		"pln":  {pln},
		"date": {date.UTC().Format("2006-01-02")},
	}.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch %s data: %w", kind, err)
	}
	if body == nil {
		return nil, nil
	}

	var raws []RawLanding
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("decode %s data: %w", kind, err)
	}
	return raws, nil
}

func (c *HTTPClient) CatchActivity(ctx context.Context, date time.Time, pln string) (*RawCatchActivity, error) {
	endpoint := fmt.Sprintf("%s/v1/catch-activity?%s", c.baseURL, url.Values{
		"pln":  {pln},
		"date": {date.UTC().Format("2006-01-02")},
	}.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch catch activity: %w", err)
	}
	if body == nil || string(body) == "null" {
		return nil, nil
	}

	var raw RawCatchActivity
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode catch activity: %w", err)
	}
	return &raw, nil
}

// get performs the request and returns the body, or nil for a 404.
func (c *HTTPClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}
