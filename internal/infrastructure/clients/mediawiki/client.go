// Package mediawiki is a small client for the MediaWiki Action API.
package mediawiki

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseBytes = 4 << 20

// Page is a resolved page with its plain-text extract.
type Page struct {
	Title   string
	Extract string
	FullURL string
	Missing bool
}

// APIError is an error object returned in a 200 response body.
type APIError struct {
	Code string
	Info string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mediawiki api error %s: %s", e.Code, e.Info)
}

type Client interface {
	QueryPage(ctx context.Context, title string) (*Page, error)
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

type HTTPClient struct {
	apiURL     string
	userAgent  string
	httpClient *http.Client
}

func NewClient(apiURL, userAgent string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		apiURL:    apiURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// APIURL returns the configured endpoint.
func (c *HTTPClient) APIURL() string {
	return c.apiURL
}

// QueryPage fetches the plain-text extract of title, following redirects.
// Section headings are kept as "== Heading ==" lines.
func (c *HTTPClient) QueryPage(ctx context.Context, title string) (*Page, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "extracts|info")
	params.Set("explaintext", "1")
	params.Set("exsectionformat", "wiki")
	params.Set("inprop", "url")
	params.Set("redirects", "1")
	params.Set("titles", title)

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	page := gjson.GetBytes(body, "query.pages.0")
	if !page.Exists() {
		return &Page{Title: title, Missing: true}, nil
	}

	return &Page{
		Title:   page.Get("title").String(),
		Extract: page.Get("extract").String(),
		FullURL: page.Get("fullurl").String(),
		Missing: page.Get("missing").Bool() || page.Get("invalid").Bool(),
	}, nil
}

// Search returns up to limit page titles matching query, best match first.
func (c *HTTPClient) Search(ctx context.Context, query string, limit int) ([]string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", strconv.Itoa(limit))

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	titles := []string{}
	for _, t := range gjson.GetBytes(body, "query.search.#.title").Array() {
		titles = append(titles, t.String())
	}
	return titles, nil
}

func (c *HTTPClient) get(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("format", "json")
	params.Set("formatversion", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mediawiki api returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("mediawiki api returned invalid json")
	}
	if apiErr := gjson.GetBytes(body, "error"); apiErr.Exists() {
		return nil, &APIError{Code: apiErr.Get("code").String(), Info: apiErr.Get("info").String()}
	}
	return body, nil
}
