// Package sapl implements an HTTP client for the SAPL REST API (Sistema de
// Apoio ao Processo Legislativo), the upstream source of municipal norma
// metadata and PDFs.
package sapl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://sapl.natal.rn.leg.br/api"
	normaEndpoint  = "/norma/normajuridica/"

	maxRetries     = 3
	initialBackoff = time.Second
)

// Rotated across requests to avoid trivial blocking.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
}

// NormaPayload is the raw metadata of one norma as returned by the API.
// Kept loosely typed because the payload is archived verbatim for audit.
type NormaPayload map[string]interface{}

// ID returns the SAPL primary id of the payload, or 0 if absent.
func (p NormaPayload) ID() int {
	if v, ok := p["id"].(float64); ok {
		return int(v)
	}
	return 0
}

// listResponse is SAPL's paginated envelope.
type listResponse struct {
	Count    int            `json:"count"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
	Results  []NormaPayload `json:"results"`
}

// Client consumes the SAPL REST API with automatic retry and exponential
// backoff on 429/5xx responses.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	requestCount int
}

// Option is a functional option for Client
type Option func(*Client)

// WithBaseURL overrides the API base URL
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout overrides the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new SAPL client
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// nextUserAgent rotates through the User-Agent pool.
func (c *Client) nextUserAgent() string {
	ua := userAgents[c.requestCount%len(userAgents)]
	c.requestCount++
	return ua
}

// get executes a GET with retry/backoff and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, rawURL string, out interface{}) error {
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.nextUserAgent())
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt == maxRetries-1 {
				return fmt.Errorf("failed to send request after %d attempts: %w", maxRetries, err)
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		}

		resp.Body.Close()

		// Don't retry on client errors other than rate limiting
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return fmt.Errorf("API error: %d", resp.StatusCode)
		}

		if attempt == maxRetries-1 {
			return fmt.Errorf("API error after %d attempts: %d", maxRetries, resp.StatusCode)
		}
	}

	return fmt.Errorf("request failed: %s", rawURL)
}

// FetchNormas retrieves one page of norma metadata. tipo and ano filters
// are optional (empty/zero disables them).
func (c *Client) FetchNormas(ctx context.Context, limit, offset int, tipo string, ano int) ([]NormaPayload, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	if tipo != "" {
		params.Set("tipo", tipo)
	}
	if ano != 0 {
		params.Set("ano", strconv.Itoa(ano))
	}

	rawURL := c.baseURL + normaEndpoint + "?" + params.Encode()

	var page listResponse
	if err := c.get(ctx, rawURL, &page); err != nil {
		return nil, fmt.Errorf("failed to fetch normas: %w", err)
	}

	log.Printf("SAPL fetch: %d normas retrieved of %d total", len(page.Results), page.Count)
	return page.Results, nil
}

// FetchNormaByID retrieves one norma by its SAPL primary id
func (c *Client) FetchNormaByID(ctx context.Context, normaID int) (NormaPayload, error) {
	rawURL := fmt.Sprintf("%s%s%d/", c.baseURL, normaEndpoint, normaID)

	var payload NormaPayload
	if err := c.get(ctx, rawURL, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch norma %d: %w", normaID, err)
	}
	return payload, nil
}

// FetchAllNormas retrieves normas with automatic pagination, up to
// maxNormas (0 = all). Page failures end the walk with what was
// accumulated so far.
func (c *Client) FetchAllNormas(ctx context.Context, maxNormas int, tipo string, ano int, pageSize int) ([]NormaPayload, error) {
	var all []NormaPayload
	offset := 0

	for {
		page, err := c.FetchNormas(ctx, pageSize, offset, tipo, ano)
		if err != nil {
			log.Printf("Warning: paginated fetch stopped at offset %d: %v", offset, err)
			break
		}
		if len(page) == 0 {
			break
		}

		all = append(all, page...)
		if maxNormas > 0 && len(all) >= maxNormas {
			all = all[:maxNormas]
			break
		}

		offset += pageSize

		// Rate limiting
		select {
		case <-ctx.Done():
			return all, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}

	return all, nil
}

// DownloadPDF streams the PDF at pdfURL to w
func (c *Client) DownloadPDF(ctx context.Context, pdfURL string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, "GET", pdfURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.nextUserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download PDF: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("PDF download failed: %d", resp.StatusCode)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}
