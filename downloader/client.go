package downloader

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// UserAgent is sent on every outbound request so responses match what a
// regular browser would receive.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"

// HTTPClient wraps the outbound HTTP transport with retries, timeouts
// and response decompression.
type HTTPClient struct {
	httpClient  *http.Client
	maxRetries  int
	baseTimeout time.Duration
}

// NewHTTPClient creates a client with sensible defaults for scraping a
// single site.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxRetries:  3,
		baseTimeout: 10 * time.Second,
	}
}

// FetchHTML fetches a page with automatic retry on timeouts. Each
// attempt gets a slightly longer deadline, with exponential backoff
// between attempts.
func (c *HTTPClient) FetchHTML(ctx context.Context, targetURL string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		timeout := c.baseTimeout + (time.Duration(attempt) * 5 * time.Second)

		if attempt > 0 {
			log.Printf("[HTTPClient] Retry attempt %d/%d (timeout: %v) for: %s",
				attempt+1, c.maxRetries, timeout, targetURL)
		}

		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		html, err := c.fetchHTMLAttempt(reqCtx, targetURL)
		cancel()

		if err == nil {
			return html, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", &NetworkError{URL: targetURL, Err: ctx.Err()}
		}

		isTimeout := strings.Contains(err.Error(), "context deadline exceeded") ||
			strings.Contains(err.Error(), "Client.Timeout exceeded")
		if !isTimeout {
			return "", &NetworkError{URL: targetURL, Err: err}
		}

		if attempt < c.maxRetries-1 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			log.Printf("[HTTPClient] Timeout on attempt %d/%d, waiting %v before retry", attempt+1, c.maxRetries, backoff)
			time.Sleep(backoff)
		}
	}

	return "", &NetworkError{URL: targetURL, Err: fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)}
}

// FetchDocument fetches a page and parses it into a queryable goquery
// document.
func (c *HTTPClient) FetchDocument(ctx context.Context, targetURL string) (*goquery.Document, error) {
	html, err := c.FetchHTML(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", targetURL, err)
	}
	return doc, nil
}

// fetchHTMLAttempt performs a single request attempt.
func (c *HTTPClient) fetchHTMLAttempt(ctx context.Context, targetURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	decompressed, wasCompressed, err := DecompressBody(bodyBytes, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return "", fmt.Errorf("failed to decompress response: %w", err)
	}
	if wasCompressed {
		bodyBytes = decompressed
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return string(bodyBytes), nil
}

// Stream opens a streaming GET for a file download. The caller owns the
// response body and must close it. The body is left untouched so the
// declared Content-Length stays meaningful.
func (c *HTTPClient) Stream(ctx context.Context, targetURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, &NetworkError{URL: targetURL, Err: err}
	}
	req.Header.Set("User-Agent", UserAgent)

	// The default client timeout would cut long downloads short; rely
	// on the caller's context instead.
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: targetURL, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &NetworkError{URL: targetURL, Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}
	return resp, nil
}
