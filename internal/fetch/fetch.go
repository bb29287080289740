package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/carematch/ai-services/internal/config"
)

// ErrForbidden signals the site is actively blocking automated access, which
// the handler maps to a 403 with a friendlier explanation.
var ErrForbidden = errors.New("access forbidden by target site")

// ErrInvalidURL signals a URL without an http(s) scheme.
var ErrInvalidURL = errors.New("invalid URL format")

// pages shorter than this are assumed to be JS shells and retried in a
// headless browser
const minContentLength = 1000

var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
}

// Fetcher retrieves job posting pages. Plain HTTP with retries comes first;
// when the response looks like an unrendered SPA shell it falls back to a
// headless browser.
type Fetcher struct {
	cfg    config.FetchConfig
	http   *http.Client
	logger *zap.Logger
}

func NewFetcher(cfg config.FetchConfig, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.RequestTimeout},
		logger: logger,
	}
}

// Page fetches a URL and returns the cleaned plaintext of the page, truncated
// to the configured content limit.
func (f *Fetcher) Page(ctx context.Context, pageURL string) (string, error) {
	if !strings.HasPrefix(pageURL, "http://") && !strings.HasPrefix(pageURL, "https://") {
		return "", fmt.Errorf("%w: must start with http:// or https://", ErrInvalidURL)
	}

	html, err := f.fetchHTTP(ctx, pageURL)
	if err != nil || len(html) < minContentLength {
		if errors.Is(err, ErrForbidden) {
			return "", err
		}
		f.logger.Info("plain fetch insufficient, using browser emulation",
			zap.String("url", pageURL), zap.Int("length", len(html)), zap.Error(err))
		html, err = f.fetchBrowser(ctx, pageURL)
		if err != nil {
			return "", err
		}
	}

	cleaned, err := CleanHTML(html)
	if err != nil {
		return "", err
	}
	return Truncate(cleaned, f.cfg.MaxContentLength), nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, pageURL string) (string, error) {
	var lastErr error
	delay := 300 * time.Millisecond

	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return "", err
		}
		for k, v := range browserHeaders {
			req.Header.Set(k, v)
		}

		resp, err := f.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return string(body), nil
		case resp.StatusCode == http.StatusForbidden:
			return "", fmt.Errorf("%s: %w", pageURL, ErrForbidden)
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
			continue
		default:
			return "", fmt.Errorf("fetch %s: unexpected status %d", pageURL, resp.StatusCode)
		}
	}

	return "", fmt.Errorf("fetch %s failed: %w", pageURL, lastErr)
}

func (f *Fetcher) fetchBrowser(ctx context.Context, pageURL string) (string, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("blink-settings", "imagesEnabled=false"),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, f.cfg.BrowserTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		// let AJAX-rendered job content settle
		chromedp.Sleep(3*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser emulation failed for %s: %w", pageURL, err)
	}
	if len(html) < 500 {
		return "", fmt.Errorf("insufficient content received from %s", pageURL)
	}
	return html, nil
}

// CleanHTML strips boilerplate elements and returns the text content with
// line structure preserved.
func CleanHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, nav, header, footer, aside, iframe").Remove()

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// Truncate caps content ahead of the model call.
func Truncate(content string, limit int) string {
	if limit <= 0 || len(content) <= limit {
		return content
	}
	return content[:limit] + "\n[Content truncated for processing efficiency]"
}
