package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carematch/ai-services/internal/config"
)

func testFetcher() *Fetcher {
	return NewFetcher(config.FetchConfig{
		RequestTimeout:   5 * time.Second,
		BrowserTimeout:   5 * time.Second,
		MaxContentLength: 50000,
	}, zap.NewNop())
}

// jobPage pads a job posting body past the SPA-shell threshold so the
// fetcher does not try to launch a browser.
func jobPage(body string) string {
	return "<html><body>" + body + "<p>" + strings.Repeat("filler content ", 100) + "</p></body></html>"
}

func TestPage_PlainFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Chrome")
		w.Write([]byte(jobPage("<h1>ICU Nurse</h1><script>tracking()</script>")))
	}))
	defer server.Close()

	content, err := testFetcher().Page(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, content, "ICU Nurse")
	assert.NotContains(t, content, "tracking()")
}

func TestPage_InvalidURL(t *testing.T) {
	_, err := testFetcher().Page(context.Background(), "ftp://example.com/job")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestPage_Forbidden(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := testFetcher().Page(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPage_RetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(jobPage("<h1>Radiologist</h1>")))
	}))
	defer server.Close()

	content, err := testFetcher().Page(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, content, "Radiologist")
}

func TestCleanHTML_StripsBoilerplate(t *testing.T) {
	html := `<html><body>
		<nav>Menu</nav>
		<header>Site Header</header>
		<h1>Surgeon Wanted</h1>
		<style>.x { color: red }</style>
		<footer>Copyright</footer>
	</body></html>`

	cleaned, err := CleanHTML(html)
	require.NoError(t, err)
	assert.Contains(t, cleaned, "Surgeon Wanted")
	assert.NotContains(t, cleaned, "Menu")
	assert.NotContains(t, cleaned, "Site Header")
	assert.NotContains(t, cleaned, "Copyright")
	assert.NotContains(t, cleaned, "color: red")
}

func TestCleanHTML_CollapsesBlankLines(t *testing.T) {
	cleaned, err := CleanHTML("<p>one</p>\n\n\n<p>two</p>")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", cleaned)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 100))

	long := strings.Repeat("a", 200)
	truncated := Truncate(long, 100)
	assert.True(t, strings.HasPrefix(truncated, strings.Repeat("a", 100)))
	assert.True(t, strings.HasSuffix(truncated, "[Content truncated for processing efficiency]"))
}
