package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carematch/ai-services/internal/config"
)

func TestResolveObjectPath(t *testing.T) {
	tests := []struct {
		path       string
		wantBucket string
		wantKey    string
	}{
		{"development/user_files/abc/resume.pdf", "user_files", "abc/resume.pdf"},
		{"production/resumes/cv.pdf", "resumes", "cv.pdf"},
		{"staging/abc/resume.pdf", "user_files", "abc/resume.pdf"},
		{"resumes/cv.pdf", "resumes", "cv.pdf"},
		{"user-files/cv.pdf", "user-files", "cv.pdf"},
		{"cv.pdf", "user_files", "cv.pdf"},
		{"folder/deeply/nested/cv.pdf", "user_files", "folder/deeply/nested/cv.pdf"},
	}

	for _, tt := range tests {
		ref := ResolveObjectPath(tt.path)
		assert.Equal(t, tt.wantBucket, ref.Bucket, "path %q", tt.path)
		assert.Equal(t, tt.wantKey, ref.Key, "path %q", tt.path)
	}
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	cfg := &config.Config{
		Supabase: map[string]config.SupabaseConfig{
			config.EnvDevelopment: {
				URL:        serverURL,
				ServiceKey: "test-key",
			},
		},
	}
	return NewClient(cfg, zap.NewNop())
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "test-key", r.Header.Get("apikey"))

		switch r.URL.Path {
		case "/storage/v1/bucket":
			w.Write([]byte(`[{"name": "user_files"}, {"name": "resumes"}]`))
		case "/storage/v1/object/user_files/abc/resume.pdf":
			w.Write([]byte("%PDF-1.4 fake"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	data, err := client.Download(context.Background(), config.EnvDevelopment, "development/user_files/abc/resume.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(data))
}

func TestDownload_FallbackBucket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/storage/v1/bucket":
			w.Write([]byte(`[{"name": "user_files"}, {"name": "resumes"}]`))
		case "/storage/v1/object/resumes/cv.pdf":
			w.Write([]byte("found in fallback"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	data, err := client.Download(context.Background(), config.EnvDevelopment, "cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, "found in fallback", string(data))
}

func TestDownload_HyphenAlternative(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/storage/v1/bucket":
			w.Write([]byte(`[{"name": "user-files"}]`))
		case "/storage/v1/object/user-files/cv.pdf":
			w.Write([]byte("hyphen bucket"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	data, err := client.Download(context.Background(), config.EnvDevelopment, "user_files/cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, "hyphen bucket", string(data))
}

func TestDownload_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/storage/v1/bucket" {
			w.Write([]byte(`[{"name": "user_files"}]`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Download(context.Background(), config.EnvDevelopment, "missing.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestDownload_UnconfiguredEnvironment(t *testing.T) {
	client := newTestClient(t, "http://localhost:1")
	_, err := client.Download(context.Background(), config.EnvStaging, "cv.pdf")
	assert.Error(t, err)
}
