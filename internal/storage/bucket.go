package storage

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

	"go.uber.org/zap"

	"github.com/carematch/ai-services/internal/config"
)

const (
	// DefaultBucket must match the bucket name used by the frontend uploader.
	DefaultBucket = "user_files"

	// FallbackBucket is tried when the requested object is not in its
	// expected bucket.
	FallbackBucket = "resumes"
)

var ErrObjectNotFound = errors.New("storage object not found")

var knownBuckets = []string{"user_files", "resumes", "public", "avatars", "user-files"}

// Client downloads objects from the Supabase Storage REST API using the
// per-environment service-role key.
type Client struct {
	cfg    *config.Config
	http   *http.Client
	logger *zap.Logger
}

func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: 60 * time.Second},
		logger: logger,
	}
}

// ObjectRef is a resolved bucket/key pair.
type ObjectRef struct {
	Bucket string
	Key    string
}

// ResolveObjectPath splits a frontend-supplied file path into bucket and key.
// Accepted formats, in order of specificity:
//
//	environment/bucket/key
//	environment/key
//	bucket/key
//	key
//
// An environment prefix is discarded: routing is driven by the request
// header, the prefix is just how the frontend namespaces uploads.
func ResolveObjectPath(filePath string) ObjectRef {
	parts := strings.Split(filePath, "/")

	isEnv := func(s string) bool {
		return s == config.EnvDevelopment || s == config.EnvStaging || s == config.EnvProduction
	}
	isBucket := func(s string) bool {
		for _, b := range knownBuckets {
			if s == b {
				return true
			}
		}
		return false
	}

	if len(parts) >= 2 && isEnv(parts[0]) {
		rest := parts[1:]
		if len(rest) >= 2 && isBucket(rest[0]) {
			return ObjectRef{Bucket: rest[0], Key: strings.Join(rest[1:], "/")}
		}
		return ObjectRef{Bucket: DefaultBucket, Key: strings.Join(rest, "/")}
	}
	if len(parts) >= 2 && isBucket(parts[0]) {
		return ObjectRef{Bucket: parts[0], Key: strings.Join(parts[1:], "/")}
	}
	return ObjectRef{Bucket: DefaultBucket, Key: filePath}
}

// Download fetches a stored object, trying the resolved bucket first and the
// alternate resume bucket when the object is missing.
func (c *Client) Download(ctx context.Context, env, filePath string) ([]byte, error) {
	sc, err := c.cfg.SupabaseFor(env)
	if err != nil {
		return nil, err
	}
	if sc.URL == "" || sc.ServiceKey == "" {
		return nil, fmt.Errorf("supabase storage is not configured for environment %s", env)
	}

	ref := ResolveObjectPath(filePath)

	buckets, err := c.listBuckets(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	bucket := ref.Bucket
	if !contains(buckets, bucket) {
		alternative := strings.ReplaceAll(bucket, "_", "-")
		switch {
		case contains(buckets, alternative):
			c.logger.Warn("bucket not found, using alternative name",
				zap.String("bucket", bucket), zap.String("alternative", alternative))
			bucket = alternative
		case bucket != FallbackBucket && contains(buckets, FallbackBucket):
			c.logger.Warn("bucket not found, falling back",
				zap.String("bucket", bucket), zap.String("fallback", FallbackBucket))
			bucket = FallbackBucket
		default:
			return nil, fmt.Errorf("bucket %q: %w", bucket, ErrObjectNotFound)
		}
	}

	data, err := c.downloadObject(ctx, sc, bucket, ref.Key)
	if err == nil {
		return data, nil
	}

	fallback := FallbackBucket
	if bucket == FallbackBucket {
		fallback = DefaultBucket
	}
	if contains(buckets, fallback) {
		c.logger.Warn("primary download failed, trying fallback bucket",
			zap.String("bucket", bucket), zap.String("fallback", fallback), zap.Error(err))
		if data, fbErr := c.downloadObject(ctx, sc, fallback, ref.Key); fbErr == nil {
			return data, nil
		}
	}

	return nil, err
}

func (c *Client) listBuckets(ctx context.Context, sc config.SupabaseConfig) ([]string, error) {
	req, err := c.newRequest(ctx, sc, "/storage/v1/bucket")
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bucket listing returned status %d", resp.StatusCode)
	}

	var buckets []struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&buckets); err != nil {
		return nil, fmt.Errorf("failed to decode bucket listing: %w", err)
	}

	names := make([]string, 0, len(buckets))
	for _, b := range buckets {
		names = append(names, b.Name)
	}
	return names, nil
}

func (c *Client) downloadObject(ctx context.Context, sc config.SupabaseConfig, bucket, key string) ([]byte, error) {
	path := fmt.Sprintf("/storage/v1/object/%s/%s", url.PathEscape(bucket), escapeKey(key))
	req, err := c.newRequest(ctx, sc, path)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("object %s/%s: %w", bucket, key, ErrObjectNotFound)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("object download returned status %d: %s", resp.StatusCode, body)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	c.logger.Info("downloaded storage object",
		zap.String("bucket", bucket), zap.String("key", key), zap.Int("size", len(data)))
	return data, nil
}

func (c *Client) newRequest(ctx context.Context, sc config.SupabaseConfig, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(sc.URL, "/")+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+sc.ServiceKey)
	req.Header.Set("apikey", sc.ServiceKey)
	return req, nil
}

// escapeKey escapes each path segment while keeping the separators.
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
