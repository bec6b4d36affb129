package hub

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
)

// DefaultEndpoint is the public HuggingFace hub.
const DefaultEndpoint = "https://huggingface.co"

// Config holds configuration for the hub client.
type Config struct {
	Endpoint string // hub base URL; DefaultEndpoint when empty
	CacheDir string // local download cache root
	Token    string // optional bearer token for gated datasets
}

// Client downloads files from a dataset repository on a HuggingFace-style
// hub, keeping a local cache keyed by repository and file path.
type Client struct {
	http     *resty.Client
	cacheDir string
}

// NewClient creates a new hub client.
func NewClient(cfg *Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimSuffix(endpoint, "/"))
	if cfg.Token != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.Token)
	}

	return &Client{
		http:     client,
		cacheDir: cfg.CacheDir,
	}
}

// Download fetches one file from a dataset repository and returns the local
// path to its contents. A cache hit skips the network entirely. Downloads go
// to a temp file and are renamed into place, so a failed transfer never
// leaves a truncated cache entry.
func (c *Client) Download(ctx context.Context, repoID, filename string) (string, error) {
	dst := filepath.Join(c.cacheDir, filepath.FromSlash(repoID), filepath.FromSlash(filename))
	if _, err := os.Stat(dst); err == nil {
		return dst, nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("creating cache directory: %w", err)
	}

	tmp := dst + ".partial"
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("download", "true").
		SetOutput(tmp).
		Get(fmt.Sprintf("/datasets/%s/resolve/main/%s", repoID, filename))
	if err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("fetching %s: %w", filename, err)
	}
	if resp.StatusCode() != http.StatusOK {
		os.Remove(tmp)
		return "", fmt.Errorf("fetching %s: status %d", filename, resp.StatusCode())
	}

	if err := os.Rename(tmp, dst); err != nil {
		return "", fmt.Errorf("caching %s: %w", filename, err)
	}
	return dst, nil
}
