// Package archive resolves snapshot URLs for pages that block live access.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/medialens/analyzer/internal/report"
)

const defaultAvailabilityEndpoint = "https://archive.org/wayback/available"

// Config controls snapshot resolution.
type Config struct {
	// Mirrors maps normalized host+path to a hand-curated snapshot URL for
	// sources known to block bots chronically.
	Mirrors map[string]string
	// AvailabilityEndpoint overrides the wayback availability API base URL.
	AvailabilityEndpoint string
	Timeout              time.Duration
}

// Resolver looks up archival snapshots: curated mirrors first, then the
// public wayback availability API. It never fetches page content itself.
type Resolver struct {
	mirrors  map[string]string
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewResolver builds a Resolver from config.
func NewResolver(cfg Config, logger *zap.Logger) *Resolver {
	endpoint := cfg.AvailabilityEndpoint
	if endpoint == "" {
		endpoint = defaultAvailabilityEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	mirrors := make(map[string]string, len(cfg.Mirrors))
	for key, snapshot := range cfg.Mirrors {
		mirrors[normalizeKey(key)] = snapshot
	}
	return &Resolver{
		mirrors:  mirrors,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Resolve returns a snapshot URL for rawURL or report.ErrNoSnapshot.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	if snapshot, ok := r.lookupMirror(rawURL); ok {
		r.logger.Info("using curated archive mirror", zap.String("url", rawURL))
		return snapshot, nil
	}
	return r.queryAvailability(ctx, rawURL)
}

func (r *Resolver) lookupMirror(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	key := normalizeKey(parsed.Host + parsed.Path)
	snapshot, ok := r.mirrors[key]
	return snapshot, ok
}

func normalizeKey(hostPath string) string {
	key := strings.ToLower(strings.TrimSpace(hostPath))
	key = strings.TrimPrefix(key, "www.")
	return strings.TrimSuffix(key, "/")
}

type availabilityResponse struct {
	ArchivedSnapshots struct {
		Closest struct {
			Available bool   `json:"available"`
			URL       string `json:"url"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

func (r *Resolver) queryAvailability(ctx context.Context, rawURL string) (string, error) {
	endpoint := fmt.Sprintf("%s?url=%s", r.endpoint, url.QueryEscape(rawURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build availability request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("query wayback availability: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wayback availability returned %s", resp.Status)
	}

	var payload availabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode availability response: %w", err)
	}

	closest := payload.ArchivedSnapshots.Closest
	if !closest.Available || closest.URL == "" {
		return "", report.ErrNoSnapshot
	}
	return closest.URL, nil
}
