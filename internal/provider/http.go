package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ssolson/upOpt/internal/estate"
	"github.com/ssolson/upOpt/internal/solution"
)

// maxPayload bounds the size of a response body.
const maxPayload = 64 << 20

// HTTPConfig locates the remote endpoints.
type HTTPConfig struct {
	UnitsURL    string
	CatalogURL  string
	ActivityURL string
	Timeout     time.Duration
}

// HTTP fetches data from the game APIs.
type HTTP struct {
	logger *zap.Logger
	client *http.Client
	conf   HTTPConfig
}

var (
	_ UnitProvider     = (*HTTP)(nil)
	_ CatalogProvider  = (*HTTP)(nil)
	_ ActivityProvider = (*HTTP)(nil)
)

// NewHTTP returns an HTTP provider. A nil client gets one with conf.Timeout.
func NewHTTP(logger *zap.Logger, client *http.Client, conf HTTPConfig) *HTTP {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		client = &http.Client{Timeout: conf.Timeout}
	}
	return &HTTP{logger: logger, client: client, conf: conf}
}

// Units fetches the property feed of username.
func (h *HTTP) Units(ctx context.Context, username string) ([]estate.Unit, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("%w: username is empty", ErrMissingData)
	}
	endpoint := strings.TrimRight(h.conf.UnitsURL, "/") + "/" + url.PathEscape(username)
	payload, err := h.get(ctx, endpoint, "")
	if err != nil {
		return nil, err
	}
	units, err := ParseUnits(payload)
	if err != nil {
		return nil, err
	}
	h.logger.Debug("fetched units",
		zap.String("op", "provider.Units"),
		zap.String("username", username),
		zap.Int("units", len(units)),
	)
	return units, nil
}

// Catalog fetches the collection catalog.
func (h *HTTP) Catalog(ctx context.Context) (estate.Catalog, error) {
	payload, err := h.get(ctx, h.conf.CatalogURL, "")
	if err != nil {
		return estate.Catalog{}, err
	}
	catalog, err := ParseCatalog(payload)
	if err != nil {
		return estate.Catalog{}, err
	}
	h.logger.Debug("fetched collection catalog",
		zap.String("op", "provider.Catalog"),
		zap.Int("collections", catalog.Len()),
	)
	return catalog, nil
}

// Activity fetches the authenticated user's current collection placements.
func (h *HTTP) Activity(ctx context.Context, auth string) ([]solution.Enrollment, error) {
	if auth == "" {
		return nil, fmt.Errorf("%w: activity requires an auth token", ErrMissingData)
	}
	payload, err := h.get(ctx, h.conf.ActivityURL, auth)
	if err != nil {
		return nil, err
	}
	return ParseActivity(payload)
}

func (h *HTTP) get(ctx context.Context, endpoint, auth string) ([]byte, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint not configured", ErrMissingData)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayload))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		h.logger.Warn("unexpected response status",
			zap.String("op", "provider.get"),
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: %s returned %s", ErrMissingData, endpoint, resp.Status)
	}
	return body, nil
}
