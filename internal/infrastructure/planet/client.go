package planet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jimlawless/whereami"
	"github.com/shahadul878/planet-2.0/internal/cfg"
	"github.com/shahadul878/planet-2.0/internal/domain"
	"github.com/shahadul878/planet-2.0/internal/usecase"
	"github.com/shahadul878/planet-2.0/pkg/e"
	"github.com/shahadul878/planet-2.0/pkg/logger"
)

// Remote endpoint names. Category lists exist per level under their own
// endpoints.
const (
	endpointProductList   = "getProductList"
	endpointProductBySlug = "getProductBySlug"

	maxCategoryLevel = 3
)

var categoryEndpoints = map[int]string{
	1: "getProduct1stCategoryList",
	2: "getProduct2ndCategoryList",
	3: "getProduct3rdCategoryList",
}

// Client talks to the remote Planet catalog API. Responses are cached for
// a short TTL so repeated batch initialization does not refetch the list.
type Client struct {
	httpClient *http.Client
	cache      usecase.ResponseCache
	cfg        *cfg.PlanetCfg
	logger     logger.Logger
}

func NewClient(cache usecase.ResponseCache, cfg *cfg.PlanetCfg, logger logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache,
		cfg:        cfg,
		logger:     logger,
	}
}

// envelope is the wrapper every Planet endpoint responds with.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// ListProducts returns the compact product list from the remote catalog.
func (c *Client) ListProducts(ctx context.Context) ([]domain.ProductListEntry, error) {
	const op = "planet.Client.ListProducts"

	data, err := c.get(ctx, endpointProductList)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var entries []domain.ProductListEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, e.Wrap(op, e.ErrRemoteMalformed)
	}

	return entries, nil
}

// GetProduct returns the full payload of one product, fetched by its slug.
// Raw keeps the exact response object for fingerprinting.
func (c *Client) GetProduct(ctx context.Context, slug string) (*domain.ProductPayload, error) {
	const op = "planet.Client.GetProduct"

	data, err := c.get(ctx, fmt.Sprintf("%s?slug=%s", endpointProductBySlug, url.QueryEscape(slug)))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var payload domain.ProductPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, e.Wrap(op, e.ErrRemoteMalformed)
	}
	payload.Raw = data

	return &payload, nil
}

// ListCategories returns the remote categories at the given level (1 to 3).
func (c *Client) ListCategories(ctx context.Context, level int) ([]domain.RemoteCategory, error) {
	const op = "planet.Client.ListCategories"

	endpoint, ok := categoryEndpoints[level]
	if !ok {
		return nil, e.Wrap(op, fmt.Errorf("%w: %d not in 1..%d", e.ErrInvalidLevel, level, maxCategoryLevel))
	}

	data, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var categories []domain.RemoteCategory
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, e.Wrap(op, e.ErrRemoteMalformed)
	}

	return categories, nil
}

// TestConnection checks the remote API by fetching the top-level category
// list and reports how many entries came back.
func (c *Client) TestConnection(ctx context.Context) (int, error) {
	const op = "planet.Client.TestConnection"

	categories, err := c.ListCategories(ctx, 1)
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	return len(categories), nil
}

// InvalidateCache drops every cached response, forcing fresh fetches.
func (c *Client) InvalidateCache(ctx context.Context) error {
	return c.cache.InvalidateResponses(ctx)
}

// get fetches an endpoint through the response cache, retrying transient
// failures with a fixed delay, and unwraps the data envelope.
func (c *Client) get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	if cached, err := c.cache.GetResponse(ctx, endpoint); err == nil && cached != nil {
		c.logger.Debugf("planet cache hit: %s", endpoint)
		return c.unwrap(cached)
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.Retries; attempt++ {
		if attempt > 0 {
			c.logger.Warnf("planet request failed, retrying in %v (attempt %d): %v", c.cfg.RetryDelay, attempt+1, lastErr)
			select {
			case <-time.After(c.cfg.RetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, err := c.fetch(ctx, endpoint)
		if err != nil {
			lastErr = err
			continue
		}

		data, err := c.unwrap(body)
		if err != nil {
			// Truncated proxy responses do recover on retry
			lastErr = err
			continue
		}

		if err := c.cache.SetResponse(ctx, endpoint, body); err != nil {
			c.logger.Warnf("failed to cache planet response: %v", err)
		}

		return data, nil
	}

	return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("all %d attempts failed: %w", c.cfg.Retries, lastErr))
}

func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/%s", c.cfg.BaseURL, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	req.Header.Set("APIKey", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %v", e.ErrRemoteUnreachable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("%w: %d from %s", e.ErrRemoteBadStatus, resp.StatusCode, endpoint))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return body, nil
}

func (c *Client) unwrap(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrRemoteMalformed)
	}

	if len(env.Data) == 0 {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrRemoteMalformed)
	}

	return env.Data, nil
}
