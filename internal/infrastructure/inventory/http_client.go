// Package inventory provides the product snapshot providers barterd reads
// offered products from.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/barterbay/barterd/internal/core/ports"
	"github.com/barterbay/barterd/pkg/circuitbreaker"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
)

const requestTimeout = 10 * time.Second

type catalogClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    ratelimit.Limiter
	cb         *gobreaker.CircuitBreaker
}

// NewCatalogClient returns a provider that fetches products from the
// marketplace catalog at baseURL with GET {baseURL}/products/{id}. Requests
// are capped to ratePerSecond.
func NewCatalogClient(baseURL string, ratePerSecond int) (ports.InventoryProvider, error) {
	u, err := url.ParseRequestURI(baseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid catalog url %q", baseURL)
	}
	if ratePerSecond <= 0 {
		return nil, fmt.Errorf("rate limit must be positive")
	}

	return &catalogClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    ratelimit.New(ratePerSecond),
		cb:         circuitbreaker.NewCircuitBreaker("inventory"),
	}, nil
}

func (c *catalogClient) GetProduct(
	ctx context.Context, productId string,
) (*ports.Product, error) {
	c.limiter.Take()

	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.fetchProduct(ctx, productId)
	})
	if err != nil {
		return nil, fmt.Errorf("inventory: %w", err)
	}
	product, _ := res.(*ports.Product)
	return product, nil
}

// catalogResponse accepts both a bare product and one wrapped in the
// marketplace response envelope.
type catalogResponse struct {
	ports.Product
	Data *ports.Product `json:"data"`
}

func (c *catalogClient) fetchProduct(
	ctx context.Context, productId string,
) (*ports.Product, error) {
	endpoint := fmt.Sprintf("%s/products/%s", c.baseURL, url.PathEscape(productId))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	rs, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer rs.Body.Close()

	body, err := io.ReadAll(rs.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case rs.StatusCode == http.StatusNotFound:
		return nil, nil
	case rs.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("catalog responded %d: %s", rs.StatusCode, body)
	}

	var resp catalogResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}
	if resp.Data != nil {
		return resp.Data, nil
	}
	if resp.Product.Id == "" {
		resp.Product.Id = productId
	}
	return &resp.Product, nil
}
