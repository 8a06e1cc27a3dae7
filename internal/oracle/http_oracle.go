package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
)

// HTTPOracle queries an external routing service for road distance and
// duration. Calls are rate limited so bursts of candidate evaluations from a
// running search cannot exhaust the provider's quota.
//
// The provider is safe for concurrent use; wrap it in a Cache for mission runs.
type HTTPOracle struct {
	client  *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

// NewHTTPOracle builds an oracle against baseURL. rps bounds outbound calls
// per second; zero selects a conservative default.
func NewHTTPOracle(baseURL, apiKey string, rps float64) (*HTTPOracle, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("oracle: baseURL is empty")
	}
	if rps <= 0 {
		rps = 5
	}
	return &HTTPOracle{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
	}, nil
}

type routeResponse struct {
	DistanceKm  float64 `json:"distanceKm"`
	DurationSec int64   `json:"durationSec"`
}

func (o *HTTPOracle) DistanceTime(ctx context.Context, a, b model.GeoPoint) (float64, time.Duration, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return 0, 0, fmt.Errorf("oracle: rate wait: %w", err)
	}
	url := fmt.Sprintf("%s/v1/route?fromLat=%f&fromLng=%f&toLat=%f&toLng=%f",
		o.baseURL, a.Lat, a.Lng, b.Lat, b.Lng)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("oracle: create request: %w", err)
	}
	if o.apiKey != "" {
		req.Header.Set("Authorization", o.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("oracle: route request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, 0, fmt.Errorf("oracle: route request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var rr routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return 0, 0, fmt.Errorf("oracle: decode response: %w", err)
	}
	return rr.DistanceKm, time.Duration(rr.DurationSec) * time.Second, nil
}
