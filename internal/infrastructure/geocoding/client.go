package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"roamstay-backend/internal/domain"
)

// Geocoder resolves free-form location text to a coordinate pair.
type Geocoder interface {
	Forward(ctx context.Context, query string) (domain.Point, error)
}

// HTTPClient is a Geocoder backed by a Mapbox-compatible places API.
type HTTPClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

type forwardResponse struct {
	Features []struct {
		Center    []float64 `json:"center"` // [longitude, latitude]
		PlaceName string    `json:"place_name"`
	} `json:"features"`
}

// Forward asks the provider for the best match of query and returns its
// center. A response with no features is an error: a listing is never
// persisted without coordinates.
func (c *HTTPClient) Forward(ctx context.Context, query string) (domain.Point, error) {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 5 * time.Second}
	}
	if c.BaseURL == "" {
		return domain.Point{}, fmt.Errorf("geocoding: GEOCODER_URL is not set")
	}
	if c.Token == "" {
		return domain.Point{}, fmt.Errorf("geocoding: GEOCODER_TOKEN is not set")
	}

	endpoint := fmt.Sprintf("%s/%s.json?access_token=%s&limit=1",
		c.BaseURL, url.PathEscape(query), url.QueryEscape(c.Token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Point{}, err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return domain.Point{}, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Point{}, fmt.Errorf("geocoding error: status %d body: %s", resp.StatusCode, string(respBody))
	}

	var data forwardResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return domain.Point{}, fmt.Errorf("geocoding response decode: %w", err)
	}
	if len(data.Features) == 0 || len(data.Features[0].Center) < 2 {
		return domain.Point{}, fmt.Errorf("geocoding: no match for %q", query)
	}

	center := data.Features[0].Center
	return domain.Point{Longitude: center[0], Latitude: center[1]}, nil
}
