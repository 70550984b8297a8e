/*
	weather package is a minimal OpenWeatherMap client for the current
	conditions widget exposed by the dashboard API. Results are metric and
	localized to Spanish.
*/

package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// ErrMissingAPIKey is returned by Current when the client has no API key
// configured.
var ErrMissingAPIKey = errors.New("weather: missing api key")

// Conditions holds the current weather readings for the configured city.
type Conditions struct {
	City        string  `json:"city"`
	Temp        float64 `json:"temp"`
	FeelsLike   float64 `json:"feels_like"`
	Description string  `json:"description"`
}

// Client queries the OpenWeatherMap current-weather endpoint.
type Client struct {
	// APIKey authenticates requests; without one Current fails fast.
	APIKey string

	// City is the location queried, e.g. "Santa Cruz de la Sierra,BO".
	City string

	// BaseURL overrides the API endpoint, primarily for tests.
	BaseURL string

	// HTTPClient defaults to http.DefaultClient when nil.
	HTTPClient *http.Client
}

// currentResponse mirrors the subset of the API response the dashboard
// renders.
type currentResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Message string `json:"message"`
}

// Current fetches the current conditions for the configured city.
func (c *Client) Current(ctx context.Context) (*Conditions, error) {
	if c.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	query := url.Values{}
	query.Set("q", c.City)
	query.Set("appid", c.APIKey)
	query.Set("units", "metric")
	query.Set("lang", "es")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("weather: %w", err)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	var decoded currentResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("weather: decode response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		if decoded.Message != "" {
			return nil, fmt.Errorf("weather: api error %d: %s", res.StatusCode, decoded.Message)
		}

		return nil, fmt.Errorf("weather: unexpected status %d", res.StatusCode)
	}

	conditions := &Conditions{
		City:      c.City,
		Temp:      decoded.Main.Temp,
		FeelsLike: decoded.Main.FeelsLike,
	}
	if len(decoded.Weather) > 0 {
		conditions.Description = decoded.Weather[0].Description
	}

	return conditions, nil
}
