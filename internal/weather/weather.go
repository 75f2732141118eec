// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package weather reports current conditions from OpenWeatherMap.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "jarvis/internal/errors"
)

const (
	defaultBaseURL = "https://api.openweathermap.org"
	requestTimeout = 5 * time.Second
)

// NotConfigured is the reply when no API key is set.
const NotConfigured = "Weather API key is not configured."

// Client queries the current weather endpoint.
type Client struct {
	apiKey      string
	defaultCity string
	baseURL     string
	http        *http.Client
	logger      zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another server.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client. An empty apiKey is allowed; Current then reports
// that the service is not configured.
func New(apiKey, defaultCity string, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:      strings.TrimSpace(apiKey),
		defaultCity: defaultCity,
		baseURL:     defaultBaseURL,
		http:        &http.Client{Timeout: requestTimeout},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type currentResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
}

// Current describes the weather in city, or in the default city when city
// is blank.
func (c *Client) Current(ctx context.Context, city string) (string, error) {
	if c.apiKey == "" {
		return NotConfigured, nil
	}
	city = strings.TrimSpace(city)
	if city == "" {
		city = c.defaultCity
	}

	query := url.Values{}
	query.Set("q", city)
	query.Set("appid", c.apiKey)
	query.Set("units", "metric")
	query.Set("lang", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/2.5/weather?"+query.Encode(), nil)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeIO, "Failed to fetch weather", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeIO, "Failed to fetch weather", redactKey(err, c.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn().Int("status", resp.StatusCode).Str("city", city).Msg("weather request rejected")
		return "", apperrors.Newf(apperrors.CodeIO, "Failed to fetch weather: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil || len(data.Weather) == 0 || data.Main == nil {
		return "", apperrors.New(apperrors.CodeIO, "Got unexpected weather data format.")
	}
	return fmt.Sprintf("Weather in %s: %s, %.1f°C (feels like %.1f°C), humidity %d%%.",
		city, data.Weather[0].Description, data.Main.Temp, data.Main.FeelsLike, data.Main.Humidity), nil
}

// redactKey keeps the API key out of transport errors, which quote the URL.
func redactKey(err error, key string) error {
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), key, "***"))
}
