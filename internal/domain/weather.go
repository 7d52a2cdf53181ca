package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/windoze95/amitbot-api/internal/logger"
	"github.com/windoze95/amitbot-api/internal/models"
	"go.uber.org/zap"
)

const (
	openWeatherGeoEndpoint     = "https://api.openweathermap.org/geo/1.0/direct"
	openWeatherOneCallEndpoint = "https://api.openweathermap.org/data/3.0/onecall"
)

// WeatherClient implements WeatherProvider using OpenWeatherMap geocoding
// and the One Call 3.0 API.
type WeatherClient struct {
	apiKey     string
	geoURL     string
	oneCallURL string
	httpClient *http.Client
	now        func() time.Time
}

// NewWeatherClient creates an OpenWeatherMap client.
func NewWeatherClient(apiKey string) *WeatherClient {
	return &WeatherClient{
		apiKey:     apiKey,
		geoURL:     openWeatherGeoEndpoint,
		oneCallURL: openWeatherOneCallEndpoint,
		httpClient: newHTTPClient(),
		now:        time.Now,
	}
}

type geoLocation struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type weatherCondition struct {
	Description string `json:"description"`
}

type oneCallResponse struct {
	Current *struct {
		Dt      int64              `json:"dt"`
		Temp    float64            `json:"temp"`
		Weather []weatherCondition `json:"weather"`
	} `json:"current"`
	Hourly []struct {
		Dt      int64              `json:"dt"`
		Temp    float64            `json:"temp"`
		Weather []weatherCondition `json:"weather"`
	} `json:"hourly"`
	Daily []struct {
		Dt   int64 `json:"dt"`
		Temp struct {
			Day float64 `json:"day"`
		} `json:"temp"`
		Weather []weatherCondition `json:"weather"`
	} `json:"daily"`
}

// LookupWeather returns the current weather, the hourly forecast or the
// daily forecast q.DaysAhead days out.
func (c *WeatherClient) LookupWeather(ctx context.Context, q models.WeatherQuery) (string, error) {
	loc, err := c.geocode(ctx, q.City)
	if err != nil {
		return "", err
	}

	exclude := "minutely,hourly,current,alerts"
	switch {
	case q.Current:
		exclude = "minutely,hourly,daily,alerts"
	case q.Hourly:
		exclude = "minutely,daily,current,alerts"
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	params.Set("exclude", exclude)
	params.Set("units", "metric")
	params.Set("appid", c.apiKey)

	body, err := fetch(ctx, c.httpClient, "openweathermap", c.oneCallURL+"?"+params.Encode(), "")
	if err != nil {
		return "", err
	}

	var resp oneCallResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse openweathermap response: %w", err)
	}

	if q.Current {
		if resp.Current == nil {
			return "", notFound("current weather for %s", q.City)
		}
		return fmt.Sprintf("Current weather in %s on %s:\nDescription: %s\nTemperature: %s°C",
			q.City,
			formatUnixDate(resp.Current.Dt),
			describe(resp.Current.Weather),
			formatTemp(resp.Current.Temp),
		), nil
	}

	if q.Hourly {
		return c.formatHourly(q, &resp)
	}

	if q.DaysAhead < 0 || q.DaysAhead >= len(resp.Daily) {
		return "", notFound("forecast %d days ahead for %s", q.DaysAhead, q.City)
	}
	day := resp.Daily[q.DaysAhead]
	return fmt.Sprintf("Forecast for %s on %s (%s):\nDescription: %s\nDaytime Temperature: %s°C",
		q.City,
		formatUnixDate(day.Dt),
		q.Timeframe,
		describe(day.Weather),
		formatTemp(day.Temp.Day),
	), nil
}

func (c *WeatherClient) formatHourly(q models.WeatherQuery, resp *oneCallResponse) (string, error) {
	if q.DaysAhead == 0 {
		if len(resp.Hourly) == 0 {
			return "", notFound("hourly forecast for %s", q.City)
		}
		h := resp.Hourly[0]
		return fmt.Sprintf("Hourly forecast for %s at %s:\nDescription: %s\nTemperature: %s°C",
			q.City,
			time.Unix(h.Dt, 0).UTC().Format("2006-01-02 15:04"),
			describe(h.Weather),
			formatTemp(h.Temp),
		), nil
	}

	target := c.now().UTC().AddDate(0, 0, q.DaysAhead).Format("2006-01-02")
	var lines []string
	for _, h := range resp.Hourly {
		at := time.Unix(h.Dt, 0).UTC()
		if at.Format("2006-01-02") != target {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s - %s, %s°C", at.Format("15:04"), describe(h.Weather), formatTemp(h.Temp)))
	}
	if len(lines) == 0 {
		return "", notFound("hourly forecast %d days ahead for %s", q.DaysAhead, q.City)
	}
	return fmt.Sprintf("Hourly forecast for %s on %s:\n%s", q.City, target, strings.Join(lines, "\n")), nil
}

func (c *WeatherClient) geocode(ctx context.Context, city string) (*geoLocation, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("limit", "1")
	params.Set("appid", c.apiKey)

	body, err := fetch(ctx, c.httpClient, "openweathermap geocoding", c.geoURL+"?"+params.Encode(), "")
	if err != nil {
		return nil, err
	}

	var locations []geoLocation
	if err := json.Unmarshal(body, &locations); err != nil {
		return nil, fmt.Errorf("failed to parse geocoding response: %w", err)
	}
	if len(locations) == 0 {
		logger.Get().Info("city not found", zap.String("city", city))
		return nil, notFound("location %q", city)
	}
	return &locations[0], nil
}

func describe(conditions []weatherCondition) string {
	if len(conditions) == 0 || conditions[0].Description == "" {
		return "No description available"
	}
	return conditions[0].Description
}

func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatUnixDate(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}
