// Package domain holds the third-party lookups behind each intent: Euroleague
// results, OpenWeatherMap forecasts and Google Places recommendations.
package domain

import (
	"context"

	"github.com/windoze95/amitbot-api/internal/models"
)

// ResultsProvider answers Euroleague results queries.
type ResultsProvider interface {
	LookupResults(ctx context.Context, q models.ResultsQuery) (string, error)
}

// WeatherProvider answers weather queries.
type WeatherProvider interface {
	LookupWeather(ctx context.Context, q models.WeatherQuery) (string, error)
}

// PlacesProvider answers place recommendation queries.
type PlacesProvider interface {
	LookupPlaces(ctx context.Context, q models.PlacesQuery) (string, error)
}
