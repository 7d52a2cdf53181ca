package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/windoze95/amitbot-api/internal/apperr"
	"github.com/windoze95/amitbot-api/internal/models"
)

const googlePlacesEndpoint = "https://maps.googleapis.com/maps/api/place/textsearch/json"

// placesLimit is how many places a reply lists.
const placesLimit = 5

// PlacesClient implements PlacesProvider using Google Places Text Search.
type PlacesClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewPlacesClient creates a Google Places client.
func NewPlacesClient(apiKey string) *PlacesClient {
	return &PlacesClient{
		apiKey:     apiKey,
		baseURL:    googlePlacesEndpoint,
		httpClient: newHTTPClient(),
	}
}

type placesResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Results      []placeResult `json:"results"`
}

type placeResult struct {
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Rating           *float64 `json:"rating"`
}

// LookupPlaces lists the top places of q.Category in q.City.
func (c *PlacesClient) LookupPlaces(ctx context.Context, q models.PlacesQuery) (string, error) {
	params := url.Values{}
	params.Set("query", fmt.Sprintf("%s in %s", q.Category, q.City))
	params.Set("key", c.apiKey)

	body, err := fetch(ctx, c.httpClient, "google places", c.baseURL+"?"+params.Encode(), "")
	if err != nil {
		return "", err
	}

	var resp placesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse google places response: %w", err)
	}

	switch resp.Status {
	case "", "OK":
	case "ZERO_RESULTS":
		return "", notFound("%s in %s", q.Category, q.City)
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return "", apperr.Transient(fmt.Errorf("google places status %s: %s", resp.Status, resp.ErrorMessage))
	default:
		return "", fmt.Errorf("google places status %s: %s", resp.Status, resp.ErrorMessage)
	}

	if len(resp.Results) == 0 {
		return "", notFound("%s in %s", q.Category, q.City)
	}

	lines := []string{fmt.Sprintf("Top %s in %s:", q.Category, q.City)}
	for i, place := range resp.Results {
		if i == placesLimit {
			break
		}
		lines = append(lines, formatPlace(place))
	}
	return strings.Join(lines, "\n"), nil
}

func formatPlace(p placeResult) string {
	name := p.Name
	if name == "" {
		name = "Unnamed Place"
	}
	address := p.FormattedAddress
	if address == "" {
		address = "No address"
	}
	rating := "N/A"
	if p.Rating != nil {
		rating = strconv.FormatFloat(*p.Rating, 'f', -1, 64)
	}
	return fmt.Sprintf("%s - %s (Rating: %s)", name, address, rating)
}
