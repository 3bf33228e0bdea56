package geocode

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mr1hm/disaster-dashboard/internal/models"
)

const DefaultMapboxURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// Mapbox uses the Mapbox forward geocoding API.
type Mapbox struct {
	client *resty.Client
	token  string
}

func NewMapbox(baseURL, token string, timeout time.Duration) *Mapbox {
	if baseURL == "" {
		baseURL = DefaultMapboxURL
	}
	return &Mapbox{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		token:  token,
	}
}

func (m *Mapbox) Name() string {
	return "mapbox"
}

type mapboxResponse struct {
	Features []mapboxFeature `json:"features"`
}

type mapboxFeature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Relevance float64   `json:"relevance"`
}

func (m *Mapbox) Lookup(ctx context.Context, place string) (models.Coordinates, bool, error) {
	var body mapboxResponse

	resp, err := m.client.R().
		SetContext(ctx).
		SetPathParam("query", place).
		SetQueryParams(map[string]string{
			"access_token": m.token,
			"limit":        "1",
		}).
		SetResult(&body).
		Get("/{query}.json")
	if err != nil {
		return models.Coordinates{}, false, fmt.Errorf("mapbox request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return models.Coordinates{}, false, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode(), resp.String())
	}

	if len(body.Features) == 0 || len(body.Features[0].Center) != 2 {
		return models.Coordinates{}, false, nil
	}

	// Mapbox uses lon,lat order.
	c := body.Features[0].Center
	return models.Coordinates{Latitude: c[1], Longitude: c[0]}, true, nil
}
