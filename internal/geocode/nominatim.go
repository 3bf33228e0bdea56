package geocode

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mr1hm/disaster-dashboard/internal/models"
)

const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// Nominatim queries the OpenStreetMap search endpoint.
type Nominatim struct {
	client *resty.Client
}

func NewNominatim(baseURL, userAgent string, timeout time.Duration) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	// Retry count stays at resty's default of zero.
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	return &Nominatim{client: client}
}

func (n *Nominatim) Name() string {
	return "nominatim"
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (n *Nominatim) Lookup(ctx context.Context, place string) (models.Coordinates, bool, error) {
	var places []nominatimPlace

	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      place,
			"format": "jsonv2",
			"limit":  "1",
		}).
		SetResult(&places).
		Get("/search")
	if err != nil {
		return models.Coordinates{}, false, fmt.Errorf("nominatim request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return models.Coordinates{}, false, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode(), resp.String())
	}

	if len(places) == 0 {
		return models.Coordinates{}, false, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return models.Coordinates{}, false, fmt.Errorf("parse latitude %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return models.Coordinates{}, false, fmt.Errorf("parse longitude %q: %w", places[0].Lon, err)
	}

	return models.Coordinates{Latitude: lat, Longitude: lon}, true, nil
}
