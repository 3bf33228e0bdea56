package geocode

import (
	"context"
	"fmt"

	"github.com/andreiashu/geobed"

	"github.com/mr1hm/disaster-dashboard/internal/models"
)

// cityIndex is the part of geobed.GeoBed the offline provider needs.
type cityIndex interface {
	Geocode(n string, opts ...geobed.GeocodeOptions) geobed.GeobedCity
}

// Offline geocodes against geobed's embedded Geonames city table. No network
// is involved; the table is loaded once per process.
type Offline struct {
	index cityIndex
	opts  geobed.GeocodeOptions
}

func NewOffline() (*Offline, error) {
	bed, err := geobed.GetDefaultGeobed()
	if err != nil {
		return nil, fmt.Errorf("load offline city data: %w", err)
	}
	return newOffline(bed), nil
}

func newOffline(index cityIndex) *Offline {
	return &Offline{
		index: index,
		opts:  geobed.GeocodeOptions{FuzzyDistance: 1},
	}
}

func (o *Offline) Name() string {
	return ProviderOffline
}

func (o *Offline) Lookup(ctx context.Context, place string) (models.Coordinates, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinates{}, false, err
	}

	city := o.index.Geocode(place, o.opts)
	if city.City == "" {
		return models.Coordinates{}, false, nil
	}

	return models.Coordinates{
		Latitude:  float64(city.Latitude),
		Longitude: float64(city.Longitude),
	}, true, nil
}
