package api

import (
	"github.com/mr1hm/disaster-dashboard/internal/models"
	"github.com/mr1hm/disaster-dashboard/internal/views"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// toGeoJSON emits one weighted point per density point, carrying the source
// post text for hover display.
func toGeoJSON(d views.Density, ds *models.Dataset) FeatureCollection {
	features := make([]Feature, 0, len(d.Points))

	for i, p := range d.Points {
		props := map[string]any{
			"weight": 1,
		}
		if i < len(d.Rows) && d.Rows[i] < ds.Len() {
			r := ds.At(d.Rows[i])
			props["row"] = d.Rows[i]
			props["text"] = r.Text
			props["relevance"] = r.Relevance
			if r.DisasterType != "" {
				props["disaster_type"] = r.DisasterType
			}
		}

		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{p.Longitude, p.Latitude},
			},
			Properties: props,
		})
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
