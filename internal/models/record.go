package models

import (
	"math"
	"slices"
	"time"
)

// Record is one annotated post. Empty optional fields mean the value is absent.
type Record struct {
	Text               string `json:"text"`
	Relevance          string `json:"relevance"`
	Label              string `json:"label,omitempty"`
	Location           string `json:"location,omitempty"`
	DisasterType       string `json:"disaster_type,omitempty"`
	ExtractedLocations string `json:"-"` // raw serialized list, parsed on demand
}

type LocationMention struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
}

func (m LocationMention) Coordinates() Coordinates {
	return Coordinates{Latitude: m.Latitude, Longitude: m.Longitude}
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the pair is finite and inside [-90,90] x [-180,180].
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) ||
		math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Point is a single input to the density renderer.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Columns records which optional columns the source file carried.
type Columns struct {
	Location           bool `json:"location"`
	DisasterType       bool `json:"disaster_type"`
	ExtractedLocations bool `json:"extracted_locations"`
}

// Dataset is loaded once and shared read-only for the process lifetime.
type Dataset struct {
	records  []Record
	Columns  Columns
	Path     string
	LoadedAt time.Time
}

func NewDataset(records []Record, cols Columns, path string, loadedAt time.Time) *Dataset {
	return &Dataset{
		records:  slices.Clone(records),
		Columns:  cols,
		Path:     path,
		LoadedAt: loadedAt,
	}
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// At returns a copy of the i-th record.
func (d *Dataset) At(i int) Record {
	return d.records[i]
}

// Records returns a copy of the record slice so callers cannot mutate the dataset.
func (d *Dataset) Records() []Record {
	if d == nil {
		return nil
	}
	return slices.Clone(d.records)
}
