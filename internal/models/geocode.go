package models

// GeocodeStatus distinguishes a resolved lookup from a failed one so that
// a (0,0) coordinate is never read as failure.
type GeocodeStatus int

const (
	GeocodeUnresolved GeocodeStatus = iota
	GeocodeResolved
)

func (s GeocodeStatus) String() string {
	if s == GeocodeResolved {
		return "resolved"
	}
	return "unresolved"
}

type GeocodeResult struct {
	Status      GeocodeStatus
	Coordinates Coordinates
}

func Resolved(lat, lon float64) GeocodeResult {
	return GeocodeResult{
		Status:      GeocodeResolved,
		Coordinates: Coordinates{Latitude: lat, Longitude: lon},
	}
}

func Unresolved() GeocodeResult {
	return GeocodeResult{Status: GeocodeUnresolved}
}

func (r GeocodeResult) IsResolved() bool {
	return r.Status == GeocodeResolved
}
