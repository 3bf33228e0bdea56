package geocode

import (
	"fmt"
	"time"
)

const (
	ProviderNominatim = "nominatim"
	ProviderMapbox    = "mapbox"
	ProviderOffline   = "offline"
	ProviderNone      = "none"
)

type ProviderOptions struct {
	Kind      string
	URL       string
	UserAgent string
	Token     string
	Timeout   time.Duration
}

// NewProvider builds the configured provider. ProviderNone yields nil, which
// disables geocoding.
func NewProvider(opts ProviderOptions) (Provider, error) {
	switch opts.Kind {
	case ProviderNominatim, "":
		return NewNominatim(opts.URL, opts.UserAgent, opts.Timeout), nil
	case ProviderMapbox:
		if opts.Token == "" {
			return nil, fmt.Errorf("mapbox geocoder requires a token")
		}
		return NewMapbox(opts.URL, opts.Token, opts.Timeout), nil
	case ProviderOffline:
		o, err := NewOffline()
		if err != nil {
			return nil, err
		}
		return o, nil
	case ProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown geocoder provider: %s", opts.Kind)
	}
}
