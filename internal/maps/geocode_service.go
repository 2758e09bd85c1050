// README: Google Geocoding check that a pickup address and postal code resolve inside Canada.
package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"vdrop/internal/logger"
	"vdrop/internal/validator"
)

const (
	serviceCountry = "CA"
	zipField       = "pickup_zip"
)

// Geocoder is the slice of *maps.Client the verifier needs.
type Geocoder interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// GeocodeService verifies pickup addresses against the Geocoding API.
type GeocodeService struct {
	client Geocoder
	log    logger.ILogger
}

// NewGeocodeService creates a GeocodeService with the given API Key.
func NewGeocodeService(apiKey string, log logger.ILogger) (*GeocodeService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return newGeocodeService(client, log), nil
}

func newGeocodeService(client Geocoder, log logger.ILogger) *GeocodeService {
	if log == nil {
		log = logger.NewNop()
	}
	return &GeocodeService{client: client, log: log}
}

// VerifyZip returns a field error when the address cannot be placed in Canada.
// Provider outages are logged and let the booking through.
func (s *GeocodeService) VerifyZip(ctx context.Context, address, zip string) error {
	r := &maps.GeocodingRequest{
		Address: strings.TrimSpace(address + " " + zip),
		Region:  "ca",
	}
	results, err := s.client.Geocode(ctx, r)
	if err != nil && !strings.Contains(err.Error(), "ZERO_RESULTS") {
		s.log.Warning("geocode failed; skipping address check", logger.Error(err))
		return nil
	}
	if len(results) == 0 {
		return validator.FieldError(zipField, "We couldn't find this address. Please check the postal code")
	}
	if country := countryOf(results[0]); country != serviceCountry {
		return validator.FieldError(zipField, "Pickups are only available in Canada")
	}
	return nil
}

func countryOf(res maps.GeocodingResult) string {
	for _, c := range res.AddressComponents {
		for _, t := range c.Types {
			if t == "country" {
				return strings.ToUpper(c.ShortName)
			}
		}
	}
	return ""
}
