// README: Google Places text search client used for restaurant lookups.
package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

// Place represents a simplified location result.
type Place struct {
	Name             string
	Address          string
	Rating           float32
	PlaceID          string
	UserRatingsTotal int
}

// PlacesService handles interactions with Google Places API.
type PlacesService struct {
	client   *maps.Client
	language string
}

// NewPlacesService creates a PlacesService for the given API key.
// Extra client options (e.g. maps.WithBaseURL) are passed through.
func NewPlacesService(apiKey, language string, opts ...maps.ClientOption) (*PlacesService, error) {
	opts = append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	if language == "" {
		language = "ko"
	}
	return &PlacesService{client: client, language: language}, nil
}

// TextSearch runs a free-text place query and returns at most limit results in API order.
func (s *PlacesService) TextSearch(ctx context.Context, query string, limit int) ([]Place, error) {
	resp, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:    query,
		Language: s.language,
	})
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	results := make([]Place, 0, min(limit, len(resp.Results)))
	for _, r := range resp.Results {
		if limit > 0 && len(results) >= limit {
			break
		}
		results = append(results, Place{
			Name:             r.Name,
			Address:          r.FormattedAddress,
			Rating:           r.Rating,
			PlaceID:          r.PlaceID,
			UserRatingsTotal: r.UserRatingsTotal,
		})
	}
	return results, nil
}
