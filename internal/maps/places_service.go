package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

// Place represents a simplified location result.
type Place struct {
	Name             string  `json:"name"`
	Address          string  `json:"address"`
	Rating           float32 `json:"rating"`
	PlaceID          string  `json:"place_id"`
	UserRatingsTotal int     `json:"user_ratings_total"`
}

// PlacesService handles interactions with Google Places API.
type PlacesService struct {
	client *maps.Client
	campus string
}

// NewPlacesService creates a new PlacesService anchored to the campus area.
func NewPlacesService(apiKey, campus string) (*PlacesService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &PlacesService{client: client, campus: campus}, nil
}

// SearchNearby searches for places matching the query near campus. Low-rated
// results are filtered out and at most five places are returned.
func (s *PlacesService) SearchNearby(ctx context.Context, query string) ([]Place, error) {
	fullQuery := query
	if s.campus != "" {
		fullQuery = fmt.Sprintf("%s near %s", query, s.campus)
	}

	resp, err := s.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query: fullQuery,
	})
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	var results []Place
	for _, result := range resp.Results {
		if result.Rating > 0 && result.Rating < 3.5 {
			continue
		}
		results = append(results, Place{
			Name:             result.Name,
			Address:          result.FormattedAddress,
			Rating:           result.Rating,
			PlaceID:          result.PlaceID,
			UserRatingsTotal: result.UserRatingsTotal,
		})
		if len(results) >= 5 {
			break
		}
	}

	return results, nil
}
