// README: Restaurant recommendations for a destination via place text search.
package dining

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tripchat/internal/maps"
)

const (
	MaxResults = 5
	mapsSearch = "https://www.google.com/maps/search/?api=1"
)

type Restaurant struct {
	Name    string  `json:"name"`
	Rating  float32 `json:"rating"`
	Address string  `json:"address"`
	MapURL  string  `json:"map_url"`
}

// Searcher is the place text search the service depends on.
type Searcher interface {
	TextSearch(ctx context.Context, query string, limit int) ([]maps.Place, error)
}

type Recorder interface {
	ObserveProvider(provider, status string, d time.Duration)
}

type Service struct {
	places  Searcher
	timeout time.Duration
	rec     Recorder
}

func NewService(places Searcher, timeout time.Duration, rec Recorder) *Service {
	return &Service{places: places, timeout: timeout, rec: rec}
}

// BuildQuery returns "<destination> [<preference>] 맛집".
func BuildQuery(destination, preference string) string {
	parts := []string{strings.TrimSpace(destination)}
	if p := strings.TrimSpace(preference); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, "맛집")
	return strings.Join(parts, " ")
}

// MapURL links to a Google Maps search for the place.
func MapURL(name, placeID string) string {
	q := url.Values{}
	q.Set("query", name)
	if placeID != "" {
		q.Set("query_place_id", placeID)
	}
	return mapsSearch + "&" + q.Encode()
}

// Recommend never fails: provider errors and empty destinations yield an empty list.
func (s *Service) Recommend(ctx context.Context, destination, preference string) []Restaurant {
	if s == nil || s.places == nil || strings.TrimSpace(destination) == "" {
		return []Restaurant{}
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	query := BuildQuery(destination, preference)
	start := time.Now()
	places, err := s.places.TextSearch(ctx, query, MaxResults)
	s.observe(err, time.Since(start))
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("query", query).Msg("dining search failed")
		return []Restaurant{}
	}

	out := make([]Restaurant, 0, min(len(places), MaxResults))
	for _, p := range places {
		if len(out) >= MaxResults {
			break
		}
		out = append(out, Restaurant{
			Name:    p.Name,
			Rating:  p.Rating,
			Address: p.Address,
			MapURL:  MapURL(p.Name, p.PlaceID),
		})
	}
	return out
}

func (s *Service) observe(err error, d time.Duration) {
	if s.rec == nil {
		return
	}
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		status = "timeout"
	default:
		status = "error"
	}
	s.rec.ObserveProvider("places", status, d)
}
