// README: Hotel recommendations built from a conversation context.
package lodging

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tripchat/internal/modules/session"
	"tripchat/internal/types"
)

const (
	MaxResults      = 5
	currency        = "KRW"
	bookingDeepLink = "https://www.booking.com/searchresults.ko.html"
)

// categoryFilters maps preference keywords to provider filter ids.
// Unknown keywords are dropped.
var categoryFilters = map[string][]string{
	"럭셔리":  {"class::5", "class::4"},
	"저렴한":  {"price::1"},
	"가성비":  {"price::1", "review_score::8"},
	"수영장":  {"facility::11"},
	"조식":   {"mealplan::1"},
	"조식포함": {"mealplan::1"},
	"반려동물": {"facility::5"},
}

type Hotel struct {
	Name   string      `json:"name"`
	Price  types.Money `json:"price"`
	Rating *float64    `json:"rating"`
	URL    string      `json:"url"`
}

type Recorder interface {
	ObserveProvider(provider, status string, d time.Duration)
}

type Service struct {
	client  *Client
	locale  string
	timeout time.Duration
	rec     Recorder
}

func NewService(client *Client, locale string, timeout time.Duration, rec Recorder) *Service {
	if locale == "" {
		locale = "ko"
	}
	return &Service{client: client, locale: locale, timeout: timeout, rec: rec}
}

// CategoryFilters returns the provider filter ids for keywords, without duplicates.
func CategoryFilters(keywords []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, kw := range keywords {
		for _, id := range categoryFilters[strings.TrimSpace(kw)] {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// SearchParams builds the hotel search query for c at dest.
func SearchParams(c session.Context, dest Destination, locale string) url.Values {
	q := url.Values{}
	q.Set("checkin_date", c.DepartureDate.String())
	q.Set("checkout_date", c.ReturnDate.String())
	q.Set("dest_id", dest.ID)
	q.Set("dest_type", dest.Type)
	q.Set("adults_number", strconv.Itoa(*c.AdultsNumber))
	if c.ChildrenNumber > 0 {
		q.Set("children_number", strconv.Itoa(c.ChildrenNumber))
	}
	q.Set("room_number", strconv.Itoa(max(c.NoRooms, 1)))
	q.Set("units", "metric")
	q.Set("order_by", "popularity")
	q.Set("locale", locale)
	q.Set("currency", currency)
	q.Set("filter_by_currency", currency)
	q.Set("page_number", "0")
	if cats := CategoryFilters(c.HotelFilter); len(cats) > 0 {
		q.Set("categories_filter_ids", strings.Join(cats, ","))
	}
	return q
}

// DeepLink is a booking.com search link for one hotel with the stay filled in.
func DeepLink(hotelName string, c session.Context) string {
	in, out := c.DepartureDate, c.ReturnDate
	q := url.Values{}
	q.Set("ss", hotelName)
	q.Set("checkin_year", strconv.Itoa(in.Year))
	q.Set("checkin_month", strconv.Itoa(int(in.Month)))
	q.Set("checkin_monthday", strconv.Itoa(in.Day))
	q.Set("checkout_year", strconv.Itoa(out.Year))
	q.Set("checkout_month", strconv.Itoa(int(out.Month)))
	q.Set("checkout_monthday", strconv.Itoa(out.Day))
	q.Set("group_adults", strconv.Itoa(*c.AdultsNumber))
	q.Set("group_children", strconv.Itoa(c.ChildrenNumber))
	q.Set("no_rooms", strconv.Itoa(max(c.NoRooms, 1)))
	return bookingDeepLink + "?" + q.Encode()
}

// Searchable reports whether c carries everything a hotel search needs.
func Searchable(c session.Context) bool {
	return c.Destination != nil && c.DepartureDate != nil && c.ReturnDate != nil &&
		c.AdultsNumber != nil && *c.AdultsNumber >= 1
}

// Recommend never fails: unresolvable destinations, incomplete contexts and
// provider errors all yield an empty list.
func (s *Service) Recommend(ctx context.Context, c session.Context) []Hotel {
	if s == nil || s.client == nil || !Searchable(c) {
		return []Hotel{}
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	log := zerolog.Ctx(ctx).With().Str("component", "lodging").Str("destination", *c.Destination).Logger()

	start := time.Now()
	dest, err := s.client.LookupDestination(ctx, *c.Destination, s.locale)
	s.observe("booking_locations", err, time.Since(start))
	if err != nil {
		log.Warn().Err(err).Msg("destination lookup failed")
		return []Hotel{}
	}

	start = time.Now()
	records, err := s.client.Search(ctx, SearchParams(c, dest, s.locale))
	s.observe("booking_search", err, time.Since(start))
	if err != nil {
		log.Warn().Err(err).Msg("hotel search failed")
		return []Hotel{}
	}

	hotels := make([]Hotel, 0, min(len(records), MaxResults))
	for _, r := range records {
		if len(hotels) >= MaxResults {
			break
		}
		cur := r.CurrencyCode
		if cur == "" {
			cur = currency
		}
		hotels = append(hotels, Hotel{
			Name:   r.HotelName,
			Price:  types.MoneyFromFloat(r.MinTotalPrice, cur),
			Rating: r.ReviewScore,
			URL:    DeepLink(r.HotelName, c),
		})
	}
	return hotels
}

func (s *Service) observe(provider string, err error, d time.Duration) {
	if s.rec == nil {
		return
	}
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNoDestination):
		status = "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		status = "timeout"
	default:
		status = "error"
	}
	s.rec.ObserveProvider(provider, status, d)
}
