// README: Slot extraction pipeline (rules, language model fallback, gazetteer) applied to a conversation context.
package slots

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"tripchat/internal/modules/session"
)

// TextGenerator is the chat-style language model used for extraction.
type TextGenerator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

var (
	errNoGenerator    = errors.New("text generator not configured")
	errUnusableAnswer = errors.New("unusable model answer")
)

const (
	destinationPrompt = "다음 문장에서 여행 목적지(도시 또는 지역 이름)를 하나만 추출해줘. " +
		"목적지 이름만 답하고, 목적지가 없으면 none 이라고만 답해."
	hotelFilterPrompt = "다음 문장에서 호텔 특성 키워드를 모두 추출해줘. 쉼표로 구분해서 한글 키워드만. " +
		"예: '수영장 있는 가성비 좋은 호텔' → 수영장, 가성비. 없으면 none 이라고만 답해."
	maxPlaceRunes = 30
)

var nullSentinels = map[string]struct{}{
	"": {}, "none": {}, "null": {}, "nil": {}, "n/a": {},
	"없음": {}, "없다": {}, "없습니다": {}, "모름": {},
}

type Config struct {
	Generator TextGenerator
	Dates     *DateExtractor
	Gazetteer []string
	// Observe receives every strategy outcome, e.g. for metrics.
	Observe func(slot, strategy string, o Outcome)
}

// Extractor updates a conversation context from one user message.
type Extractor struct {
	gen       TextGenerator
	dates     *DateExtractor
	gazetteer []string

	destination Chain[string]
	hotelFilter Chain[[]string]
	adults      Chain[int]
	children    Chain[int]
	rooms       Chain[int]
}

func NewExtractor(cfg Config) *Extractor {
	x := &Extractor{
		gen:       cfg.Generator,
		dates:     cfg.Dates,
		gazetteer: cfg.Gazetteer,
	}
	if x.dates == nil {
		x.dates = NewDateExtractor(DateConfig{})
	}
	if len(x.gazetteer) == 0 {
		x.gazetteer = DefaultGazetteer
	}

	x.destination = Chain[string]{
		Slot:    "destination",
		Observe: cfg.Observe,
		Strategies: []Strategy[string]{
			{Name: "model", Extract: x.modelDestination},
			{Name: "gazetteer", Extract: x.gazetteerDestination},
		},
	}
	x.hotelFilter = Chain[[]string]{
		Slot:    "hotel_filter",
		Observe: cfg.Observe,
		Strategies: []Strategy[[]string]{
			{Name: "model", Extract: x.modelHotelFilter},
			{Name: "keywords", Extract: keywordHotelFilter},
		},
	}
	x.adults = Chain[int]{
		Slot:    "adults_number",
		Observe: cfg.Observe,
		Strategies: []Strategy[int]{
			{Name: "label", Extract: ruleOnly(AdultsLabeled)},
			{Name: "bare_integer", Extract: ruleOnly(AdultsBare)},
		},
	}
	x.children = Chain[int]{
		Slot:       "children_number",
		Observe:    cfg.Observe,
		Strategies: []Strategy[int]{{Name: "label", Extract: ruleOnly(Children)}},
	}
	x.rooms = Chain[int]{
		Slot:       "no_rooms",
		Observe:    cfg.Observe,
		Strategies: []Strategy[int]{{Name: "label", Extract: ruleOnly(Rooms)}},
	}
	return x
}

func ruleOnly[T any](fn func(string) Result[T]) func(context.Context, string) Result[T] {
	return func(_ context.Context, message string) Result[T] { return fn(message) }
}

// Apply runs every extractor against message in the order destination, hotel,
// food, dates, adults, children, rooms. Populated slots are left alone; the
// intent flags are recomputed from this message only.
func (x *Extractor) Apply(ctx context.Context, c *session.Context, message string) {
	log := zerolog.Ctx(ctx)
	c.ClearIntents()

	if c.Destination == nil {
		if r := x.destination.Run(ctx, message); r.Outcome == Found {
			c.SetDestination(r.Value)
		} else if r.Err != nil {
			log.Debug().Err(r.Err).Msg("destination not extracted")
		}
	}

	c.HotelAsked = HotelIntent(message)
	if c.HotelAsked {
		if r := x.hotelFilter.Run(ctx, message); r.Outcome == Found {
			c.AddHotelFilters(r.Value...)
		}
	}

	c.FoodAsked = FoodIntent(message)
	if c.FoodAsked && c.FoodFilter == nil {
		if kw, ok := FoodPreference(message); ok {
			c.SetFoodFilter(kw)
		}
	}

	if c.DepartureDate == nil {
		if stay, ok := x.dates.Extract(message); ok {
			c.SetStay(stay.Checkin, stay.Checkout)
		}
	}

	if c.AdultsNumber == nil {
		if r := x.adults.Run(ctx, message); r.Outcome == Found {
			c.SetAdults(r.Value)
		}
	}
	if c.ChildrenNumber == 0 {
		if r := x.children.Run(ctx, message); r.Outcome == Found {
			c.SetChildren(r.Value)
		}
	}
	if c.NoRooms <= 1 {
		if r := x.rooms.Run(ctx, message); r.Outcome == Found {
			c.SetRooms(r.Value)
		}
	}
}

func (x *Extractor) modelDestination(ctx context.Context, message string) Result[string] {
	if x.gen == nil {
		return Failed[string](errNoGenerator)
	}
	out, err := x.gen.Generate(ctx, destinationPrompt, message)
	if err != nil {
		return Failed[string](err)
	}
	place := cleanAnswer(out)
	if isSentinel(place) {
		return NotPresent[string]()
	}
	if utf8.RuneCountInString(place) > maxPlaceRunes || strings.ContainsAny(place, ",\n") {
		return Failed[string](errUnusableAnswer)
	}
	return FoundValue(place)
}

func (x *Extractor) gazetteerDestination(_ context.Context, message string) Result[string] {
	if place, ok := MatchGazetteer(message, x.gazetteer); ok {
		return FoundValue(place)
	}
	return NotPresent[string]()
}

func (x *Extractor) modelHotelFilter(ctx context.Context, message string) Result[[]string] {
	if x.gen == nil {
		return Failed[[]string](errNoGenerator)
	}
	out, err := x.gen.Generate(ctx, hotelFilterPrompt, message)
	if err != nil {
		return Failed[[]string](err)
	}
	keywords := SplitKeywords(out)
	if len(keywords) == 0 {
		return NotPresent[[]string]()
	}
	return FoundValue(keywords)
}

func keywordHotelFilter(_ context.Context, message string) Result[[]string] {
	if kws := matchHotelKeywords(message); len(kws) > 0 {
		return FoundValue(kws)
	}
	return NotPresent[[]string]()
}

// SplitKeywords splits a comma separated model answer and drops sentinels.
func SplitKeywords(answer string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(answer, func(r rune) bool { return r == ',' || r == '、' || r == '\n' }) {
		kw := cleanAnswer(part)
		if isSentinel(kw) {
			continue
		}
		out = append(out, kw)
	}
	return out
}

func cleanAnswer(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, " \t\"'`.。*-")
	return strings.TrimSpace(s)
}

func isSentinel(s string) bool {
	_, ok := nullSentinels[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
