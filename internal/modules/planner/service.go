// README: Turn controller. One turn = extract slots, query providers, write the reply.
package planner

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tripchat/internal/ai"
	"tripchat/internal/modules/dining"
	"tripchat/internal/modules/lodging"
	"tripchat/internal/modules/session"
)

const (
	StateGathering = "gathering"
	StateReady     = "ready"
)

type SlotExtractor interface {
	Apply(ctx context.Context, c *session.Context, message string)
}

type HotelRecommender interface {
	Recommend(ctx context.Context, c session.Context) []lodging.Hotel
}

type FoodRecommender interface {
	Recommend(ctx context.Context, destination, preference string) []dining.Restaurant
}

type Recorder interface {
	ObserveTurn(state string, d time.Duration)
}

type Config struct {
	Store     session.Store
	Extractor SlotExtractor
	Hotels    HotelRecommender
	Foods     FoodRecommender
	// Generator writes the Ready reply. Nil means the summary template is always used.
	Generator ai.TextGenerator
	Recorder  Recorder
	// TurnTimeout bounds a whole turn including the wait for the conversation lock.
	TurnTimeout time.Duration
}

type Service struct {
	store       session.Store
	extractor   SlotExtractor
	hotels      HotelRecommender
	foods       FoodRecommender
	gen         ai.TextGenerator
	rec         Recorder
	turnTimeout time.Duration
}

func NewService(cfg Config) *Service {
	return &Service{
		store:       cfg.Store,
		extractor:   cfg.Extractor,
		hotels:      cfg.Hotels,
		foods:       cfg.Foods,
		gen:         cfg.Generator,
		rec:         cfg.Recorder,
		turnTimeout: cfg.TurnTimeout,
	}
}

type TurnInput struct {
	Key     session.Key
	Message string
}

// TurnOutput is the reply to one message. Context keeps this turn's intent
// flags; the stored copy does not.
type TurnOutput struct {
	Recommendation string              `json:"recommendation"`
	Context        session.Context     `json:"context"`
	Hotels         []lodging.Hotel     `json:"hotels,omitempty"`
	Foods          []dining.Restaurant `json:"foods,omitempty"`
	State          string              `json:"-"`
}

// HandleTurn runs one turn while holding the conversation's lock. Only store
// failures are returned; extraction and provider failures degrade the reply.
func (s *Service) HandleTurn(ctx context.Context, in TurnInput) (*TurnOutput, error) {
	start := time.Now()
	if s.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.turnTimeout)
		defer cancel()
	}
	log := zerolog.Ctx(ctx).With().Str("conversation", in.Key.String()).Logger()
	ctx = log.WithContext(ai.WithUser(ctx, in.Key.UserID))

	out := &TurnOutput{}
	snapshot, err := s.store.Update(ctx, in.Key, func(c *session.Context) error {
		if s.extractor != nil {
			s.extractor.Apply(ctx, c, in.Message)
		}
		s.runDownstream(ctx, *c, out)
		if c.Ready() {
			out.State = StateReady
			out.Recommendation = s.readyReply(ctx, *c, in.Message, out)
		} else {
			out.State = StateGathering
			out.Recommendation = GatheringReply(*c)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("turn failed")
		return nil, err
	}
	out.Context = snapshot

	if s.rec != nil {
		s.rec.ObserveTurn(out.State, time.Since(start))
	}
	log.Debug().Str("state", out.State).Int("hotels", len(out.Hotels)).Int("foods", len(out.Foods)).Msg("turn handled")
	return out, nil
}

// Reset replaces the conversation's context with a fresh one.
func (s *Service) Reset(ctx context.Context, key session.Key) (session.Context, error) {
	c, err := s.store.Reset(ctx, key)
	if err != nil {
		return session.Context{}, err
	}
	zerolog.Ctx(ctx).Info().Str("conversation", key.String()).Msg("conversation reset")
	return c, nil
}

// runDownstream queries lodging and dining concurrently for the intents of
// this turn. Both adapters swallow their own failures.
func (s *Service) runDownstream(ctx context.Context, c session.Context, out *TurnOutput) {
	if c.Destination == nil {
		return
	}
	var g errgroup.Group
	if c.HotelAsked && s.hotels != nil {
		g.Go(func() error {
			out.Hotels = s.hotels.Recommend(ctx, c)
			return nil
		})
	}
	if c.FoodAsked && s.foods != nil {
		pref := ""
		if c.FoodFilter != nil {
			pref = *c.FoodFilter
		}
		g.Go(func() error {
			out.Foods = s.foods.Recommend(ctx, *c.Destination, pref)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) readyReply(ctx context.Context, c session.Context, message string, out *TurnOutput) string {
	if s.gen == nil {
		return SummaryReply(c)
	}
	reply, err := s.gen.Generate(ctx, RecommendationPrompt(c, out.Hotels, out.Foods), message)
	if err != nil || reply == "" {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("recommendation generation failed, using summary")
		return SummaryReply(c)
	}
	return reply
}
