// README: Wires config into services; shared by the API server and the demo.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"tripchat/internal/ai"
	"tripchat/internal/config"
	"tripchat/internal/dateparse"
	"tripchat/internal/infra"
	"tripchat/internal/maps"
	"tripchat/internal/metrics"
	"tripchat/internal/modules/dining"
	"tripchat/internal/modules/lodging"
	"tripchat/internal/modules/planner"
	"tripchat/internal/modules/session"
	"tripchat/internal/modules/slots"
	"tripchat/internal/modules/usage"
)

// App holds the wired services and everything that must be closed on shutdown.
type App struct {
	Planner *planner.Service
	Store   session.Store
	// Cleanup is nil unless the memory store is in use.
	Cleanup *session.CleanupService
	Metrics *metrics.Metrics

	closers []io.Closer
	db      *pgxpool.Pool
}

func Build(ctx context.Context, cfg config.Config, m *metrics.Metrics) (*App, error) {
	log := zerolog.Ctx(ctx)
	a := &App{Metrics: m}

	store, err := a.buildStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store

	gen, err := a.buildGenerator(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	extractor := slots.NewExtractor(slots.Config{
		Generator: gen,
		Dates: slots.NewDateExtractor(slots.DateConfig{
			Location: cfg.Location(),
			Locale:   cfg.Locale,
			Natural:  dateparse.New(),
		}),
		Observe: func(slot, strategy string, o slots.Outcome) {
			m.ObserveExtraction(slot, strategy, o.String())
		},
	})

	var hotels planner.HotelRecommender
	if cfg.Providers.RapidAPIKey != "" {
		client := lodging.NewClient(cfg.Providers.RapidAPIKey, cfg.Providers.BookingHost, cfg.Providers.BookingBaseURL)
		hotels = lodging.NewService(client, cfg.Locale, cfg.Providers.Timeout, m)
	} else {
		log.Warn().Msg("RAPIDAPI_KEY not set, hotel search disabled")
	}

	var foods planner.FoodRecommender
	if cfg.Providers.GoogleMapsKey != "" {
		places, err := maps.NewPlacesService(cfg.Providers.GoogleMapsKey, cfg.Locale)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("places: %w", err)
		}
		foods = dining.NewService(places, cfg.Providers.Timeout, m)
	} else {
		log.Warn().Msg("GOOGLE_MAPS_API_KEY not set, restaurant search disabled")
	}

	a.Planner = planner.NewService(planner.Config{
		Store:       store,
		Extractor:   extractor,
		Hotels:      hotels,
		Foods:       foods,
		Generator:   gen,
		Recorder:    m,
		TurnTimeout: cfg.HTTP.TurnTimeout,
	})
	return a, nil
}

func (a *App) buildStore(ctx context.Context, cfg config.Config) (session.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreRedis:
		client, err := infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client)
		return session.NewRedisStore(client, cfg.Store.TTL, cfg.Store.LockTTL), nil
	default:
		mem := session.NewMemoryStore(cfg.Store.TTL, cfg.Store.Capacity)
		a.Cleanup = session.NewCleanupService(mem, cfg.Store.CleanupInterval, a.Metrics.SetStoredContexts)
		return mem, nil
	}
}

// buildGenerator returns nil for the rule-only provider. Order from the
// outside in: instrumentation, quota, timeout, provider.
func (a *App) buildGenerator(ctx context.Context, cfg config.Config) (ai.TextGenerator, error) {
	var (
		gen  ai.TextGenerator
		name string
	)
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		g, err := ai.NewGemini(ctx, cfg.LLM.GeminiKey, cfg.LLM.GeminiModel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, g)
		gen, name = g, "gemini"
	case config.ProviderOpenAI:
		o := ai.NewOpenAI(cfg.LLM.OpenAIKey, cfg.LLM.OpenAIModel)
		if cfg.LLM.OpenAIEndpoint != "" {
			o = o.WithEndpoint(cfg.LLM.OpenAIEndpoint)
		}
		gen, name = o, "openai"
	default:
		return nil, nil
	}

	gen = ai.WithTimeout(gen, cfg.LLM.Timeout)
	if cfg.LLM.UsageEnabled {
		db, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return nil, err
		}
		a.db = db
		gen = ai.WithQuota(gen, usage.NewService(usage.NewStore(db), cfg.LLM.MonthlyQuota))
	}
	return ai.Instrument(gen, name, a.Metrics), nil
}

// Start runs background services until ctx is done.
func (a *App) Start(ctx context.Context) {
	if a.Cleanup != nil {
		a.Cleanup.Start(ctx)
	}
}

func (a *App) Close() error {
	if a.Cleanup != nil {
		a.Cleanup.Stop()
	}
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
	return errors.Join(errs...)
}
