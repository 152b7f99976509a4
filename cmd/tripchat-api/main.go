// README: Entry point; loads config, wires services, starts the HTTP server and the context cleanup service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"tripchat/internal/app"
	"tripchat/internal/config"
	httptransport "tripchat/internal/http"
	"tripchat/internal/logger"
	"tripchat/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	l := logger.Init(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.With(ctx, l)

	m := metrics.New()
	a, err := app.Build(ctx, cfg, m)
	if err != nil {
		l.Fatal().Err(err).Msg("wire services")
	}
	defer func() {
		if err := a.Close(); err != nil {
			l.Error().Err(err).Msg("close")
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	router := httptransport.NewRouter(httptransport.RouterDeps{
		Chat:           a.Planner,
		Logger:         l,
		Metrics:        m,
		MetricsHandler: m.Handler(),
	})
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	a.Start(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			l.Error().Err(err).Msg("http shutdown")
		}
	}()

	l.Info().Str("addr", cfg.HTTP.Addr).Str("store", cfg.Store.Backend).Str("llm", cfg.LLM.Provider).Msg("tripchat listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error().Err(err).Msg("http server")
	}
}
