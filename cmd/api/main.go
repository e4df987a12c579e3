package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"vidforge/internal/dispatch"
	"vidforge/internal/domain"
	"vidforge/internal/http/handlers"
	httpapi "vidforge/internal/http/httpapi"
	"vidforge/internal/infra"
	"vidforge/internal/infra/credentials"
	"vidforge/internal/poll"
	"vidforge/internal/providers/prompt"
	"vidforge/internal/providers/video"
	"vidforge/internal/relay"
	"vidforge/internal/store"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// Persistence: redis snapshot when configured, in-memory otherwise.
	var persister store.Persister
	if cfg.RedisURL != "" {
		rp, err := store.NewRedisPersister(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer rp.Close()
		persister = rp
	} else {
		logger.Warn().Msg("REDIS_URL not set, generation history will not survive restarts")
		persister = store.NewMemoryPersister()
	}

	st := store.New(persister, logger)
	if err := st.Load(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to load persisted state")
	}

	composer := prompt.NewComposer(prompt.Options{
		Model:   cfg.EnhanceModel,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.EnhanceTimeout,
		OnFallback: func(reason string, err error) {
			logger.Warn().Err(err).Str("reason", reason).Msg("prompt enrichment fell back to template assembly")
		},
	})

	dispatcher := dispatch.NewDispatcher(composer, logger)
	dispatcher.Register("sora-2-pro", domain.ProviderOpenAI, video.NewSora(video.SoraOptions{BaseURL: cfg.OpenAIBaseURL}), true)
	dispatcher.Register("veo-3.1", domain.ProviderGoogle, video.NewVeo(video.VeoOptions{BaseURL: cfg.GoogleBaseURL}), false)
	dispatcher.Register("runway-gen4", domain.ProviderRunway, video.NewRunway(video.RunwayOptions{BaseURL: cfg.RunwayBaseURL}), false)
	dispatcher.Register("kling-2", domain.ProviderKling, video.NewKling(video.KlingOptions{BaseURL: cfg.KlingBaseURL}), false)

	driver := poll.NewDriver(dispatcher, st, poll.Options{
		InitialDelay:    cfg.PollInitialDelay,
		Interval:        cfg.PollInterval,
		MaxAttempts:     cfg.PollMaxAttempts,
		StoryboardDelay: cfg.StoryboardDelay,
	}, logger)

	creds := credentials.NewStore(map[string]string{
		domain.ProviderOpenAI: cfg.OpenAIAPIKey,
		domain.ProviderGoogle: cfg.GoogleAPIKey,
		domain.ProviderRunway: cfg.RunwayAPIKey,
		domain.ProviderKling:  cfg.KlingAPIKey,
	})

	app := handlers.NewApp(ctx, st, dispatcher, driver, relay.NewRelay(nil), composer, creds, cfg.MaxReferenceImages, logger)

	router := httpapi.NewRouter(app, cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != os.ErrClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
