// The server answers telephony webhooks: it greets callers, runs the
// dialogue turns, and commits completed customer records. Follow-up texts
// go out through RabbitMQ to the delivery worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lhawkeye71/ai-phone-agent/internal/ai"
	"github.com/lhawkeye71/ai-phone-agent/internal/calls"
	"github.com/lhawkeye71/ai-phone-agent/internal/config"
	"github.com/lhawkeye71/ai-phone-agent/internal/db"
	"github.com/lhawkeye71/ai-phone-agent/internal/dialogue"
	"github.com/lhawkeye71/ai-phone-agent/internal/events"
	"github.com/lhawkeye71/ai-phone-agent/internal/httpapi"
	"github.com/lhawkeye71/ai-phone-agent/internal/httpapi/handlers"
	"github.com/lhawkeye71/ai-phone-agent/internal/notify"
	"github.com/lhawkeye71/ai-phone-agent/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	gdb := db.Connect(cfg.DBDSN)

	registry := calls.NewRegistry(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MaxActiveCalls, cfg.CallTTL)
	defer registry.Close()

	// Notifications degrade to disabled when the broker is down; records
	// still commit, callers still get their goodbye.
	var notifier dialogue.Notifier
	if pub, err := notify.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue); err != nil {
		log.Warn().Err(err).Msg("rabbitmq unreachable, follow-up messages disabled")
	} else {
		notifier = pub
		defer pub.Close()
	}

	ev := events.New(&events.Config{
		Brokers:         cfg.KafkaBrokers,
		TurnTopic:       cfg.KafkaTurnTopic,
		CompletionTopic: cfg.KafkaCompletionTopic,
		Enabled:         cfg.KafkaEnabled,
	})
	defer ev.Close()

	provider := buildProvider(cfg)

	store := dialogue.NewStore(gdb)
	svc := dialogue.NewService(store, provider, notifier, ev, cfg.ContextWindowSize)

	h := handlers.NewHandler(svc, registry)
	router := httpapi.NewRouter(h)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go registry.StartSweeper(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("received shutdown signal")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("provider", cfg.AIProvider).Msg("voice webhook server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("server stopped")
}

func buildProvider(cfg config.Config) ai.Provider {
	reg := ai.NewRegistry()
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, model), nil
	})
	reg.Register("openrouter", func(ctx context.Context, model string) (ai.Provider, error) {
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, model, cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
	})
	reg.Register("openai", func(ctx context.Context, model string) (ai.Provider, error) {
		return ai.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, model), nil
	})

	provider, err := reg.Get(context.Background(), cfg.AIProvider, cfg.AIModel)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.AIProvider).Msg("unknown generation provider")
	}
	return provider
}
