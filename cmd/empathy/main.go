package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"empathy-server/pkg/config"
	"empathy-server/pkg/emotion"
	"empathy-server/pkg/generation"
	"empathy-server/pkg/httpapi"
	"empathy-server/pkg/memory"
	"empathy-server/pkg/notify"
	"empathy-server/pkg/pipeline"
	"empathy-server/pkg/sentiment"
	"empathy-server/pkg/synthesis"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	cfg.Logging.SetupLogger(logger)

	logger.Info("Starting empathy server")

	store := buildStore(logger, cfg)
	defer store.Close()

	notifier := buildNotifier(logger, cfg)

	detector := buildDetector(logger, cfg)
	fuser := sentiment.NewFuser(logger, sentiment.NewBaseScorer(), sentiment.NewNuancedScorer())
	client := buildGenerationClient(logger, cfg)
	synthesizer := synthesis.NewSynthesizer(logger, client)

	p := pipeline.New(logger, detector, fuser, synthesizer, store, notifier, pipeline.Options{
		WindowDays: cfg.Analytics.WindowDays,
	})

	server := httpapi.NewServer(logger, &httpapi.Config{
		Port:          cfg.HTTP.Port,
		ReadTimeout:   cfg.HTTP.ReadTimeout,
		WriteTimeout:  cfg.HTTP.WriteTimeout,
		EnableMetrics: cfg.HTTP.EnableMetrics,
		RecentLimit:   cfg.Memory.RecentLimit,
	}, p, client, store)
	server.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.WithField("signal", sig.String()).Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
	}

	if amqpNotifier, ok := notifier.(*notify.AMQPNotifier); ok {
		amqpNotifier.Disconnect()
	}

	logger.Info("Empathy server stopped")
}

// buildDetector picks the remote inference classifier when an endpoint
// is configured and falls back to the local lexicon otherwise.
func buildDetector(logger *logrus.Logger, cfg *config.Config) *emotion.Detector {
	detectorConfig := emotion.DetectorConfig{
		MinLength: cfg.Emotion.MinLength,
		MaxLength: cfg.Emotion.MaxLength,
	}

	var classifier emotion.Classifier
	remote, err := emotion.NewInferenceClassifier(logger, cfg.Emotion.InferenceURL, cfg.Emotion.APIKey, cfg.Emotion.Timeout)
	switch {
	case err == nil:
		classifier = remote
		logger.WithField("url", cfg.Emotion.InferenceURL).Info("Using remote emotion classifier")
	case errors.Is(err, emotion.ErrNotConfigured):
		classifier = emotion.NewLexiconClassifier()
		logger.Info("Using local lexicon emotion classifier")
	default:
		logger.WithError(err).Warn("Remote classifier unavailable, using local lexicon")
		classifier = emotion.NewLexiconClassifier()
	}

	return emotion.NewDetector(logger, classifier, detectorConfig)
}

// buildGenerationClient registers every provider whose credentials are
// present and resolves the configured one through the registry. An empty
// registry leaves the client in fallback-only mode.
func buildGenerationClient(logger *logrus.Logger, cfg *config.Config) *generation.Client {
	registry := generation.NewRegistry(logger, cfg.Generation.Provider)

	if p, err := generation.NewGeminiProvider(logger, cfg.Generation.GeminiAPIKey, cfg.Generation.GeminiModel, cfg.Generation.Timeout); err == nil {
		registry.Register(p)
	} else if !errors.Is(err, generation.ErrNotConfigured) {
		logger.WithError(err).Warn("Gemini provider unavailable")
	}

	if p, err := generation.NewOpenAIProvider(logger, cfg.Generation.OpenAIAPIKey, cfg.Generation.OpenAIModel); err == nil {
		registry.Register(p)
	} else if !errors.Is(err, generation.ErrNotConfigured) {
		logger.WithError(err).Warn("OpenAI provider unavailable")
	}

	provider, err := registry.Default()
	if err != nil {
		logger.WithError(err).Info("No usable generation provider, replies come from templates")
	}

	return generation.NewClient(logger, provider, nil, generation.ClientConfig{
		MinInterval: cfg.Generation.MinInterval,
		MaxRetries:  cfg.Generation.MaxRetries,
		BackoffBase: cfg.Generation.BackoffBase,
		Params:      generation.DefaultParams(),
	})
}

// buildStore selects the memory backend. The sheets backend falls back
// to sqlite when its credentials are missing or the service cannot be
// reached, so the server always has working persistence.
func buildStore(logger *logrus.Logger, cfg *config.Config) memory.Store {
	if cfg.Memory.Backend == "sheets" {
		store, err := memory.NewSheetsStore(context.Background(), logger, memory.SheetsConfig{
			CredentialsFile: cfg.Memory.SheetsCredsFile,
			SpreadsheetID:   cfg.Memory.SheetsSpreadsheet,
			Worksheet:       cfg.Memory.SheetsWorksheet,
		})
		if err == nil {
			logger.WithField("spreadsheet", cfg.Memory.SheetsSpreadsheet).Info("Using Google Sheets memory backend")
			return store
		}
		logger.WithError(err).Warn("Google Sheets backend unavailable, falling back to SQLite")
	}

	store, err := memory.NewSQLiteStore(logger, cfg.Memory.SQLitePath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open SQLite memory store")
	}
	return store
}

// buildNotifier wires the configured notification sink, defaulting to
// a no-op sink when nothing is configured.
func buildNotifier(logger *logrus.Logger, cfg *config.Config) notify.Notifier {
	switch cfg.Notify.Sink {
	case "webhook":
		return notify.NewWebhookNotifier(logger, cfg.Notify.WebhookURL)
	case "amqp":
		notifier := notify.NewAMQPNotifier(logger, notify.AMQPConfig{
			URL:       cfg.Notify.AMQPURL,
			QueueName: cfg.Notify.AMQPQueue,
		})
		if err := notifier.Connect(); err != nil {
			logger.WithError(err).Warn("AMQP sink unavailable, notifications will be dropped until reconnect")
		}
		return notifier
	default:
		logger.Info("No notification sink configured")
		return notify.NopNotifier{}
	}
}
