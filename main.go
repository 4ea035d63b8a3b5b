package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tmarchand/socialpulse/internal/aggregator"
	"github.com/tmarchand/socialpulse/internal/config"
	"github.com/tmarchand/socialpulse/internal/logging"
	"github.com/tmarchand/socialpulse/internal/models"
	"github.com/tmarchand/socialpulse/internal/sentiment"
	"github.com/tmarchand/socialpulse/internal/sources"
	"github.com/tmarchand/socialpulse/internal/store"
	"github.com/tmarchand/socialpulse/internal/telegram"
	"github.com/tmarchand/socialpulse/internal/trend"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	backend, err := buildStore(cfg)
	if err != nil {
		logger.Error("open storage", "error", err)
		os.Exit(1)
	}

	dataset, err := store.NewDataset(backend, cfg.MaxRecords)
	if err != nil {
		logger.Error("hydrate dataset", "error", err)
		os.Exit(1)
	}
	logger.Info("dataset ready", "records", dataset.Len(), "backend", cfg.StorageBackend)

	scorer, err := sentiment.NewScorer(
		sentiment.NewOpenAIClassifier(cfg.OpenAIAPIKey),
		sentiment.DefaultLabelMap,
		logger.With("component", "scorer"),
	)
	if err != nil {
		logger.Error("build scorer", "error", err)
		os.Exit(1)
	}

	pipeline := aggregator.New(aggregator.Deps{
		Config:     cfg,
		Dataset:    dataset,
		Scorer:     scorer,
		Summarizer: trend.NewSummarizer(nil),
		Sources: []models.Source{
			sources.NewMicroblogSource(cfg.MicroblogAPIURL, cfg.MicroblogToken, cfg.Language),
			sources.NewForumSource(cfg.ForumAPIURL),
			sources.NewFediverseSource(cfg.FediverseInstance, cfg.FediverseToken),
		},
		Logger: logger.With("component", "aggregator"),
	})

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, cfg.TelegramChatID, pipeline, logger.With("component", "telegram"))
		if err != nil {
			logger.Error("create telegram bot", "error", err)
			os.Exit(1)
		}
		bot.Start(ctx)
		pipeline.SetNotifier(bot)
	}

	logger.Info("starting socialpulse", "port", cfg.ServerPort)
	if err := pipeline.Run(ctx); err != nil {
		logger.Error("aggregator stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("socialpulse stopped gracefully")
}

func buildStore(cfg *config.Config) (store.Store, error) {
	if cfg.StorageBackend == "sqlite" {
		return store.NewSQLiteStore(cfg.SQLitePath, cfg.ReadLimit)
	}
	return store.NewCSVStore(cfg.CSVPath), nil
}
