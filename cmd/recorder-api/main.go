// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

// Package main is the meeting recorder service: it receives conferencing
// platform webhooks, drives the recording lifecycle of each detected meeting
// and post-processes captured media into transcripts and summaries.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/meetscribe/meeting-recorder-service/internal/bot"
	"github.com/meetscribe/meeting-recorder-service/internal/handlers"
	"github.com/meetscribe/meeting-recorder-service/internal/infrastructure/ai"
	"github.com/meetscribe/meeting-recorder-service/internal/infrastructure/media"
	"github.com/meetscribe/meeting-recorder-service/internal/infrastructure/zoom/api"
	"github.com/meetscribe/meeting-recorder-service/internal/infrastructure/zoom/webhook"
	"github.com/meetscribe/meeting-recorder-service/internal/logging"
	"github.com/meetscribe/meeting-recorder-service/internal/service"
	"github.com/meetscribe/meeting-recorder-service/internal/telemetry"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	env := parseEnv()
	flags := parseFlags(env.Port)

	logging.InitStructuredLogConfig()
	telemetry.Init()

	if env.WebhookSecretToken == "" {
		slog.Warn("ZOOM_WEBHOOK_SECRET_TOKEN not set - all webhook requests will be rejected")
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	gracefulCloseWG := sync.WaitGroup{}

	// Setup NATS connection and the KV-backed repositories
	natsConn, err := setupNATS(ctx, env, &gracefulCloseWG, done)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error setting up NATS")
		return
	}

	repos, err := getKeyValueStores(ctx, natsConn)
	if err != nil {
		slog.With(logging.ErrKey, err).Error("error getting key-value stores")
		return
	}

	// Outbound clients
	platformClient := api.NewClient(api.Config{
		AccountID:        env.Zoom.AccountID,
		ClientID:         env.Zoom.ClientID,
		ClientSecret:     env.Zoom.ClientSecret,
		UserClientID:     env.Zoom.UserClientID,
		UserClientSecret: env.Zoom.UserClientSecret,
	})
	aiClient := ai.NewClient(ai.Config{
		APIKey:  env.OpenAIKey,
		BaseURL: env.OpenAIBaseURL,
	})
	botManager := bot.NewManager(bot.Config{
		SDKKey:      env.Bot.SDKKey,
		SDKSecret:   env.Bot.SDKSecret,
		JoinBaseURL: env.Bot.JoinBaseURL,
	})

	// Services
	registry := service.NewSessionRegistry(0)
	credentialCache := service.NewCredentialCache(repos.Credential, platformClient, 0)
	cascade := service.NewRecordingCascade(platformClient, botManager)
	pipeline := service.NewProcessingPipeline(repos.Session, media.NewDownloader(nil), ai.NewTranscriber(aiClient), ai.NewSummarizer(aiClient))
	orchestrator := service.NewOrchestrator(
		repos.Session,
		registry,
		credentialCache,
		cascade,
		pipeline,
		botManager,
		env.StaleTimeout,
	)
	webhookService := service.NewWebhookService(webhook.NewValidator(env.WebhookSecretToken), orchestrator)

	// Rebuild the in-memory index of active sessions from the store so a
	// restart does not lose track of in-flight meetings.
	if err := registry.Rebuild(ctx, repos.Session); err != nil {
		slog.With(logging.ErrKey, err).Error("error rebuilding session registry")
		return
	}

	// Periodic staleness sweep for meetings whose ended notification never
	// arrives (and for bots lost to a restart).
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(env.SweepSchedule, func() {
		if n := orchestrator.SweepStaleSessions(ctx); n > 0 {
			slog.InfoContext(ctx, "stale sessions swept", "count", n)
		}
	}); err != nil {
		slog.With(logging.ErrKey, err).Error("invalid sweep schedule")
		return
	}
	sweeper.Start()

	httpHandlers := handlers.NewHandlers(webhookService, orchestrator, func() bool {
		return natsConn.IsConnected()
	})
	httpServer := setupHTTPServer(flags, httpHandlers.NewMux(), &gracefulCloseWG)

	// This next line blocks until SIGINT or SIGTERM is received.
	<-done

	slog.Info("shutting down")
	shutdownHTTPServer(httpServer)
	<-sweeper.Stop().Done()
	botManager.Shutdown(context.Background())
	cancel()
	gracefulCloseWG.Wait()
}
