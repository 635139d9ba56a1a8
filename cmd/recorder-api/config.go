// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/meetscribe/meeting-recorder-service/internal/logging"
)

// flags are the command line flags for the recorder service.
type flags struct {
	Debug bool
	Port  string
	Bind  string
}

// environment are the environment variables for the recorder service.
type environment struct {
	Port               string
	NatsURL            string
	WebhookSecretToken string
	Zoom               zoomConfig
	Bot                botConfig
	OpenAIKey          string
	OpenAIBaseURL      string
	StaleTimeout       time.Duration
	SweepSchedule      string
}

// zoomConfig holds the platform API app credentials. The account-level app
// authenticates service calls; the user-level app performs refresh grants on
// behalf of hosts.
type zoomConfig struct {
	AccountID        string
	ClientID         string
	ClientSecret     string
	UserClientID     string
	UserClientSecret string
}

// botConfig holds the meeting SDK credentials and join surface for the
// automated participant.
type botConfig struct {
	SDKKey      string
	SDKSecret   string
	JoinBaseURL string
}

// parseFlags parses command line flags for the recorder service
func parseFlags(defaultPort string) flags {
	var debug = flag.Bool("d", false, "enable debug logging")
	var port = flag.String("p", defaultPort, "listen port")
	var bind = flag.String("bind", "*", "interface to bind on")

	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	// Based on the debug flag, set the log level environment variable used
	// by [logging.InitStructuredLogConfig].
	if *debug {
		err := os.Setenv("LOG_LEVEL", "debug")
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting log level")
			os.Exit(1)
		}
	}

	return flags{
		Debug: *debug,
		Port:  *port,
		Bind:  *bind,
	}
}

// parseEnv parses environment variables for the recorder service
func parseEnv() environment {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}

	staleTimeout := 4 * time.Hour
	if raw := os.Getenv("STALE_SESSION_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			slog.With(logging.ErrKey, err, "value", raw).
				Error("invalid STALE_SESSION_TIMEOUT, using default")
		} else {
			staleTimeout = d
		}
	}

	sweepSchedule := os.Getenv("SWEEP_SCHEDULE")
	if sweepSchedule == "" {
		sweepSchedule = "@every 1m"
	}

	return environment{
		Port:               port,
		NatsURL:            natsURL,
		WebhookSecretToken: os.Getenv("ZOOM_WEBHOOK_SECRET_TOKEN"),
		Zoom: zoomConfig{
			AccountID:        os.Getenv("ZOOM_ACCOUNT_ID"),
			ClientID:         os.Getenv("ZOOM_CLIENT_ID"),
			ClientSecret:     os.Getenv("ZOOM_CLIENT_SECRET"),
			UserClientID:     os.Getenv("ZOOM_USER_CLIENT_ID"),
			UserClientSecret: os.Getenv("ZOOM_USER_CLIENT_SECRET"),
		},
		Bot: botConfig{
			SDKKey:      os.Getenv("ZOOM_SDK_KEY"),
			SDKSecret:   os.Getenv("ZOOM_SDK_SECRET"),
			JoinBaseURL: os.Getenv("BOT_JOIN_BASE_URL"),
		},
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		StaleTimeout:  staleTimeout,
		SweepSchedule: sweepSchedule,
	}
}
