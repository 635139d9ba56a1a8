// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/meetscribe/meeting-recorder-service/internal/infrastructure/store"
	"github.com/meetscribe/meeting-recorder-service/internal/logging"
)

// repositories are the persistent stores backed by NATS KV buckets.
type repositories struct {
	Session    *store.NatsSessionRepository
	Credential *store.NatsCredentialRepository
}

// setupNATS connects to the NATS server with reconnect handling. The done
// channel receives a signal if the connection closes permanently so the
// process can exit instead of running blind.
func setupNATS(ctx context.Context, env environment, gracefulCloseWG *sync.WaitGroup, done chan os.Signal) (*nats.Conn, error) {
	natsConn, err := nats.Connect(
		env.NatsURL,
		nats.DrainTimeout(25*time.Second),
		nats.ConnectHandler(func(_ *nats.Conn) {
			slog.InfoContext(ctx, "NATS connection established", "url", env.NatsURL)
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			slog.ErrorContext(ctx, "NATS error", logging.ErrKey, err)
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			slog.InfoContext(ctx, "NATS connection closed")
			select {
			case done <- os.Interrupt:
			default:
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	gracefulCloseWG.Add(1)
	go func() {
		defer gracefulCloseWG.Done()
		<-ctx.Done()
		if err := natsConn.Drain(); err != nil {
			slog.ErrorContext(ctx, "error draining NATS connection", logging.ErrKey, err)
		}
	}()

	return natsConn, nil
}

// getKeyValueStores creates or binds the service's KV buckets and wraps them
// in repositories.
func getKeyValueStores(ctx context.Context, natsConn *nats.Conn) (*repositories, error) {
	js, err := jetstream.New(natsConn)
	if err != nil {
		return nil, err
	}

	sessionsKV, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  store.KVStoreNameSessions,
		History: 1,
	})
	if err != nil {
		return nil, err
	}

	credentialsKV, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  store.KVStoreNameCredentials,
		History: 1,
	})
	if err != nil {
		return nil, err
	}

	return &repositories{
		Session:    store.NewNatsSessionRepository(sessionsKV),
		Credential: store.NewNatsCredentialRepository(credentialsKV),
	}, nil
}
