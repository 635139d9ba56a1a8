// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

// Package bot launches and tears down automated meeting participants. Each
// bot is an isolated headless browser session navigated to the controlled
// join page with a signed, short-lived credential.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
	"github.com/meetscribe/meeting-recorder-service/internal/domain/models"
	"github.com/meetscribe/meeting-recorder-service/internal/logging"
	"github.com/meetscribe/meeting-recorder-service/internal/telemetry"
)

// DefaultLaunchTimeout bounds how long a bot may take to load the join page.
const DefaultLaunchTimeout = 90 * time.Second

// Config holds the bot manager configuration.
type Config struct {
	SDKKey    string
	SDKSecret string
	// JoinBaseURL is the controlled join surface the bot navigates to,
	// e.g. "https://recorder.example.com/bot.html".
	JoinBaseURL   string
	LaunchTimeout time.Duration
	JoinTokenTTL  time.Duration
}

// browserSession is one isolated automated client session.
type browserSession interface {
	// Navigate loads the join page, waiting at most timeout for it to be ready.
	Navigate(joinURL string, timeout time.Duration) error
	// Close releases the underlying browser resources. Idempotent.
	Close() error
}

// browserLauncher creates a browser session. onFinished fires when the page
// signals that the bot's participation naturally ended.
type browserLauncher func(onFinished func()) (browserSession, error)

// Manager owns the lifecycle of every launched bot. At most one bot exists
// per meeting ID.
type Manager struct {
	config Config
	launch browserLauncher

	mu   sync.Mutex
	bots map[string]*botInstance
}

type botInstance struct {
	session    browserSession
	launchedAt time.Time
}

// NewManager creates a bot manager that launches headless Chrome sessions.
func NewManager(config Config) *Manager {
	if config.LaunchTimeout <= 0 {
		config.LaunchTimeout = DefaultLaunchTimeout
	}
	if config.JoinTokenTTL <= 0 {
		config.JoinTokenTTL = DefaultJoinTokenTTL
	}
	return &Manager{
		config: config,
		launch: newChromeLauncher(),
		bots:   make(map[string]*botInstance),
	}
}

var _ domain.BotManager = (*Manager)(nil)

// Launch starts a bot for the meeting. A second launch for an already active
// meeting is refused with a conflict error.
func (m *Manager) Launch(ctx context.Context, meetingID, password, userID string) (*models.BotHandle, error) {
	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", meetingID))

	m.mu.Lock()
	if _, active := m.bots[meetingID]; active {
		m.mu.Unlock()
		return nil, domain.NewConflictError(
			fmt.Sprintf("bot already active for meeting %s", meetingID), domain.ErrBotAlreadyActive)
	}
	// Reserve the slot before the slow launch so concurrent launches for the
	// same meeting are refused rather than racing.
	m.bots[meetingID] = nil
	m.mu.Unlock()

	handle, err := m.doLaunch(ctx, meetingID, password, userID)
	if err != nil {
		m.mu.Lock()
		delete(m.bots, meetingID)
		m.mu.Unlock()
		return nil, err
	}
	return handle, nil
}

func (m *Manager) doLaunch(ctx context.Context, meetingID, password, userID string) (*models.BotHandle, error) {
	signature, err := SignJoinToken(m.config.SDKKey, m.config.SDKSecret, meetingID, RoleParticipant, m.config.JoinTokenTTL)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("meetingId", meetingID)
	query.Set("password", password)
	query.Set("signature", signature)
	query.Set("userId", userID)
	joinURL := m.config.JoinBaseURL + "?" + query.Encode()

	slog.InfoContext(ctx, "launching bot browser session")
	session, err := m.launch(func() {
		slog.Info("bot signaled natural completion", "meeting_id", meetingID)
		_ = m.Stop(context.Background(), meetingID)
	})
	if err != nil {
		return nil, domain.NewUnavailableError("failed to launch bot browser", domain.ErrLaunchFailed, err)
	}

	if err := session.Navigate(joinURL, m.config.LaunchTimeout); err != nil {
		// Teardown before reporting: the session resource must never leak.
		_ = session.Close()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.NewUnavailableError(
				fmt.Sprintf("bot join timed out after %s", m.config.LaunchTimeout), domain.ErrLaunchFailed, err)
		}
		return nil, domain.NewUnavailableError("bot failed to load join page", domain.ErrLaunchFailed, err)
	}

	launchedAt := time.Now().UTC()
	m.mu.Lock()
	m.bots[meetingID] = &botInstance{session: session, launchedAt: launchedAt}
	count := len(m.bots)
	m.mu.Unlock()

	if telemetry.ActiveBotsGauge != nil {
		telemetry.ActiveBotsGauge.Set(float64(count))
	}
	slog.InfoContext(ctx, "bot joined meeting", "join_url_host", m.config.JoinBaseURL)

	return &models.BotHandle{MeetingID: meetingID, LaunchedAt: launchedAt}, nil
}

// Stop tears down the bot for a meeting. Stopping an untracked meeting is a
// no-op. The underlying session is always released before the handle is
// forgotten, even if closing reports an error.
func (m *Manager) Stop(ctx context.Context, meetingID string) error {
	m.mu.Lock()
	instance, ok := m.bots[meetingID]
	delete(m.bots, meetingID)
	count := len(m.bots)
	m.mu.Unlock()

	if telemetry.ActiveBotsGauge != nil {
		telemetry.ActiveBotsGauge.Set(float64(count))
	}
	if !ok || instance == nil {
		return nil
	}

	if err := instance.session.Close(); err != nil {
		slog.WarnContext(ctx, "error closing bot session", logging.ErrKey, err, "meeting_id", meetingID)
	}
	slog.InfoContext(ctx, "bot stopped", "meeting_id", meetingID)
	return nil
}

// Active reports whether a bot is currently tracked for the meeting.
func (m *Manager) Active(meetingID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bots[meetingID]
	return ok
}

// Shutdown stops every active bot. Called during graceful process shutdown.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	meetingIDs := make([]string, 0, len(m.bots))
	for meetingID := range m.bots {
		meetingIDs = append(meetingIDs, meetingID)
	}
	m.mu.Unlock()

	for _, meetingID := range meetingIDs {
		_ = m.Stop(ctx, meetingID)
	}
}
