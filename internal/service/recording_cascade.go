// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
	"github.com/meetscribe/meeting-recorder-service/internal/domain/models"
	"github.com/meetscribe/meeting-recorder-service/internal/logging"
	"github.com/meetscribe/meeting-recorder-service/internal/telemetry"
)

// StrategyTarget carries everything a recording strategy may need to act on
// one meeting occurrence.
type StrategyTarget struct {
	MeetingID   string
	HostID      string
	Password    string
	AccessToken string
	// Interactive marks starts requested through the client API, where a
	// browser is attached and can receive recording instructions. Webhook
	// driven starts are not interactive.
	Interactive bool
}

// StrategyResult is the outcome of a successful strategy attempt.
type StrategyResult struct {
	Method  models.RecordingMethod
	Message string
	// Instructions are client-side capture directives for the browser method.
	Instructions map[string]string
}

// RecordingStrategy is one way of obtaining a recording for a meeting.
// Attempt either succeeds with a result or returns an error the cascade
// moves past.
type RecordingStrategy interface {
	Method() models.RecordingMethod
	Attempt(ctx context.Context, target *StrategyTarget) (*StrategyResult, error)
}

// RecordingCascade tries an ordered list of strategies until one succeeds.
// The final tracking-only strategy always succeeds, so the cascade as a
// whole cannot leave the lifecycle stuck.
type RecordingCascade struct {
	strategies     []RecordingStrategy
	platformClient domain.PlatformClient
	botManager     domain.BotManager
}

// NewRecordingCascade builds the default cascade: cloud, local, browser,
// bot join, tracking-only.
func NewRecordingCascade(platformClient domain.PlatformClient, botManager domain.BotManager) *RecordingCascade {
	return &RecordingCascade{
		strategies: []RecordingStrategy{
			&CloudRecordingStrategy{platformClient: platformClient},
			&LocalRecordingStrategy{platformClient: platformClient},
			&BrowserRecordingStrategy{},
			&BotJoinStrategy{botManager: botManager},
			&TrackingOnlyStrategy{},
		},
		platformClient: platformClient,
		botManager:     botManager,
	}
}

// NewRecordingCascadeWithStrategies builds a cascade over an explicit
// strategy list. Used by tests and custom deployments.
func NewRecordingCascadeWithStrategies(platformClient domain.PlatformClient, botManager domain.BotManager, strategies ...RecordingStrategy) *RecordingCascade {
	return &RecordingCascade{
		strategies:     strategies,
		platformClient: platformClient,
		botManager:     botManager,
	}
}

// StartRecording runs the cascade for the target. When preferred names a
// concrete method, only that method is attempted. Each attempt's failure is
// logged with its cause and the cascade advances; it never aborts the whole
// operation on a single method's failure.
func (c *RecordingCascade) StartRecording(ctx context.Context, target *StrategyTarget, preferred models.RecordingMethod) (*StrategyResult, error) {
	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", target.MeetingID))

	if preferred != "" && preferred != models.RecordingMethodAuto {
		for _, strategy := range c.strategies {
			if strategy.Method() == preferred {
				result, err := strategy.Attempt(ctx, target)
				telemetry.CountCascadeAttempt(string(preferred), err == nil)
				if err != nil {
					return nil, domain.NewUnavailableError(
						fmt.Sprintf("preferred recording method %s failed", preferred), err)
				}
				return result, nil
			}
		}
		return nil, domain.NewValidationError(fmt.Sprintf("unknown recording method: %s", preferred))
	}

	for _, strategy := range c.strategies {
		result, err := strategy.Attempt(ctx, target)
		telemetry.CountCascadeAttempt(string(strategy.Method()), err == nil)
		if err != nil {
			slog.InfoContext(ctx, "recording strategy failed, trying next",
				"method", strategy.Method(), logging.ErrKey, err)
			continue
		}
		slog.InfoContext(ctx, "recording strategy selected",
			"method", result.Method, "message", result.Message)
		return result, nil
	}

	// Unreachable with the default cascade: tracking-only cannot fail.
	return nil, domain.NewInternalError("all recording strategies exhausted", domain.ErrRecordingMethodFailed)
}

// StopRecording ends media capture for the session's chosen method. The
// session always leaves the recording state regardless of which method was
// active; methods handled by the client need no server-side action.
func (c *RecordingCascade) StopRecording(ctx context.Context, session *models.Session, accessToken string) error {
	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", session.MeetingID))

	switch session.RecordingMethod {
	case models.RecordingMethodCloud:
		if accessToken == "" {
			return domain.NewUnauthorizedError("no access token to stop cloud recording")
		}
		return c.platformClient.StopCloudRecording(ctx, accessToken, session.MeetingID)
	case models.RecordingMethodBot:
		return c.botManager.Stop(ctx, session.MeetingID)
	case models.RecordingMethodLocal, models.RecordingMethodBrowser:
		// Capture runs on the client; nothing to stop server-side.
		return nil
	default:
		return nil
	}
}

// CloudRecordingStrategy enables cloud auto-recording through the platform
// API. Requires an account tier with cloud recording entitlement.
type CloudRecordingStrategy struct {
	platformClient domain.PlatformClient
}

func (s *CloudRecordingStrategy) Method() models.RecordingMethod { return models.RecordingMethodCloud }

func (s *CloudRecordingStrategy) Attempt(ctx context.Context, target *StrategyTarget) (*StrategyResult, error) {
	if target.AccessToken == "" {
		return nil, fmt.Errorf("cloud recording requires a host access token: %w", domain.ErrRecordingMethodFailed)
	}
	if err := s.platformClient.SetAutoRecording(ctx, target.AccessToken, target.MeetingID, "cloud"); err != nil {
		return nil, fmt.Errorf("cloud recording rejected: %w", err)
	}
	return &StrategyResult{
		Method:  models.RecordingMethodCloud,
		Message: "cloud recording enabled",
	}, nil
}

// LocalRecordingStrategy flips the meeting's auto-record flag to local so the
// host's client captures the session.
type LocalRecordingStrategy struct {
	platformClient domain.PlatformClient
}

func (s *LocalRecordingStrategy) Method() models.RecordingMethod { return models.RecordingMethodLocal }

func (s *LocalRecordingStrategy) Attempt(ctx context.Context, target *StrategyTarget) (*StrategyResult, error) {
	if target.AccessToken == "" {
		return nil, fmt.Errorf("local recording requires a host access token: %w", domain.ErrRecordingMethodFailed)
	}
	if err := s.platformClient.SetAutoRecording(ctx, target.AccessToken, target.MeetingID, "local"); err != nil {
		return nil, fmt.Errorf("local recording rejected: %w", err)
	}
	return &StrategyResult{
		Method:  models.RecordingMethodLocal,
		Message: "local recording enabled",
	}, nil
}

// BrowserRecordingStrategy returns capture instructions for an attached
// browser client instead of performing capture itself. It can only serve
// interactive starts; webhook-driven starts have no client listening.
type BrowserRecordingStrategy struct{}

func (s *BrowserRecordingStrategy) Method() models.RecordingMethod {
	return models.RecordingMethodBrowser
}

func (s *BrowserRecordingStrategy) Attempt(ctx context.Context, target *StrategyTarget) (*StrategyResult, error) {
	if !target.Interactive {
		return nil, fmt.Errorf("browser recording requires an attached client: %w", domain.ErrRecordingMethodFailed)
	}
	return &StrategyResult{
		Method:  models.RecordingMethodBrowser,
		Message: "browser recording ready, client must start capture",
		Instructions: map[string]string{
			"method":   "MediaRecorder",
			"mimeType": "audio/webm",
		},
	}, nil
}

// BotJoinStrategy launches an automated participant that records the meeting
// from inside it.
type BotJoinStrategy struct {
	botManager domain.BotManager
}

func (s *BotJoinStrategy) Method() models.RecordingMethod { return models.RecordingMethodBot }

func (s *BotJoinStrategy) Attempt(ctx context.Context, target *StrategyTarget) (*StrategyResult, error) {
	_, err := s.botManager.Launch(ctx, target.MeetingID, target.Password, target.HostID)
	if err != nil {
		// A bot already recording this meeting counts as success.
		if domain.GetErrorType(err) == domain.ErrorTypeConflict {
			return &StrategyResult{
				Method:  models.RecordingMethodBot,
				Message: "bot already active for meeting",
			}, nil
		}
		return nil, fmt.Errorf("bot join failed: %w", err)
	}
	return &StrategyResult{
		Method:  models.RecordingMethodBot,
		Message: "bot joined, recording in progress",
	}, nil
}

// TrackingOnlyStrategy is the terminal fallback: it records metadata without
// media and always succeeds, keeping the lifecycle state machine total.
type TrackingOnlyStrategy struct{}

func (s *TrackingOnlyStrategy) Method() models.RecordingMethod {
	return models.RecordingMethodTracking
}

func (s *TrackingOnlyStrategy) Attempt(ctx context.Context, target *StrategyTarget) (*StrategyResult, error) {
	return &StrategyResult{
		Method:  models.RecordingMethodTracking,
		Message: "meeting tracked, no recording available",
	}, nil
}
