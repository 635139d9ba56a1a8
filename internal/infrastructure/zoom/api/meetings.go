// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/meetscribe/meeting-recorder-service/internal/domain/models"
	"github.com/meetscribe/meeting-recorder-service/internal/logging"
	"golang.org/x/oauth2"
)

// MeetingSettings is the subset of Zoom meeting settings the recorder patches.
type MeetingSettings struct {
	AutoRecording string `json:"auto_recording,omitempty"`
}

// updateMeetingRequest is the PATCH body for a meeting settings update.
type updateMeetingRequest struct {
	Settings *MeetingSettings `json:"settings,omitempty"`
}

// MeetingInfo is the subset of a Zoom meeting the bot launcher needs.
type MeetingInfo struct {
	ID       int64            `json:"id"`
	UUID     string           `json:"uuid"`
	HostID   string           `json:"host_id"`
	Topic    string           `json:"topic"`
	Status   string           `json:"status"`
	JoinURL  string           `json:"join_url"`
	Password string           `json:"password"`
	Settings *MeetingSettings `json:"settings"`
}

// recordingActionRequest is the PUT body for recording start/stop actions.
type recordingActionRequest struct {
	Action string `json:"action"`
}

// GetMeeting fetches meeting details using the service account.
func (c *Client) GetMeeting(ctx context.Context, meetingID string) (*MeetingInfo, error) {
	ctx = logging.AppendCtx(ctx, slog.String("zoom_operation", "get_meeting"))
	ctx = logging.AppendCtx(ctx, slog.String("zoom_meeting_id", meetingID))

	resp, err := c.doRequest(ctx, http.MethodGet, "/meetings/"+meetingID, nil, "")
	if err != nil {
		slog.ErrorContext(ctx, "failed to get Zoom meeting", logging.ErrKey, err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := parseErrorResponse(body)
		slog.ErrorContext(ctx, "Zoom API returned error", logging.ErrKey, err, "status", resp.StatusCode)
		return nil, err
	}

	var info MeetingInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode meeting response: %w", err)
	}

	return &info, nil
}

// SetAutoRecording patches the meeting's auto_recording setting on behalf of
// the host. Zoom rejects modes the host's account tier does not allow, which
// the recording cascade treats as a signal to fall back.
func (c *Client) SetAutoRecording(ctx context.Context, accessToken, meetingID, mode string) error {
	ctx = logging.AppendCtx(ctx, slog.String("zoom_operation", "set_auto_recording"))
	ctx = logging.AppendCtx(ctx, slog.String("zoom_meeting_id", meetingID))

	req := &updateMeetingRequest{Settings: &MeetingSettings{AutoRecording: mode}}
	resp, err := c.doRequest(ctx, http.MethodPatch, "/meetings/"+meetingID, req, accessToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to patch Zoom meeting settings", logging.ErrKey, err)
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := parseErrorResponse(body)
		slog.WarnContext(ctx, "Zoom rejected auto_recording update",
			logging.ErrKey, err, "status", resp.StatusCode, "mode", mode)
		return err
	}

	slog.InfoContext(ctx, "successfully updated auto_recording setting", "mode", mode)
	return nil
}

// StopCloudRecording issues a stop action against an in-progress cloud recording.
func (c *Client) StopCloudRecording(ctx context.Context, accessToken, meetingID string) error {
	ctx = logging.AppendCtx(ctx, slog.String("zoom_operation", "stop_cloud_recording"))
	ctx = logging.AppendCtx(ctx, slog.String("zoom_meeting_id", meetingID))

	req := &recordingActionRequest{Action: "stop"}
	resp, err := c.doRequest(ctx, http.MethodPut, "/meetings/"+meetingID+"/recordings/status", req, accessToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to stop cloud recording", logging.ErrKey, err)
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	// 404 means there was no recording in progress, which is fine for stop.
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		err := parseErrorResponse(body)
		slog.ErrorContext(ctx, "Zoom API returned error", logging.ErrKey, err, "status", resp.StatusCode)
		return err
	}

	slog.InfoContext(ctx, "cloud recording stop issued")
	return nil
}

// RefreshUserToken exchanges a host's refresh token for a fresh token pair
// using the user-level app's client credentials.
func (c *Client) RefreshUserToken(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	ctx = logging.AppendCtx(ctx, slog.String("zoom_operation", "refresh_user_token"))

	cfg := &oauth2.Config{
		ClientID:     c.config.UserClientID,
		ClientSecret: c.config.UserClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.config.AuthURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		slog.WarnContext(ctx, "refresh token exchange rejected", logging.ErrKey, err)
		return nil, err
	}

	expiresIn := int(time.Until(token.Expiry) / time.Second)
	pair := &models.TokenPair{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    expiresIn,
	}
	// Zoom rotates refresh tokens on every exchange, but guard against a
	// response that omits one so the stored token is never blanked.
	if pair.RefreshToken == "" {
		pair.RefreshToken = refreshToken
	}

	slog.InfoContext(ctx, "user token refreshed", "expires_in", expiresIn)
	return pair, nil
}
