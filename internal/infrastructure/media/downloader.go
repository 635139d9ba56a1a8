// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

// Package media resolves session media locators into local files.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/meetscribe/meeting-recorder-service/internal/domain"
)

const defaultDownloadTimeout = 10 * time.Minute

// Downloader fetches media assets. HTTP(S) locators are downloaded to a
// scratch file that the returned cleanup removes; local paths are used in
// place.
type Downloader struct {
	httpClient *http.Client
}

var _ domain.MediaFetcher = (*Downloader)(nil)

// NewDownloader creates a downloader. A nil client gets a default with a
// bounded timeout; recordings can be large, so the bound is generous.
func NewDownloader(httpClient *http.Client) *Downloader {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultDownloadTimeout}
	}
	return &Downloader{httpClient: httpClient}
}

// Fetch resolves the locator to a local file path.
func (d *Downloader) Fetch(ctx context.Context, locator string) (string, func(), error) {
	noop := func() {}
	if locator == "" {
		return "", noop, domain.NewValidationError("empty media locator")
	}

	if !strings.HasPrefix(locator, "http://") && !strings.HasPrefix(locator, "https://") {
		if _, err := os.Stat(locator); err != nil {
			return "", noop, fmt.Errorf("media file not accessible: %w", err)
		}
		return locator, noop, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return "", noop, err
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", noop, fmt.Errorf("downloading media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", noop, fmt.Errorf("downloading media: unexpected status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "recorder-media-*.m4a")
	if err != nil {
		return "", noop, fmt.Errorf("creating scratch file: %w", err)
	}
	cleanup := func() {
		os.Remove(tmp.Name())
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		cleanup()
		return "", noop, fmt.Errorf("writing scratch file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", noop, err
	}

	return tmp.Name(), cleanup, nil
}
