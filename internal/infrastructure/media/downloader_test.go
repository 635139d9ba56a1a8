// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDownloadsHTTPLocator(t *testing.T) {
	payload := []byte("fake m4a bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	d := NewDownloader(server.Client())

	path, cleanup, err := d.Fetch(context.Background(), server.URL+"/recording.m4a")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "cleanup removes the scratch file")
}

func TestFetchUsesLocalPathInPlace(t *testing.T) {
	local := filepath.Join(t.TempDir(), "recording.m4a")
	require.NoError(t, os.WriteFile(local, []byte("audio"), 0o600))

	d := NewDownloader(nil)

	path, cleanup, err := d.Fetch(context.Background(), local)
	require.NoError(t, err)
	assert.Equal(t, local, path)

	cleanup()
	_, err = os.Stat(local)
	assert.NoError(t, err, "cleanup must not remove caller-owned files")
}

func TestFetchMissingLocalPath(t *testing.T) {
	d := NewDownloader(nil)

	_, _, err := d.Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.m4a"))
	assert.ErrorContains(t, err, "media file not accessible")
}

func TestFetchEmptyLocator(t *testing.T) {
	d := NewDownloader(nil)

	_, _, err := d.Fetch(context.Background(), "")
	assert.Error(t, err)
}

func TestFetchRejectsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	d := NewDownloader(server.Client())

	_, _, err := d.Fetch(context.Background(), server.URL)
	assert.ErrorContains(t, err, "unexpected status 410")
}
