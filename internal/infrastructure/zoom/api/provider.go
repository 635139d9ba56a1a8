// Copyright The Meetscribe Authors.
// SPDX-License-Identifier: MIT

package api

import (
	"github.com/meetscribe/meeting-recorder-service/internal/domain"
)

// Ensure Client implements PlatformClient
var _ domain.PlatformClient = (*Client)(nil)
