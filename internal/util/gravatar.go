// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"crypto/md5" //nolint:gosec // Gravatar's protocol requires md5
	"fmt"
	"strings"
)

// GravatarSize is the avatar size in pixels requested from Gravatar.
const GravatarSize = 100

// GravatarURL returns the Gravatar image URL for an email address.
// Unknown addresses fall back to a generated "retro" avatar.
func GravatarURL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	hash := md5.Sum([]byte(normalized)) //nolint:gosec
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=retro&r=g", hash, GravatarSize)
}
