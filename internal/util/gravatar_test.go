// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"strings"
	"testing"
)

func TestGravatarURL(t *testing.T) {
	// Known md5 of "myemailaddress@example.com" from the Gravatar docs
	url := GravatarURL("MyEmailAddress@example.com ")
	if !strings.Contains(url, "0bc83cb571cd1c50ba6f3e8a78ef1346") {
		t.Errorf("GravatarURL() = %s; want md5 of normalized address", url)
	}
	if !strings.Contains(url, "s=100") || !strings.Contains(url, "d=retro") {
		t.Errorf("GravatarURL() = %s; missing size or default params", url)
	}
}

func TestGravatarURL_Normalization(t *testing.T) {
	if GravatarURL("USER@X.COM") != GravatarURL("  user@x.com  ") {
		t.Error("addresses differing only in case and whitespace should hash identically")
	}
}
