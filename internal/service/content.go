// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides content processing shared by the handlers.
package service

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// htmlSanitizer is a reusable sanitization policy for rich user content.
// It uses bluemonday's UGCPolicy which allows safe HTML tags for
// user-generated content while stripping potentially dangerous elements
// like <script> and event handlers.
var htmlSanitizer = bluemonday.UGCPolicy()

// textSanitizer strips all HTML, leaving plain text only.
var textSanitizer = bluemonday.StrictPolicy()

// SanitizeHTML sanitizes rich HTML content such as post bodies.
func SanitizeHTML(s string) string {
	return htmlSanitizer.Sanitize(s)
}

// SanitizeText strips all markup from plain text content such as comments.
func SanitizeText(s string) string {
	return textSanitizer.Sanitize(s)
}

// RenderMarkdown converts markdown to sanitized HTML.
func RenderMarkdown(content []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(content, &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return template.HTML(htmlSanitizer.SanitizeBytes(buf.Bytes())), nil //nolint:gosec // sanitized above
}
