// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"strings"
	"testing"
)

func TestSanitizeHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text unchanged",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "safe tags kept",
			input: "<p>hello <strong>world</strong></p>",
			want:  "<p>hello <strong>world</strong></p>",
		},
		{
			name:  "script stripped",
			input: `<p>hi</p><script>alert("xss")</script>`,
			want:  "<p>hi</p>",
		},
		{
			name:  "event handlers stripped",
			input: `<img src="x.jpg" onerror="alert(1)">`,
			want:  `<img src="x.jpg">`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeHTML(tt.input); got != tt.want {
				t.Errorf("SanitizeHTML(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	if got := SanitizeText("<b>bold</b> comment"); got != "bold comment" {
		t.Errorf("SanitizeText() = %q, want %q", got, "bold comment")
	}
	if got := SanitizeText(`<script>alert(1)</script>nice post`); got != "nice post" {
		t.Errorf("SanitizeText() = %q, want %q", got, "nice post")
	}
}

func TestRenderMarkdown(t *testing.T) {
	html, err := RenderMarkdown([]byte("# About\n\nSome *text*."))
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}

	s := string(html)
	if !strings.Contains(s, "<h1") || !strings.Contains(s, "About") {
		t.Errorf("expected heading in output, got %q", s)
	}
	if !strings.Contains(s, "<em>text</em>") {
		t.Errorf("expected emphasis in output, got %q", s)
	}
}

func TestRenderMarkdown_SanitizesRawHTML(t *testing.T) {
	html, err := RenderMarkdown([]byte("hello\n\n<script>alert(1)</script>"))
	if err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}

	if strings.Contains(string(html), "<script>") {
		t.Errorf("raw script should be stripped, got %q", html)
	}
}
