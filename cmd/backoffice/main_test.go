package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/foxzi/backoffice/internal/config"
	"github.com/foxzi/backoffice/internal/models"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := parseLogLevel(tt.level); got != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.level, got, tt.expected)
			}
		})
	}
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(config.LoggingConfig{Level: "info", Format: "json"}, &buf).Info("hello", "k", "v")
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"k":"v"`) {
		t.Errorf("json logger output = %q", buf.String())
	}

	buf.Reset()
	newLogger(config.LoggingConfig{Level: "warn", Format: "text"}, &buf).Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info line written at warn level: %q", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in       string
		n        int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"日本語のテキストです", 6, "日本語..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.expected)
		}
	}
}

func TestReadBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "body.txt")
	if err := os.WriteFile(path, []byte("from file"), 0644); err != nil {
		t.Fatal(err)
	}

	if got, _ := readBody("inline", path); got != "inline" {
		t.Errorf("readBody with inline = %q, want inline", got)
	}
	if got, _ := readBody("", path); got != "from file" {
		t.Errorf("readBody from file = %q", got)
	}
	if got, err := readBody("", ""); got != "" || err != nil {
		t.Errorf("readBody empty = %q, %v", got, err)
	}
	if _, err := readBody("", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("readBody of a missing file should fail")
	}
}

func TestDedupeRecipients(t *testing.T) {
	users := []models.WaitlistUser{
		{Email: "ada@example.com", Name: "Ada"},
		{Email: "ADA@example.com"},
		{Email: ""},
		{Email: "alan@example.com"},
	}

	got := dedupeRecipients(users)
	if len(got) != 2 {
		t.Fatalf("dedupeRecipients() = %d users, want 2", len(got))
	}
	if got[0].Name != "Ada" || got[1].Email != "alan@example.com" {
		t.Errorf("dedupeRecipients() = %+v", got)
	}
}

func TestPlainAlternative(t *testing.T) {
	tests := []struct {
		name, text, html string
		wantText         string
	}{
		{"text kept", " Hi there ", "<p>Hello</p>", "Hi there"},
		{"derived from html", "", "<p>Hello <b>Ada</b></p><p>Bye</p>", "Hello Ada\nBye"},
		{"text only", "plain", "", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, html := plainAlternative(tt.text, tt.html)
			if text != tt.wantText {
				t.Errorf("text = %q, want %q", text, tt.wantText)
			}
			if html != strings.TrimSpace(tt.html) {
				t.Errorf("html = %q", html)
			}
		})
	}
}

func TestRecipientsFromFlags(t *testing.T) {
	got := recipientsFromFlags([]string{" a@example.com ", "", "b@example.com"})
	if len(got) != 2 || got[0].Email != "a@example.com" {
		t.Errorf("recipientsFromFlags() = %+v", got)
	}
}

func TestParseTemplateID(t *testing.T) {
	if id, err := parseTemplateID("42"); err != nil || id != 42 {
		t.Errorf("parseTemplateID(42) = %d, %v", id, err)
	}
	for _, bad := range []string{"0", "-1", "abc"} {
		if _, err := parseTemplateID(bad); err == nil {
			t.Errorf("parseTemplateID(%q) should fail", bad)
		}
	}
}
