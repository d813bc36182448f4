// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LevelFatal, "FATAL"},
		{Level(999), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"fatal", LevelFatal, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFieldConstructors(t *testing.T) {
	err := errors.New("boom")
	tests := []struct {
		field Field
		key   string
		value interface{}
	}{
		{String("k", "v"), "k", "v"},
		{Int("count", 42), "count", 42},
		{Int64("big", 1<<40), "big", int64(1 << 40)},
		{Bool("ok", true), "ok", true},
		{Error(err), "error", err},
		{Any("any", 3.5), "any", 3.5},
	}

	for _, tt := range tests {
		if tt.field.Key != tt.key {
			t.Errorf("Key = %v, want %v", tt.field.Key, tt.key)
		}
		if tt.field.Value != tt.value {
			t.Errorf("Value = %v, want %v", tt.field.Value, tt.value)
		}
	}
}

func TestSlogAdapter_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogAdapter(&SlogConfig{Level: LevelDebug, Output: &buf})

	l.Debug("debug message", String("key", "value"))
	l.Info("info message", Int("shares", 5))

	output := buf.String()
	if !strings.Contains(output, "debug message") || !strings.Contains(output, "key=value") {
		t.Errorf("unexpected debug output: %s", output)
	}
	if !strings.Contains(output, "shares=5") {
		t.Errorf("unexpected info output: %s", output)
	}
}

func TestSlogAdapter_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogAdapter(&SlogConfig{Level: LevelInfo, Format: "json", Output: &buf})

	l.Info("test message", String("key", "value"))

	output := buf.String()
	if !strings.Contains(output, `"msg":"test message"`) {
		t.Errorf("output should contain message, got: %s", output)
	}
	if !strings.Contains(output, `"key":"value"`) {
		t.Errorf("output should contain JSON field, got: %s", output)
	}
}

func TestSlogAdapter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogAdapter(&SlogConfig{Level: LevelWarn, Output: &buf})

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("visible warn")
	l.Error("visible error")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("messages below warn should be filtered, got: %s", output)
	}
	if !strings.Contains(output, "visible warn") || !strings.Contains(output, "visible error") {
		t.Errorf("warn and error should be logged, got: %s", output)
	}
}

func TestSlogAdapter_With(t *testing.T) {
	var buf bytes.Buffer
	base := NewSlogAdapter(&SlogConfig{Level: LevelInfo, Output: &buf})

	child := base.With(String("component", "dealer")).WithError(errors.New("bad share"))
	child.Info("rebuild failed")

	output := buf.String()
	if !strings.Contains(output, "component=dealer") {
		t.Errorf("child logger should carry bound field, got: %s", output)
	}
	if !strings.Contains(output, `error="bad share"`) {
		t.Errorf("child logger should carry error field, got: %s", output)
	}

	buf.Reset()
	base.Info("parent message")
	if strings.Contains(buf.String(), "component") {
		t.Errorf("parent logger must not inherit child fields, got: %s", buf.String())
	}
}

func TestSlogAdapter_Fatal(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogAdapter(&SlogConfig{Output: &buf})
	code := -1
	l.exit = func(c int) { code = c }

	l.Fatal("cannot continue")

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(buf.String(), "cannot continue") {
		t.Errorf("fatal message should be logged, got: %s", buf.String())
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
	l.Fatal("x")
	if l.With(String("a", "b")) == nil || l.WithError(errors.New("e")) == nil {
		t.Error("NopLogger children should not be nil")
	}
}
