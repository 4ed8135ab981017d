package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"spellcheck/internal/game"
	"spellcheck/internal/words"
)

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		dur      time.Duration
		expected string
	}{
		{time.Second * 5, "5 seconds"},
		{time.Second * 65, "1 minute, 5 seconds"},
		{time.Second * 3665, "1 hour, 1 minute, 5 seconds"},
		{time.Second * 3600, "1 hour, 0 minutes, 0 seconds"},
		{time.Second * 1, "1 second"},
	}
	for _, c := range cases {
		if got := formatUptime(c.dur); got != c.expected {
			t.Errorf("formatUptime(%v) = %q, want %q", c.dur, got, c.expected)
		}
	}
}

func TestPlural(t *testing.T) {
	if plural(1) != "" {
		t.Errorf("plural(1) = %q, want \"\"", plural(1))
	}
	if plural(0) != "s" {
		t.Errorf("plural(0) = %q, want \"s\"", plural(0))
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "2s")
	if got := getEnvDuration("TEST_DURATION", time.Second); got != 2*time.Second {
		t.Errorf("getEnvDuration = %v, want 2s", got)
	}
	t.Setenv("TEST_DURATION", "notaduration")
	if got := getEnvDuration("TEST_DURATION", 3*time.Second); got != 3*time.Second {
		t.Errorf("getEnvDuration fallback = %v, want 3s", got)
	}
	if got := getEnvDuration("TEST_DURATION_UNSET", 4*time.Second); got != 4*time.Second {
		t.Errorf("getEnvDuration unset = %v, want 4s", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if got := getEnvInt("TEST_INT", 7); got != 42 {
		t.Errorf("getEnvInt = %d, want 42", got)
	}
	t.Setenv("TEST_INT", "notanint")
	if got := getEnvInt("TEST_INT", 8); got != 8 {
		t.Errorf("getEnvInt fallback = %d, want 8", got)
	}
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "2.5")
	if got := getEnvFloat("TEST_FLOAT", 1); got != 2.5 {
		t.Errorf("getEnvFloat = %v, want 2.5", got)
	}
	t.Setenv("TEST_FLOAT", "x")
	if got := getEnvFloat("TEST_FLOAT", 1); got != 1 {
		t.Errorf("getEnvFloat fallback = %v, want 1", got)
	}
}

func TestGetEnvString(t *testing.T) {
	t.Setenv("TEST_STRING", "value")
	if got := getEnvString("TEST_STRING", "fallback"); got != "value" {
		t.Errorf("getEnvString = %q, want value", got)
	}
	if got := getEnvString("TEST_STRING_UNSET", "fallback"); got != "fallback" {
		t.Errorf("getEnvString unset = %q, want fallback", got)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "BUFFER_TARGET", "BUFFER_LOW_WATER", "SESSION_TIMEOUT", "AUDIO_URL_TEMPLATE"} {
		t.Setenv(key, "")
	}
	cfg := loadConfig()
	defaults := words.DefaultBufferConfig()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.BufferTarget != defaults.BatchTarget || cfg.BufferLowWater != defaults.LowWater {
		t.Errorf("buffer config = %d/%d", cfg.BufferTarget, cfg.BufferLowWater)
	}
	if cfg.SessionTimeout != game.DefaultTimeout {
		t.Errorf("SessionTimeout = %v, want %v", cfg.SessionTimeout, game.DefaultTimeout)
	}
	if cfg.AudioURLTemplate != words.DefaultAudioURLTemplate {
		t.Errorf("AudioURLTemplate = %q", cfg.AudioURLTemplate)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("BUFFER_TARGET", "40")
	t.Setenv("EASY_MIN_FREQ", "25")
	t.Setenv("SESSION_TIMEOUT", "30m")

	cfg := loadConfig()
	if cfg.Port != "9999" || cfg.BufferTarget != 40 || cfg.EasyMinFreq != 25 || cfg.SessionTimeout != 30*time.Minute {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestRequestLoggerUsesRequestID(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))

	ctx := context.WithValue(context.Background(), requestIDKey, "abc")
	requestLogger(ctx).Info("hello")
	if !strings.Contains(buf.String(), "request_id=abc") {
		t.Errorf("log line %q missing request_id", buf.String())
	}
}
