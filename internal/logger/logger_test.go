package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	log.Info("list viewed", "share_token", "abc123")

	assert.Contains(t, buf.String(), `"msg":"list viewed"`)
	assert.Contains(t, buf.String(), `"share_token":"abc123"`)
}

func TestNew_FormatAutoDetection(t *testing.T) {
	tests := []struct {
		environment string
		wantJSON    bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Level: slog.LevelInfo, Environment: tt.environment, Writer: &buf})
			log.Info("test")

			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"test"`)
			} else {
				assert.Contains(t, buf.String(), "INF")
				assert.NotContains(t, buf.String(), `"msg"`)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestPrettyHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelWarn, Format: "pretty", Writer: &buf})

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestPrettyHandler_GroupsPrefixKeys(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "pretty", Writer: &buf})

	log.WithGroup("edit").Info("applied", "field", "notes")

	assert.Contains(t, buf.String(), "edit.field=notes")
}

func TestPrettyHandler_QuotesSpacedStrings(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "pretty", Writer: &buf})

	log.Info("renamed", "title", "Fintech picks")

	assert.Contains(t, buf.String(), `title="Fintech picks"`)
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	log.WithError(errors.New("disk full")).Error("audit append failed")

	assert.Contains(t, buf.String(), `"error":"disk full"`)
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	log.WithField("list_id", "list-1").Info("deleted")

	assert.Contains(t, buf.String(), `"list_id":"list-1"`)
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf}).Logger
	fallback := slog.New(slog.DiscardHandler)

	assert.Same(t, fallback, FromContext(context.Background(), fallback))

	scoped := base.With("request_id", "req-9")
	ctx := NewContext(context.Background(), scoped)
	got := FromContext(ctx, fallback)
	require.Same(t, scoped, got)

	got.Info("hello")
	assert.True(t, strings.Contains(buf.String(), `"request_id":"req-9"`))
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	log.WithFields(map[string]any{"list_id": "list-1", "field": "notes"}).Info("edited")

	assert.Contains(t, buf.String(), `"list_id":"list-1"`)
	assert.Contains(t, buf.String(), `"field":"notes"`)
}
