package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{"WARNING", zerolog.WarnLevel, false},
		{" error ", zerolog.ErrorLevel, false},
		{"loud", zerolog.NoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNew_JSONFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, Options{Level: "warn", JSON: true})
	require.NoError(t, err)

	l.Info().Msg("hidden")
	l.Warn().Str("stage", "parsing").Msg("shown")

	var ev map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ev))
	assert.Equal(t, "shown", ev["message"])
	assert.Equal(t, "parsing", ev["stage"])
	assert.Contains(t, ev, "time")
}

func TestNew_VerboseAndContext(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, Options{Level: "error", Verbose: true, NoColor: true})
	require.NoError(t, err)

	ctx := WithLogger(context.Background(), l)
	zerolog.Ctx(ctx).Debug().Msg("matching violations")
	assert.Contains(t, buf.String(), "matching violations")
	assert.Contains(t, buf.String(), "DBG")
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Options{Level: "chatty"})
	assert.Error(t, err)
}
