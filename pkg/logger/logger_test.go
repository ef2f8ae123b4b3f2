package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "verbose"})
	require.Error(t, err)
}

func TestNewDefaultsToInfo(t *testing.T) {
	log, err := New(Config{})
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestNewProdUsesJSONHandler(t *testing.T) {
	log, err := New(Config{Level: "debug", Environment: "prod"})
	require.NoError(t, err)
	require.True(t, log.Enabled(context.Background(), slog.LevelDebug))
}
