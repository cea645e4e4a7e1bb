package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildZapLogger(t *testing.T) {
	t.Run("level applies to both encodings", func(t *testing.T) {
		for _, encoding := range []string{LogEncodingJSON, LogEncodingConsole} {
			logger, err := buildZapLogger(encoding, "warn")
			require.NoError(t, err)

			assert.False(t, logger.Core().Enabled(zap.InfoLevel), encoding)
			assert.True(t, logger.Core().Enabled(zap.WarnLevel), encoding)
		}
	})

	t.Run("debug", func(t *testing.T) {
		logger, err := buildZapLogger(LogEncodingConsole, "debug")
		require.NoError(t, err)

		assert.True(t, logger.Core().Enabled(zap.DebugLevel))
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := buildZapLogger(LogEncodingJSON, "loud")
		assert.Error(t, err)
	})
}
