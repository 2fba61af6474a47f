package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orbitbook/matchcore/internal/matching/types"
)

func TestLoadInstruments_MissingFileReturnsDefaults(t *testing.T) {
	configs, err := LoadInstruments("/nonexistent/path/instruments.yaml", zap.NewNop())
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, "BTC-USD", configs[0].Symbol)
}

func TestDecimalToPrice_ScalesCorrectly(t *testing.T) {
	p, err := decimalToPrice("123.45")
	require.NoError(t, err)
	assert.Equal(t, types.Price(123_45000000), p)
}

func TestStpFromString(t *testing.T) {
	assert.Equal(t, types.STPCancelOldest, stpFromString("cancel_oldest"))
	assert.Equal(t, types.STPNone, stpFromString("unknown"))
}
