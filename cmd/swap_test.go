package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aswapdex/aswap/config"
)

func TestResolveSlippage(t *testing.T) {
	config.SlippagePct = 0.5

	// flag untouched, the configured default wins
	assert.Equal(t, 0.5, resolveSlippage(swapCmd))

	// an explicit zero is a deliberate choice and is kept
	require.NoError(t, swapCmd.Flags().Set("slippage", "0"))
	assert.Equal(t, 0.0, resolveSlippage(swapCmd))

	require.NoError(t, swapCmd.Flags().Set("slippage", "1.5"))
	assert.Equal(t, 1.5, resolveSlippage(swapCmd))
}
