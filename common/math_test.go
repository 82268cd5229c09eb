package common

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatStringToBig(t *testing.T) {
	b, err := FloatStringToBig("1.5", 18)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", b.String())

	b, err = FloatStringToBig("100", 6)
	require.NoError(t, err)
	assert.Equal(t, "100000000", b.String())

	// more fractional digits than the token has get truncated
	b, err = FloatStringToBig("0.1234567", 6)
	require.NoError(t, err)
	assert.Equal(t, "123456", b.String())

	_, err = FloatStringToBig("not a number", 6)
	assert.Error(t, err)
}

func TestBigToFloatString(t *testing.T) {
	assert.Equal(t, "1.5", BigToFloatString(big.NewInt(1500000000000000000), 18))
	assert.Equal(t, "0.000001", BigToFloatString(big.NewInt(1), 6))
	assert.Equal(t, "0", BigToFloatString(big.NewInt(0), 18))
}

func TestGweiToWei(t *testing.T) {
	assert.Equal(t, big.NewInt(30000000000), GweiToWei(30))
	assert.Equal(t, big.NewInt(1500000000), GweiToWei(1.5))
}

func TestIsRealAddress(t *testing.T) {
	assert.True(t, IsRealAddress("0xB31f66AA3C1e785363F0875A1B74E27b85FD66c7"))
	assert.False(t, IsRealAddress("0x0000000000000000000000000000000000000000"))
	assert.False(t, IsRealAddress("nope"))
	assert.False(t, IsRealAddress(""))
}
