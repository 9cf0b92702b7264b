package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode_Flag(t *testing.T) {
	mode, rest, err := ParseMode([]string{"--mode=order-service", "--port=8000"})
	require.NoError(t, err)
	assert.Equal(t, ModeOrder, mode)
	assert.Equal(t, []string{"--port=8000"}, rest)
}

func TestParseMode_Shorthand(t *testing.T) {
	mode, rest, err := ParseMode([]string{"payment", "--prefetch=1"})
	require.NoError(t, err)
	assert.Equal(t, ModePay, mode)
	assert.Equal(t, []string{"--prefetch=1"}, rest)
}

func TestParseMode_Unknown(t *testing.T) {
	_, _, err := ParseMode([]string{"--mode=tracking-service"})
	assert.Error(t, err)
}

func TestParseMode_Empty(t *testing.T) {
	mode, _, err := ParseMode(nil)
	require.NoError(t, err)
	assert.Empty(t, mode)
}
