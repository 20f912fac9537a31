package tfutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeframe(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"1m", time.Minute},
		{"5m", 5 * time.Minute},
		{"15m", 15 * time.Minute},
		{"30m", 30 * time.Minute},
		{"1h", time.Hour},
		{"4h", 4 * time.Hour},
		{"1d", 24 * time.Hour},
	}
	for _, tt := range tests {
		got, err := ParseTimeframe(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseTimeframe("2h")
	assert.Error(t, err)
}

func TestTimeframeMinutes(t *testing.T) {
	assert.Equal(t, 5, TimeframeMinutes("5m"))
	assert.Equal(t, 60, TimeframeMinutes("1h"))
	assert.Equal(t, 1440, TimeframeMinutes("1d"))
	assert.Equal(t, 0, TimeframeMinutes("bogus"))
}

func TestIsValidTimeframe(t *testing.T) {
	for _, tf := range GetSupportedTimeframes() {
		assert.True(t, IsValidTimeframe(tf), tf)
	}
	assert.False(t, IsValidTimeframe("2h"))
	assert.False(t, IsValidTimeframe(""))
}
