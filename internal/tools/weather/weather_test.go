package weather

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForecast(t *testing.T) {
	tests := []struct {
		city string
		want string
	}{
		{"Boston", "61 and rainy"},
		{"london", "55 and cloudy"},
		{"Miami", "80 and sunny"},
		{"Paris", "60 and rainy"},
		{"Tokyo", "50 and sunny"},
		{"Sydney", "75 and sunny"},
		{" Tel Aviv ", "80 and sunny"},
		{"Reykjavik", "31 and snowing"},
		{"", "31 and snowing"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Forecast(tt.city), tt.city)
	}
}

func TestWeatherTool(t *testing.T) {
	tool := NewWeatherTool()
	require.Error(t, tool.ValidateArgs(map[string]any{}))

	got, err := tool.Fn(context.Background(), map[string]any{"city": "Paris"})
	require.NoError(t, err)
	assert.Equal(t, "60 and rainy", got)
}
