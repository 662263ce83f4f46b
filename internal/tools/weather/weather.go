// Package weather is a small demo plugin with a fixed forecast table.
package weather

import (
	"context"
	"strings"

	"github.com/ChamsBouzaiene/ytchat/internal/engine"
)

// Plugin is the name the weather tools are grouped under.
const Plugin = "weather"

const fallback = "31 and snowing"

var forecasts = map[string]string{
	"boston":   "61 and rainy",
	"london":   "55 and cloudy",
	"miami":    "80 and sunny",
	"paris":    "60 and rainy",
	"tokyo":    "50 and sunny",
	"sydney":   "75 and sunny",
	"tel aviv": "80 and sunny",
}

// Forecast returns the canned weather for city, matched case-insensitively.
func Forecast(city string) string {
	if f, ok := forecasts[strings.ToLower(strings.TrimSpace(city))]; ok {
		return f
	}
	return fallback
}

// NewWeatherTool creates the get_weather_for_city tool.
func NewWeatherTool() engine.Tool {
	return engine.Tool{
		Name:        "get_weather_for_city",
		Description: "Get the weather for a city.",
		SchemaJSON:  `{"type":"object","properties":{"city":{"type":"string","description":"The city name"}},"required":["city"]}`,
		Fn: func(_ context.Context, args map[string]any) (string, error) {
			city, _ := args["city"].(string)
			return Forecast(city), nil
		},
		Retryable: true,
		Plugin:    Plugin,
	}
}
