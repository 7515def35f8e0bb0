package models

import "time"

// Condition is one weather-condition descriptor. Icon is the short code
// (e.g. "10d") used to look up a rendered icon image.
type Condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// CurrentWeather holds current conditions for one city. Immutable once
// decoded from a response; each successful fetch replaces the prior value
// wholesale.
type CurrentWeather struct {
	City        string      `json:"city"`
	Temperature float64     `json:"temperature"`
	Humidity    int         `json:"humidity"`
	WindSpeed   float64     `json:"windSpeed"`
	Conditions  []Condition `json:"conditions"`
	Timestamp   time.Time   `json:"timestamp"`
}

// ForecastEntry is one forecast point.
type ForecastEntry struct {
	Timestamp   time.Time   `json:"timestamp"`
	Temperature float64     `json:"temperature"`
	Conditions  []Condition `json:"conditions"`
}

// Forecast is a multi-entry forecast for one city, entries ordered by
// time ascending. Superseded wholesale on each new fetch; no merge.
type Forecast struct {
	City    string          `json:"city"`
	Entries []ForecastEntry `json:"entries"`
}
