package models

import "time"

// WeatherForecast is one day of synthetic forecast data.
type WeatherForecast struct {
	Date         time.Time `json:"date"`
	TemperatureC int       `json:"temperatureC"`
	Summary      string    `json:"summary"`
}
