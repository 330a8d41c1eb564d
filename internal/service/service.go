package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-forecast-service/internal/models"
	"github.com/kjstillabower/weather-forecast-service/internal/observability"
)

// ForecastGenerator produces one forecast batch. Implemented by forecast.Generator.
type ForecastGenerator interface {
	Generate() []models.WeatherForecast
}

// ForecastService serves forecast batches to the HTTP layer and records
// generation metrics. It holds no per-request state.
type ForecastService struct {
	generator ForecastGenerator
}

// NewForecastService creates a ForecastService backed by generator.
func NewForecastService(generator ForecastGenerator) *ForecastService {
	return &ForecastService{generator: generator}
}

// GetForecast returns a freshly generated batch. The only error is an already
// cancelled or expired ctx, in which case nothing is generated.
func (s *ForecastService) GetForecast(ctx context.Context) ([]models.WeatherForecast, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("generate forecast: %w", err)
	}
	start := time.Now()
	batch := s.generator.Generate()
	observability.RecordForecast(batch)
	if logger := observability.LoggerFromContext(ctx); logger != nil {
		logger.Debug("forecast generated", zap.Int("records", len(batch)), zap.Duration("duration", time.Since(start)))
	}
	return batch, nil
}
