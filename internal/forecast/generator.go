package forecast

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/kjstillabower/weather-forecast-service/internal/models"
)

const (
	// Days is the number of records produced per call. Record i is dated now + i days.
	Days = 5
	// MinTemperatureC is the inclusive lower bound for generated temperatures.
	MinTemperatureC = -20
	// MaxTemperatureC is the exclusive upper bound for generated temperatures.
	MaxTemperatureC = 55
	// SummaryCount is the required size of the summary label set.
	SummaryCount = 10
)

// ErrInvalidSummaries is returned when a summary label set is not SummaryCount distinct, non-empty labels.
var ErrInvalidSummaries = errors.New("invalid summary labels")

var defaultSummaries = [SummaryCount]string{
	"uno", "dos", "tres", "cuatro", "cinco", "seis", "siete-7", "ocho-8", "nueve-9", "diez-10",
}

// DefaultSummaries returns a copy of the built-in summary labels.
func DefaultSummaries() []string {
	out := make([]string, SummaryCount)
	copy(out, defaultSummaries[:])
	return out
}

// RandSource yields uniformly distributed integers in [0, n). *rand.Rand satisfies it.
type RandSource interface {
	IntN(n int) int
}

// Config holds generator dependencies. Zero values select the defaults.
type Config struct {
	// Summaries is copied on construction; nil uses DefaultSummaries.
	Summaries []string
	// NewSource is called once per Generate call.
	NewSource func() RandSource
	// Now is the generation clock.
	Now func() time.Time
}

// Generator produces forecast batches. Safe for concurrent use: it holds no mutable state
// and each Generate call draws from its own source.
type Generator struct {
	summaries []string
	newSource func() RandSource
	now       func() time.Time
}

// NewGenerator validates cfg and returns a Generator.
func NewGenerator(cfg Config) (*Generator, error) {
	summaries := cfg.Summaries
	if summaries == nil {
		summaries = DefaultSummaries()
	}
	if err := ValidateSummaries(summaries); err != nil {
		return nil, err
	}
	g := &Generator{
		summaries: append([]string(nil), summaries...),
		newSource: cfg.NewSource,
		now:       cfg.Now,
	}
	if g.newSource == nil {
		g.newSource = NewPCGSource
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g, nil
}

// ValidateSummaries reports whether labels is a usable summary set.
func ValidateSummaries(labels []string) error {
	if len(labels) != SummaryCount {
		return fmt.Errorf("%w: want %d labels, got %d", ErrInvalidSummaries, SummaryCount, len(labels))
	}
	seen := make(map[string]struct{}, len(labels))
	for i, l := range labels {
		if l == "" {
			return fmt.Errorf("%w: label %d is empty", ErrInvalidSummaries, i)
		}
		if _, dup := seen[l]; dup {
			return fmt.Errorf("%w: duplicate label %q", ErrInvalidSummaries, l)
		}
		seen[l] = struct{}{}
	}
	return nil
}

// Summaries returns a copy of the generator's label set.
func (g *Generator) Summaries() []string {
	return append([]string(nil), g.summaries...)
}

// Generate returns Days records ordered by day offset 1..Days.
func (g *Generator) Generate() []models.WeatherForecast {
	src := g.newSource()
	now := g.now()
	out := make([]models.WeatherForecast, Days)
	for i := range out {
		out[i] = models.WeatherForecast{
			Date:         now.AddDate(0, 0, i+1),
			TemperatureC: MinTemperatureC + src.IntN(MaxTemperatureC-MinTemperatureC),
			Summary:      g.summaries[src.IntN(len(g.summaries))],
		}
	}
	return out
}

// NewPCGSource returns a freshly seeded PCG source.
func NewPCGSource() RandSource {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
