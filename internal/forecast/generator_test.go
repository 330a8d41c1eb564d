package forecast

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// seqSource replays a fixed sequence of draws, reduced modulo n.
type seqSource struct {
	vals []int
	i    int
}

func (s *seqSource) IntN(n int) int {
	v := s.vals[s.i%len(s.vals)] % n
	s.i++
	return v
}

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestGenerator(t *testing.T, vals []int) *Generator {
	t.Helper()
	g, err := NewGenerator(Config{
		NewSource: func() RandSource { return &seqSource{vals: vals} },
		Now:       func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	return g
}

func TestGenerate_ReturnsFiveRecords(t *testing.T) {
	g, err := NewGenerator(Config{})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	if got := len(g.Generate()); got != Days {
		t.Errorf("len(Generate()) = %d, want %d", got, Days)
	}
}

// TestGenerate_Invariants runs the default generator repeatedly and checks range,
// label membership and date ordering on every batch.
func TestGenerate_Invariants(t *testing.T) {
	g, err := NewGenerator(Config{Now: func() time.Time { return fixedNow }})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	labels := make(map[string]bool)
	for _, s := range DefaultSummaries() {
		labels[s] = true
	}
	for run := 0; run < 200; run++ {
		batch := g.Generate()
		if len(batch) != Days {
			t.Fatalf("run %d: len = %d, want %d", run, len(batch), Days)
		}
		for i, rec := range batch {
			if rec.TemperatureC < MinTemperatureC || rec.TemperatureC >= MaxTemperatureC {
				t.Errorf("run %d record %d: TemperatureC = %d, out of [%d, %d)", run, i, rec.TemperatureC, MinTemperatureC, MaxTemperatureC)
			}
			if !labels[rec.Summary] {
				t.Errorf("run %d record %d: Summary = %q not in label set", run, i, rec.Summary)
			}
			want := fixedNow.AddDate(0, 0, i+1)
			if !rec.Date.Equal(want) {
				t.Errorf("run %d record %d: Date = %v, want %v", run, i, rec.Date, want)
			}
			if i > 0 && !rec.Date.After(batch[i-1].Date) {
				t.Errorf("run %d record %d: Date not after previous", run, i)
			}
		}
	}
}

func TestGenerate_DeterministicWithStubSource(t *testing.T) {
	// draws alternate temperature, summary
	g := newTestGenerator(t, []int{0, 0, 74, 9, 20, 3, 40, 5, 1, 1})
	batch := g.Generate()

	want := []struct {
		temp    int
		summary string
	}{
		{-20, "uno"},
		{54, "diez-10"},
		{0, "cuatro"},
		{20, "seis"},
		{-19, "dos"},
	}
	for i, w := range want {
		if batch[i].TemperatureC != w.temp {
			t.Errorf("record %d: TemperatureC = %d, want %d", i, batch[i].TemperatureC, w.temp)
		}
		if batch[i].Summary != w.summary {
			t.Errorf("record %d: Summary = %q, want %q", i, batch[i].Summary, w.summary)
		}
	}
}

func TestGenerate_TwoCallsBothValid(t *testing.T) {
	calls := 0
	g, err := NewGenerator(Config{
		NewSource: func() RandSource {
			calls++
			return &seqSource{vals: []int{calls * 7, calls * 3}}
		},
	})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	first := g.Generate()
	second := g.Generate()
	if len(first) != Days || len(second) != Days {
		t.Fatalf("lengths = %d, %d, want %d", len(first), len(second), Days)
	}
	if calls != 2 {
		t.Errorf("source factory called %d times, want 2 (one per call)", calls)
	}
	if first[0].TemperatureC == second[0].TemperatureC {
		t.Errorf("expected fresh source per call to change draws")
	}
}

func TestGenerate_CustomSummaries(t *testing.T) {
	labels := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	g, err := NewGenerator(Config{
		Summaries: labels,
		NewSource: func() RandSource { return &seqSource{vals: []int{0, 7}} },
	})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	labels[7] = "mutated"
	for i, rec := range g.Generate() {
		if rec.Summary != "h" {
			t.Errorf("record %d: Summary = %q, want %q", i, rec.Summary, "h")
		}
	}
}

func TestValidateSummaries(t *testing.T) {
	tests := []struct {
		name    string
		labels  []string
		wantErr bool
	}{
		{"default", DefaultSummaries(), false},
		{"too few", []string{"a", "b"}, true},
		{"empty label", []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", ""}, true},
		{"duplicate", []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "a"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSummaries(tt.labels)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateSummaries() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSummaries) {
				t.Errorf("error %v does not wrap ErrInvalidSummaries", err)
			}
		})
	}
}

func TestNewGenerator_RejectsInvalidSummaries(t *testing.T) {
	g, err := NewGenerator(Config{Summaries: []string{}})
	if err == nil {
		t.Fatal("NewGenerator() expected error for empty label set")
	}
	if g != nil {
		t.Errorf("NewGenerator() = %v, want nil on error", g)
	}
}

func TestDefaultSummaries_ReturnsCopy(t *testing.T) {
	s := DefaultSummaries()
	s[0] = "changed"
	if DefaultSummaries()[0] != "uno" {
		t.Error("DefaultSummaries() exposed internal array")
	}
}

func TestGenerate_Concurrent(t *testing.T) {
	g, err := NewGenerator(Config{})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if n := len(g.Generate()); n != Days {
				t.Errorf("len = %d, want %d", n, Days)
			}
		}()
	}
	wg.Wait()
}
