// Package eventwindow derives, per event date, the window during which public
// attention to the event is anomalously high.
package eventwindow

import (
	"fmt"
	"math"

	"github.com/aristath/eventscope/internal/domain"
	"github.com/aristath/eventscope/pkg/formulas"
)

// Default candidate span: 30 days before the event through 29 days after.
const (
	DefaultLeadDays   = 30
	DefaultSpanDays   = 60
	DefaultMultiplier = 3.0
)

// Config tunes the anomaly search.
type Config struct {
	LeadDays   int     // days of the candidate span before the event date
	SpanDays   int     // total length of the candidate span
	Multiplier float64 // a day is anomalous when magnitude >= Multiplier * median
}

// DefaultConfig returns the 30/60/3x configuration.
func DefaultConfig() Config {
	return Config{
		LeadDays:   DefaultLeadDays,
		SpanDays:   DefaultSpanDays,
		Multiplier: DefaultMultiplier,
	}
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.SpanDays <= 0 {
		return fmt.Errorf("span days must be positive, got %d", c.SpanDays)
	}
	if c.LeadDays < 0 || c.LeadDays >= c.SpanDays {
		return fmt.Errorf("lead days must be in [0, %d), got %d", c.SpanDays, c.LeadDays)
	}
	if c.Multiplier <= 0 || math.IsNaN(c.Multiplier) || math.IsInf(c.Multiplier, 0) {
		return fmt.Errorf("multiplier must be a positive number, got %v", c.Multiplier)
	}
	return nil
}

// Detector converts event dates plus an attention series into influenced windows.
// It is stateless and safe for concurrent use.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector; an invalid config is an error.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event window config: %w", err)
	}
	return &Detector{cfg: cfg}, nil
}

// CandidateSpan returns the daily span examined for one event date.
func (d *Detector) CandidateSpan(event domain.Date) domain.DateRange {
	start := event.AddDays(-d.cfg.LeadDays)
	return domain.DateRange{Start: start, End: start.AddDays(d.cfg.SpanDays - 1)}
}

// FetchRange returns the single range of attention data needed to detect
// windows for all events: the union of their candidate spans.
func (d *Detector) FetchRange(events domain.EventCalendar) domain.DateRange {
	span := events.Span()
	return domain.DateRange{
		Start: d.CandidateSpan(span.Start).Start,
		End:   d.CandidateSpan(span.End).End,
	}
}

// Detect returns one influenced window per event date.
//
// For each event the attention series is reindexed onto the candidate span
// (missing days stay missing), and the window is the envelope of the days
// whose magnitude is at least Multiplier times the span median. Without any
// such day the window collapses to the event date itself.
func (d *Detector) Detect(events domain.EventCalendar, attention domain.AttentionSeries) (*domain.WindowMap, error) {
	if events.Len() == 0 {
		return nil, fmt.Errorf("%w: event dates must not be empty", domain.ErrInvalidDateList)
	}
	if err := validateAttention(attention); err != nil {
		return nil, err
	}

	byDate := attention.ByDate()
	windows := domain.NewWindowMap(events.Len())
	for _, event := range events.Dates() {
		windows.Set(d.detectOne(event, byDate))
	}
	return windows, nil
}

func (d *Detector) detectOne(event domain.Date, attention map[domain.Date]float64) domain.InfluencedWindow {
	span := d.CandidateSpan(event)

	var days []domain.Date
	var values []float64
	span.Each(func(day domain.Date) {
		if v, ok := attention[day]; ok {
			days = append(days, day)
			values = append(values, v)
		}
	})

	window := domain.InfluencedWindow{
		Event:     event,
		DateRange: domain.DateRange{Start: event, End: event},
	}
	if len(values) == 0 {
		return window
	}

	threshold := d.cfg.Multiplier * formulas.Median(values)
	found := false
	for i, v := range values {
		if v < threshold {
			continue
		}
		// days are in increasing order
		if !found {
			window.Start = days[i]
			found = true
		}
		window.End = days[i]
	}
	return window
}

func validateAttention(attention domain.AttentionSeries) error {
	for _, p := range attention {
		if p.Date.IsZero() {
			return fmt.Errorf("%w: attention point without date", domain.ErrDataUnavailable)
		}
		if p.Magnitude < 0 || math.IsNaN(p.Magnitude) || math.IsInf(p.Magnitude, 0) {
			return fmt.Errorf("%w: attention magnitude %v on %s", domain.ErrDataUnavailable, p.Magnitude, p.Date)
		}
	}
	return nil
}
