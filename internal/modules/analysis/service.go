// Package analysis owns the event study session: it fits influenced windows
// for an event calendar and answers effect and holding-period queries
// against the fitted windows.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/eventscope/internal/domain"
	"github.com/aristath/eventscope/internal/modules/effects"
	"github.com/aristath/eventscope/internal/modules/eventwindow"
	"github.com/aristath/eventscope/internal/modules/holding"
	"github.com/aristath/eventscope/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultBenchmark is the index subtracted from industry returns.
const DefaultBenchmark = "上证综指"

// DefaultIndustryLimit is the number of industries considered when a stock
// effect is requested without an industry.
const DefaultIndustryLimit = 5

// DefaultEventDates are the reserve-requirement cuts from 2011-12 to 2018-10.
func DefaultEventDates() []string {
	return []string{
		"2018-10-15", "2018-07-05", "2018-04-25", "2016-03-01",
		"2015-10-24", "2015-09-06", "2015-06-28", "2015-04-20",
		"2015-02-05", "2012-05-18", "2012-02-24", "2011-12-05",
	}
}

// State is the session state.
type State string

const (
	StateUnfit State = "unfit"
	StateFit   State = "fit"
)

// FitResult describes a completed fit.
type FitResult struct {
	FitID    string            `json:"fit_id"`
	Event    string            `json:"event"`
	FittedAt time.Time         `json:"fitted_at"`
	Windows  *domain.WindowMap `json:"windows"`
}

// StockAnalysis is the holding-period recommendation for one stock.
type StockAnalysis struct {
	Code     string `json:"code"`
	Industry string `json:"industry,omitempty"`
	*holding.Result
}

// fitted is the immutable Fit state.
type fitted struct {
	id       uuid.UUID
	event    string
	calendar domain.EventCalendar
	windows  *domain.WindowMap
	at       time.Time
}

func (f *fitted) result() *FitResult {
	return &FitResult{
		FitID:    f.id.String(),
		Event:    f.event,
		FittedAt: f.at,
		Windows:  f.windows,
	}
}

// Service is an analysis session. It is safe for concurrent use; a new fit
// replaces the previous one atomically and queries work on a snapshot.
type Service struct {
	store     domain.MarketDataStore
	attention domain.AttentionProvider
	detector  *eventwindow.Detector
	optimizer *holding.Optimizer
	benchmark string
	log       zerolog.Logger

	mu  sync.RWMutex
	fit *fitted // nil while unfit
}

// NewService creates an unfit session. An empty benchmark selects
// DefaultBenchmark.
func NewService(
	store domain.MarketDataStore,
	attention domain.AttentionProvider,
	detector *eventwindow.Detector,
	optimizer *holding.Optimizer,
	benchmark string,
	log zerolog.Logger,
) *Service {
	if benchmark == "" {
		benchmark = DefaultBenchmark
	}
	return &Service{
		store:     store,
		attention: attention,
		detector:  detector,
		optimizer: optimizer,
		benchmark: benchmark,
		log:       log.With().Str("service", "analysis").Logger(),
	}
}

// State reports whether the session has been fitted.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fit == nil {
		return StateUnfit
	}
	return StateFit
}

// Benchmark returns the benchmark index name.
func (s *Service) Benchmark() string {
	return s.benchmark
}

// Fit parses dates, fetches attention for eventName once over the range all
// candidate spans need, and detects the influenced windows. On success the
// session switches to the new fit; on failure it keeps its previous state.
func (s *Service) Fit(ctx context.Context, dates []string, eventName string) (*FitResult, error) {
	if eventName == "" {
		return nil, fmt.Errorf("event name must not be empty")
	}

	calendar, err := domain.ParseEventCalendar(dates)
	if err != nil {
		return nil, err
	}

	defer utils.OperationTimer("fit", s.log)()

	fetchRange := s.detector.FetchRange(calendar)
	attention, err := s.attention.Fetch(ctx, eventName, fetchRange)
	if err != nil {
		if !errors.Is(err, domain.ErrDataUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
		}
		return nil, fmt.Errorf("failed to fetch attention for %q: %w", eventName, err)
	}

	windows, err := s.detector.Detect(calendar, attention)
	if err != nil {
		return nil, err
	}

	f := &fitted{
		id:       uuid.New(),
		event:    eventName,
		calendar: calendar,
		windows:  windows,
		at:       time.Now().UTC(),
	}

	s.mu.Lock()
	s.fit = f
	s.mu.Unlock()

	s.log.Info().
		Str("fit_id", f.id.String()).
		Str("event", eventName).
		Int("events", calendar.Len()).
		Int("attention_points", len(attention)).
		Msg("Fitted event windows")

	return f.result(), nil
}

// Current returns the current fit.
func (s *Service) Current() (*FitResult, error) {
	f, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return f.result(), nil
}

// Windows returns the fitted influenced windows.
func (s *Service) Windows() (*domain.WindowMap, error) {
	f, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return f.windows, nil
}

func (s *Service) snapshot() (*fitted, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fit == nil {
		return nil, fmt.Errorf("%w: call fit with event dates first", domain.ErrNoEventDefined)
	}
	return s.fit, nil
}

// IndexEffect returns the effect table of every index, unfiltered and
// ordered by index name.
func (s *Service) IndexEffect(ctx context.Context) (*domain.EffectTable, error) {
	f, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	series, err := s.store.Indices(ctx, f.windows.Span())
	if err != nil {
		return nil, fmt.Errorf("failed to load index data: %w", err)
	}

	table, err := effects.Aggregate(effects.Request{
		Windows:    f.windows,
		Series:     series,
		GroupField: "index",
		Baseline:   effects.NoBaseline(),
		Order:      effects.Unranked,
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().Str("fit_id", f.id.String()).Int("rows", len(table.Rows)).Msg("Computed index effect")
	return table, nil
}

// IndustryEffect ranks industries by return in excess of the benchmark index.
func (s *Service) IndustryEffect(ctx context.Context, ascending bool, limit int) (*domain.EffectTable, error) {
	f, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return s.industryEffect(ctx, f, ascending, limit)
}

func (s *Service) industryEffect(ctx context.Context, f *fitted, ascending bool, limit int) (*domain.EffectTable, error) {
	span := f.windows.Span()

	industries, err := s.store.Industries(ctx, span)
	if err != nil {
		return nil, fmt.Errorf("failed to load industry data: %w", err)
	}
	benchmark, err := s.store.Index(ctx, s.benchmark, span)
	if err != nil {
		return nil, fmt.Errorf("failed to load benchmark %s: %w", s.benchmark, err)
	}
	if len(benchmark) == 0 {
		return nil, fmt.Errorf("%w: benchmark index %s has no data in %s", domain.ErrDataUnavailable, s.benchmark, span)
	}

	table, err := effects.Aggregate(effects.Request{
		Windows:    f.windows,
		Series:     industries,
		GroupField: "industry",
		Baseline:   effects.SeriesBaseline(benchmark),
		Order:      effects.OrderFor(ascending),
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("fit_id", f.id.String()).
		Bool("ascending", ascending).
		Int("rows", len(table.Rows)).
		Msg("Computed industry effect")
	return table, nil
}

// StockEffect ranks the stocks of an industry by return in excess of the
// industry. Without an industry, the top industry of the default industry
// effect is used.
func (s *Service) StockEffect(ctx context.Context, industry string, ascending bool, limit int) (*domain.EffectTable, error) {
	f, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	if industry == "" {
		top, err := s.industryEffect(ctx, f, false, DefaultIndustryLimit)
		if err != nil {
			return nil, err
		}
		best, ok := top.Top()
		if !ok {
			return nil, fmt.Errorf("%w: no industry qualifies for the fitted events", domain.ErrInvalidIndustryName)
		}
		industry = best.Entity
	}

	known, err := s.store.HasIndustry(ctx, industry)
	if err != nil {
		return nil, fmt.Errorf("failed to look up industry %s: %w", industry, err)
	}
	if !known {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidIndustryName, industry)
	}

	members, err := s.store.IndustryMembers(ctx, industry)
	if err != nil {
		return nil, fmt.Errorf("failed to load members of %s: %w", industry, err)
	}

	span := f.windows.Span()
	stocks, err := s.store.Stocks(ctx, members, span)
	if err != nil {
		return nil, fmt.Errorf("failed to load stocks of %s: %w", industry, err)
	}
	industrySeries, err := s.store.Industry(ctx, industry, span)
	if err != nil {
		return nil, fmt.Errorf("failed to load industry %s: %w", industry, err)
	}

	table, err := effects.Aggregate(effects.Request{
		Windows:    f.windows,
		Series:     stocks,
		GroupField: "stock",
		Baseline:   effects.SeriesBaseline(industrySeries),
		Order:      effects.OrderFor(ascending),
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("fit_id", f.id.String()).
		Str("industry", industry).
		Int("members", len(members)).
		Int("rows", len(table.Rows)).
		Msg("Computed stock effect")
	return table, nil
}

// StockAnalysis searches the best holding period for a stock around the
// fitted event dates, paired with its industry.
func (s *Service) StockAnalysis(ctx context.Context, code string, maxBefore, maxAfter int, detail bool) (*StockAnalysis, error) {
	f, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if err := s.optimizer.ValidateOffsets(maxBefore, maxAfter); err != nil {
		return nil, err
	}

	known, err := s.store.HasStock(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up stock %s: %w", code, err)
	}
	if !known {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidStockCode, code)
	}

	defer utils.OperationTimer("stock_analysis", s.log)()

	events := f.calendar.Dates()
	eventSpan := f.calendar.Span()
	span := domain.DateRange{
		Start: eventSpan.Start.AddDays(-maxBefore),
		End:   eventSpan.End.AddDays(maxAfter),
	}

	// a known stock without rows in span ends as ErrInsufficientData
	stock, err := s.store.Stocks(ctx, []string{code}, span)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock %s: %w", code, err)
	}

	industry, err := s.store.IndustryOf(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve industry of %s: %w", code, err)
	}
	var industrySeries domain.Series
	if industry != "" {
		industrySeries, err = s.store.Industry(ctx, industry, span)
		if err != nil {
			return nil, fmt.Errorf("failed to load industry %s: %w", industry, err)
		}
	}

	result, err := s.optimizer.Optimize(holding.Input{
		Stock:     stock,
		Industry:  industrySeries,
		Events:    events,
		MaxBefore: maxBefore,
		MaxAfter:  maxAfter,
		Detail:    detail,
	})
	if err != nil {
		return nil, fmt.Errorf("stock %s: %w", code, err)
	}

	s.log.Debug().
		Str("fit_id", f.id.String()).
		Str("code", code).
		Int("best_before", result.BestBefore).
		Int("best_after", result.BestAfter).
		Float64("best_return", result.BestStockReturn).
		Msg("Optimized holding period")

	return &StockAnalysis{Code: code, Industry: industry, Result: result}, nil
}
