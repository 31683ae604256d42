// Package holding searches fixed entry/exit offsets around event dates for
// the holding period with the best compounded stock return.
package holding

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/aristath/eventscope/internal/domain"
	"github.com/aristath/eventscope/pkg/formulas"
)

// Default grid bounds. DefaultMaxOffset caps either side of any request.
const (
	DefaultMaxBefore = 30
	DefaultMaxAfter  = 30
	DefaultMaxOffset = 365
)

// Coverage decides when an event's fixed window counts as observed.
type Coverage int

const (
	// CoverageFull requires every calendar day of the window in the series.
	CoverageFull Coverage = iota
	// CoveragePartial accepts any window with at least one observed day and
	// compounds over the observed days.
	CoveragePartial
)

// ParseCoverage maps "full" / "partial" to a Coverage.
func ParseCoverage(s string) (Coverage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full":
		return CoverageFull, nil
	case "partial":
		return CoveragePartial, nil
	default:
		return CoverageFull, fmt.Errorf("unknown coverage %q (want full or partial)", s)
	}
}

func (c Coverage) String() string {
	if c == CoveragePartial {
		return "partial"
	}
	return "full"
}

// Input is one optimization request. Stock and Industry are single-entity
// series.
type Input struct {
	Stock     domain.Series
	Industry  domain.Series
	Events    []domain.Date
	MaxBefore int
	MaxAfter  int
	Detail    bool
}

// Cell is the outcome of one (before, after) pair, averaged over the events
// whose window qualified.
type Cell struct {
	Before         int     `json:"before"`
	After          int     `json:"after"`
	StockReturn    float64 `json:"return"`
	StockEvents    int     `json:"events"`
	IndustryReturn float64 `json:"ind_return"`
	IndustryEvents int     `json:"ind_events"` // 0 means IndustryReturn is undefined
}

// Result is the recommended holding period.
type Result struct {
	BestBefore           int     `json:"best_buy"`
	BestAfter            int     `json:"best_sell"`
	BestStockReturn      float64 `json:"best_return"`
	PairedIndustryReturn float64 `json:"ind_return"`
	Evaluated            int     `json:"evaluated_cells"`
	Grid                 []Cell  `json:"all_period_detail,omitempty"`
}

// Optimizer runs the grid search. It holds no per-call state and is safe for
// concurrent use.
type Optimizer struct {
	coverage  Coverage
	maxOffset int
	workers   int
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithMaxOffset bounds MaxBefore and MaxAfter. n <= 0 keeps DefaultMaxOffset.
func WithMaxOffset(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.maxOffset = n
		}
	}
}

// WithWorkers sets how many grid rows are scanned at once. n <= 0 keeps
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.workers = n
		}
	}
}

// NewOptimizer creates an optimizer with the given coverage rule.
func NewOptimizer(coverage Coverage, opts ...Option) *Optimizer {
	o := &Optimizer{
		coverage:  coverage,
		maxOffset: DefaultMaxOffset,
		workers:   runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Coverage returns the optimizer's coverage rule.
func (o *Optimizer) Coverage() Coverage {
	return o.coverage
}

// MaxOffset returns the largest accepted MaxBefore or MaxAfter.
func (o *Optimizer) MaxOffset() int {
	return o.maxOffset
}

// ValidateOffsets rejects negative offsets and offsets above MaxOffset.
func (o *Optimizer) ValidateOffsets(maxBefore, maxAfter int) error {
	if maxBefore < 0 || maxAfter < 0 {
		return fmt.Errorf("%w: offsets must be non-negative, got before=%d after=%d", domain.ErrInvalidOffset, maxBefore, maxAfter)
	}
	if maxBefore > o.maxOffset || maxAfter > o.maxOffset {
		return fmt.Errorf("%w: offsets must not exceed %d days, got before=%d after=%d", domain.ErrInvalidOffset, o.maxOffset, maxBefore, maxAfter)
	}
	return nil
}

// Optimize scans before in [0, MaxBefore] and after in [0, MaxAfter].
//
// Within a before-row, after advances only while every event's stock window
// qualifies: the first pair where one event's window does not qualify is
// still scored over the events that did, and the rest of that row is never
// visited. (0, 0) is walked for that purpose but never scored.
//
// Rows are independent and are scanned by a bounded set of workers.
func (o *Optimizer) Optimize(in Input) (*Result, error) {
	if len(in.Events) == 0 {
		return nil, fmt.Errorf("%w: event dates must not be empty", domain.ErrInvalidDateList)
	}
	if err := o.ValidateOffsets(in.MaxBefore, in.MaxAfter); err != nil {
		return nil, err
	}

	stock := in.Stock.ReturnsByDate()
	industry := in.Industry.ReturnsByDate()

	rows := make([][]Cell, in.MaxBefore+1)
	jobs := make(chan int, len(rows))

	var wg sync.WaitGroup
	for i := 0; i < min(o.workers, len(rows)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for before := range jobs {
				rows[before] = o.scanRow(stock, industry, in.Events, before, in.MaxAfter)
			}
		}()
	}

	for before := range rows {
		jobs <- before
	}
	close(jobs)
	wg.Wait()

	var grid []Cell
	for _, row := range rows {
		grid = append(grid, row...)
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: no holding period within %d/%d days has a complete window", domain.ErrInsufficientData, in.MaxBefore, in.MaxAfter)
	}

	// first maximum in (before, after) order wins
	best := grid[0]
	for _, c := range grid[1:] {
		if c.StockReturn > best.StockReturn {
			best = c
		}
	}

	result := &Result{
		BestBefore:           best.Before,
		BestAfter:            best.After,
		BestStockReturn:      best.StockReturn,
		PairedIndustryReturn: best.IndustryReturn,
		Evaluated:            len(grid),
	}
	if in.Detail {
		result.Grid = grid
	}
	return result, nil
}

// scanRow walks after = 0..maxAfter for one before value and returns the
// scored cells.
func (o *Optimizer) scanRow(stock, industry map[domain.Date]float64, events []domain.Date, before, maxAfter int) []Cell {
	var cells []Cell
	for after := 0; after <= maxAfter; after++ {
		stockValues, complete := o.windowReturns(stock, events, before, after)
		industryValues, _ := o.windowReturns(industry, events, before, after)

		if len(stockValues) > 0 && !(before == 0 && after == 0) {
			cell := Cell{
				Before:         before,
				After:          after,
				StockReturn:    formulas.Mean(stockValues),
				StockEvents:    len(stockValues),
				IndustryEvents: len(industryValues),
			}
			if len(industryValues) > 0 {
				cell.IndustryReturn = formulas.Mean(industryValues)
			}
			cells = append(cells, cell)
		}

		if !complete {
			break
		}
	}
	return cells
}

// windowReturns compounds the series over [d-before, d+after] for every event
// whose window qualifies. complete is false when at least one event's window
// did not.
func (o *Optimizer) windowReturns(series map[domain.Date]float64, events []domain.Date, before, after int) (values []float64, complete bool) {
	complete = true
	for _, event := range events {
		r, ok := o.compound(series, event.AddDays(-before), event.AddDays(after))
		if !ok {
			complete = false
			continue
		}
		values = append(values, r)
	}
	return values, complete
}

func (o *Optimizer) compound(series map[domain.Date]float64, start, end domain.Date) (float64, bool) {
	var returns []float64
	missing := false
	domain.DateRange{Start: start, End: end}.Each(func(d domain.Date) {
		if r, ok := series[d]; ok {
			returns = append(returns, r)
		} else {
			missing = true
		}
	})

	if len(returns) == 0 {
		return 0, false
	}
	if missing && o.coverage == CoverageFull {
		return 0, false
	}
	return formulas.CompoundReturn(returns), true
}
