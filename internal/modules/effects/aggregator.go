// Package effects aggregates entity returns inside event windows into ranked
// effect tables. One engine serves the index, industry and stock views; they
// differ only in the series, the grouping label and the baseline.
package effects

import (
	"fmt"
	"sort"

	"github.com/aristath/eventscope/internal/domain"
	"github.com/aristath/eventscope/pkg/formulas"
)

// Order selects ranking and the directional filter.
type Order int

const (
	// Unranked keeps every entity and orders rows by entity id.
	Unranked Order = iota
	// Descending keeps entities with up_prob >= 0.5, highest return first.
	Descending
	// Ascending keeps entities with up_prob <= 0.5, lowest return first.
	Ascending
)

// OrderFor maps an ascending flag to Ascending or Descending.
func OrderFor(ascending bool) Order {
	if ascending {
		return Ascending
	}
	return Descending
}

func (o Order) String() string {
	switch o {
	case Descending:
		return "descending"
	case Ascending:
		return "ascending"
	default:
		return "unranked"
	}
}

// Baseline is a reference series whose mean return over each window is
// subtracted from every entity's mean for that window. The zero value is
// "no baseline".
type Baseline struct {
	returns map[domain.Date]float64
}

// NoBaseline returns the baseline that subtracts nothing.
func NoBaseline() Baseline {
	return Baseline{}
}

// SeriesBaseline uses a single-entity series as the baseline.
func SeriesBaseline(s domain.Series) Baseline {
	return Baseline{returns: s.ReturnsByDate()}
}

// Enabled reports whether anything is subtracted.
func (b Baseline) Enabled() bool {
	return b.returns != nil
}

// meanOver returns the baseline's mean return over the days of w it has data
// for. ok is false when it has none.
func (b Baseline) meanOver(w domain.DateRange) (mean float64, ok bool) {
	var values []float64
	w.Each(func(d domain.Date) {
		if r, found := b.returns[d]; found {
			values = append(values, r)
		}
	})
	if len(values) == 0 {
		return 0, false
	}
	return formulas.Mean(values), true
}

// Request describes one aggregation.
type Request struct {
	Windows    *domain.WindowMap
	Series     domain.Series
	GroupField string
	Baseline   Baseline
	Order      Order
	Limit      int // <= 0 keeps every row
}

// Aggregate builds the ranked effect table for req.
func Aggregate(req Request) (*domain.EffectTable, error) {
	if req.Windows == nil || req.Windows.Len() == 0 {
		return nil, fmt.Errorf("%w: no influenced windows, call fit first", domain.ErrNoEventDefined)
	}

	rows := EventRows(req.Windows, req.Series, req.Baseline)
	results := Summarize(rows)
	results = Rank(results, req.Order, req.Limit)

	return &domain.EffectTable{GroupField: req.GroupField, Rows: results}, nil
}

// EventRows computes one row per (event, entity) pair that has at least one
// observation inside the event's window. Days missing from the series are
// skipped, never imputed. With a baseline enabled, events whose window holds
// no baseline observation produce no rows.
func EventRows(windows *domain.WindowMap, series domain.Series, baseline Baseline) []domain.EventEffectRow {
	var rows []domain.EventEffectRow
	for _, w := range windows.Windows() {
		inWindow := series.Within(w.DateRange)
		if len(inWindow) == 0 {
			continue
		}

		adjust := 0.0
		if baseline.Enabled() {
			mean, ok := baseline.meanOver(w.DateRange)
			if !ok {
				continue
			}
			adjust = mean
		}

		returns := make(map[string][]float64)
		volumes := make(map[string][]float64)
		for _, o := range inWindow {
			returns[o.Entity] = append(returns[o.Entity], o.Return)
			volumes[o.Entity] = append(volumes[o.Entity], o.Volume)
		}

		entities := make([]string, 0, len(returns))
		for e := range returns {
			entities = append(entities, e)
		}
		sort.Strings(entities)

		for _, e := range entities {
			rows = append(rows, domain.EventEffectRow{
				Event:  w.Event,
				Entity: e,
				Return: formulas.Mean(returns[e]) - adjust,
				Volume: formulas.Sum(volumes[e]),
			})
		}
	}
	return rows
}

// Summarize folds event rows into one result per entity. Every event weighs
// the same regardless of how many days backed it.
func Summarize(rows []domain.EventEffectRow) []domain.EffectResult {
	type acc struct {
		returns []float64
		volume  float64
	}
	byEntity := make(map[string]*acc)
	for _, r := range rows {
		a, ok := byEntity[r.Entity]
		if !ok {
			a = &acc{}
			byEntity[r.Entity] = a
		}
		a.returns = append(a.returns, r.Return)
		a.volume += r.Volume
	}

	results := make([]domain.EffectResult, 0, len(byEntity))
	for entity, a := range byEntity {
		results = append(results, domain.EffectResult{
			Entity: entity,
			Return: formulas.Mean(a.returns),
			UpProb: formulas.ShareAtLeast(a.returns, 0),
			Events: len(a.returns),
			Volume: a.volume,
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Entity < results[j].Entity })
	return results
}

// Rank applies the directional filter, sorts and truncates. The filter runs
// before sorting and truncation, so it can drop the most extreme returns.
func Rank(results []domain.EffectResult, order Order, limit int) []domain.EffectResult {
	kept := make([]domain.EffectResult, 0, len(results))
	for _, r := range results {
		switch order {
		case Ascending:
			if r.UpProb > 0.5 {
				continue
			}
		case Descending:
			if r.UpProb < 0.5 {
				continue
			}
		}
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if order != Unranked && a.Return != b.Return {
			if order == Ascending {
				return a.Return < b.Return
			}
			return a.Return > b.Return
		}
		return a.Entity < b.Entity
	})

	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}
