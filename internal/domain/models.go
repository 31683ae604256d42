// Package domain provides the data and error types shared by the event
// study packages.
package domain

import "sort"

// Observation is one daily row of an entity's return series.
// Entity is the grouping field: an index name, an industry name or a stock code.
type Observation struct {
	Date   Date    `json:"date"`
	Entity string  `json:"entity"`
	Return float64 `json:"return"` // fractional, 0.01 = 1%
	Volume float64 `json:"volume"`
}

// Series is a long-format return/volume table for one or more entities.
type Series []Observation

// Entities returns the distinct entity ids in ascending order.
func (s Series) Entities() []string {
	seen := make(map[string]bool)
	for _, o := range s {
		seen[o.Entity] = true
	}
	out := make([]string, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Filter returns the rows of a single entity.
func (s Series) Filter(entity string) Series {
	var out Series
	for _, o := range s {
		if o.Entity == entity {
			out = append(out, o)
		}
	}
	return out
}

// Within returns the rows whose date lies in r.
func (s Series) Within(r DateRange) Series {
	var out Series
	for _, o := range s {
		if r.Contains(o.Date) {
			out = append(out, o)
		}
	}
	return out
}

// ReturnsByDate indexes a single-entity series by day. If the series holds
// several entities the last row for a day wins, so filter first.
func (s Series) ReturnsByDate() map[Date]float64 {
	out := make(map[Date]float64, len(s))
	for _, o := range s {
		out[o.Date] = o.Return
	}
	return out
}

// EventEffectRow is one entity's behaviour inside one event's window.
type EventEffectRow struct {
	Event  Date    `json:"event"`
	Entity string  `json:"entity"`
	Return float64 `json:"return"`
	Volume float64 `json:"volume"`
}

// EffectResult is an entity's effect aggregated across events.
type EffectResult struct {
	Entity string  `json:"entity"`
	Return float64 `json:"return"`
	UpProb float64 `json:"up_prob"`
	Events int     `json:"events"`
	Volume float64 `json:"volume"`
}

// EffectTable is a ranked effect table. GroupField names what Entity holds
// ("index", "industry" or "stock").
type EffectTable struct {
	GroupField string         `json:"group_field"`
	Rows       []EffectResult `json:"rows"`
}

// Top returns the first row of the table.
func (t *EffectTable) Top() (EffectResult, bool) {
	if t == nil || len(t.Rows) == 0 {
		return EffectResult{}, false
	}
	return t.Rows[0], true
}
