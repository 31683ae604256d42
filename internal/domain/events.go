package domain

import (
	"encoding/json"
	"fmt"
)

// EventCalendar is an ordered set of distinct event dates.
// Input order is kept; duplicates collapse onto their first occurrence.
type EventCalendar struct {
	dates []Date
}

// NewEventCalendar builds a calendar from already parsed dates.
func NewEventCalendar(dates []Date) (EventCalendar, error) {
	if len(dates) == 0 {
		return EventCalendar{}, fmt.Errorf("%w: event dates must not be empty", ErrInvalidDateList)
	}
	seen := make(map[Date]bool, len(dates))
	out := make([]Date, 0, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			return EventCalendar{}, fmt.Errorf("%w: zero date in list", ErrInvalidDateList)
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return EventCalendar{dates: out}, nil
}

// ParseEventCalendar parses dates in the form accepted by ParseDate.
func ParseEventCalendar(values []string) (EventCalendar, error) {
	if len(values) == 0 {
		return EventCalendar{}, fmt.Errorf("%w: event dates must not be empty", ErrInvalidDateList)
	}
	dates := make([]Date, 0, len(values))
	for i, v := range values {
		d, err := ParseDate(v)
		if err != nil {
			return EventCalendar{}, fmt.Errorf("%w: element %d: %v (expected YYYY-MM-DD)", ErrInvalidDateList, i, err)
		}
		dates = append(dates, d)
	}
	return NewEventCalendar(dates)
}

// Dates returns a copy of the calendar's dates in input order.
func (c EventCalendar) Dates() []Date {
	out := make([]Date, len(c.dates))
	copy(out, c.dates)
	return out
}

func (c EventCalendar) Len() int { return len(c.dates) }

// Span returns the range from the earliest to the latest event date.
func (c EventCalendar) Span() DateRange {
	if len(c.dates) == 0 {
		return DateRange{}
	}
	r := DateRange{Start: c.dates[0], End: c.dates[0]}
	for _, d := range c.dates[1:] {
		if d.Before(r.Start) {
			r.Start = d
		}
		if d.After(r.End) {
			r.End = d
		}
	}
	return r
}

// AttentionPoint is one day of public search interest.
type AttentionPoint struct {
	Date      Date    `json:"date"`
	Magnitude float64 `json:"magnitude"`
}

// AttentionSeries is a sparse daily attention series; days without data are
// simply missing.
type AttentionSeries []AttentionPoint

// ByDate indexes the series by day. Later points win on duplicate days.
func (s AttentionSeries) ByDate() map[Date]float64 {
	out := make(map[Date]float64, len(s))
	for _, p := range s {
		out[p.Date] = p.Magnitude
	}
	return out
}

// InfluencedWindow is the closed range during which an event's effect is
// considered active.
type InfluencedWindow struct {
	Event Date `json:"event"`
	DateRange
}

// WindowMap maps each event date to its influenced window. Iteration follows
// the order in which windows were added; lookups are by date.
type WindowMap struct {
	order   []Date
	windows map[Date]InfluencedWindow
}

// NewWindowMap returns an empty map with room for n windows.
func NewWindowMap(n int) *WindowMap {
	return &WindowMap{
		order:   make([]Date, 0, n),
		windows: make(map[Date]InfluencedWindow, n),
	}
}

// Set stores the window for w.Event, replacing any previous one.
func (m *WindowMap) Set(w InfluencedWindow) {
	if _, ok := m.windows[w.Event]; !ok {
		m.order = append(m.order, w.Event)
	}
	m.windows[w.Event] = w
}

// Get returns the window of an event date.
func (m *WindowMap) Get(event Date) (InfluencedWindow, bool) {
	if m == nil {
		return InfluencedWindow{}, false
	}
	w, ok := m.windows[event]
	return w, ok
}

func (m *WindowMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Windows returns the windows in insertion order.
func (m *WindowMap) Windows() []InfluencedWindow {
	if m == nil {
		return nil
	}
	out := make([]InfluencedWindow, 0, len(m.order))
	for _, d := range m.order {
		out = append(out, m.windows[d])
	}
	return out
}

// Span returns the envelope of all windows.
func (m *WindowMap) Span() DateRange {
	ws := m.Windows()
	if len(ws) == 0 {
		return DateRange{}
	}
	r := ws[0].DateRange
	for _, w := range ws[1:] {
		if w.Start.Before(r.Start) {
			r.Start = w.Start
		}
		if w.End.After(r.End) {
			r.End = w.End
		}
	}
	return r
}

func (m *WindowMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Windows())
}
