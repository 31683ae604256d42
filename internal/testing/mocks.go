package testing

import (
	"context"
	"sort"
	"sync"

	"github.com/aristath/eventscope/internal/domain"
)

// MockMarketDataStore is an in-memory implementation of domain.MarketDataStore for testing
type MockMarketDataStore struct {
	mu         sync.RWMutex
	indices    domain.Series
	industries domain.Series
	stocks     domain.Series
	membership map[string]string
	err        error
}

// NewMockMarketDataStore creates an empty mock store
func NewMockMarketDataStore() *MockMarketDataStore {
	return &MockMarketDataStore{membership: make(map[string]string)}
}

// NewMockMarketDataStoreFromFixture creates a mock store holding f
func NewMockMarketDataStoreFromFixture(f MarketFixture) *MockMarketDataStore {
	m := NewMockMarketDataStore()
	m.indices = f.Indices
	m.industries = f.Industries
	m.stocks = f.Stocks
	for k, v := range f.Membership {
		m.membership[k] = v
	}
	return m
}

// SetError makes every call fail with err
func (m *MockMarketDataStore) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Indices returns every index row inside span
func (m *MockMarketDataStore) Indices(_ context.Context, span domain.DateRange) (domain.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.indices.Within(span), nil
}

// Index returns one index inside span
func (m *MockMarketDataStore) Index(_ context.Context, name string, span domain.DateRange) (domain.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.indices.Filter(name).Within(span), nil
}

// Industries returns every industry row inside span
func (m *MockMarketDataStore) Industries(_ context.Context, span domain.DateRange) (domain.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.industries.Within(span), nil
}

// Industry returns one industry inside span
func (m *MockMarketDataStore) Industry(_ context.Context, name string, span domain.DateRange) (domain.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.industries.Filter(name).Within(span), nil
}

// Stocks returns the given stocks inside span
func (m *MockMarketDataStore) Stocks(_ context.Context, codes []string, span domain.DateRange) (domain.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	var out domain.Series
	for _, code := range codes {
		out = append(out, m.stocks.Filter(code).Within(span)...)
	}
	return out, nil
}

// IndustryMembers returns the sorted stock codes of an industry
func (m *MockMarketDataStore) IndustryMembers(_ context.Context, industry string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	var codes []string
	for code, ind := range m.membership {
		if ind == industry {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes, nil
}

// IndustryOf returns a stock's industry or ""
func (m *MockMarketDataStore) IndustryOf(_ context.Context, code string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return "", m.err
	}
	return m.membership[code], nil
}

// HasIndustry reports whether any industry row exists for name
func (m *MockMarketDataStore) HasIndustry(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return false, m.err
	}
	return len(m.industries.Filter(name)) > 0, nil
}

// HasStock reports whether any stock row exists for code
func (m *MockMarketDataStore) HasStock(_ context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return false, m.err
	}
	return len(m.stocks.Filter(code)) > 0, nil
}

// AttentionCall records one Fetch call
type AttentionCall struct {
	Keyword string
	Span    domain.DateRange
}

// MockAttentionProvider is a mock implementation of domain.AttentionProvider for testing
type MockAttentionProvider struct {
	mu     sync.Mutex
	series domain.AttentionSeries
	err    error
	calls  []AttentionCall
}

// NewMockAttentionProvider creates a provider that always returns series
func NewMockAttentionProvider(series domain.AttentionSeries) *MockAttentionProvider {
	return &MockAttentionProvider{series: series}
}

// SetError makes Fetch fail with err
func (m *MockAttentionProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Fetch returns the configured series restricted to span
func (m *MockAttentionProvider) Fetch(_ context.Context, keyword string, span domain.DateRange) (domain.AttentionSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, AttentionCall{Keyword: keyword, Span: span})
	if m.err != nil {
		return nil, m.err
	}
	var out domain.AttentionSeries
	for _, p := range m.series {
		if span.Contains(p.Date) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Calls returns the recorded Fetch calls
func (m *MockAttentionProvider) Calls() []AttentionCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AttentionCall(nil), m.calls...)
}
