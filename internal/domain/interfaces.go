package domain

import "context"

// MarketDataStore is read-only access to the market tables.
// Unknown entity ids yield empty series, never an error; callers turn empty
// results into their own error kinds.
type MarketDataStore interface {
	// Indices returns every index row inside span.
	Indices(ctx context.Context, span DateRange) (Series, error)
	// Index returns the rows of one index inside span.
	Index(ctx context.Context, name string, span DateRange) (Series, error)
	// Industries returns every industry row inside span.
	Industries(ctx context.Context, span DateRange) (Series, error)
	// Industry returns the rows of one industry inside span.
	Industry(ctx context.Context, name string, span DateRange) (Series, error)
	// Stocks returns the rows of the given stock codes inside span.
	Stocks(ctx context.Context, codes []string, span DateRange) (Series, error)
	// IndustryMembers returns the stock codes belonging to an industry.
	IndustryMembers(ctx context.Context, industry string) ([]string, error)
	// IndustryOf returns a stock's industry, or "" when it has none.
	IndustryOf(ctx context.Context, code string) (string, error)
	// HasIndustry reports whether the industry table holds any row for name.
	HasIndustry(ctx context.Context, name string) (bool, error)
	// HasStock reports whether the stock table holds any row for code.
	HasStock(ctx context.Context, code string) (bool, error)
}

// AttentionProvider fetches a public search-interest series for a keyword.
// Days the provider has no value for are omitted, never zero-filled.
type AttentionProvider interface {
	Fetch(ctx context.Context, keyword string, span DateRange) (AttentionSeries, error)
}
