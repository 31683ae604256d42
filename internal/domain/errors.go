package domain

import "errors"

// Error kinds returned by the analysis packages. Callers match them with
// errors.Is; the wrapped message carries the details.
var (
	// ErrInvalidDateList is returned when event dates are empty or unparseable.
	ErrInvalidDateList = errors.New("invalid date list")
	// ErrNoEventDefined is returned by any aggregation or stock analysis made before a successful fit.
	ErrNoEventDefined = errors.New("no event defined")
	// ErrInvalidStockCode is returned when a stock code has no data in the market store.
	ErrInvalidStockCode = errors.New("invalid stock code")
	// ErrInvalidIndustryName is returned when an industry name matches no industry rows.
	ErrInvalidIndustryName = errors.New("invalid industry name")
	// ErrDataUnavailable is returned when the attention provider fails or returns unusable data.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInsufficientData is returned when no holding period could be evaluated.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidOffset is returned when holding-period offsets are negative or exceed the configured bound.
	ErrInvalidOffset = errors.New("invalid holding offset")
)
