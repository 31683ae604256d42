package testing

import (
	"github.com/aristath/eventscope/internal/domain"
)

// Fixture event dates: two reserve-requirement cuts.
var (
	FixtureOctober = domain.MustParseDate("2018-10-15")
	FixtureJuly    = domain.MustParseDate("2018-07-05")
)

// FixtureEvents returns the fixture event dates in calendar input order.
func FixtureEvents() []domain.Date {
	return []domain.Date{FixtureOctober, FixtureJuly}
}

// FixtureEventStrings returns the fixture event dates as text.
func FixtureEventStrings() []string {
	return []string{FixtureOctober.String(), FixtureJuly.String()}
}

// FixtureBenchmark is the benchmark index of the market fixture.
const FixtureBenchmark = "上证综指"

// MarketFixture is a small market: two indices, two industries, three
// stocks. Every entity has a constant daily return around each fixture event
// (5 days either side, every calendar day present), so window means equal
// those constants:
//
//	上证综指     Oct  0.01  Jul -0.01
//	深证成指     Oct  0.02  Jul  0.00
//	Banks        Oct  0.03  Jul  0.00  (excess  0.02,  0.01)
//	Tech         Oct -0.01  Jul -0.03  (excess -0.02, -0.02)
//	600036.XSHG  Oct  0.05  Jul  0.01  Banks (excess  0.02,  0.01)
//	601398.XSHG  Oct  0.02  Jul -0.01  Banks (excess -0.01, -0.01)
//	000063.XSHE  Oct  0.00  Jul -0.02  Tech  (excess  0.01,  0.01)
type MarketFixture struct {
	Indices    domain.Series
	Industries domain.Series
	Stocks     domain.Series
	Membership map[string]string
}

// FixtureDaysAround is how many days either side of an event are populated.
const FixtureDaysAround = 5

// NewMarketFixture builds the market fixture. All volumes are 1000.
func NewMarketFixture() MarketFixture {
	return MarketFixture{
		Indices: constantSeries(map[string][2]float64{
			"上证综指": {0.01, -0.01},
			"深证成指": {0.02, 0.00},
		}),
		Industries: constantSeries(map[string][2]float64{
			"Banks": {0.03, 0.00},
			"Tech":  {-0.01, -0.03},
		}),
		Stocks: constantSeries(map[string][2]float64{
			"600036.XSHG": {0.05, 0.01},
			"601398.XSHG": {0.02, -0.01},
			"000063.XSHE": {0.00, -0.02},
		}),
		Membership: map[string]string{
			"600036.XSHG": "Banks",
			"601398.XSHG": "Banks",
			"000063.XSHE": "Tech",
		},
	}
}

func constantSeries(returns map[string][2]float64) domain.Series {
	var s domain.Series
	for entity, r := range returns {
		for i, event := range FixtureEvents() {
			for off := -FixtureDaysAround; off <= FixtureDaysAround; off++ {
				s = append(s, domain.Observation{
					Date:   event.AddDays(off),
					Entity: entity,
					Return: r[i],
					Volume: 1000,
				})
			}
		}
	}
	return s
}

// SpikeAttention builds an attention series covering each event's candidate
// span (30 days before through 29 after) at magnitude 100, raised to 400 on
// the days event-spread through event+spread. With the default detector
// every window becomes [event-spread, event+spread].
func SpikeAttention(events []domain.Date, spread int) domain.AttentionSeries {
	values := make(map[domain.Date]float64)
	for _, event := range events {
		for off := -30; off < 30; off++ {
			d := event.AddDays(off)
			if _, ok := values[d]; !ok {
				values[d] = 100
			}
		}
	}
	for _, event := range events {
		for off := -spread; off <= spread; off++ {
			values[event.AddDays(off)] = 400
		}
	}

	series := make(domain.AttentionSeries, 0, len(values))
	for d, v := range values {
		series = append(series, domain.AttentionPoint{Date: d, Magnitude: v})
	}
	return series
}
