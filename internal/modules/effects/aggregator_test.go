package effects

import (
	"testing"

	"github.com/aristath/eventscope/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) domain.Date { return domain.MustParseDate(s) }

func windowMap(windows ...domain.InfluencedWindow) *domain.WindowMap {
	m := domain.NewWindowMap(len(windows))
	for _, w := range windows {
		m.Set(w)
	}
	return m
}

func window(event, start, end string) domain.InfluencedWindow {
	return domain.InfluencedWindow{
		Event:     day(event),
		DateRange: domain.DateRange{Start: day(start), End: day(end)},
	}
}

func obs(date, entity string, ret, vol float64) domain.Observation {
	return domain.Observation{Date: day(date), Entity: entity, Return: ret, Volume: vol}
}

func TestAggregate_RequiresWindows(t *testing.T) {
	_, err := Aggregate(Request{Series: domain.Series{obs("2018-10-15", "A", 0.01, 1)}})
	assert.ErrorIs(t, err, domain.ErrNoEventDefined)

	_, err = Aggregate(Request{Windows: domain.NewWindowMap(0)})
	assert.ErrorIs(t, err, domain.ErrNoEventDefined)
}

func TestAggregate_IndustryExcessReturn(t *testing.T) {
	windows := windowMap(
		window("2018-10-15", "2018-10-15", "2018-10-15"),
		window("2018-07-05", "2018-07-05", "2018-07-05"),
	)
	industries := domain.Series{
		obs("2018-10-15", "Banks", 0.015, 100),
		obs("2018-07-05", "Banks", -0.01, 200),
	}
	benchmark := domain.Series{
		obs("2018-10-15", "Composite", 0.005, 0),
		obs("2018-07-05", "Composite", 0.01, 0),
	}

	table, err := Aggregate(Request{
		Windows:    windows,
		Series:     industries,
		GroupField: "industry",
		Baseline:   SeriesBaseline(benchmark),
		Order:      Unranked,
	})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	banks := table.Rows[0]
	assert.Equal(t, "industry", table.GroupField)
	assert.Equal(t, "Banks", banks.Entity)
	assert.InDelta(t, -0.005, banks.Return, 1e-12)
	assert.Equal(t, 0.5, banks.UpProb)
	assert.Equal(t, 2, banks.Events)
	assert.InDelta(t, 300.0, banks.Volume, 1e-9)
}

func TestEventRows_MeanAndVolumeOverPresentDaysOnly(t *testing.T) {
	windows := windowMap(window("2018-10-15", "2018-10-12", "2018-10-16"))
	series := domain.Series{
		obs("2018-10-11", "A", 0.50, 999), // outside window
		obs("2018-10-12", "A", 0.01, 10),
		obs("2018-10-15", "A", 0.03, 20),
		// weekend 13/14 absent, 16 absent
		obs("2018-10-16", "B", -0.02, 5),
	}

	rows := EventRows(windows, series, NoBaseline())
	require.Len(t, rows, 2)

	assert.Equal(t, "A", rows[0].Entity)
	assert.InDelta(t, 0.02, rows[0].Return, 1e-12)
	assert.InDelta(t, 30.0, rows[0].Volume, 1e-9)
	assert.Equal(t, day("2018-10-15"), rows[0].Event)

	assert.Equal(t, "B", rows[1].Entity)
	assert.InDelta(t, -0.02, rows[1].Return, 1e-12)
}

func TestEventRows_BaselineIsOneScalarPerEvent(t *testing.T) {
	windows := windowMap(window("2018-10-15", "2018-10-15", "2018-10-16"))
	series := domain.Series{
		obs("2018-10-15", "A", 0.02, 1),
		obs("2018-10-15", "B", 0.00, 1),
		obs("2018-10-16", "B", 0.04, 1),
	}
	// baseline present only on the 16th: mean over window = 0.01
	baseline := SeriesBaseline(domain.Series{obs("2018-10-16", "X", 0.01, 0)})

	rows := EventRows(windows, series, baseline)
	require.Len(t, rows, 2)
	assert.InDelta(t, 0.01, rows[0].Return, 1e-12)
	assert.InDelta(t, 0.01, rows[1].Return, 1e-12)
}

func TestEventRows_BaselineWithoutDataSkipsEvent(t *testing.T) {
	windows := windowMap(
		window("2018-10-15", "2018-10-15", "2018-10-15"),
		window("2018-07-05", "2018-07-05", "2018-07-05"),
	)
	series := domain.Series{
		obs("2018-10-15", "A", 0.02, 1),
		obs("2018-07-05", "A", 0.03, 1),
	}
	baseline := SeriesBaseline(domain.Series{obs("2018-07-05", "X", 0.01, 0)})

	rows := EventRows(windows, series, baseline)
	require.Len(t, rows, 1)
	assert.Equal(t, day("2018-07-05"), rows[0].Event)
}

func TestAggregate_EachEventWeighsTheSame(t *testing.T) {
	windows := windowMap(
		window("2018-10-15", "2018-10-08", "2018-10-17"),
		window("2018-07-05", "2018-07-05", "2018-07-05"),
	)
	var series domain.Series
	for _, d := range []string{"2018-10-08", "2018-10-09", "2018-10-10", "2018-10-11", "2018-10-12"} {
		series = append(series, obs(d, "A", 0.04, 1))
	}
	series = append(series, obs("2018-07-05", "A", 0.0, 1))

	table, err := Aggregate(Request{Windows: windows, Series: series, Order: Unranked})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.InDelta(t, 0.02, table.Rows[0].Return, 1e-12)
	assert.Equal(t, 1.0, table.Rows[0].UpProb)
}

func TestAggregate_EntitiesWithoutObservationsAreAbsent(t *testing.T) {
	windows := windowMap(window("2018-10-15", "2018-10-15", "2018-10-15"))
	series := domain.Series{
		obs("2018-10-15", "A", 0.01, 1),
		obs("2018-01-02", "Ghost", 0.50, 1),
	}

	table, err := Aggregate(Request{Windows: windows, Series: series, Order: Unranked})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "A", table.Rows[0].Entity)
}

// directionalFixture yields four entities over two events:
//
//	Up:    +0.03, +0.01  -> return  0.02, up_prob 1.0
//	Mixed: +0.10, -0.04  -> return  0.03, up_prob 0.5
//	Down:  -0.02, -0.04  -> return -0.03, up_prob 0.0
//	Crash: -0.30, +0.02  -> return -0.14, up_prob 0.5
func directionalFixture() (*domain.WindowMap, domain.Series) {
	windows := windowMap(
		window("2018-10-15", "2018-10-15", "2018-10-15"),
		window("2018-07-05", "2018-07-05", "2018-07-05"),
	)
	series := domain.Series{
		obs("2018-10-15", "Up", 0.03, 1),
		obs("2018-07-05", "Up", 0.01, 1),
		obs("2018-10-15", "Mixed", 0.10, 1),
		obs("2018-07-05", "Mixed", -0.04, 1),
		obs("2018-10-15", "Down", -0.02, 1),
		obs("2018-07-05", "Down", -0.04, 1),
		obs("2018-10-15", "Crash", -0.30, 1),
		obs("2018-07-05", "Crash", 0.02, 1),
	}
	return windows, series
}

func TestAggregate_DescendingFilterAndOrder(t *testing.T) {
	windows, series := directionalFixture()

	table, err := Aggregate(Request{Windows: windows, Series: series, Order: Descending})
	require.NoError(t, err)

	var names []string
	for _, r := range table.Rows {
		names = append(names, r.Entity)
		assert.GreaterOrEqual(t, r.UpProb, 0.5)
	}
	assert.Equal(t, []string{"Mixed", "Up", "Crash"}, names)
	for i := 1; i < len(table.Rows); i++ {
		assert.GreaterOrEqual(t, table.Rows[i-1].Return, table.Rows[i].Return)
	}
}

func TestAggregate_AscendingFilterDropsExtremes(t *testing.T) {
	windows, series := directionalFixture()

	table, err := Aggregate(Request{Windows: windows, Series: series, Order: Ascending})
	require.NoError(t, err)

	var names []string
	for _, r := range table.Rows {
		names = append(names, r.Entity)
		assert.LessOrEqual(t, r.UpProb, 0.5)
	}
	// Crash has the lowest return but up_prob 0.5 keeps it; Up is filtered out.
	assert.Equal(t, []string{"Crash", "Down", "Mixed"}, names)
}

func TestAggregate_LimitAppliesAfterFilter(t *testing.T) {
	windows, series := directionalFixture()

	table, err := Aggregate(Request{Windows: windows, Series: series, Order: Ascending, Limit: 2})
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Crash", table.Rows[0].Entity)
	assert.Equal(t, "Down", table.Rows[1].Entity)
}

func TestAggregate_UnrankedKeepsAllByEntity(t *testing.T) {
	windows, series := directionalFixture()

	table, err := Aggregate(Request{Windows: windows, Series: series, Order: Unranked, GroupField: "index"})
	require.NoError(t, err)

	var names []string
	for _, r := range table.Rows {
		names = append(names, r.Entity)
	}
	assert.Equal(t, []string{"Crash", "Down", "Mixed", "Up"}, names)
}

func TestRank_TiesBrokenByEntity(t *testing.T) {
	results := []domain.EffectResult{
		{Entity: "b", Return: 0.01, UpProb: 1},
		{Entity: "a", Return: 0.01, UpProb: 1},
		{Entity: "c", Return: 0.02, UpProb: 1},
	}

	ranked := Rank(results, Descending, 0)
	require.Len(t, ranked, 3)
	assert.Equal(t, "c", ranked[0].Entity)
	assert.Equal(t, "a", ranked[1].Entity)
	assert.Equal(t, "b", ranked[2].Entity)

	again := Rank(results, Descending, 0)
	assert.Equal(t, ranked, again)
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	results := []domain.EffectResult{
		{Entity: "b", Return: 0.01, UpProb: 1},
		{Entity: "a", Return: 0.03, UpProb: 1},
	}
	Rank(results, Ascending, 1)
	assert.Equal(t, "b", results[0].Entity)
}

func TestOrderFor(t *testing.T) {
	assert.Equal(t, Ascending, OrderFor(true))
	assert.Equal(t, Descending, OrderFor(false))
	assert.Equal(t, "unranked", Unranked.String())
}
