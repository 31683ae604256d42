package marketdata

import (
	"context"
	"testing"

	"github.com/aristath/eventscope/internal/domain"
	testingpkg "github.com/aristath/eventscope/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "market")
	t.Cleanup(cleanup)

	store := NewStore(db.Conn(), zerolog.Nop())
	f := testingpkg.NewMarketFixture()
	require.NoError(t, store.ReplaceIndex(f.Indices))
	require.NoError(t, store.ReplaceIndustry(f.Industries))
	require.NoError(t, store.ReplaceStock(f.Stocks))
	require.NoError(t, store.ReplaceMembership(f.Membership))
	return store
}

func span(start, end string) domain.DateRange {
	return domain.DateRange{Start: domain.MustParseDate(start), End: domain.MustParseDate(end)}
}

func TestStore_IndexRangeIsInclusive(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	series, err := store.Index(ctx, "上证综指", span("2018-10-14", "2018-10-16"))
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, "2018-10-14", series[0].Date.String())
	assert.Equal(t, "2018-10-16", series[2].Date.String())
	for _, o := range series {
		assert.Equal(t, "上证综指", o.Entity)
		assert.InDelta(t, 0.01, o.Return, 1e-12)
		assert.Equal(t, 1000.0, o.Volume)
	}
}

func TestStore_AllIndicesAndIndustries(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()
	oneDay := span("2018-10-15", "2018-10-15")

	indices, err := store.Indices(ctx, oneDay)
	require.NoError(t, err)
	assert.Equal(t, []string{"上证综指", "深证成指"}, indices.Entities())

	industries, err := store.Industries(ctx, oneDay)
	require.NoError(t, err)
	assert.Equal(t, []string{"Banks", "Tech"}, industries.Entities())

	banks, err := store.Industry(ctx, "Banks", oneDay)
	require.NoError(t, err)
	require.Len(t, banks, 1)
	assert.InDelta(t, 0.03, banks[0].Return, 1e-12)
}

func TestStore_Stocks(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	series, err := store.Stocks(ctx, []string{"600036.XSHG", "000063.XSHE"}, span("2018-07-05", "2018-07-05"))
	require.NoError(t, err)
	assert.Equal(t, []string{"000063.XSHE", "600036.XSHG"}, series.Entities())

	none, err := store.Stocks(ctx, nil, span("2018-07-05", "2018-07-05"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_UnknownEntitiesYieldEmpty(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()
	oneDay := span("2018-10-15", "2018-10-15")

	s, err := store.Index(ctx, "nope", oneDay)
	require.NoError(t, err)
	assert.Empty(t, s)

	s, err = store.Stocks(ctx, []string{"999999.XSHG"}, oneDay)
	require.NoError(t, err)
	assert.Empty(t, s)

	members, err := store.IndustryMembers(ctx, "Shipping")
	require.NoError(t, err)
	assert.Empty(t, members)

	industry, err := store.IndustryOf(ctx, "999999.XSHG")
	require.NoError(t, err)
	assert.Equal(t, "", industry)
}

func TestStore_HasIgnoresDateRange(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	known, err := store.HasIndustry(ctx, "Banks")
	require.NoError(t, err)
	assert.True(t, known)

	known, err = store.HasIndustry(ctx, "Shipping")
	require.NoError(t, err)
	assert.False(t, known)

	known, err = store.HasStock(ctx, "600036.XSHG")
	require.NoError(t, err)
	assert.True(t, known)

	known, err = store.HasStock(ctx, "999999.XSHG")
	require.NoError(t, err)
	assert.False(t, known)
}

func TestStore_Membership(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	members, err := store.IndustryMembers(ctx, "Banks")
	require.NoError(t, err)
	assert.Equal(t, []string{"600036.XSHG", "601398.XSHG"}, members)

	industry, err := store.IndustryOf(ctx, "000063.XSHE")
	require.NoError(t, err)
	assert.Equal(t, "Tech", industry)
}

func TestStore_ReadsDatesWithTimeSuffix(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "market")
	defer cleanup()

	_, err := db.Conn().Exec(`INSERT INTO industry (date, industry_name, "return", volume) VALUES
		('2018-10-15 00:00:00', 'Banks', 0.01, 10),
		('2018-10-16 00:00:00', 'Banks', 0.02, 10)`)
	require.NoError(t, err)

	store := NewStore(db.Conn(), zerolog.Nop())
	series, err := store.Industry(context.Background(), "Banks", span("2018-10-16", "2018-10-16"))
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "2018-10-16", series[0].Date.String())
}

func TestStore_ReplaceOverwritesAndRejectsNegativeVolume(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()
	d := domain.MustParseDate("2018-10-15")

	require.NoError(t, store.ReplaceIndex(domain.Series{{Date: d, Entity: "上证综指", Return: 0.5, Volume: 1}}))
	s, err := store.Index(ctx, "上证综指", span("2018-10-15", "2018-10-15"))
	require.NoError(t, err)
	require.Len(t, s, 1)
	assert.Equal(t, 0.5, s[0].Return)

	err = store.ReplaceIndex(domain.Series{
		{Date: d.AddDays(100), Entity: "X", Return: 0, Volume: 1},
		{Date: d, Entity: "X", Return: 0, Volume: -1},
	})
	assert.Error(t, err)

	// the whole batch rolled back
	s, err = store.Index(ctx, "X", span("2018-01-01", "2019-12-31"))
	require.NoError(t, err)
	assert.Empty(t, s)
}
