package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tastymetrics/pkg/errors"
)

func TestRegistryBuiltins(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{QueryDailyTrend, QueryCountryCity, QueryMenuItems, QueryLoyaltyRanking, QueryBrandReviews} {
		d, err := r.Get(name)
		require.NoError(t, err, name)
		assert.True(t, d.Builtin())
		assert.NotEmpty(t, d.Columns)
	}

	assert.Len(t, r.List(), 5)
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("no-such-query")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeQueryNotFound, errors.GetErrorCode(err))
}

func TestRegistryAddShadowingBuiltin(t *testing.T) {
	r := NewRegistry()

	err := r.Add(Definition{Name: QueryDailyTrend, statement: "SELECT 1"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePackInvalid, errors.GetErrorCode(err))
}

func TestRegistryListOrdersBuiltinsFirst(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(Definition{Name: "aaa-custom", statement: "SELECT 1"}))

	list := r.List()
	require.Len(t, list, 6)
	for _, d := range list[:5] {
		assert.True(t, d.Builtin())
	}
	assert.Equal(t, "aaa-custom", list[5].Name)
}

func TestBindDateRangeAndCountries(t *testing.T) {
	r := NewRegistry()
	d, err := r.Get(QueryDailyTrend)
	require.NoError(t, err)

	dr, err := ParseDateRange("2022-01-01", "2022-01-31")
	require.NoError(t, err)

	bound, err := d.Bind(Params{Dates: &dr, Country: Countries("United States", "France")})
	require.NoError(t, err)

	assert.Contains(t, bound.SQL, "WHERE DATE BETWEEN ? AND ? AND COUNTRY IN (?, ?)")
	assert.Equal(t, []interface{}{"2022-01-01", "2022-01-31", "United States", "France"}, bound.Args)
}

func TestBindAllCountriesOmitsPredicate(t *testing.T) {
	r := NewRegistry()
	d, err := r.Get(QueryCountryCity)
	require.NoError(t, err)

	bound, err := d.Bind(Params{Country: AllCountries()})
	require.NoError(t, err)

	assert.NotContains(t, bound.SQL, "WHERE")
	assert.Empty(t, bound.Args)
}

func TestBindEmptyCountrySetMatchesNothing(t *testing.T) {
	r := NewRegistry()
	d, err := r.Get(QueryCountryCity)
	require.NoError(t, err)

	bound, err := d.Bind(Params{Country: Countries()})
	require.NoError(t, err)

	assert.Contains(t, bound.SQL, "WHERE 1 = 0")
	assert.Empty(t, bound.Args)
}

func TestBindRejectsUnsupportedParams(t *testing.T) {
	r := NewRegistry()

	dr, err := ParseDateRange("2022-01-01", "2022-01-31")
	require.NoError(t, err)

	tests := []struct {
		name   string
		query  string
		params Params
	}{
		{"date range on menu items", QueryMenuItems, Params{Dates: &dr}},
		{"country on brand reviews", QueryBrandReviews, Params{Country: Countries("US")}},
		{"limit on daily trend", QueryDailyTrend, Params{Limit: 10}},
		{"negative limit", QueryMenuItems, Params{Limit: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := r.Get(tt.query)
			require.NoError(t, err)

			_, err = d.Bind(tt.params)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidParams, errors.GetErrorCode(err))
		})
	}
}

func TestBindLimit(t *testing.T) {
	r := NewRegistry()
	d, err := r.Get(QueryLoyaltyRanking)
	require.NoError(t, err)

	bound, err := d.Bind(Params{Limit: 10})
	require.NoError(t, err)
	assert.Contains(t, bound.SQL, "LIMIT 10")

	bound, err = d.Bind(Params{})
	require.NoError(t, err)
	assert.NotContains(t, bound.SQL, "LIMIT")
	assert.NotContains(t, bound.SQL, "{{limit}}")
}

func TestBrandReviewsSentimentPredicates(t *testing.T) {
	r := NewRegistry()
	d, err := r.Get(QueryBrandReviews)
	require.NoError(t, err)

	bound, err := d.Bind(Params{})
	require.NoError(t, err)

	for _, w := range PositiveWords {
		assert.Contains(t, bound.SQL, "LOWER(REVIEW) LIKE '%"+w+"%'")
	}
	for _, w := range NegativeWords {
		assert.Contains(t, bound.SQL, "LOWER(REVIEW) LIKE '%"+w+"%'")
	}
	// Independent counts: two separate CASE expressions, not a partition.
	assert.Equal(t, 2, strings.Count(bound.SQL, "CASE WHEN"))
}

func TestBindLeavesNoPlaceholders(t *testing.T) {
	r := NewRegistry()
	for _, d := range r.List() {
		bound, err := d.Bind(Params{})
		require.NoError(t, err, d.Name)
		assert.NotContains(t, bound.SQL, "{{where}}", d.Name)
		assert.NotContains(t, bound.SQL, "{{limit}}", d.Name)
	}
}
