package catalog

import (
	"fmt"
	"time"

	"tastymetrics/pkg/errors"
)

const dateLayout = "2006-01-02"

// DateRange is an inclusive [Start, End] filter on the order date,
// semantics DATE BETWEEN Start AND End.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange parses YYYY-MM-DD bounds and validates ordering.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return DateRange{}, errors.ValidationError("start_date", start, "must be YYYY-MM-DD")
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return DateRange{}, errors.ValidationError("end_date", end, "must be YYYY-MM-DD")
	}
	if e.Before(s) {
		return DateRange{}, errors.ValidationError("date_range",
			fmt.Sprintf("%s..%s", start, end), "end date is before start date")
	}
	return DateRange{Start: s, End: e}, nil
}

// CountryFilter restricts queries to a set of countries. The zero value is
// the "all" sentinel: no filtering. An explicitly empty set is distinct from
// "all" and matches nothing, so a dashboard filter with nothing selected
// shows an empty result rather than silently showing everything.
type CountryFilter struct {
	restricted bool
	countries  []string
}

// AllCountries returns the sentinel that disables country filtering.
func AllCountries() CountryFilter {
	return CountryFilter{}
}

// Countries returns a filter restricted to the given set. With zero
// arguments the filter matches nothing.
func Countries(names ...string) CountryFilter {
	return CountryFilter{restricted: true, countries: names}
}

// IsAll reports whether the filter is the "all" sentinel.
func (f CountryFilter) IsAll() bool { return !f.restricted }

// Values returns the country set; nil for the "all" sentinel.
func (f CountryFilter) Values() []string { return f.countries }

func (f CountryFilter) String() string {
	if f.IsAll() {
		return "all"
	}
	if len(f.countries) == 0 {
		return "none"
	}
	return fmt.Sprintf("%v", f.countries)
}

// Params are the user-supplied filter values bound into a query template.
type Params struct {
	Dates   *DateRange
	Country CountryFilter
	Limit   int
}

// CacheKey is a stable string identifying the parameter combination, used
// to key cached results.
func (p Params) CacheKey() string {
	dates := "all-dates"
	if p.Dates != nil {
		dates = p.Dates.Start.Format(dateLayout) + ".." + p.Dates.End.Format(dateLayout)
	}
	return fmt.Sprintf("%s|%s|%d", dates, p.Country, p.Limit)
}
