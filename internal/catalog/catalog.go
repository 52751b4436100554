package catalog

import (
	"fmt"
	"sort"
	"strings"

	"tastymetrics/pkg/errors"
)

// Source view names. The views are externally owned and read-only; nothing
// in this tool creates or mutates them.
const (
	OrdersView  = "ORDERS_V"
	LoyaltyView = "CUSTOMER_LOYALTY_METRICS_V"
	ReviewsView = "TRUCK_REVIEWS_V"
)

// Built-in query names.
const (
	QueryDailyTrend     = "daily-trend"
	QueryCountryCity    = "country-city"
	QueryMenuItems      = "menu-items"
	QueryLoyaltyRanking = "loyalty-ranking"
	QueryBrandReviews   = "brand-reviews"
)

// Sentiment word lists for the brand-reviews query. Classification is a
// case-insensitive substring match; a review can match both lists or neither.
var (
	PositiveWords = []string{"great", "amazing", "excellent"}
	NegativeWords = []string{"bad", "terrible", "awful"}
)

// Definition is a named, read-only aggregate query over the source views.
// The statement may carry {{where}} and {{limit}} substitution points that
// Bind fills from Params.
type Definition struct {
	Name        string
	Title       string
	Description string
	Columns     []string

	statement      string
	AcceptsDates   bool
	AcceptsCountry bool
	AcceptsLimit   bool
	builtin        bool
}

// Builtin reports whether the definition ships with the catalog, as opposed
// to being loaded from a query pack.
func (d Definition) Builtin() bool { return d.builtin }

// BoundQuery is a definition with all parameters substituted, ready to run.
type BoundQuery struct {
	Name string
	SQL  string
	Args []interface{}
}

// Bind substitutes params into the definition's filter clauses. Parameters
// the definition does not accept are rejected rather than silently dropped.
func (d Definition) Bind(p Params) (BoundQuery, error) {
	if p.Dates != nil && !d.AcceptsDates {
		return BoundQuery{}, errors.New(errors.ErrCodeInvalidParams,
			fmt.Sprintf("query %q does not accept a date range", d.Name))
	}
	if !p.Country.IsAll() && !d.AcceptsCountry {
		return BoundQuery{}, errors.New(errors.ErrCodeInvalidParams,
			fmt.Sprintf("query %q does not accept a country filter", d.Name))
	}
	if p.Limit < 0 {
		return BoundQuery{}, errors.New(errors.ErrCodeInvalidParams, "limit must not be negative")
	}
	if p.Limit > 0 && !d.AcceptsLimit {
		return BoundQuery{}, errors.New(errors.ErrCodeInvalidParams,
			fmt.Sprintf("query %q does not accept a limit", d.Name))
	}

	where, args := buildWhere(p)
	sql := strings.Replace(d.statement, "{{where}}", where, 1)

	limit := ""
	if p.Limit > 0 {
		limit = fmt.Sprintf("LIMIT %d", p.Limit)
	}
	sql = strings.Replace(sql, "{{limit}}", limit, 1)

	return BoundQuery{Name: d.Name, SQL: strings.TrimSpace(sql), Args: args}, nil
}

// buildWhere assembles the filter clause. Dates bind as inclusive BETWEEN
// arguments; an explicit empty country set binds a false predicate so that
// it matches nothing, while the "all" sentinel emits no predicate at all.
func buildWhere(p Params) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if p.Dates != nil {
		conds = append(conds, "DATE BETWEEN ? AND ?")
		args = append(args, p.Dates.Start.Format(dateLayout), p.Dates.End.Format(dateLayout))
	}

	if !p.Country.IsAll() {
		values := p.Country.Values()
		if len(values) == 0 {
			conds = append(conds, "1 = 0")
		} else {
			placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
			conds = append(conds, fmt.Sprintf("COUNTRY IN (%s)", placeholders))
			for _, v := range values {
				args = append(args, v)
			}
		}
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func sentimentPredicate(column string, words []string) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = fmt.Sprintf("LOWER(%s) LIKE '%%%s%%'", column, w)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// Registry holds the runnable query definitions: the five built-ins plus any
// loaded query packs.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry returns a registry seeded with the built-in catalog.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]Definition)}
	for _, d := range builtins() {
		r.defs[d.Name] = d
	}
	return r
}

// Get looks up a definition by name.
func (r *Registry) Get(name string) (Definition, error) {
	d, ok := r.defs[name]
	if !ok {
		return Definition{}, errors.New(errors.ErrCodeQueryNotFound,
			fmt.Sprintf("no query named %q in the catalog", name)).
			WithSuggestions("Run 'tastymetrics catalog list' to see available queries")
	}
	return d, nil
}

// List returns all definitions sorted by name, built-ins first.
func (r *Registry) List() []Definition {
	defs := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].builtin != defs[j].builtin {
			return defs[i].builtin
		}
		return defs[i].Name < defs[j].Name
	})
	return defs
}

// Add registers a definition. Built-in names cannot be shadowed.
func (r *Registry) Add(d Definition) error {
	if existing, ok := r.defs[d.Name]; ok && existing.builtin {
		return errors.New(errors.ErrCodePackInvalid,
			fmt.Sprintf("query %q would shadow a built-in query", d.Name))
	}
	r.defs[d.Name] = d
	return nil
}

func builtins() []Definition {
	return []Definition{
		{
			Name:        QueryDailyTrend,
			Title:       "Daily Sales Trend",
			Description: "Orders, revenue, average order value and unique customers per day",
			Columns:     []string{"DATE", "TOTAL_ORDERS", "DAILY_REVENUE", "AVERAGE_ORDER_VALUE", "UNIQUE_CUSTOMERS"},
			statement: `
SELECT DATE,
       COUNT(ORDER_ID) AS TOTAL_ORDERS,
       SUM(ORDER_TOTAL) AS DAILY_REVENUE,
       AVG(ORDER_TOTAL) AS AVERAGE_ORDER_VALUE,
       COUNT(DISTINCT CUSTOMER_ID) AS UNIQUE_CUSTOMERS
FROM ` + OrdersView + `
{{where}}
GROUP BY DATE
ORDER BY DATE`,
			AcceptsDates:   true,
			AcceptsCountry: true,
			builtin:        true,
		},
		{
			Name:        QueryCountryCity,
			Title:       "Country and City Performance",
			Description: "Order volume and revenue broken down by country and city",
			Columns:     []string{"COUNTRY", "PRIMARY_CITY", "TOTAL_ORDERS", "TOTAL_REVENUE", "AVERAGE_ORDER_VALUE", "UNIQUE_CUSTOMERS"},
			statement: `
SELECT COUNTRY,
       PRIMARY_CITY,
       COUNT(ORDER_ID) AS TOTAL_ORDERS,
       SUM(ORDER_TOTAL) AS TOTAL_REVENUE,
       AVG(ORDER_TOTAL) AS AVERAGE_ORDER_VALUE,
       COUNT(DISTINCT CUSTOMER_ID) AS UNIQUE_CUSTOMERS
FROM ` + OrdersView + `
{{where}}
GROUP BY COUNTRY, PRIMARY_CITY
ORDER BY TOTAL_REVENUE DESC`,
			AcceptsDates:   true,
			AcceptsCountry: true,
			builtin:        true,
		},
		{
			Name:        QueryMenuItems,
			Title:       "Menu Item Performance",
			Description: "Quantity sold, revenue and average price per menu item",
			Columns:     []string{"MENU_ITEM_NAME", "MENU_TYPE", "TOTAL_QUANTITY_SOLD", "TOTAL_REVENUE", "AVERAGE_PRICE", "TOTAL_ORDERS"},
			statement: `
SELECT MENU_ITEM_NAME,
       MENU_TYPE,
       SUM(QUANTITY) AS TOTAL_QUANTITY_SOLD,
       SUM(ORDER_TOTAL) AS TOTAL_REVENUE,
       AVG(UNIT_PRICE) AS AVERAGE_PRICE,
       COUNT(ORDER_ID) AS TOTAL_ORDERS
FROM ` + OrdersView + `
GROUP BY MENU_ITEM_NAME, MENU_TYPE
ORDER BY TOTAL_REVENUE DESC
{{limit}}`,
			AcceptsLimit: true,
			builtin:      true,
		},
		{
			Name:        QueryLoyaltyRanking,
			Title:       "Customer Loyalty Ranking",
			Description: "Customers ranked by lifetime value; zero-order customers are kept",
			Columns:     []string{"CUSTOMER_ID", "CUSTOMER_NAME", "CITY", "COUNTRY", "LIFETIME_VALUE", "TOTAL_ORDERS", "AVERAGE_ORDER_SIZE", "LOCATIONS_VISITED"},
			statement: `
SELECT cl.CUSTOMER_ID,
       cl.FIRST_NAME || ' ' || cl.LAST_NAME AS CUSTOMER_NAME,
       cl.CITY,
       cl.COUNTRY,
       cl.TOTAL_SALES AS LIFETIME_VALUE,
       COUNT(o.ORDER_ID) AS TOTAL_ORDERS,
       AVG(o.ORDER_TOTAL) AS AVERAGE_ORDER_SIZE,
       ARRAY_SIZE(cl.VISITED_LOCATION_IDS_ARRAY) AS LOCATIONS_VISITED
FROM ` + LoyaltyView + ` cl
LEFT JOIN ` + OrdersView + ` o ON o.CUSTOMER_ID = cl.CUSTOMER_ID
GROUP BY cl.CUSTOMER_ID, cl.FIRST_NAME, cl.LAST_NAME, cl.CITY, cl.COUNTRY,
         cl.TOTAL_SALES, ARRAY_SIZE(cl.VISITED_LOCATION_IDS_ARRAY)
ORDER BY LIFETIME_VALUE DESC
{{limit}}`,
			AcceptsLimit: true,
			builtin:      true,
		},
		{
			Name:        QueryBrandReviews,
			Title:       "Truck Brand Performance with Review Sentiment",
			Description: "Sales per truck brand joined with keyword-matched review sentiment",
			Columns:     []string{"TRUCK_BRAND_NAME", "TOTAL_ORDERS", "TOTAL_REVENUE", "AVERAGE_ORDER_VALUE", "TOTAL_REVIEWS", "POSITIVE_REVIEWS", "NEGATIVE_REVIEWS"},
			statement: `
WITH ORDERS_BY_BRAND AS (
    SELECT TRUCK_BRAND_NAME,
           COUNT(ORDER_ID) AS TOTAL_ORDERS,
           SUM(ORDER_TOTAL) AS TOTAL_REVENUE,
           AVG(ORDER_TOTAL) AS AVERAGE_ORDER_VALUE
    FROM ` + OrdersView + `
    GROUP BY TRUCK_BRAND_NAME
),
REVIEWS_BY_BRAND AS (
    SELECT TRUCK_BRAND_NAME,
           COUNT(REVIEW_ID) AS TOTAL_REVIEWS,
           SUM(CASE WHEN ` + sentimentPredicate("REVIEW", PositiveWords) + ` THEN 1 ELSE 0 END) AS POSITIVE_REVIEWS,
           SUM(CASE WHEN ` + sentimentPredicate("REVIEW", NegativeWords) + ` THEN 1 ELSE 0 END) AS NEGATIVE_REVIEWS
    FROM ` + ReviewsView + `
    GROUP BY TRUCK_BRAND_NAME
)
SELECT o.TRUCK_BRAND_NAME,
       o.TOTAL_ORDERS,
       o.TOTAL_REVENUE,
       o.AVERAGE_ORDER_VALUE,
       COALESCE(r.TOTAL_REVIEWS, 0) AS TOTAL_REVIEWS,
       COALESCE(r.POSITIVE_REVIEWS, 0) AS POSITIVE_REVIEWS,
       COALESCE(r.NEGATIVE_REVIEWS, 0) AS NEGATIVE_REVIEWS
FROM ORDERS_BY_BRAND o
LEFT JOIN REVIEWS_BY_BRAND r ON r.TRUCK_BRAND_NAME = o.TRUCK_BRAND_NAME
ORDER BY o.TOTAL_REVENUE DESC`,
			builtin: true,
		},
	}
}
