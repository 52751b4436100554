package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// Result is the tabular output contract shared by every catalog query: an
// ordered sequence of rows under a fixed column set. Zero rows is a valid
// result, distinct from a query failure.
type Result struct {
	Query   string          `json:"query"`
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// Empty reports whether the query returned no rows.
func (r *Result) Empty() bool { return len(r.Rows) == 0 }

// DailyTrendRow is one day of order activity.
type DailyTrendRow struct {
	Date              time.Time       `json:"date"`
	TotalOrders       int64           `json:"total_orders"`
	DailyRevenue      decimal.Decimal `json:"daily_revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	UniqueCustomers   int64           `json:"unique_customers"`
}

func (r DailyTrendRow) values() []interface{} {
	return []interface{}{r.Date.Format("2006-01-02"), r.TotalOrders, r.DailyRevenue, r.AverageOrderValue, r.UniqueCustomers}
}

// CountryCityRow is order activity for one (country, city) pair.
type CountryCityRow struct {
	Country           string          `json:"country"`
	City              string          `json:"city"`
	TotalOrders       int64           `json:"total_orders"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	UniqueCustomers   int64           `json:"unique_customers"`
}

func (r CountryCityRow) values() []interface{} {
	return []interface{}{r.Country, r.City, r.TotalOrders, r.TotalRevenue, r.AverageOrderValue, r.UniqueCustomers}
}

// MenuItemRow is sales performance for one menu item.
type MenuItemRow struct {
	MenuItemName      string          `json:"menu_item_name"`
	MenuType          string          `json:"menu_type"`
	TotalQuantitySold int64           `json:"total_quantity_sold"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	AveragePrice      decimal.Decimal `json:"average_price"`
	TotalOrders       int64           `json:"total_orders"`
}

func (r MenuItemRow) values() []interface{} {
	return []interface{}{r.MenuItemName, r.MenuType, r.TotalQuantitySold, r.TotalRevenue, r.AveragePrice, r.TotalOrders}
}

// LoyaltyRow ranks one loyalty customer. AverageOrderSize is null for
// customers with no orders; the LEFT JOIN keeps them in the ranking.
type LoyaltyRow struct {
	CustomerID       int64               `json:"customer_id"`
	CustomerName     string              `json:"customer_name"`
	City             string              `json:"city"`
	Country          string              `json:"country"`
	LifetimeValue    decimal.Decimal     `json:"lifetime_value"`
	TotalOrders      int64               `json:"total_orders"`
	AverageOrderSize decimal.NullDecimal `json:"average_order_size"`
	LocationsVisited int64               `json:"locations_visited"`
}

func (r LoyaltyRow) values() []interface{} {
	var avg interface{}
	if r.AverageOrderSize.Valid {
		avg = r.AverageOrderSize.Decimal
	}
	return []interface{}{r.CustomerID, r.CustomerName, r.City, r.Country, r.LifetimeValue, r.TotalOrders, avg, r.LocationsVisited}
}

// BrandReviewsRow is sales plus review sentiment for one truck brand.
// Positive and negative counts are independent keyword matches; a review
// can land in both lists or in neither, so the two counts do not partition
// TotalReviews.
type BrandReviewsRow struct {
	TruckBrandName    string          `json:"truck_brand_name"`
	TotalOrders       int64           `json:"total_orders"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	TotalReviews      int64           `json:"total_reviews"`
	PositiveReviews   int64           `json:"positive_reviews"`
	NegativeReviews   int64           `json:"negative_reviews"`
}

func (r BrandReviewsRow) values() []interface{} {
	return []interface{}{r.TruckBrandName, r.TotalOrders, r.TotalRevenue, r.AverageOrderValue, r.TotalReviews, r.PositiveReviews, r.NegativeReviews}
}

// ColumnInfo describes one column of a source view, as returned by the
// describe diagnostic.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}
