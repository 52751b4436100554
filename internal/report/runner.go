package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tastymetrics/internal/catalog"
	"tastymetrics/pkg/errors"
)

// DB is the query surface the runner needs. *sql.DB satisfies it, and so
// does a sqlmock database in tests.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Runner executes catalog queries against the source views. Every query is
// a stateless read; a Runner is safe for concurrent use.
type Runner struct {
	db  DB
	reg *catalog.Registry
	log *zap.Logger
}

// NewRunner creates a runner over an open connection and a query registry.
func NewRunner(db DB, reg *catalog.Registry, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{db: db, reg: reg, log: log}
}

// Registry exposes the underlying catalog registry.
func (r *Runner) Registry() *catalog.Registry { return r.reg }

// Definitions lists the runnable catalog queries.
func (r *Runner) Definitions() []catalog.Definition { return r.reg.List() }

// Run executes the named query and returns its tabular result. Built-in
// queries go through their typed scanners; pack queries scan generically.
func (r *Runner) Run(ctx context.Context, name string, p catalog.Params) (*Result, error) {
	def, err := r.reg.Get(name)
	if err != nil {
		return nil, err
	}

	switch name {
	case catalog.QueryDailyTrend:
		rows, err := r.DailyTrend(ctx, p)
		return buildResult(def, rows, err, DailyTrendRow.values)
	case catalog.QueryCountryCity:
		rows, err := r.CountryCity(ctx, p)
		return buildResult(def, rows, err, CountryCityRow.values)
	case catalog.QueryMenuItems:
		rows, err := r.MenuItems(ctx, p)
		return buildResult(def, rows, err, MenuItemRow.values)
	case catalog.QueryLoyaltyRanking:
		rows, err := r.LoyaltyRanking(ctx, p)
		return buildResult(def, rows, err, LoyaltyRow.values)
	case catalog.QueryBrandReviews:
		rows, err := r.BrandReviews(ctx, p)
		return buildResult(def, rows, err, BrandReviewsRow.values)
	default:
		return r.runGeneric(ctx, name, p)
	}
}

func buildResult[T any](def catalog.Definition, rows []T, err error, values func(T) []interface{}) (*Result, error) {
	if err != nil {
		return nil, err
	}
	result := &Result{Query: def.Name, Columns: def.Columns, Rows: make([][]interface{}, 0, len(rows))}
	for _, row := range rows {
		result.Rows = append(result.Rows, values(row))
	}
	return result, nil
}

// DailyTrend returns per-day order count, revenue, average order value and
// unique customers for the bound date range and country filter.
func (r *Runner) DailyTrend(ctx context.Context, p catalog.Params) ([]DailyTrendRow, error) {
	rows, err := r.query(ctx, catalog.QueryDailyTrend, p)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]DailyTrendRow, 0)
	for rows.Next() {
		var row DailyTrendRow
		if err := rows.Scan(&row.Date, &row.TotalOrders, &row.DailyRevenue, &row.AverageOrderValue, &row.UniqueCustomers); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultScan, "failed to scan daily trend row")
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CountryCity returns order metrics grouped by country and city.
func (r *Runner) CountryCity(ctx context.Context, p catalog.Params) ([]CountryCityRow, error) {
	rows, err := r.query(ctx, catalog.QueryCountryCity, p)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CountryCityRow, 0)
	for rows.Next() {
		var row CountryCityRow
		if err := rows.Scan(&row.Country, &row.City, &row.TotalOrders, &row.TotalRevenue, &row.AverageOrderValue, &row.UniqueCustomers); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultScan, "failed to scan country/city row")
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MenuItems returns sales performance per menu item.
func (r *Runner) MenuItems(ctx context.Context, p catalog.Params) ([]MenuItemRow, error) {
	rows, err := r.query(ctx, catalog.QueryMenuItems, p)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]MenuItemRow, 0)
	for rows.Next() {
		var row MenuItemRow
		if err := rows.Scan(&row.MenuItemName, &row.MenuType, &row.TotalQuantitySold, &row.TotalRevenue, &row.AveragePrice, &row.TotalOrders); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultScan, "failed to scan menu item row")
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// LoyaltyRanking returns customers ranked by lifetime value. Customers with
// no orders are kept with TotalOrders 0 and a null average order size.
func (r *Runner) LoyaltyRanking(ctx context.Context, p catalog.Params) ([]LoyaltyRow, error) {
	rows, err := r.query(ctx, catalog.QueryLoyaltyRanking, p)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LoyaltyRow, 0)
	for rows.Next() {
		var row LoyaltyRow
		if err := rows.Scan(&row.CustomerID, &row.CustomerName, &row.City, &row.Country, &row.LifetimeValue, &row.TotalOrders, &row.AverageOrderSize, &row.LocationsVisited); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultScan, "failed to scan loyalty row")
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// BrandReviews returns sales and keyword-matched review sentiment per truck
// brand.
func (r *Runner) BrandReviews(ctx context.Context, p catalog.Params) ([]BrandReviewsRow, error) {
	rows, err := r.query(ctx, catalog.QueryBrandReviews, p)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]BrandReviewsRow, 0)
	for rows.Next() {
		var row BrandReviewsRow
		if err := rows.Scan(&row.TruckBrandName, &row.TotalOrders, &row.TotalRevenue, &row.AverageOrderValue, &row.TotalReviews, &row.PositiveReviews, &row.NegativeReviews); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultScan, "failed to scan brand reviews row")
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *Runner) query(ctx context.Context, name string, p catalog.Params) (*sql.Rows, error) {
	def, err := r.reg.Get(name)
	if err != nil {
		return nil, err
	}
	bound, err := def.Bind(p)
	if err != nil {
		return nil, err
	}

	r.log.Debug("running catalog query",
		zap.String("query", name),
		zap.String("params", p.CacheKey()),
	)

	rows, err := r.db.QueryContext(ctx, bound.SQL, bound.Args...)
	if err != nil {
		return nil, errors.QueryError(fmt.Sprintf("query %q failed", name), bound.SQL, err)
	}
	return rows, nil
}

func (r *Runner) runGeneric(ctx context.Context, name string, p catalog.Params) (*Result, error) {
	rows, err := r.query(ctx, name, p)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeResultScan, "failed to read result columns")
	}

	result := &Result{Query: name, Columns: cols, Rows: make([][]interface{}, 0)}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultScan, "failed to scan result row")
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	return result, rows.Err()
}

// DateSpan returns the MIN and MAX order date in the orders view. The query
// command uses it to explain empty results caused by a date-range default
// that misses the data.
func (r *Runner) DateSpan(ctx context.Context) (time.Time, time.Time, error) {
	q := "SELECT MIN(DATE), MAX(DATE) FROM " + catalog.OrdersView
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return time.Time{}, time.Time{}, errors.QueryError("date span probe failed", q, err)
	}
	defer rows.Close()

	var min, max sql.NullTime
	if rows.Next() {
		if err := rows.Scan(&min, &max); err != nil {
			return time.Time{}, time.Time{}, errors.Wrap(err, errors.ErrCodeResultScan, "failed to scan date span")
		}
	}
	if err := rows.Err(); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !min.Valid || !max.Valid {
		return time.Time{}, time.Time{}, errors.New(errors.ErrCodeValidationFailed,
			fmt.Sprintf("%s contains no rows", catalog.OrdersView)).AsRecoverable()
	}
	return min.Time, max.Time, nil
}

// ViewRowCount returns the row count of a source view. The validate command
// uses it as the first-line check that a view exists and is readable.
func (r *Runner) ViewRowCount(ctx context.Context, view string) (int64, error) {
	q := "SELECT COUNT(*) FROM " + view
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return 0, errors.QueryError(fmt.Sprintf("count of %s failed", view), q, err)
	}
	defer rows.Close()

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, errors.Wrap(err, errors.ErrCodeResultScan, "failed to scan row count")
		}
	}
	return count, rows.Err()
}

// DescribeView returns the column names and types of a source view.
func (r *Runner) DescribeView(ctx context.Context, view string) ([]ColumnInfo, error) {
	q := "DESCRIBE VIEW " + view
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.QueryError(fmt.Sprintf("describe of %s failed", view), q, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeResultScan, "failed to read describe columns")
	}

	var info []ColumnInfo
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultScan, "failed to scan describe row")
		}
		// DESCRIBE puts the column name first and its type second.
		ci := ColumnInfo{}
		if len(values) > 0 {
			ci.Name = asString(values[0])
		}
		if len(values) > 1 {
			ci.Type = asString(values[1])
		}
		info = append(info, ci)
	}
	return info, rows.Err()
}

// OrderTotalViolations counts orders where ORDER_TOTAL does not equal
// QUANTITY * UNIT_PRICE. The source data is expected to hold this
// invariant but nothing upstream enforces it.
func (r *Runner) OrderTotalViolations(ctx context.Context) (int64, error) {
	q := "SELECT COUNT(*) FROM " + catalog.OrdersView + " WHERE ORDER_TOTAL <> QUANTITY * UNIT_PRICE"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return 0, errors.QueryError("order total consistency check failed", q, err)
	}
	defer rows.Close()

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, errors.Wrap(err, errors.ErrCodeResultScan, "failed to scan violation count")
		}
	}
	return count, rows.Err()
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
