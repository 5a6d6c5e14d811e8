package clickhouse

import (
	"context"
	"fmt"
	"math"
	"strings"

	"dwhreports/internal/reports"
	"dwhreports/models"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"
)

// Query templates; {db} is replaced with the configured database.
var (
	queryTotalOrders = `
		SELECT uniqExact(f.order_id)
		FROM {db}.fact_order_items AS f`

	queryTotalRevenue = `
		SELECT toString(sum(f.payment_value))
		FROM {db}.fact_order_items AS f`

	// avg over no rows is nan, not NULL
	queryAverageInstallments = `
		SELECT if(count() = 0, 0, toFloat64(avg(f.quantity)))
		FROM {db}.fact_order_items AS f`

	queryDelayedOrders = `
		SELECT uniqExact(f.order_id)
		FROM {db}.fact_order_items AS f
		WHERE f.delivered_date_key IS NOT NULL
		  AND f.estimated_delivery_date_key IS NOT NULL
		  AND f.delivered_date_key > f.estimated_delivery_date_key`

	queryPaymentDistribution = `
		SELECT ` + reports.PaymentMethodCase("p.payment_type") + ` AS payment_method,
		       count() AS cnt
		FROM {db}.fact_order_items AS f
		INNER JOIN {db}.dim_payments AS p ON p.payment_id = f.payment_id
		GROUP BY payment_method
		ORDER BY payment_method ASC`

	queryMonthlyOrders = `
		SELECT toInt32(d.year) AS year, toInt32(d.month) AS month, count(f.order_id) AS order_count
		FROM {db}.fact_order_items AS f
		INNER JOIN {db}.dim_dates AS d ON d.date_key = f.order_date_key
		GROUP BY d.year, d.month
		ORDER BY d.year ASC, d.month ASC`

	queryPeakHours = `
		SELECT toInt64(intDiv(assumeNotNull(f.order_time_key), 10000)) AS order_hour,
		       count(f.order_id) AS order_count
		FROM {db}.fact_order_items AS f
		WHERE f.order_time_key IS NOT NULL
		GROUP BY order_hour
		ORDER BY order_hour ASC`

	querySeasonOrders = `
		SELECT toString(d.season) AS season, count(f.order_id) AS total_orders
		FROM {db}.fact_order_items AS f
		INNER JOIN {db}.dim_dates AS d ON d.date_key = f.order_date_key
		GROUP BY season
		ORDER BY ` + reports.SeasonRankCase("season") + ` ASC, season ASC`

	queryDelayByFeedback = `
		SELECT toInt32(assumeNotNull(fb.feedback_score)) AS feedback_score,
		       avg(assumeNotNull(f.delivery_delay_days)) AS avg_delivery_delay_days
		FROM {db}.fact_order_items AS f
		INNER JOIN {db}.dim_feedbacks AS fb ON fb.feedback_id = f.feedback_id
		WHERE fb.feedback_score IS NOT NULL AND f.delivery_delay_days IS NOT NULL
		GROUP BY feedback_score
		ORDER BY feedback_score ASC`

	queryWorstRoutes = `
		SELECT toString(s.seller_state) AS seller_state,
		       toString(u.user_state) AS user_state,
		       count(f.order_id) AS total_orders,
		       countIf(f.delivery_delay_days > 0) AS total_orders_delayed,
		       toNullable(avg(f.delivery_delay_days)) AS average_delivery_delay,
		       toNullable(avg(f.shipping_days)) AS avg_shipping_days,
		       countIf(f.delivery_delay_days > 0) * 100.0 / count(f.order_id) AS delay_percentage
		FROM {db}.fact_order_items AS f
		INNER JOIN {db}.dim_sellers AS s ON s.seller_id = f.seller_id
		INNER JOIN {db}.dim_users AS u ON u.user_id = f.user_id
		GROUP BY seller_state, user_state
		HAVING count(f.order_id) >= ` + fmt.Sprint(reports.RouteMinOrders) + `
		ORDER BY total_orders DESC, average_delivery_delay DESC NULLS LAST, seller_state ASC, user_state ASC`

	queryCategoryPayments = `
		SELECT toString(assumeNotNull(pr.product_category)) AS product_category,
		       ` + reports.PaymentMethodCase("p.payment_type") + ` AS payment_method,
		       count(f.order_id) AS total_orders
		FROM {db}.fact_order_items AS f
		INNER JOIN {db}.dim_products AS pr ON pr.product_id = f.product_id
		INNER JOIN {db}.dim_payments AS p ON p.payment_id = f.payment_id
		WHERE pr.product_category IS NOT NULL AND pr.product_category != ''
		GROUP BY product_category, payment_method
		ORDER BY product_category ASC, total_orders DESC, payment_method ASC`

	queryTopStates = `
		SELECT toString(f.user_state) AS state, count(f.order_id) AS purchase_frequency
		FROM {db}.fact_order_items AS f
		GROUP BY state
		ORDER BY purchase_frequency DESC, state ASC
		LIMIT ` + fmt.Sprint(reports.TopStatesLimit)

	// fingerprint of the fact rows, see Version
	queryVersion = `
		SELECT concat(
		       toString(count()), '-',
		       toString(ifNull(max(f.order_date_key), 0)), '-',
		       toString(count(f.feedback_id)), '-',
		       toString(ifNull(sum(f.order_time_key), 0)), '-',
		       toString(ifNull(sum(f.delivered_date_key), 0)), '-',
		       toString(ifNull(sum(f.estimated_delivery_date_key), 0)), '-',
		       toString(ifNull(sum(f.delivery_delay_days), 0)), '-',
		       toString(ifNull(sum(f.shipping_days), 0)), '-',
		       toString(sum(f.quantity)), '-',
		       toString(sum(f.payment_value)))
		FROM {db}.fact_order_items AS f`

	querySchemaColumns = `
		SELECT table, name, type
		FROM system.columns
		WHERE database = ?`
)

func (c *Client) render(query string) string {
	return strings.ReplaceAll(query, "{db}", c.database)
}

// collect runs query and scans every row with scan. On any error the rows
// gathered so far are dropped.
func collect[T any](ctx context.Context, c *Client, query string, scan func(driver.Rows) (T, error)) ([]T, error) {
	rows, err := c.conn.Query(ctx, c.render(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) TotalOrders(ctx context.Context) (int64, error) {
	var n uint64
	if err := c.conn.QueryRow(ctx, c.render(queryTotalOrders)).Scan(&n); err != nil {
		return 0, fmt.Errorf("total orders: %w", err)
	}
	return int64(n), nil
}

func (c *Client) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	var raw string
	if err := c.conn.QueryRow(ctx, c.render(queryTotalRevenue)).Scan(&raw); err != nil {
		return decimal.Zero, fmt.Errorf("total revenue: %w", err)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("total revenue: %w", err)
	}
	return v, nil
}

func (c *Client) AverageInstallments(ctx context.Context) (float64, error) {
	var avg float64
	if err := c.conn.QueryRow(ctx, c.render(queryAverageInstallments)).Scan(&avg); err != nil {
		return 0, fmt.Errorf("average installments: %w", err)
	}
	// nan does not survive json encoding
	if math.IsNaN(avg) {
		return 0, nil
	}
	return avg, nil
}

func (c *Client) DelayedOrders(ctx context.Context) (int64, error) {
	var n uint64
	if err := c.conn.QueryRow(ctx, c.render(queryDelayedOrders)).Scan(&n); err != nil {
		return 0, fmt.Errorf("delayed orders: %w", err)
	}
	return int64(n), nil
}

func (c *Client) PaymentDistribution(ctx context.Context) ([]models.PaymentMethodCount, error) {
	rows, err := collect(ctx, c, queryPaymentDistribution, func(r driver.Rows) (models.PaymentMethodCount, error) {
		var (
			row models.PaymentMethodCount
			n   uint64
		)
		err := r.Scan(&row.PaymentMethod, &n)
		row.Count = int64(n)
		return row, err
	})
	if err != nil {
		return nil, fmt.Errorf("payment distribution: %w", err)
	}
	return reports.WithPercentages(rows), nil
}

func (c *Client) MonthlyOrders(ctx context.Context) ([]models.MonthlyOrders, error) {
	rows, err := collect(ctx, c, queryMonthlyOrders, func(r driver.Rows) (models.MonthlyOrders, error) {
		var (
			year, month int32
			n           uint64
		)
		err := r.Scan(&year, &month, &n)
		return models.MonthlyOrders{Year: int(year), Month: int(month), OrderCount: int64(n)}, err
	})
	if err != nil {
		return nil, fmt.Errorf("monthly orders: %w", err)
	}
	return reports.WithYearMonth(rows), nil
}

// PeakHours counts line items per hour of day. Rows without an order time
// are left out, so the counts can sum to less than the number of line items.
func (c *Client) PeakHours(ctx context.Context) ([]models.HourlyOrders, error) {
	rows, err := collect(ctx, c, queryPeakHours, func(r driver.Rows) (models.HourlyOrders, error) {
		var (
			hour int64
			n    uint64
		)
		err := r.Scan(&hour, &n)
		return models.HourlyOrders{OrderHour: int(hour), OrderCount: int64(n)}, err
	})
	if err != nil {
		return nil, fmt.Errorf("peak hours: %w", err)
	}
	return rows, nil
}

func (c *Client) SeasonOrders(ctx context.Context) ([]models.SeasonOrders, error) {
	rows, err := collect(ctx, c, querySeasonOrders, func(r driver.Rows) (models.SeasonOrders, error) {
		var (
			row models.SeasonOrders
			n   uint64
		)
		err := r.Scan(&row.Season, &n)
		row.TotalOrders = int64(n)
		return row, err
	})
	if err != nil {
		return nil, fmt.Errorf("season orders: %w", err)
	}
	return rows, nil
}

func (c *Client) DelayByFeedback(ctx context.Context) ([]models.FeedbackDelay, error) {
	rows, err := collect(ctx, c, queryDelayByFeedback, func(r driver.Rows) (models.FeedbackDelay, error) {
		var row models.FeedbackDelay
		err := r.Scan(&row.FeedbackScore, &row.AvgDeliveryDelayDays)
		return row, err
	})
	if err != nil {
		return nil, fmt.Errorf("delay by feedback: %w", err)
	}
	return rows, nil
}

func (c *Client) WorstRoutes(ctx context.Context) ([]models.RouteTraffic, error) {
	rows, err := collect(ctx, c, queryWorstRoutes, func(r driver.Rows) (models.RouteTraffic, error) {
		var (
			row            models.RouteTraffic
			total, delayed uint64
		)
		err := r.Scan(
			&row.SellerState,
			&row.UserState,
			&total,
			&delayed,
			&row.AverageDeliveryDelay,
			&row.AvgShippingDays,
			&row.DelayPercentage,
		)
		row.TotalOrders = int64(total)
		row.TotalOrdersDelayed = int64(delayed)
		return row, err
	})
	if err != nil {
		return nil, fmt.Errorf("worst routes: %w", err)
	}
	return rows, nil
}

func (c *Client) CategoryPayments(ctx context.Context) ([]models.CategoryPayment, error) {
	rows, err := collect(ctx, c, queryCategoryPayments, func(r driver.Rows) (models.CategoryPayment, error) {
		var (
			row models.CategoryPayment
			n   uint64
		)
		err := r.Scan(&row.ProductCategory, &row.PaymentMethod, &n)
		row.TotalOrders = int64(n)
		return row, err
	})
	if err != nil {
		return nil, fmt.Errorf("category payments: %w", err)
	}
	return rows, nil
}

func (c *Client) TopStates(ctx context.Context) ([]models.StatePurchases, error) {
	rows, err := collect(ctx, c, queryTopStates, func(r driver.Rows) (models.StatePurchases, error) {
		var (
			row models.StatePurchases
			n   uint64
		)
		err := r.Scan(&row.State, &n)
		row.PurchaseFrequency = int64(n)
		return row, err
	})
	if err != nil {
		return nil, fmt.Errorf("top states: %w", err)
	}
	return rows, nil
}

// Version fingerprints the fact table so that updates to delivery keys,
// delays, quantities or payments of loaded rows invalidate cached reports.
func (c *Client) Version(ctx context.Context) (string, error) {
	var version string
	if err := c.conn.QueryRow(ctx, c.render(queryVersion)).Scan(&version); err != nil {
		return "", fmt.Errorf("warehouse version: %w", err)
	}
	return version, nil
}

// VerifySchema compares system.columns names and types with the schema
// contract.
func (c *Client) VerifySchema(ctx context.Context) error {
	rows, err := c.conn.Query(ctx, querySchemaColumns, c.database)
	if err != nil {
		return fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	present := make(map[string]map[string]string)
	for rows.Next() {
		var table, column, typ string
		if err := rows.Scan(&table, &column, &typ); err != nil {
			return fmt.Errorf("list columns: %w", err)
		}
		if present[table] == nil {
			present[table] = make(map[string]string)
		}
		present[table][column] = typ
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list columns: %w", err)
	}

	return checkColumns(present)
}

func checkColumns(present map[string]map[string]string) error {
	for _, table := range reports.ContractTables() {
		cols, ok := present[table]
		if !ok {
			return fmt.Errorf("%w: table %s not found", reports.ErrSchemaMismatch, table)
		}
		for _, column := range reports.Columns[table] {
			typ, ok := cols[column]
			if !ok {
				return fmt.Errorf("%w: column %s.%s not found", reports.ErrSchemaMismatch, table, column)
			}
			if err := checkType(table, column, typ); err != nil {
				return err
			}
		}
	}
	return nil
}

var _ reports.Warehouse = (*Client)(nil)
