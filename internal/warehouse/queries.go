package warehouse

import (
	"context"
	"fmt"

	"dwhreports/internal/reports"
	"dwhreports/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	joinDates     = "JOIN dim_dates AS d ON d.date_key = f.order_date_key"
	joinPayments  = "JOIN dim_payments AS p ON p.payment_id = f.payment_id"
	joinProducts  = "JOIN dim_products AS pr ON pr.product_id = f.product_id"
	joinSellers   = "JOIN dim_sellers AS s ON s.seller_id = f.seller_id"
	joinUsers     = "JOIN dim_users AS u ON u.user_id = f.user_id"
	joinFeedbacks = "JOIN dim_feedbacks AS fb ON fb.feedback_id = f.feedback_id"

	delayedCount = "SUM(CASE WHEN f.delivery_delay_days > 0 THEN 1 ELSE 0 END)"

	// postgres sorts NULL first on DESC; mysql and sqlite sort it last
	avgDelayNullsLast = "CASE WHEN AVG(f.delivery_delay_days) IS NULL THEN 1 ELSE 0 END ASC"
)

var paymentMethod = reports.PaymentMethodCase("p.payment_type")

func (s *Store) fact(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table("fact_order_items AS f")
}

// hourOf extracts the hour from an HHMMSS time key column.
func (s *Store) hourOf(column string) string {
	if s.db.Dialector.Name() == "mysql" {
		return column + " DIV 10000"
	}
	// postgres and sqlite divide integers without a remainder
	return column + " / 10000"
}

func (s *Store) TotalOrders(ctx context.Context) (int64, error) {
	var r struct{ TotalOrders int64 }
	err := s.fact(ctx).
		Select("COUNT(DISTINCT f.order_id) AS total_orders").
		Scan(&r).Error
	if err != nil {
		return 0, fmt.Errorf("total orders: %w", err)
	}
	return r.TotalOrders, nil
}

func (s *Store) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	var r struct {
		TotalRevenue decimal.Decimal `gorm:"type:decimal(14,2)"`
	}
	err := s.fact(ctx).
		Select("COALESCE(SUM(f.payment_value), 0) AS total_revenue").
		Scan(&r).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("total revenue: %w", err)
	}
	return r.TotalRevenue, nil
}

func (s *Store) AverageInstallments(ctx context.Context) (float64, error) {
	var r struct{ AverageInstallments float64 }
	err := s.fact(ctx).
		Select("COALESCE(AVG(f.quantity), 0) AS average_installments").
		Scan(&r).Error
	if err != nil {
		return 0, fmt.Errorf("average installments: %w", err)
	}
	return r.AverageInstallments, nil
}

func (s *Store) DelayedOrders(ctx context.Context) (int64, error) {
	var r struct{ DelayedOrders int64 }
	err := s.fact(ctx).
		Select("COUNT(DISTINCT f.order_id) AS delayed_orders").
		Where("f.delivered_date_key IS NOT NULL AND f.estimated_delivery_date_key IS NOT NULL").
		Where("f.delivered_date_key > f.estimated_delivery_date_key").
		Scan(&r).Error
	if err != nil {
		return 0, fmt.Errorf("delayed orders: %w", err)
	}
	return r.DelayedOrders, nil
}

func (s *Store) PaymentDistribution(ctx context.Context) ([]models.PaymentMethodCount, error) {
	var rows []models.PaymentMethodCount
	err := s.fact(ctx).
		Joins(joinPayments).
		Select(paymentMethod + " AS payment_method, COUNT(*) AS count").
		Group(paymentMethod).
		Order("payment_method ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("payment distribution: %w", err)
	}
	return reports.WithPercentages(rows), nil
}

func (s *Store) MonthlyOrders(ctx context.Context) ([]models.MonthlyOrders, error) {
	var rows []models.MonthlyOrders
	err := s.fact(ctx).
		Joins(joinDates).
		Select("d.year AS year, d.month AS month, COUNT(f.order_id) AS order_count").
		Group("d.year, d.month").
		Order("d.year ASC, d.month ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("monthly orders: %w", err)
	}
	return reports.WithYearMonth(rows), nil
}

// PeakHours counts line items per hour of day. Rows without an order time
// have no hour and are left out, so the counts can sum to less than the
// number of line items.
func (s *Store) PeakHours(ctx context.Context) ([]models.HourlyOrders, error) {
	hour := s.hourOf("f.order_time_key")

	var rows []models.HourlyOrders
	err := s.fact(ctx).
		Select(hour + " AS order_hour, COUNT(f.order_id) AS order_count").
		Where("f.order_time_key IS NOT NULL").
		Group(hour).
		Order("order_hour ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("peak hours: %w", err)
	}
	return rows, nil
}

func (s *Store) SeasonOrders(ctx context.Context) ([]models.SeasonOrders, error) {
	var rows []models.SeasonOrders
	err := s.fact(ctx).
		Joins(joinDates).
		Select("d.season AS season, COUNT(f.order_id) AS total_orders").
		Group("d.season").
		Order(reports.SeasonRankCase("d.season") + " ASC, d.season ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("season orders: %w", err)
	}
	return rows, nil
}

func (s *Store) DelayByFeedback(ctx context.Context) ([]models.FeedbackDelay, error) {
	var rows []models.FeedbackDelay
	err := s.fact(ctx).
		Joins(joinFeedbacks).
		Select("fb.feedback_score AS feedback_score, AVG(f.delivery_delay_days) AS avg_delivery_delay_days").
		Where("fb.feedback_score IS NOT NULL AND f.delivery_delay_days IS NOT NULL").
		Group("fb.feedback_score").
		Order("fb.feedback_score ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("delay by feedback: %w", err)
	}
	return rows, nil
}

func (s *Store) WorstRoutes(ctx context.Context) ([]models.RouteTraffic, error) {
	var rows []models.RouteTraffic
	err := s.fact(ctx).
		Joins(joinSellers).
		Joins(joinUsers).
		Select("s.seller_state AS seller_state, u.user_state AS user_state, " +
			"COUNT(f.order_id) AS total_orders, " +
			delayedCount + " AS total_orders_delayed, " +
			"AVG(f.delivery_delay_days) AS average_delivery_delay, " +
			"AVG(f.shipping_days) AS avg_shipping_days, " +
			delayedCount + " * 100.0 / COUNT(f.order_id) AS delay_percentage").
		Group("s.seller_state, u.user_state").
		Having("COUNT(f.order_id) >= ?", reports.RouteMinOrders).
		Order("total_orders DESC, " + avgDelayNullsLast + ", average_delivery_delay DESC, seller_state ASC, user_state ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("worst routes: %w", err)
	}
	return rows, nil
}

func (s *Store) CategoryPayments(ctx context.Context) ([]models.CategoryPayment, error) {
	var rows []models.CategoryPayment
	err := s.fact(ctx).
		Joins(joinProducts).
		Joins(joinPayments).
		Select("pr.product_category AS product_category, " +
			paymentMethod + " AS payment_method, " +
			"COUNT(f.order_id) AS total_orders").
		Where("pr.product_category IS NOT NULL AND pr.product_category <> ''").
		Group("pr.product_category, " + paymentMethod).
		Order("product_category ASC, total_orders DESC, payment_method ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("category payments: %w", err)
	}
	return rows, nil
}

func (s *Store) TopStates(ctx context.Context) ([]models.StatePurchases, error) {
	var rows []models.StatePurchases
	err := s.fact(ctx).
		Select("f.user_state AS state, COUNT(f.order_id) AS purchase_frequency").
		Group("f.user_state").
		Order("purchase_frequency DESC, state ASC").
		Limit(reports.TopStatesLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("top states: %w", err)
	}
	return rows, nil
}

// Version fingerprints the fact table. Besides inserts and deletes it moves
// whenever a load updates delivery keys, delays, quantities or payments of
// existing rows. Dimension-only edits are not seen and age out with the
// cache TTL.
func (s *Store) Version(ctx context.Context) (string, error) {
	var r struct {
		RowCount     int64
		MaxDateKey   int64
		FeedbackRows int64
		TimeKeys     int64
		Delivered    int64
		Estimated    int64
		Delays       int64
		Shipping     int64
		Quantities   int64
		Payments     decimal.Decimal `gorm:"type:decimal(14,2)"`
	}
	err := s.fact(ctx).
		Select("COUNT(*) AS row_count, " +
			"COALESCE(MAX(f.order_date_key), 0) AS max_date_key, " +
			"COUNT(f.feedback_id) AS feedback_rows, " +
			"COALESCE(SUM(f.order_time_key), 0) AS time_keys, " +
			"COALESCE(SUM(f.delivered_date_key), 0) AS delivered, " +
			"COALESCE(SUM(f.estimated_delivery_date_key), 0) AS estimated, " +
			"COALESCE(SUM(f.delivery_delay_days), 0) AS delays, " +
			"COALESCE(SUM(f.shipping_days), 0) AS shipping, " +
			"COALESCE(SUM(f.quantity), 0) AS quantities, " +
			"COALESCE(SUM(f.payment_value), 0) AS payments").
		Scan(&r).Error
	if err != nil {
		return "", fmt.Errorf("warehouse version: %w", err)
	}
	return fmt.Sprintf("%d-%d-%d-%d-%d-%d-%d-%d-%d-%s",
		r.RowCount, r.MaxDateKey, r.FeedbackRows, r.TimeKeys, r.Delivered, r.Estimated,
		r.Delays, r.Shipping, r.Quantities, r.Payments.StringFixed(2)), nil
}

// VerifySchema checks every contract table and column through the migrator.
func (s *Store) VerifySchema(ctx context.Context) error {
	m := s.db.WithContext(ctx).Migrator()
	for _, table := range reports.ContractTables() {
		if !m.HasTable(table) {
			return fmt.Errorf("%w: table %s not found", reports.ErrSchemaMismatch, table)
		}
		for _, column := range reports.Columns[table] {
			if !m.HasColumn(table, column) {
				return fmt.Errorf("%w: column %s.%s not found", reports.ErrSchemaMismatch, table, column)
			}
		}
	}
	return nil
}

var _ reports.Warehouse = (*Store)(nil)
