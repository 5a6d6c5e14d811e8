package reports

import (
	"context"
	"errors"

	"dwhreports/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownReport is returned for a name that is not in the catalogue.
	ErrUnknownReport = errors.New("unknown report")
	// ErrSchemaMismatch is returned when a contract table or column is absent.
	ErrSchemaMismatch = errors.New("warehouse schema mismatch")
)

const (
	// RouteMinOrders is the HAVING threshold of the worst routes report.
	RouteMinOrders = 10
	// TopStatesLimit caps the purchase frequency report.
	TopStatesLimit = 20
)

// Warehouse is a read-only star-schema store that can answer every report.
// Implementations return either the full result or an error, never a
// truncated result.
type Warehouse interface {
	TotalOrders(ctx context.Context) (int64, error)
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
	AverageInstallments(ctx context.Context) (float64, error)
	DelayedOrders(ctx context.Context) (int64, error)
	PaymentDistribution(ctx context.Context) ([]models.PaymentMethodCount, error)
	MonthlyOrders(ctx context.Context) ([]models.MonthlyOrders, error)
	PeakHours(ctx context.Context) ([]models.HourlyOrders, error)
	SeasonOrders(ctx context.Context) ([]models.SeasonOrders, error)
	DelayByFeedback(ctx context.Context) ([]models.FeedbackDelay, error)
	WorstRoutes(ctx context.Context) ([]models.RouteTraffic, error)
	CategoryPayments(ctx context.Context) ([]models.CategoryPayment, error)
	TopStates(ctx context.Context) ([]models.StatePurchases, error)

	// Version identifies the current warehouse contents for caching.
	Version(ctx context.Context) (string, error)
	VerifySchema(ctx context.Context) error
	Close() error
}

// Columns is the schema contract checked by VerifySchema, table by table.
var Columns = map[string][]string{
	"fact_order_items": {
		"order_id", "payment_id", "product_id", "seller_id", "user_id", "feedback_id",
		"order_date_key", "order_time_key", "delivered_date_key", "estimated_delivery_date_key",
		"payment_value", "quantity", "delivery_delay_days", "shipping_days", "user_state",
	},
	"dim_dates":     {"date_key", "year", "month", "season"},
	"dim_payments":  {"payment_id", "payment_type"},
	"dim_products":  {"product_id", "product_category"},
	"dim_sellers":   {"seller_id", "seller_state"},
	"dim_users":     {"user_id", "user_state"},
	"dim_feedbacks": {"feedback_id", "feedback_score"},
}

// ContractTables returns the keys of Columns in a stable order.
func ContractTables() []string {
	return []string{
		"fact_order_items", "dim_dates", "dim_payments", "dim_products",
		"dim_sellers", "dim_users", "dim_feedbacks",
	}
}
