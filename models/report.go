package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// KeyMetrics bundles the four headline numbers of the dashboard.
type KeyMetrics struct {
	TotalOrders         int64           `json:"total_orders"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	AverageInstallments float64         `json:"average_installments"`
	DelayedOrders       int64           `json:"delayed_orders"`
}

type PaymentMethodCount struct {
	PaymentMethod string  `json:"payment_method"`
	Count         int64   `json:"count"`
	Percentage    float64 `json:"percentage" gorm:"-"`
}

type MonthlyOrders struct {
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	YearMonth  string `json:"year_month" gorm:"-"`
	OrderCount int64  `json:"order_count"`
}

type HourlyOrders struct {
	OrderHour  int   `json:"order_hour"`
	OrderCount int64 `json:"order_count"`
}

type SeasonOrders struct {
	Season      string `json:"season"`
	TotalOrders int64  `json:"total_orders"`
}

type FeedbackDelay struct {
	FeedbackScore        int32   `json:"feedback_score"`
	AvgDeliveryDelayDays float64 `json:"avg_delivery_delay_days"`
}

// RouteTraffic describes one seller-state to user-state route. Averages are
// nil when every contributing value was null.
type RouteTraffic struct {
	SellerState          string   `json:"seller_state"`
	UserState            string   `json:"user_state"`
	TotalOrders          int64    `json:"total_orders"`
	TotalOrdersDelayed   int64    `json:"total_orders_delayed"`
	AverageDeliveryDelay *float64 `json:"average_delivery_delay"`
	AvgShippingDays      *float64 `json:"avg_shipping_days"`
	DelayPercentage      float64  `json:"delay_percentage"`
}

type CategoryPayment struct {
	ProductCategory string `json:"product_category"`
	PaymentMethod   string `json:"payment_method"`
	TotalOrders     int64  `json:"total_orders"`
}

type StatePurchases struct {
	State             string `json:"state"`
	PurchaseFrequency int64  `json:"purchase_frequency"`
}

// ReportRequest asks the worker to run one catalogue report. The reply goes
// to the AMQP ReplyTo queue with the same CorrelationId.
type ReportRequest struct {
	Report string `json:"report"`
}

type ReportResponse struct {
	Report      string    `json:"report"`
	GeneratedAt time.Time `json:"generated_at"`
	Rows        any       `json:"rows,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Snapshot is one scheduled run of the whole catalogue.
type Snapshot struct {
	ID          string            `json:"id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Reports     map[string]any    `json:"reports"`
	Errors      map[string]string `json:"errors,omitempty"`
}
