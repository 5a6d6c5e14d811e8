package models

import "github.com/shopspring/decimal"

// OrderItem is the fact table: one row per order line item. An OrderID
// repeats across the line items of the same order.
type OrderItem struct {
	OrderID                  string          `gorm:"column:order_id;size:255;index"`
	PaymentID                string          `gorm:"column:payment_id;size:255"`
	ProductID                string          `gorm:"column:product_id;size:255"`
	SellerID                 string          `gorm:"column:seller_id;size:255"`
	UserID                   string          `gorm:"column:user_id;size:255"`
	FeedbackID               *string         `gorm:"column:feedback_id;size:255"`
	OrderDateKey             int64           `gorm:"column:order_date_key"`
	OrderTimeKey             *int64          `gorm:"column:order_time_key"`
	DeliveredDateKey         *int64          `gorm:"column:delivered_date_key"`
	EstimatedDeliveryDateKey *int64          `gorm:"column:estimated_delivery_date_key"`
	PaymentValue             decimal.Decimal `gorm:"column:payment_value;type:decimal(14,2)"`
	Quantity                 int32           `gorm:"column:quantity"`
	DeliveryDelayDays        *int32          `gorm:"column:delivery_delay_days"`
	ShippingDays             *int32          `gorm:"column:shipping_days"`
	UserState                string          `gorm:"column:user_state;size:70"`
	OrderStatus              string          `gorm:"column:order_status;size:20"`
	DeliveryDelayCheck       string          `gorm:"column:delivery_delay_check;size:6"`
}

func (OrderItem) TableName() string { return "fact_order_items" }

type Date struct {
	DateKey int64  `gorm:"column:date_key;primaryKey;autoIncrement:false"`
	Year    int    `gorm:"column:year"`
	Month   int    `gorm:"column:month"`
	Day     int    `gorm:"column:day"`
	Quarter int    `gorm:"column:quarter"`
	Season  string `gorm:"column:season;size:10"`
}

func (Date) TableName() string { return "dim_dates" }

type Time struct {
	TimeKey int64 `gorm:"column:time_key;primaryKey;autoIncrement:false"`
	Hour    int   `gorm:"column:hour"`
	Minute  int   `gorm:"column:minute"`
}

func (Time) TableName() string { return "dim_times" }

// Payment.PaymentType is free text; see NormalizePaymentMethod.
type Payment struct {
	PaymentID   string  `gorm:"column:payment_id;primaryKey;size:255"`
	PaymentType *string `gorm:"column:payment_type;size:32"`
}

func (Payment) TableName() string { return "dim_payments" }

type Product struct {
	ProductID       string  `gorm:"column:product_id;primaryKey;size:255"`
	ProductCategory *string `gorm:"column:product_category;size:255"`
}

func (Product) TableName() string { return "dim_products" }

type Seller struct {
	SellerID    string `gorm:"column:seller_id;primaryKey;size:255"`
	SellerState string `gorm:"column:seller_state;size:70"`
}

func (Seller) TableName() string { return "dim_sellers" }

type User struct {
	UserID    string `gorm:"column:user_id;primaryKey;size:255"`
	UserState string `gorm:"column:user_state;size:70"`
}

func (User) TableName() string { return "dim_users" }

type Feedback struct {
	FeedbackID    string `gorm:"column:feedback_id;primaryKey;size:255"`
	FeedbackScore *int32 `gorm:"column:feedback_score"`
}

func (Feedback) TableName() string { return "dim_feedbacks" }

// Tables lists every table of the star schema, fact first.
func Tables() []interface{} {
	return []interface{}{
		&OrderItem{},
		&Date{},
		&Time{},
		&Payment{},
		&Product{},
		&Seller{},
		&User{},
		&Feedback{},
	}
}
