package reports

import (
	"fmt"

	"dwhreports/models"
)

// WithPercentages fills Percentage as each method's share of all rows.
func WithPercentages(rows []models.PaymentMethodCount) []models.PaymentMethodCount {
	var total int64
	for _, r := range rows {
		total += r.Count
	}
	for i := range rows {
		if total > 0 {
			rows[i].Percentage = float64(rows[i].Count) * 100 / float64(total)
		}
	}
	return rows
}

// WithYearMonth fills the YYYY-MM label of each row.
func WithYearMonth(rows []models.MonthlyOrders) []models.MonthlyOrders {
	for i := range rows {
		rows[i].YearMonth = fmt.Sprintf("%04d-%02d", rows[i].Year, rows[i].Month)
	}
	return rows
}
