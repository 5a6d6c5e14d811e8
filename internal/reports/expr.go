package reports

import (
	"fmt"
	"strings"

	"dwhreports/models"
)

// PaymentMethodCase renders the payment bucketing as a SQL CASE over column.
// A NULL column falls through to the ELSE branch.
func PaymentMethodCase(column string) string {
	var b strings.Builder
	b.WriteString("CASE")
	for _, m := range models.PaymentTypeMethods {
		fmt.Fprintf(&b, " WHEN %s = '%s' THEN '%s'", column, m.Type, m.Method)
	}
	fmt.Fprintf(&b, " ELSE '%s' END", models.PaymentMethodOthers)
	return b.String()
}

// SeasonRankCase renders models.SeasonRank as a SQL CASE over column.
func SeasonRankCase(column string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CASE %s", column)
	for _, s := range models.SeasonOrder {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", s, models.SeasonRank(s))
	}
	fmt.Fprintf(&b, " ELSE %d END", len(models.SeasonOrder)+1)
	return b.String()
}
