package clickhouse

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"dwhreports/internal/reports"
	"dwhreports/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newTestClient() (*Client, *fakeConn) {
	conn := &fakeConn{results: make(map[string][][]any)}
	return New(conn, "dwh"), conn
}

// stub registers rows for a query template as the client renders it.
func stub(c *Client, conn *fakeConn, query string, rows ...[]any) {
	conn.results[c.render(query)] = rows
}

func sampleType(t columnType) string {
	base := map[columnKind]string{
		kindString:  "String",
		kindInteger: "Int64",
		kindNumeric: "Decimal(14, 2)",
	}[t.kind]
	if t.nullable {
		return "Nullable(" + base + ")"
	}
	return base
}

func fullSchema() map[string]map[string]string {
	present := make(map[string]map[string]string)
	for table, cols := range columnTypes {
		present[table] = make(map[string]string)
		for name, typ := range cols {
			present[table][name] = sampleType(typ)
		}
	}
	return present
}

func schemaRows(present map[string]map[string]string) [][]any {
	var rows [][]any
	for table, cols := range present {
		for name, typ := range cols {
			rows = append(rows, []any{table, name, typ})
		}
	}
	return rows
}

func TestRenderQualifiesTables(t *testing.T) {
	c := New(nil, "dwh")

	q := c.render(queryWorstRoutes)
	assert.NotContains(t, q, "{db}")
	assert.Contains(t, q, "FROM dwh.fact_order_items AS f")
	assert.Contains(t, q, "INNER JOIN dwh.dim_sellers AS s")
	assert.Contains(t, q, "INNER JOIN dwh.dim_users AS u")
}

func TestQueriesCarryReportRules(t *testing.T) {
	assert.Contains(t, queryWorstRoutes, "HAVING count(f.order_id) >= 10")
	assert.Contains(t, queryWorstRoutes, "average_delivery_delay DESC NULLS LAST")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(queryTopStates), "LIMIT 20"))
	assert.Contains(t, queryPaymentDistribution, "WHEN p.payment_type = 'blipay' THEN 'Blipay'")
	assert.Contains(t, querySeasonOrders, "CASE season WHEN 'Spring' THEN 1")
	assert.Contains(t, queryCategoryPayments, "pr.product_category != ''")
	assert.Contains(t, queryPeakHours, "f.order_time_key IS NOT NULL")
}

func TestColumnTypesCoverContract(t *testing.T) {
	require.Len(t, columnTypes, len(reports.Columns))
	for table, cols := range reports.Columns {
		require.Contains(t, columnTypes, table)
		assert.Len(t, columnTypes[table], len(cols), table)
		for _, col := range cols {
			assert.Contains(t, columnTypes[table], col, table)
		}
	}
}

func TestScalarReports(t *testing.T) {
	c, conn := newTestClient()
	stub(c, conn, queryTotalOrders, []any{uint64(99441)})
	stub(c, conn, queryTotalRevenue, []any{"16008872.12"})
	stub(c, conn, queryAverageInstallments, []any{2.93})
	stub(c, conn, queryDelayedOrders, []any{uint64(7827)})

	m, err := reports.FetchKeyMetrics(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, int64(99441), m.TotalOrders)
	assert.Equal(t, "16008872.12", m.TotalRevenue.StringFixed(2))
	assert.InDelta(t, 2.93, m.AverageInstallments, 1e-9)
	assert.Equal(t, int64(7827), m.DelayedOrders)
}

func TestKeyMetricsOnEmptyWarehouse(t *testing.T) {
	c, conn := newTestClient()
	stub(c, conn, queryTotalOrders, []any{uint64(0)})
	stub(c, conn, queryTotalRevenue, []any{"0"})
	stub(c, conn, queryAverageInstallments, []any{math.NaN()})
	stub(c, conn, queryDelayedOrders, []any{uint64(0)})

	m, err := reports.FetchKeyMetrics(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.AverageInstallments)
	assert.True(t, m.TotalRevenue.IsZero())

	_, err = json.Marshal(m)
	assert.NoError(t, err)
	assert.Contains(t, queryAverageInstallments, "if(count() = 0, 0,")
}

func TestRowReports(t *testing.T) {
	c, conn := newTestClient()
	ctx := context.Background()

	stub(c, conn, queryPaymentDistribution,
		[]any{"Blipay", uint64(1)},
		[]any{"Credit Card", uint64(3)},
	)
	payments, err := c.PaymentDistribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.PaymentMethodCount{
		{PaymentMethod: "Blipay", Count: 1, Percentage: 25},
		{PaymentMethod: "Credit Card", Count: 3, Percentage: 75},
	}, payments)

	stub(c, conn, queryMonthlyOrders, []any{int32(2016), int32(9), uint64(4)})
	monthly, err := c.MonthlyOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.MonthlyOrders{{Year: 2016, Month: 9, YearMonth: "2016-09", OrderCount: 4}}, monthly)

	stub(c, conn, queryPeakHours, []any{int64(14), uint64(2)})
	hours, err := c.PeakHours(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.HourlyOrders{{OrderHour: 14, OrderCount: 2}}, hours)

	stub(c, conn, querySeasonOrders, []any{"Spring", uint64(7)})
	seasons, err := c.SeasonOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.SeasonOrders{{Season: "Spring", TotalOrders: 7}}, seasons)

	stub(c, conn, queryDelayByFeedback, []any{int32(1), 7.5})
	feedback, err := c.DelayByFeedback(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.FeedbackDelay{{FeedbackScore: 1, AvgDeliveryDelayDays: 7.5}}, feedback)

	stub(c, conn, queryCategoryPayments, []any{"toys", "Blipay", uint64(2)})
	categories, err := c.CategoryPayments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CategoryPayment{{ProductCategory: "toys", PaymentMethod: "Blipay", TotalOrders: 2}}, categories)

	stub(c, conn, queryTopStates, []any{"SP", uint64(41746)})
	states, err := c.TopStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.StatePurchases{{State: "SP", PurchaseFrequency: 41746}}, states)
}

func TestWorstRoutesScansNullableAverages(t *testing.T) {
	c, conn := newTestClient()
	stub(c, conn, queryWorstRoutes,
		[]any{"SP", "RJ", uint64(12), uint64(3), ptr(1.25), ptr(4.0), 25.0},
		[]any{"AC", "RJ", uint64(10), uint64(0), (*float64)(nil), (*float64)(nil), 0.0},
	)

	rows, err := c.WorstRoutes(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(12), rows[0].TotalOrders)
	assert.Equal(t, int64(3), rows[0].TotalOrdersDelayed)
	require.NotNil(t, rows[0].AverageDeliveryDelay)
	assert.InDelta(t, 1.25, *rows[0].AverageDeliveryDelay, 1e-9)
	assert.Nil(t, rows[1].AverageDeliveryDelay)
	assert.Nil(t, rows[1].AvgShippingDays)
}

func TestScanTypeMismatchFailsWithoutRows(t *testing.T) {
	c, conn := newTestClient()
	// an uncast UInt16 year column
	stub(c, conn, queryMonthlyOrders, []any{uint16(2016), int32(9), uint64(4)})

	rows, err := c.MonthlyOrders(context.Background())
	assert.Error(t, err)
	assert.Nil(t, rows)
	assert.Contains(t, queryMonthlyOrders, "toInt32(d.year)")
}

func TestVersion(t *testing.T) {
	c, conn := newTestClient()
	stub(c, conn, queryVersion, []any{"1-20210115-0-0-20210125-20210120-5-3-1-10.00"})

	v, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1-20210115-0-0-20210125-20210120-5-3-1-10.00", v)
	for _, col := range []string{"delivered_date_key", "estimated_delivery_date_key", "delivery_delay_days", "shipping_days", "payment_value"} {
		assert.Contains(t, queryVersion, col)
	}
}

func TestVerifySchema(t *testing.T) {
	c, conn := newTestClient()
	conn.results[querySchemaColumns] = schemaRows(fullSchema())
	assert.NoError(t, c.VerifySchema(context.Background()))

	present := fullSchema()
	present["dim_dates"]["year"] = "UInt16"
	conn.results[querySchemaColumns] = schemaRows(present)
	assert.NoError(t, c.VerifySchema(context.Background()))

	present["dim_dates"]["season"] = "Date"
	conn.results[querySchemaColumns] = schemaRows(present)
	err := c.VerifySchema(context.Background())
	assert.ErrorIs(t, err, reports.ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "dim_dates.season")
}

func TestCheckColumns(t *testing.T) {
	t.Run("complete schema", func(t *testing.T) {
		assert.NoError(t, checkColumns(fullSchema()))
	})

	t.Run("missing table", func(t *testing.T) {
		present := fullSchema()
		delete(present, "dim_dates")

		err := checkColumns(present)
		assert.ErrorIs(t, err, reports.ErrSchemaMismatch)
		assert.Contains(t, err.Error(), "dim_dates")
	})

	t.Run("missing column", func(t *testing.T) {
		present := fullSchema()
		delete(present["fact_order_items"], "shipping_days")

		err := checkColumns(present)
		assert.ErrorIs(t, err, reports.ErrSchemaMismatch)
		assert.Contains(t, err.Error(), "fact_order_items.shipping_days")
	})

	t.Run("extra columns are fine", func(t *testing.T) {
		present := fullSchema()
		present["dim_users"]["user_city"] = "String"
		present["etl_runs"] = map[string]string{"id": "UInt64"}

		assert.NoError(t, checkColumns(present))
	})

	t.Run("wrappers and widths", func(t *testing.T) {
		present := fullSchema()
		present["dim_users"]["user_state"] = "LowCardinality(String)"
		present["dim_products"]["product_category"] = "LowCardinality(Nullable(String))"
		present["fact_order_items"]["quantity"] = "UInt8"
		present["fact_order_items"]["payment_value"] = "Float64"
		present["dim_dates"]["month"] = "UInt8"

		assert.NoError(t, checkColumns(present))
	})

	wrong := []struct {
		table, column, typ string
	}{
		{"fact_order_items", "quantity", "String"},
		{"fact_order_items", "payment_value", "String"},
		{"fact_order_items", "order_date_key", "Date"},
		{"dim_sellers", "seller_state", "Nullable(String)"},
		{"fact_order_items", "quantity", "Nullable(Int32)"},
		{"dim_feedbacks", "feedback_score", "Nullable(Float64)"},
	}
	for _, w := range wrong {
		t.Run(w.table+"."+w.column+" "+w.typ, func(t *testing.T) {
			present := fullSchema()
			present[w.table][w.column] = w.typ

			err := checkColumns(present)
			assert.ErrorIs(t, err, reports.ErrSchemaMismatch)
			assert.Contains(t, err.Error(), w.table+"."+w.column)
		})
	}
}
