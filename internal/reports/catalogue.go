package reports

import (
	"context"
	"fmt"
	"time"

	"dwhreports/models"
	"dwhreports/pkg/logger"
)

var log = logger.New("reports")

const (
	TotalOrders         = "total-orders"
	TotalRevenue        = "total-revenue"
	AverageInstallments = "average-installments"
	DelayedOrders       = "delayed-orders"
	KeyMetrics          = "key-metrics"
	PaymentDistribution = "payment-distribution"
	MonthlyOrders       = "monthly-orders"
	PeakHours           = "peak-hours"
	SeasonOrders        = "season-orders"
	DelayByFeedback     = "delay-by-feedback"
	WorstRoutes         = "worst-routes"
	CategoryPayments    = "category-payments"
	TopStates           = "top-states"
)

type runFunc func(ctx context.Context, w Warehouse) (any, error)

type entry struct {
	name string
	run  runFunc
}

// catalogue order is the dashboard order.
var entries = []entry{
	{TotalOrders, func(ctx context.Context, w Warehouse) (any, error) { return w.TotalOrders(ctx) }},
	{TotalRevenue, func(ctx context.Context, w Warehouse) (any, error) { return w.TotalRevenue(ctx) }},
	{AverageInstallments, func(ctx context.Context, w Warehouse) (any, error) { return w.AverageInstallments(ctx) }},
	{DelayedOrders, func(ctx context.Context, w Warehouse) (any, error) { return w.DelayedOrders(ctx) }},
	{KeyMetrics, func(ctx context.Context, w Warehouse) (any, error) { return FetchKeyMetrics(ctx, w) }},
	{PaymentDistribution, func(ctx context.Context, w Warehouse) (any, error) { return w.PaymentDistribution(ctx) }},
	{MonthlyOrders, func(ctx context.Context, w Warehouse) (any, error) { return w.MonthlyOrders(ctx) }},
	{PeakHours, func(ctx context.Context, w Warehouse) (any, error) { return w.PeakHours(ctx) }},
	{SeasonOrders, func(ctx context.Context, w Warehouse) (any, error) { return w.SeasonOrders(ctx) }},
	{DelayByFeedback, func(ctx context.Context, w Warehouse) (any, error) { return w.DelayByFeedback(ctx) }},
	{WorstRoutes, func(ctx context.Context, w Warehouse) (any, error) { return w.WorstRoutes(ctx) }},
	{CategoryPayments, func(ctx context.Context, w Warehouse) (any, error) { return w.CategoryPayments(ctx) }},
	{TopStates, func(ctx context.Context, w Warehouse) (any, error) { return w.TopStates(ctx) }},
}

// FetchKeyMetrics runs the four headline reports. Any failure fails the
// whole call.
func FetchKeyMetrics(ctx context.Context, w Warehouse) (*models.KeyMetrics, error) {
	var (
		m   models.KeyMetrics
		err error
	)
	if m.TotalOrders, err = w.TotalOrders(ctx); err != nil {
		return nil, err
	}
	if m.TotalRevenue, err = w.TotalRevenue(ctx); err != nil {
		return nil, err
	}
	if m.AverageInstallments, err = w.AverageInstallments(ctx); err != nil {
		return nil, err
	}
	if m.DelayedOrders, err = w.DelayedOrders(ctx); err != nil {
		return nil, err
	}
	return &m, nil
}

// Catalogue runs reports by name against a warehouse, each under its own
// timeout and optionally through a Cache.
type Catalogue struct {
	warehouse Warehouse
	timeout   time.Duration
	cache     *Cache
	byName    map[string]runFunc
}

type Option func(*Catalogue)

// WithTimeout bounds every report run. Zero means no bound beyond the
// caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Catalogue) { c.timeout = d }
}

// WithCache enables read-through caching.
func WithCache(cache *Cache) Option {
	return func(c *Catalogue) { c.cache = cache }
}

func NewCatalogue(w Warehouse, opts ...Option) *Catalogue {
	c := &Catalogue{
		warehouse: w,
		byName:    make(map[string]runFunc, len(entries)),
	}
	for _, e := range entries {
		c.byName[e.name] = e.run
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Names lists every report in dashboard order.
func (c *Catalogue) Names() []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.name)
	}
	return names
}

func (c *Catalogue) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Run executes one report. The result is nil whenever err is non-nil.
func (c *Catalogue) Run(ctx context.Context, name string) (any, error) {
	run, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReport, name)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var version string
	if c.cache != nil {
		v, err := c.warehouse.Version(ctx)
		if err != nil {
			return nil, fmt.Errorf("warehouse version: %w", err)
		}
		version = v
		if rows, hit := c.cache.Get(name, version); hit {
			log.Debugf("cache hit: report=%s version=%s", name, version)
			return rows, nil
		}
	}

	start := time.Now()
	rows, err := run(ctx, c.warehouse)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", name, err)
	}
	log.Debugf("report=%s took=%s", name, time.Since(start))

	if c.cache != nil {
		c.cache.Put(name, version, rows)
	}
	return rows, nil
}
