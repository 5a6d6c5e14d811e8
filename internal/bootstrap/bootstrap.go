package bootstrap

import (
	"context"
	"fmt"

	"dwhreports/config"
	"dwhreports/internal/clickhouse"
	"dwhreports/internal/reports"
	"dwhreports/internal/warehouse"
)

// OpenWarehouse connects to the configured backend and verifies the schema
// contract before returning it.
func OpenWarehouse(ctx context.Context, cfg *config.Config) (reports.Warehouse, error) {
	var (
		w   reports.Warehouse
		err error
	)
	if cfg.Warehouse.Driver == config.DriverClickHouse {
		w, err = clickhouse.NewClient(cfg.ClickHouse)
	} else {
		w, err = warehouse.Open(cfg)
	}
	if err != nil {
		return nil, err
	}

	if err := w.VerifySchema(ctx); err != nil {
		w.Close()
		return nil, fmt.Errorf("verify schema: %w", err)
	}
	return w, nil
}

// NewCatalogue wires the per-query timeout and, when CacheTTL is set, the
// read-through cache.
func NewCatalogue(cfg *config.Config, w reports.Warehouse) *reports.Catalogue {
	opts := []reports.Option{reports.WithTimeout(cfg.Warehouse.QueryTimeout)}
	if cfg.Warehouse.CacheTTL > 0 {
		opts = append(opts, reports.WithCache(reports.NewCache(cfg.Warehouse.CacheTTL)))
	}
	return reports.NewCatalogue(w, opts...)
}
