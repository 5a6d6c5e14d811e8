package clickhouse

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"dwhreports/config"
	"dwhreports/pkg/logger"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

var log = logger.New("clickhouse")

// Client answers the report catalogue from a ClickHouse copy of the star
// schema. Tables live in the configured database under the same names as
// the relational warehouse.
type Client struct {
	conn     driver.Conn
	database string
}

func NewClient(cfg config.ClickHouseConfig) (*Client, error) {
	opts := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		Settings: clickhouse.Settings{
			"readonly": 2,
		},
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		DialTimeout:  time.Second * 30,
	}

	// TLS only on the secure native port
	if cfg.Port == 9440 || cfg.Port == 8443 {
		opts.TLS = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	log.Infof("✓ Connected to ClickHouse %s:%d/%s", cfg.Host, cfg.Port, cfg.Database)
	return New(conn, cfg.Database), nil
}

// New wraps an open connection.
func New(conn driver.Conn, database string) *Client {
	return &Client{
		conn:     conn,
		database: database,
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Conn() driver.Conn {
	return c.conn
}
