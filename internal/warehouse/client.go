package warehouse

import (
	"fmt"
	"time"

	"dwhreports/config"
	"dwhreports/pkg/logger"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var log = logger.New("warehouse")

// Store answers the report catalogue through GORM against a Postgres, MySQL
// or SQLite star schema.
type Store struct {
	db *gorm.DB
}

// Open connects to the warehouse selected by cfg.Warehouse.Driver.
func Open(cfg *config.Config) (*Store, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Warn),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s warehouse: %w", cfg.Warehouse.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Infof("✓ Opened %s warehouse", db.Dialector.Name())
	return New(db), nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.Warehouse.Driver {
	case config.DriverPostgres:
		pg := cfg.Postgres
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=%s",
			pg.Host, pg.Username, pg.Password, pg.Database, pg.Port, pg.TimeZone)
		return postgres.Open(dsn), nil
	case config.DriverMySQL:
		my := cfg.MySQL
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			my.Username, my.Password, my.Host, my.Port, my.Database)
		return mysql.Open(dsn), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLite.Path), nil
	default:
		return nil, fmt.Errorf("warehouse driver %q is not served by gorm", cfg.Warehouse.Driver)
	}
}

// New wraps an existing connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
