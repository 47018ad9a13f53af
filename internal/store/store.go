// Package store persists end-of-session results to PostgreSQL. Sessions are
// write-only telemetry; the engine never reads strategy state back from it.
package store

import (
	"fmt"
	"net/url"
	"time"

	"github.com/yanun0323/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	defaultHost    = "localhost"
	defaultPort    = 5432
	defaultSSLMode = "disable"
)

// Option defines connection options for the results database.
type Option struct {
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string
	Params     map[string]string
	ConnString string
	Config     *gorm.Config
}

// SessionSummary is one finished session.
type SessionSummary struct {
	ID         uint   `gorm:"primaryKey"`
	Session    string `gorm:"index"`
	Ticks      int64
	Realized   int64
	Unrealized int64
	Total      int64
	CreatedAt  time.Time
}

// ProductSummary is one product's final state within a session.
type ProductSummary struct {
	ID        uint   `gorm:"primaryKey"`
	Session   string `gorm:"index"`
	Symbol    string
	Position  int64
	Volume    int64
	PnL       int64
	CreatedAt time.Time
}

// Store wraps the results connection pool.
type Store struct {
	db *gorm.DB
}

// Open connects and migrates the result tables.
func Open(opt Option) (*Store, error) {
	dsn, err := opt.DSN()
	if err != nil {
		return nil, errors.Wrap(err, "build dsn")
	}

	config := opt.Config
	if config == nil {
		config = &gorm.Config{}
	}

	db, err := gorm.Open(postgres.Open(dsn), config)
	if err != nil {
		return nil, errors.Wrap(err, "open results database")
	}
	if err := db.AutoMigrate(&SessionSummary{}, &ProductSummary{}); err != nil {
		return nil, errors.Wrap(err, "migrate result tables")
	}
	return &Store{db: db}, nil
}

// SaveSummary writes a session and its per-product rows atomically.
func (s *Store) SaveSummary(summary SessionSummary, products []ProductSummary) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&summary).Error; err != nil {
			return err
		}
		for i := range products {
			products[i].Session = summary.Session
		}
		if len(products) == 0 {
			return nil
		}
		return tx.Create(&products).Error
	})
	return errors.Wrap(err, "save session summary")
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, "unwrap connection pool")
	}
	return sqlDB.Close()
}

// DSN renders the option set as a postgres connection string. An explicit
// ConnString wins over the individual fields.
func (opt Option) DSN() (string, error) {
	if opt.ConnString != "" {
		return opt.ConnString, nil
	}
	if opt.Database == "" {
		return "", errors.New("database name is required")
	}

	host := opt.Host
	if host == "" {
		host = defaultHost
	}
	port := opt.Port
	if port == 0 {
		port = defaultPort
	}
	sslMode := opt.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
		Path:   "/" + opt.Database,
	}
	if opt.User != "" {
		if opt.Password != "" {
			u.User = url.UserPassword(opt.User, opt.Password)
		} else {
			u.User = url.User(opt.User)
		}
	}

	query := url.Values{}
	query.Set("sslmode", sslMode)
	for key, value := range opt.Params {
		if key == "" {
			continue
		}
		query.Set(key, value)
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}
