package store

import (
	"context"
	"fmt"
	"net/url"

	"github.com/quickfixgo/quickfix"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"okfix/internal/model"
	"okfix/internal/stream"
)

const (
	defaultPostgresHost    = "localhost"
	defaultPostgresPort    = 5432
	defaultPostgresSSLMode = "disable"

	defaultQueueCapacity = 256
)

// Option defines connection options for the snapshot store.
type Option struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Params   map[string]string
	Config   *gorm.Config

	// QueueCapacity bounds the in-memory snapshot queue. Defaults to 256.
	QueueCapacity int
}

type event struct {
	book   *model.OrderBook
	ticker *model.Ticker
}

// Store keeps the latest order book and ticker per symbol in PostgreSQL:
// one row per symbol, replaced on every update, no history. It implements
// stream.Listener; callbacks only enqueue, so the FIX dispatch goroutine
// never touches the database. Run drains the queue.
type Store struct {
	stream.NopListener

	db     *gorm.DB
	events chan event
}

// Open connects to PostgreSQL and migrates the snapshot tables.
func Open(opt Option) (*Store, error) {
	config := opt.Config
	if config == nil {
		config = &gorm.Config{}
	}

	db, err := gorm.Open(postgres.Open(opt.dsn()), config)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	if err := db.AutoMigrate(&BookRecord{}, &TickerRecord{}); err != nil {
		return nil, errors.Wrap(err, "migrate snapshot tables")
	}

	capacity := opt.QueueCapacity
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}

	return &Store{
		db:     db,
		events: make(chan event, capacity),
	}, nil
}

// Run consumes queued snapshots until the context is done.
func (s *Store) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-s.events:
			if err := s.persist(e); err != nil {
				logs.Errorf("persist snapshot: %+v", err)
			}
		}
	}
}

// OnOrderBook enqueues the latest book without blocking; when the queue is
// full the snapshot is dropped, a newer one always follows.
func (s *Store) OnOrderBook(book *model.OrderBook, _ quickfix.SessionID) {
	select {
	case s.events <- event{book: book}:
	default:
		logs.Warnf("snapshot store queue full, dropping order book")
	}
}

// OnTicker enqueues the latest ticker without blocking.
func (s *Store) OnTicker(ticker model.Ticker, _ quickfix.SessionID) {
	select {
	case s.events <- event{ticker: &ticker}:
	default:
		logs.Warnf("snapshot store queue full, dropping ticker")
	}
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func (s *Store) persist(e event) error {
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		UpdateAll: true,
	}

	if e.book != nil {
		record, err := newBookRecord(e.book)
		if err != nil {
			return err
		}
		if err := s.db.Clauses(upsert).Create(&record).Error; err != nil {
			return errors.Wrap(err, "upsert book record").With("symbol", record.Symbol)
		}
	}

	if e.ticker != nil {
		record := newTickerRecord(*e.ticker)
		if err := s.db.Clauses(upsert).Create(&record).Error; err != nil {
			return errors.Wrap(err, "upsert ticker record").With("symbol", record.Symbol)
		}
	}

	return nil
}

func (opt Option) dsn() string {
	host := opt.Host
	if host == "" {
		host = defaultPostgresHost
	}

	port := opt.Port
	if port == 0 {
		port = defaultPostgresPort
	}

	sslMode := opt.SSLMode
	if sslMode == "" {
		sslMode = defaultPostgresSSLMode
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
	}

	if opt.User != "" {
		if opt.Password != "" {
			u.User = url.UserPassword(opt.User, opt.Password)
		} else {
			u.User = url.User(opt.User)
		}
	}

	if opt.Database != "" {
		u.Path = "/" + opt.Database
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

	return u.String()
}
