package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/usecase"
)

// Store owns the MySQL handle for every repo. It checks liveness before
// each logical operation, reconnects once if the handle is dead, and
// retries a failed operation exactly once after a reconnect. A second
// failure surfaces as usecase.ErrUnavailable; there is no retry loop.
type Store struct {
	pingTimeout time.Duration

	// open produces a fresh handle. It is a field so tests can stand in
	// for sql.Open and exercise the reconnect path without a server.
	open func() (*sql.DB, error)

	// Guards open/ping/reconnect so two callers can't both decide to
	// reconnect and leak handles. Query execution itself runs outside
	// the lock on the pooled handle.
	mu sync.Mutex
	db *sql.DB
}

type StoreOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

func NewStore(dsn string, opts StoreOptions) *Store {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 16
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 16
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = 30 * time.Minute
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 3 * time.Second
	}
	return &Store{
		pingTimeout: opts.PingTimeout,
		open: func() (*sql.DB, error) {
			db, err := sql.Open("mysql", dsn)
			if err != nil {
				return nil, err
			}
			db.SetMaxOpenConns(opts.MaxOpenConns)
			db.SetMaxIdleConns(opts.MaxIdleConns)
			db.SetConnMaxLifetime(opts.ConnMaxLifetime)
			return db, nil
		},
	}
}

// NewStoreWithDB injects an existing handle (tests). Reopening is off
// unless the test sets open itself.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{
		db:          db,
		pingTimeout: 3 * time.Second,
		open:        func() (*sql.DB, error) { return nil, errors.New("reopen not configured") },
	}
}

// acquire returns a live handle, lazily opening and reconnecting at
// most once when the ping fails.
func (s *Store) acquire(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		db, err := s.open()
		if err != nil {
			return nil, err
		}
		s.db = db
	}

	pingCtx, cancel := context.WithTimeout(ctx, s.pingTimeout)
	defer cancel()
	if err := s.db.PingContext(pingCtx); err != nil {
		_ = s.db.Close()
		db, openErr := s.open()
		if openErr != nil {
			s.db = nil
			return nil, openErr
		}
		s.db = db
		pingCtx2, cancel2 := context.WithTimeout(ctx, s.pingTimeout)
		defer cancel2()
		if err := s.db.PingContext(pingCtx2); err != nil {
			return nil, err
		}
	}
	return s.db, nil
}

// reconnect drops the current handle and opens a fresh one.
func (s *Store) reconnect(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, s.pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.db = db
	return db, nil
}

// Ping exposes the serialized liveness check (startup and /healthz).
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.acquire(ctx); err != nil {
		return fmt.Errorf("%w: %v", usecase.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Do runs one logical operation against a live handle. On a retryable
// failure it reconnects and reruns the operation once; the second
// failure comes back as usecase.ErrUnavailable. Domain results
// (no rows, duplicate key) pass through untouched.
func (s *Store) Do(ctx context.Context, op func(db *sql.DB) error) error {
	db, err := s.acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", usecase.ErrUnavailable, err)
	}

	err = op(db)
	if err == nil || !retryable(err) || ctx.Err() != nil {
		return err
	}

	db, rerr := s.reconnect(ctx)
	if rerr != nil {
		return fmt.Errorf("%w: %v", usecase.ErrUnavailable, rerr)
	}
	if err := op(db); err != nil {
		if retryable(err) {
			return fmt.Errorf("%w: %v", usecase.ErrUnavailable, err)
		}
		return err
	}
	return nil
}

// retryable reports whether an error looks like a dropped connection
// rather than a domain outcome.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		// server answered; not a transport failure
		return false
	}
	return true
}

// isDuplicateKey reports a MySQL 1062 unique-constraint violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
