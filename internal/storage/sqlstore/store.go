// Package sqlstore implements storage.Provider over database/sql. The
// sqlite and postgres packages supply the dialect and the connection opener.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/julianstephens/mono/internal/errors"
	"github.com/julianstephens/mono/internal/logger"
	"github.com/julianstephens/mono/internal/migration"
	"github.com/julianstephens/mono/migrations"
)

// Dialect captures what differs between SQL engines.
type Dialect struct {
	Driver migration.Driver
	// IsUniqueViolation reports whether err is a unique constraint failure.
	IsUniqueViolation func(err error) bool
}

// OpenFunc opens and verifies a connection. It must not run migrations.
type OpenFunc func(ctx context.Context) (*sql.DB, error)

type Store struct {
	dialect Dialect
	open    OpenFunc
	label   string

	group singleflight.Group
	mu    sync.RWMutex
	db    *sql.DB

	clockMu sync.Mutex
	now     func() time.Time
	last    time.Time
}

// New returns a store that calls open on first use. label identifies the
// database in messages and must not contain secrets.
func New(dialect Dialect, open OpenFunc, label string) *Store {
	return &Store{
		dialect: dialect,
		open:    open,
		label:   label,
		now:     time.Now,
	}
}

// SetClock replaces the time source used for created_at and updated_at.
func (s *Store) SetClock(now func() time.Time) {
	s.clockMu.Lock()
	s.now = now
	s.clockMu.Unlock()
}

var noPrior time.Time

// stamp returns the current time, nudged forward when the clock has not
// advanced since the previous stamp, so updated_at is strictly increasing.
func (s *Store) stamp(after time.Time) time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()

	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	if !t.After(after) {
		t = after.Add(time.Nanosecond)
	}
	s.last = t
	return t
}

func (s *Store) GetConfigPath() string { return s.label }

// Open connects and applies pending migrations. Other methods call it
// implicitly; concurrent first callers share one in-flight open.
func (s *Store) Open(ctx context.Context) error {
	_, err := s.conn(ctx)
	return err
}

func (s *Store) conn(ctx context.Context) (*sql.DB, error) {
	s.mu.RLock()
	db := s.db
	s.mu.RUnlock()
	if db != nil {
		return db, nil
	}

	ch := s.group.DoChan("open", func() (interface{}, error) {
		s.mu.RLock()
		existing := s.db
		s.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		// Detached so one caller's cancellation does not fail the others.
		openCtx := context.WithoutCancel(ctx)
		db, err := s.open(openCtx)
		if err != nil {
			return nil, err
		}
		if err := s.migrate(openCtx, db); err != nil {
			db.Close()
			return nil, err
		}

		s.mu.Lock()
		s.db = db
		s.mu.Unlock()
		logger.Debug("Opened database", "database", s.label)
		return db, nil
	})

	select {
	case <-ctx.Done():
		return nil, apperrors.Wrap("open database", apperrors.KindOpen, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			logger.Warn("Failed to open database", "database", s.label, "error", res.Err)
			return nil, apperrors.Wrap("open database", apperrors.KindOpen, res.Err)
		}
		return res.Val.(*sql.DB), nil
	}
}

func (s *Store) runner(db *sql.DB) (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, string(s.dialect.Driver))
	if err != nil {
		return nil, fmt.Errorf("failed to access %s migrations: %w", s.dialect.Driver, err)
	}
	return migration.NewRunner(db, subFS, s.dialect.Driver), nil
}

func (s *Store) migrate(ctx context.Context, db *sql.DB) error {
	r, err := s.runner(db)
	if err != nil {
		return err
	}
	if _, err := r.ApplyMigrations(ctx, func(msg string) { logger.Info(msg) }); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SchemaVersion reports the applied and the newest embedded schema versions.
func (s *Store) SchemaVersion(ctx context.Context) (int, int, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, 0, err
	}
	r, err := s.runner(db)
	if err != nil {
		return 0, 0, err
	}
	current, err := r.GetCurrentVersion(ctx)
	if err != nil {
		return 0, 0, apperrors.Wrap("schema version", apperrors.KindRead, err)
	}
	latest, err := r.GetLatestVersion()
	if err != nil {
		return 0, 0, apperrors.Wrap("schema version", apperrors.KindRead, err)
	}
	return current, latest, nil
}

// DB returns the open connection, or nil before the first successful open.
func (s *Store) DB() *sql.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
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

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect.Driver != migration.DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, op, query string, args ...interface{}) (sql.Result, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	res, err := db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		if s.dialect.IsUniqueViolation != nil && s.dialect.IsUniqueViolation(err) {
			return nil, apperrors.Conflict(op, err)
		}
		return nil, apperrors.Wrap(op, apperrors.KindWrite, err)
	}
	return res, nil
}

func (s *Store) query(ctx context.Context, op, query string, args ...interface{}) (*sql.Rows, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, apperrors.Wrap(op, apperrors.KindRead, err)
	}
	return rows, nil
}

func (s *Store) queryRow(ctx context.Context, query string, args ...interface{}) (*sql.Row, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	return db.QueryRowContext(ctx, s.rebind(query), args...), nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
