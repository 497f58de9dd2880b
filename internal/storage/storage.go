package storage

import (
	"fmt"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperr "timefiles.com/timefiles/internal/errors"
)

// Store owns the embedded relational database. It is the single piece of
// process-wide state: commands borrow its handle for the scope of one
// operation and writers are fully serialized through the store's lock, which
// is how the single-active-context invariant holds without cross-command
// interleaving. Readers run on a consistent snapshot without the lock.
type Store struct {
	db *gorm.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the database at path, applies any pending
// forward migrations and verifies the tasks mirror against the event log.
// ":memory:" opens a private in-memory database, used by tests.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, apperr.InvalidInput("storage path is required")
	}

	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, apperr.Storage(err, "open sqlite database %s", path)
	}

	// A single connection keeps sqlite happy under concurrent readers and
	// makes ":memory:" databases visible across borrows.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperr.Storage(err, "access sql handle for %s", path)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	if err := repairMirror(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func dsn(path string) string {
	return fmt.Sprintf("%s?_fk=1&_journal_mode=WAL", path)
}

// DB exposes the handle for read-only queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Command serializes fn against all other writers. fn may run one or more
// transactions on the handle it receives; the lock spans all of them so a
// follow-up write (such as a rest-suggestion insert) cannot interleave with
// another command.
func (s *Store) Command(fn func(db *gorm.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.db)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return apperr.Storage(err, "access sql handle on close")
	}
	return sqlDB.Close()
}
