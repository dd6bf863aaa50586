// Package sqlite implements types.Store on SQLite, with JSONL files in the
// data directory as the source of truth.
//
// Attach recreates the SQLite database from the JSONL files; every write
// goes to SQLite and then rewrites the affected JSONL file, either at once
// (sync "immediate") or at Detach (sync "on_close").
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// dbFile is the SQLite file created in the data directory.
const dbFile = "larder.db"

var _ types.Backend = (*Backend)(nil)

// Backend implements types.Store using SQLite as the query engine and JSONL
// files as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dataDir  string
	db       *sql.DB
	log      *slog.Logger

	syncStrategy string
	dirty        map[string]bool // JSONL files awaiting a flush
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used by the backend.
func WithLogger(log *slog.Logger) Option {
	return func(b *Backend) {
		if log != nil {
			b.log = log
		}
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		log:   slog.Default(),
		dirty: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, creates a fresh SQLite database,
// and loads the JSONL files into it.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	// The database is a cache of the JSONL files and is rebuilt on every attach.
	dbPath := filepath.Join(dataDir, dbFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)

	for _, ddl := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	if err := initJSONLFiles(dataDir); err != nil {
		db.Close()
		return err
	}
	if err := loadAllJSONL(db, dataDir, b.log); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.dataDir = dataDir
	b.syncStrategy = config.SyncStrategy()
	b.dirty = make(map[string]bool)
	b.attached = true

	b.log.Debug("backend attached", "data_dir", dataDir, "sync", b.syncStrategy)
	return nil
}

// Detach flushes pending JSONL writes and closes the database. After Detach,
// all operations return ErrBackendDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.flushLocked(); err != nil {
		return fmt.Errorf("flush pending writes: %w", err)
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	b.log.Debug("backend detached", "data_dir", b.dataDir)
	return nil
}

// DataDir returns the directory the backend is attached to.
func (b *Backend) DataDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dataDir
}

// initJSONLFiles creates an empty JSONL file for each table that has none.
func initJSONLFiles(dataDir string) error {
	for _, m := range jsonlTableMapping {
		path := filepath.Join(dataDir, m.file)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return fmt.Errorf("creating %s: %w", m.file, err)
		}
	}
	return nil
}

// persistLocked records that file must be rewritten from its table, and
// rewrites it now under the immediate strategy. The caller must hold b.mu.
func (b *Backend) persistLocked(file string) error {
	if b.syncStrategy == types.SyncOnClose {
		b.dirty[file] = true
		return nil
	}
	return b.writeFileLocked(file)
}

// flushLocked rewrites every dirty JSONL file. The caller must hold b.mu.
func (b *Backend) flushLocked() error {
	for _, m := range jsonlTableMapping {
		if !b.dirty[m.file] {
			continue
		}
		if err := b.writeFileLocked(m.file); err != nil {
			return err
		}
		delete(b.dirty, m.file)
	}
	return nil
}

func (b *Backend) writeFileLocked(file string) error {
	var err error
	switch file {
	case fieldsJSONL:
		err = b.persistFieldsJSONL()
	case templatesJSONL:
		err = b.persistTemplatesJSONL()
	case itemsJSONL:
		err = b.persistItemsJSONL()
	case imagesJSONL:
		err = b.persistImagesJSONL()
	default:
		err = fmt.Errorf("unknown JSONL file %q", file)
	}
	if err != nil {
		return fmt.Errorf("persisting %s: %w", file, err)
	}
	return nil
}

// generateUUID generates a new UUID v7 for entity IDs.
func generateUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating UUID v7: %w", err)
	}
	return id.String(), nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure,
// whether the driver reports the extended or the primary result code.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
