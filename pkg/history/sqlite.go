package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/web3shield/shield-sdk/pkg/compress"
)

// SQLiteStore persists scan history in a local SQLite database. Raw reports
// are multi-kilobyte text blobs and compress well, so they are stored
// compressed (zstd by default).
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex

	compressor *compress.Compressor
}

// NewSQLiteStore opens (creating if needed) the history database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	s := &SQLiteStore{db: db, compressor: compress.Default}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id TEXT PRIMARY KEY,
		address TEXT NOT NULL,
		mode TEXT NOT NULL,
		name TEXT,
		verdict TEXT,
		score INTEGER,
		raw_report BLOB,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scans_address ON scans(address);
	CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save records an entry.
func (s *SQLiteStore) Save(ctx context.Context, e *Entry) error {
	prepare(e)

	var blob []byte
	if e.RawReport != "" {
		var err error
		blob, err = s.compressor.Encode([]byte(e.RawReport))
		if err != nil {
			return fmt.Errorf("compress report: %w", err)
		}
	}

	var score sql.NullInt64
	if e.Score != nil {
		score = sql.NullInt64{Int64: int64(*e.Score), Valid: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scans (id, address, mode, name, verdict, score, raw_report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Address, e.Mode, e.Name, e.Verdict, score, blob, e.CreatedAt)
	return err
}

// Recent returns up to limit entries, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, address, mode, name, verdict, score, raw_report, created_at
		FROM scans
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanRows(rows)
}

// ByAddress returns all entries for an address, newest first.
func (s *SQLiteStore) ByAddress(ctx context.Context, address string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, address, mode, name, verdict, score, raw_report, created_at
		FROM scans
		WHERE address = ?
		ORDER BY created_at DESC
	`, address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanRows(rows)
}

func (s *SQLiteStore) AlreadyScanned(ctx context.Context, address string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM scans WHERE address = ?)`, address).Scan(&exists)
	return exists, err
}

func (s *SQLiteStore) scanRows(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var score sql.NullInt64
		var blob []byte

		if err := rows.Scan(&e.ID, &e.Address, &e.Mode, &e.Name, &e.Verdict, &score, &blob, &e.CreatedAt); err != nil {
			return nil, err
		}

		if score.Valid {
			n := int(score.Int64)
			e.Score = &n
		}
		if len(blob) > 0 {
			raw, err := s.compressor.Decode(blob)
			if err != nil {
				return nil, fmt.Errorf("decompress report: %w", err)
			}
			e.RawReport = string(raw)
		}

		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Close()
}
