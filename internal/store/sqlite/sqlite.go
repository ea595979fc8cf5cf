package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Kay0310/toolboxtalk-v27/internal/store"
	_ "github.com/mattn/go-sqlite3"
)

// Schema is applied on every open; it is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS minutes (
	room_code  TEXT PRIMARY KEY,
	room_id    TEXT NOT NULL,
	admin      TEXT NOT NULL,
	revision   INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	document   BLOB NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_minutes_updated_at ON minutes(updated_at);
`

// SQLiteStore implements store.MinutesStore for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.MinutesStore = (*SQLiteStore)(nil)

// New opens the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, ApplySchema)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Tests pass ":memory:" with ApplySchema or their own fixture.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; for :memory: it is also
	// the only way to keep one database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// ApplySchema creates the minutes table if missing.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveMinutes upserts the archive row for a room code. created_at holds unix
// nanoseconds so generations compare numerically.
func (s *SQLiteStore) SaveMinutes(ctx context.Context, m *store.Minutes) error {
	query := `
		INSERT INTO minutes (room_code, room_id, admin, revision, created_at, document, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(room_code) DO UPDATE SET
			room_id    = excluded.room_id,
			admin      = excluded.admin,
			revision   = excluded.revision,
			created_at = excluded.created_at,
			document   = excluded.document,
			updated_at = excluded.updated_at
		WHERE (excluded.room_id = minutes.room_id AND excluded.revision >= minutes.revision)
		   OR (excluded.room_id != minutes.room_id AND excluded.created_at >= minutes.created_at)
	`
	_, err := s.db.ExecContext(ctx, query,
		m.RoomCode, m.RoomID, m.Admin, m.Revision, toUnixNano(m.CreatedAt), m.Document, m.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save minutes: %w", err)
	}
	return nil
}

// GetMinutes retrieves the archive row for a room code.
func (s *SQLiteStore) GetMinutes(ctx context.Context, roomCode string) (*store.Minutes, error) {
	query := `
		SELECT room_code, room_id, admin, revision, created_at, document, updated_at
		FROM minutes
		WHERE room_code = ?
	`
	var (
		m       store.Minutes
		created int64
	)
	err := s.db.QueryRowContext(ctx, query, roomCode).Scan(
		&m.RoomCode,
		&m.RoomID,
		&m.Admin,
		&m.Revision,
		&created,
		&m.Document,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("minutes %q: %w", roomCode, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query minutes: %w", err)
	}
	m.CreatedAt = fromUnixNano(created)

	return &m, nil
}

// ListMinutes lists archives, most recently updated first.
func (s *SQLiteStore) ListMinutes(ctx context.Context, limit int) ([]*store.Minutes, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT room_code, room_id, admin, revision, created_at, document, updated_at
		FROM minutes
		ORDER BY updated_at DESC, room_code ASC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query minutes: %w", err)
	}
	defer rows.Close()

	var list []*store.Minutes
	for rows.Next() {
		var (
			m       store.Minutes
			created int64
		)
		if err := rows.Scan(&m.RoomCode, &m.RoomID, &m.Admin, &m.Revision, &created, &m.Document, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan minutes: %w", err)
		}
		m.CreatedAt = fromUnixNano(created)
		list = append(list, &m)
	}

	return list, rows.Err()
}

func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
