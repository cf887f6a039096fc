package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"PublicationsMonitor/internal/domain"
	"PublicationsMonitor/internal/ports"
)

const knownTable = "known_publications"

// insertBatchRows keeps each INSERT well under SQLite's bound-parameter limit.
const insertBatchRows = 100

const knownSchema = `CREATE TABLE IF NOT EXISTS known_publications (
	key          TEXT PRIMARY KEY,
	pub_id       TEXT NOT NULL,
	title        TEXT NOT NULL,
	date_text    TEXT NOT NULL DEFAULT '',
	pattern      TEXT NOT NULL DEFAULT '',
	priority     TEXT NOT NULL,
	source_tag   TEXT NOT NULL,
	extracted_at TEXT NOT NULL,
	first_seen   TEXT NOT NULL
)`

var knownColumns = []string{
	"key", "pub_id", "title", "date_text", "pattern",
	"priority", "source_tag", "extracted_at", "first_seen",
}

// SQLiteStore persists known publications into a SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

var _ ports.KnownStore = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database file and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	store := NewSQLiteStore(db)
	if err := store.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore wires an existing sql.DB implementation.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, knownSchema); err != nil {
		return fmt.Errorf("create %s: %w", knownTable, err)
	}
	return nil
}

// Load reads every row; any read failure degrades to an empty mapping.
func (s *SQLiteStore) Load(ctx context.Context) (domain.KnownPublications, error) {
	rows, err := sq.Select(knownColumns...).
		From(knownTable).
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return domain.KnownPublications{}, fmt.Errorf("%w: query known: %v", ErrCorruptState, err)
	}

	state := domain.KnownPublications{}
	for rows.Next() {
		var (
			key                    string
			pub                    domain.KnownPublication
			priority               string
			extractedAt, firstSeen string
		)
		if err := rows.Scan(&key, &pub.PubID, &pub.Title, &pub.DateText, &pub.Pattern,
			&priority, &pub.SourceTag, &extractedAt, &firstSeen); err != nil {
			_ = rows.Close()
			return domain.KnownPublications{}, fmt.Errorf("%w: scan row: %v", ErrCorruptState, err)
		}
		pub.Priority = domain.Priority(priority)
		if pub.ExtractedAt, err = time.Parse(time.RFC3339Nano, extractedAt); err != nil {
			_ = rows.Close()
			return domain.KnownPublications{}, fmt.Errorf("%w: row %s extracted_at: %v", ErrCorruptState, key, err)
		}
		if pub.FirstSeen, err = time.Parse(time.RFC3339Nano, firstSeen); err != nil {
			_ = rows.Close()
			return domain.KnownPublications{}, fmt.Errorf("%w: row %s first_seen: %v", ErrCorruptState, key, err)
		}
		state[key] = pub
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return domain.KnownPublications{}, fmt.Errorf("%w: rows iteration: %v", ErrCorruptState, rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return domain.KnownPublications{}, fmt.Errorf("%w: close rows: %v", ErrCorruptState, closeErr)
	}

	return state, nil
}

// Save replaces the table contents in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, state domain.KnownPublications) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := sq.Delete(knownTable).RunWith(tx).ExecContext(ctx); err != nil {
		return fmt.Errorf("clear known: %w", err)
	}

	keys := make([]string, 0, len(state))
	for key := range state {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for start := 0; start < len(keys); start += insertBatchRows {
		end := min(start+insertBatchRows, len(keys))
		insert := sq.Insert(knownTable).Columns(knownColumns...)
		for _, key := range keys[start:end] {
			pub := state[key]
			insert = insert.Values(
				key,
				pub.PubID,
				pub.Title,
				pub.DateText,
				pub.Pattern,
				string(pub.Priority),
				pub.SourceTag,
				pub.ExtractedAt.Format(time.RFC3339Nano),
				pub.FirstSeen.Format(time.RFC3339Nano),
			)
		}
		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("insert known rows %d-%d: %w", start, end, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}
