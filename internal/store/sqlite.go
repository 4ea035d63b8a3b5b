package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tmarchand/socialpulse/internal/models"
)

// DefaultReadLimit caps how many rows the read path returns. Older rows
// stay durable but become invisible to consumers.
const DefaultReadLimit = 500

const postsSchema = `
	CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		platform TEXT NOT NULL,
		date DATETIME NOT NULL,
		user TEXT NOT NULL,
		text TEXT NOT NULL UNIQUE,
		sentiment TEXT NOT NULL,
		score REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_posts_date ON posts(date DESC);
`

// SQLiteStore persists records in an embedded relational table with a
// surrogate auto-incrementing key. Writes are append-only inserts; rows
// whose text already exists are left untouched.
type SQLiteStore struct {
	db        *sql.DB
	readLimit int
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// applies the schema. readLimit <= 0 falls back to DefaultReadLimit.
func NewSQLiteStore(dbPath string, readLimit int) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if _, err := db.Exec(postsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if readLimit <= 0 {
		readLimit = DefaultReadLimit
	}
	return &SQLiteStore{db: db, readLimit: readLimit}, nil
}

func (s *SQLiteStore) Save(records []models.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	for _, rec := range records {
		query, args, err := sq.Insert("posts").
			Options("OR IGNORE").
			Columns("platform", "date", "user", "text", "sentiment", "score").
			Values(string(rec.Platform), rec.Timestamp.UTC(), rec.Author, rec.Text, string(rec.Sentiment), rec.Score).
			ToSql()
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.Exec(query, args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Load returns the most recent rows, newest first, capped at readLimit.
func (s *SQLiteStore) Load() ([]models.Record, error) {
	query, args, err := sq.Select("platform", "date", "user", "text", "sentiment", "score").
		From("posts").
		OrderBy("date DESC").
		Limit(uint64(s.readLimit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var rec models.Record
		var platform, sentiment string
		if err := rows.Scan(&platform, &rec.Timestamp, &rec.Author, &rec.Text, &sentiment, &rec.Score); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec.Platform = models.Platform(platform)
		rec.Sentiment = models.SentimentLabel(sentiment)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return records, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
