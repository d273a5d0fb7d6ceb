package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding the bot's persistent state: tags
// and closed support tickets.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (used
// by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "cronus.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't
// been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", entry.Name(), err)
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

// AppliedMigrations returns the list of applied migration versions in
// ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Tags ---

// SaveTag inserts or replaces a tag. The name match is case-insensitive,
// so saving "FAQ" overwrites an existing "faq".
func (s *Store) SaveTag(tag Tag) error {
	createdAt := tag.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO tags (name, content, author_id, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET content = excluded.content, author_id = excluded.author_id`,
		tag.Name, tag.Content, tag.AuthorID, createdAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetTag looks up a tag by name, case-insensitively.
func (s *Store) GetTag(name string) (Tag, error) {
	var t Tag
	var createdAt string
	err := s.db.QueryRow(`
		SELECT name, content, author_id, created_at FROM tags WHERE name = ? COLLATE NOCASE`, name,
	).Scan(&t.Name, &t.Content, &t.AuthorID, &createdAt)
	if err == sql.ErrNoRows {
		return Tag{}, ErrNotFound
	}
	if err != nil {
		return Tag{}, err
	}
	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Tag{}, fmt.Errorf("parsing created_at: %w", err)
	}
	t.CreatedAt = ts
	return t, nil
}

// ListTagNames returns all tag names in alphabetical order.
func (s *Store) ListTagNames() ([]string, error) {
	rows, err := s.db.Query("SELECT name FROM tags ORDER BY name COLLATE NOCASE ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// DeleteTag removes a tag by name, case-insensitively.
func (s *Store) DeleteTag(name string) error {
	res, err := s.db.Exec("DELETE FROM tags WHERE name = ? COLLATE NOCASE", name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Closed tickets ---

// CloseTicket records a support thread as closed. Closing an already
// closed ticket is a no-op that keeps the original record.
func (s *Store) CloseTicket(threadID, closedBy string) error {
	_, err := s.db.Exec(`
		INSERT INTO closed_tickets (thread_id, closed_by, closed_at) VALUES (?, ?, ?)
		ON CONFLICT(thread_id) DO NOTHING`,
		threadID, closedBy, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetClosedTicket returns the close record for a thread, or ErrNotFound
// when the ticket is still open.
func (s *Store) GetClosedTicket(threadID string) (ClosedTicket, error) {
	var ct ClosedTicket
	var closedAt string
	err := s.db.QueryRow(`
		SELECT thread_id, closed_by, closed_at FROM closed_tickets WHERE thread_id = ?`, threadID,
	).Scan(&ct.ThreadID, &ct.ClosedBy, &closedAt)
	if err == sql.ErrNoRows {
		return ClosedTicket{}, ErrNotFound
	}
	if err != nil {
		return ClosedTicket{}, err
	}
	ts, err := time.Parse(time.RFC3339, closedAt)
	if err != nil {
		return ClosedTicket{}, fmt.Errorf("parsing closed_at: %w", err)
	}
	ct.ClosedAt = ts
	return ct, nil
}

// CountClosedTickets returns the total number of closed tickets.
func (s *Store) CountClosedTickets() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM closed_tickets").Scan(&count)
	return count, err
}
