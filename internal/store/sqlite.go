package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jwoo-kim/team-draft/internal/models"
)

// SQLiteStore persists the draft document in a single-row SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database file and ensures the
// snapshot table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		ns TEXT PRIMARY KEY,
		doc TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Load() (*models.DraftState, error) {
	var doc string
	err := s.db.QueryRow(`SELECT doc FROM snapshots WHERE ns = ?`, Namespace).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}

	var state models.DraftState
	if err := json.Unmarshal([]byte(doc), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *SQLiteStore) Save(state *models.DraftState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO snapshots (ns, doc, updated_at)
		VALUES (?, ?, ?)
	`, Namespace, string(doc), time.Now().Unix())
	return err
}

func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM snapshots WHERE ns = ?`, Namespace)
	return err
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
