package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/lib/pq"

	"github.com/jwoo-kim/team-draft/internal/models"
)

// PostgresStore persists the draft document in Postgres, upserting on
// the fixed namespace key.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects using a lib/pq connection string and ensures
// the snapshot table exists.
func NewPostgresStore(connString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &PostgresStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		ns TEXT PRIMARY KEY,
		doc JSONB NOT NULL,
		updated_at BIGINT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *PostgresStore) Load() (*models.DraftState, error) {
	var doc []byte
	err := s.db.QueryRow(`SELECT doc FROM snapshots WHERE ns = $1`, Namespace).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}

	var state models.DraftState
	if err := json.Unmarshal(doc, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *PostgresStore) Save(state *models.DraftState) error {
	doc, err := json.Marshal(state)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO snapshots (ns, doc, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (ns) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at
	`, Namespace, doc, time.Now().Unix())
	return err
}

func (s *PostgresStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM snapshots WHERE ns = $1`, Namespace)
	return err
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
