// Package history implements optional storage of workflow invocations.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned by Load for an unknown invocation id.
	ErrNotFound = errors.New("invocation not found")

	// ErrNoDatabase is returned when no database path is configured.
	ErrNoDatabase = errors.New("history database path is not set (configure paths.database or COZE_PATHS_DATABASE)")
)

// Store manages the persistence of Invocation records using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens the SQLite database at dbPath, creating its directory and schema.
func NewStore(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, ErrNoDatabase
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// migrate creates the necessary tables if they don't exist.
func (s *Store) migrate() error {
	_, err := s.db.Exec(dbschema)
	return err
}

// Save inserts a finished invocation, assigning an id when it has none.
func (s *Store) Save(inv *Invocation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}
	if inv.Parameters == "" {
		inv.Parameters = "{}"
	}

	_, err := s.db.Exec(QueryCreateInvocation,
		inv.ID, inv.WorkflowID, inv.Endpoint, inv.Parameters, inv.Outcome,
		inv.StatusCode, inv.Body, inv.Error,
		inv.StartedAt, inv.EndedAt, inv.CreatedAt,
	)
	return err
}

// Load retrieves an Invocation by its ID.
func (s *Store) Load(id string) (*Invocation, error) {
	inv := &Invocation{}
	err := s.db.QueryRow(QueryLoadInvocation, id).Scan(
		&inv.ID, &inv.WorkflowID, &inv.Endpoint, &inv.Parameters, &inv.Outcome,
		&inv.StatusCode, &inv.Body, &inv.Error,
		&inv.StartedAt, &inv.EndedAt, &inv.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return inv, nil
}

// List retrieves invocations newest first with optional filtering and pagination.
func (s *Store) List(workflowID string, outcome Outcome, limit, offset int) ([]*Invocation, error) {
	rows, err := s.db.Query(QueryListInvocations, workflowID, workflowID, outcome, outcome, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invs []*Invocation
	for rows.Next() {
		inv := &Invocation{}
		if err := rows.Scan(
			&inv.ID, &inv.WorkflowID, &inv.Endpoint, &inv.Parameters, &inv.Outcome,
			&inv.StatusCode, &inv.Body, &inv.Error,
			&inv.StartedAt, &inv.EndedAt, &inv.CreatedAt,
		); err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}

	return invs, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
