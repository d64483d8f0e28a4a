package requirement

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store backed by PostgreSQL. Condition clauses are
// kept in their own table ordered by position; the variable schema is a JSON
// column. Rows are reassembled through the same Assemble path as every other
// requirement source, so a row that no longer parses surfaces as
// ErrMalformedRequirement rather than a half-built requirement
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed requirement store
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Add inserts a new requirement and its condition clauses
func (s *PostgresStore) Add(req *Requirement) error {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM requirements WHERE id = $1)
	`, req.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check requirement existence: %w", err)
	}
	if exists {
		return fmt.Errorf("requirement with ID %s already exists", req.ID)
	}

	schemaJSON, err := json.Marshal(req.Schema)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now

	_, err = tx.Exec(`
		INSERT INTO requirements (id, title, observable, schema, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, req.ID, req.Title, req.Observable, schemaJSON, req.Active,
		req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert requirement: %w", err)
	}

	for i, cond := range req.Conditions {
		_, err = tx.Exec(`
			INSERT INTO conditions (requirement_id, position, clause)
			VALUES ($1, $2, $3)
		`, req.ID, i, cond.Text)
		if err != nil {
			return fmt.Errorf("failed to insert condition %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit requirement: %w", err)
	}
	return nil
}

// Get retrieves a requirement by ID and reassembles its conditions
func (s *PostgresStore) Get(id string) (*Requirement, error) {
	req := &Requirement{}
	var schemaJSON []byte
	err := s.db.QueryRow(`
		SELECT id, title, observable, schema, active, created_at, updated_at
		FROM requirements
		WHERE id = $1
	`, id).Scan(
		&req.ID,
		&req.Title,
		&req.Observable,
		&schemaJSON,
		&req.Active,
		&req.CreatedAt,
		&req.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get requirement: %w", err)
	}

	if err := json.Unmarshal(schemaJSON, &req.Schema); err != nil {
		return nil, fmt.Errorf("invalid schema for requirement %s: %w", id, err)
	}

	clauses, err := s.clauses(id)
	if err != nil {
		return nil, err
	}
	return Assemble(req, clauses)
}

func (s *PostgresStore) clauses(id string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT clause
		FROM conditions
		WHERE requirement_id = $1
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list conditions: %w", err)
	}
	defer rows.Close()

	var clauses []string
	for rows.Next() {
		var clause string
		if err := rows.Scan(&clause); err != nil {
			return nil, fmt.Errorf("failed to scan condition: %w", err)
		}
		clauses = append(clauses, clause)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conditions: %w", err)
	}
	return clauses, nil
}

// ListActive returns all active requirements ordered by ID
func (s *PostgresStore) ListActive() ([]*Requirement, error) {
	rows, err := s.db.Query(`
		SELECT id
		FROM requirements
		WHERE active = true
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active requirements: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan requirement: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requirements: %w", err)
	}

	reqs := make([]*Requirement, 0, len(ids))
	for _, id := range ids {
		req, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// Update modifies an existing requirement, replacing its condition clauses
func (s *PostgresStore) Update(req *Requirement) error {
	if _, err := s.Get(req.ID); err != nil {
		return err
	}

	schemaJSON, err := json.Marshal(req.Schema)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	req.UpdatedAt = time.Now()

	result, err := tx.Exec(`
		UPDATE requirements
		SET title = $1, observable = $2, schema = $3, active = $4, updated_at = $5
		WHERE id = $6
	`, req.Title, req.Observable, schemaJSON, req.Active, req.UpdatedAt, req.ID)
	if err != nil {
		return fmt.Errorf("failed to update requirement: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, req.ID)
	}

	if _, err := tx.Exec(`DELETE FROM conditions WHERE requirement_id = $1`, req.ID); err != nil {
		return fmt.Errorf("failed to clear conditions: %w", err)
	}
	for i, cond := range req.Conditions {
		_, err = tx.Exec(`
			INSERT INTO conditions (requirement_id, position, clause)
			VALUES ($1, $2, $3)
		`, req.ID, i, cond.Text)
		if err != nil {
			return fmt.Errorf("failed to insert condition %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit update: %w", err)
	}
	return nil
}

// Delete removes a requirement and its conditions
func (s *PostgresStore) Delete(id string) error {
	result, err := s.db.Exec(`
		DELETE FROM requirements
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete requirement: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}
