// ABOUTME: Memory Store operations: put, list, count, oldest-first selection and atomic replace
// ABOUTME: All SQL and BLOB handling for memories stays inside this file
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harper/factmemory/internal/models"
)

const memoryColumns = `id, content, category, embedding, created_at, source_snippet, compressed`

// execer is satisfied by both *DB and *sql.Tx
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// validate checks a memory against the store invariants before it is written
func (s *Storage) validate(m *models.Memory) error {
	if m == nil {
		return errors.New("memory cannot be nil")
	}
	if m.ID == "" {
		return errors.New("memory id cannot be empty")
	}
	if strings.TrimSpace(m.Content) == "" {
		return errors.New("memory content cannot be empty")
	}
	if !m.Category.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidCategory, m.Category)
	}
	if len(m.Embedding) != s.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(m.Embedding), s.dim)
	}
	return nil
}

// Put stores a new memory. A single-row insert needs no store lock.
func (s *Storage) Put(m *models.Memory) error {
	if err := s.validate(m); err != nil {
		return err
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	if err := insertMemory(s.db, m); err != nil {
		return fmt.Errorf("failed to store memory: %w", err)
	}
	return nil
}

func insertMemory(ex execer, m *models.Memory) error {
	compressed := 0
	if m.Compressed {
		compressed = 1
	}

	_, err := ex.Exec(`
		INSERT INTO memories (`+memoryColumns+`, dim)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Content, string(m.Category), vectorToBlob(m.Embedding),
		m.CreatedAt.UnixNano(), nullString(m.SourceSnippet), compressed, len(m.Embedding))
	return err
}

// Get retrieves a memory by ID. Returns nil if not found.
func (s *Storage) Get(id string) (*models.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT `+memoryColumns+` FROM memories WHERE id = ?`, id)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memory: %w", err)
	}
	return m, nil
}

// List returns memories in insertion order. An empty category lists everything.
func (s *Storage) List(category models.Category) ([]models.Memory, error) {
	if category != "" && !category.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidCategory, category)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		rows *sql.Rows
		err  error
	)
	if category == "" {
		rows, err = s.db.Query(`SELECT ` + memoryColumns + ` FROM memories ORDER BY seq ASC`)
	} else {
		rows, err = s.db.Query(`SELECT `+memoryColumns+` FROM memories WHERE category = ? ORDER BY seq ASC`, string(category))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanMemories(rows)
}

// Count returns the total number of stored memories
func (s *Storage) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM memories`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count memories: %w", err)
	}
	return count, nil
}

// CountByCategory returns the number of memories per category, including empty ones
func (s *Storage) CountByCategory() (map[models.Category]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.Category]int, len(models.Categories))
	for _, c := range models.Categories {
		counts[c] = 0
	}

	rows, err := s.db.Query(`SELECT category, COUNT(*) FROM memories GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to count memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			category string
			count    int
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[models.Category(category)] = count
	}
	return counts, rows.Err()
}

// OldestUncompressed returns up to limit non-summary memories, oldest first
func (s *Storage) OldestUncompressed(limit int) ([]models.Memory, error) {
	if limit <= 0 {
		return []models.Memory{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT `+memoryColumns+`
		FROM memories
		WHERE compressed = 0
		ORDER BY created_at ASC, seq ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select oldest memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanMemories(rows)
}

// Replace deletes every memory in oldIDs and inserts replacement in one transaction.
// If any id is already gone the transaction rolls back with ErrStaleSelection.
func (s *Storage) Replace(oldIDs []string, replacement *models.Memory) error {
	if len(oldIDs) == 0 {
		return errors.New("replace requires at least one memory id")
	}
	if err := s.validate(replacement); err != nil {
		return err
	}
	if replacement.CreatedAt.IsZero() {
		replacement.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	seen := make(map[string]bool, len(oldIDs))
	for _, id := range oldIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		res, err := tx.Exec(`DELETE FROM memories WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete memory %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check delete of %s: %w", id, err)
		}
		if n != 1 {
			return fmt.Errorf("%w: %s", ErrStaleSelection, id)
		}
	}

	if err := insertMemory(tx, replacement); err != nil {
		return fmt.Errorf("failed to insert replacement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace: %w", err)
	}
	return nil
}

// DeleteAll removes every memory and returns how many were deleted
func (s *Storage) DeleteAll() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM memories`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete memories: %w", err)
	}
	return res.RowsAffected()
}

func scanMemories(rows *sql.Rows) ([]models.Memory, error) {
	memories := []models.Memory{}
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		memories = append(memories, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memories: %w", err)
	}
	return memories, nil
}

func scanMemory(row rowScanner) (*models.Memory, error) {
	var (
		m          models.Memory
		category   string
		blob       []byte
		createdAt  int64
		snippet    sql.NullString
		compressed int
	)
	if err := row.Scan(&m.ID, &m.Content, &category, &blob, &createdAt, &snippet, &compressed); err != nil {
		return nil, err
	}

	m.Category = models.Category(category)
	m.Embedding = blobToVector(blob)
	m.CreatedAt = time.Unix(0, createdAt).UTC()
	m.SourceSnippet = snippet.String
	m.Compressed = compressed == 1
	return &m, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
