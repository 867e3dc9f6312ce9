// ABOUTME: Storage is the durable Memory Store backed by SQLite
// ABOUTME: Owns the connection, the embedding dimension and the replace lock
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
)

var (
	// ErrDimensionMismatch is returned when an embedding does not match the store dimension
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrStaleSelection is returned by Replace when a selected memory no longer exists
	ErrStaleSelection = errors.New("selected memory no longer present")
)

const metaDimensionKey = "embedding_dimension"

// Storage manages all persisted memories.
// Replace and DeleteAll hold mu exclusively; reads hold it shared.
type Storage struct {
	db  *DB
	dim int
	mu  sync.RWMutex
}

// NewStorage opens storage at the default XDG path
func NewStorage(dim int) (*Storage, error) {
	return NewStorageWithPath(DefaultDBPath(), dim)
}

// NewStorageWithPath opens storage with a custom database path
func NewStorageWithPath(dbPath string, dim int) (*Storage, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newStorage(db, dim)
}

// NewStorageInMemory creates an in-memory storage (for testing)
func NewStorageInMemory(dim int) (*Storage, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return newStorage(db, dim)
}

func newStorage(db *DB, dim int) (*Storage, error) {
	if dim <= 0 {
		_ = db.Close()
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}

	if err := ensureDimension(db, dim); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Storage{db: db, dim: dim}, nil
}

// ensureDimension records dim on first use and rejects a store created with another one
func ensureDimension(db *DB, dim int) error {
	var value string
	err := db.QueryRow("SELECT value FROM store_meta WHERE key = ?", metaDimensionKey).Scan(&value)
	if err == sql.ErrNoRows {
		_, err = db.Exec("INSERT INTO store_meta (key, value) VALUES (?, ?)", metaDimensionKey, strconv.Itoa(dim))
		if err != nil {
			return fmt.Errorf("failed to record embedding dimension: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read embedding dimension: %w", err)
	}

	stored, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("corrupt embedding dimension %q: %w", value, err)
	}
	if stored != dim {
		return fmt.Errorf("%w: store was created with %d, configured %d", ErrDimensionMismatch, stored, dim)
	}
	return nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Dimension returns the embedding dimension every memory must have
func (s *Storage) Dimension() int {
	return s.dim
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.db.Path()
}
