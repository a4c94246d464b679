// internal/catalog/implementation.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// service implements the Service interface.
type service struct {
	db *sql.DB
}

// NewService creates a new catalog service instance.
func NewService(db *sql.DB) Service {
	return &service{db: db}
}

// AddBook creates a new book in the catalog. ISBNs are unique.
func (s *service) AddBook(ctx context.Context, isbn, title, author string) (*Book, error) {
	book := &Book{
		ID:        uuid.New(),
		ISBN:      isbn,
		Title:     title,
		Author:    author,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (id, isbn, title, author, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, book.ID, book.ISBN, book.Title, book.Author, book.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateISBN
		}
		return nil, fmt.Errorf("insert book: %w", err)
	}

	return book, nil
}

// GetBook retrieves a book from the catalog by its ID.
func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*Book, error) {
	book := &Book{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, isbn, title, author, created_at
		FROM books
		WHERE id = $1
	`, id).Scan(&book.ID, &book.ISBN, &book.Title, &book.Author, &book.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	return book, nil
}

// SearchByTitle finds books whose title contains the query, case-insensitive.
func (s *service) SearchByTitle(ctx context.Context, query string) ([]*Book, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, isbn, title, author, created_at
		FROM books
		WHERE title ILIKE '%' || $1 || '%'
		ORDER BY title
		LIMIT 50
	`, query)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		book := &Book{}
		if err := rows.Scan(&book.ID, &book.ISBN, &book.Title, &book.Author, &book.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}

	return books, nil
}

// RemoveBook deletes a book from the catalog.
func (s *service) RemoveBook(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if affected == 0 {
		return ErrBookNotFound
	}
	return nil
}
