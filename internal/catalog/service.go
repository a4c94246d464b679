// internal/catalog/service.go
package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the catalog service.
type Service interface {
	AddBook(ctx context.Context, isbn, title, author string) (*Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*Book, error)
	SearchByTitle(ctx context.Context, query string) ([]*Book, error)
	RemoveBook(ctx context.Context, id uuid.UUID) error
}
