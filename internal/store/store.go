package store

import (
	"context"
	"errors"

	"bourse/internal/engine"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderCommand persists orders after every state change.
type OrderCommand interface {
	Save(ctx context.Context, security string, orders ...engine.Order) error
}

// OrderQuery reads persisted orders.
type OrderQuery interface {
	Get(ctx context.Context, id string) (engine.Order, error)
	// Every order placed by the shareholder, oldest first.
	ListByShareholder(ctx context.Context, shareholderID string) ([]engine.Order, error)
	// Non-terminal orders of the security, oldest first, ready to seed a book.
	ListResting(ctx context.Context, security string) ([]*engine.Order, error)
}

type Repository interface {
	OrderCommand
	OrderQuery
}
