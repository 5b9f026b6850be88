package repository

import (
	"context"

	"github.com/tiaocarreiro/top5/internal/domain"
)

// UserRepository is the contract the core needs from the user store.
// Authentication itself is handled outside this service.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (domain.User, error)
}
