package repository

import (
	"context"

	"identity-service/internal/domain"
)

// IdentityRepository defines persistence operations for Identity entities.
type IdentityRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, identity *domain.Identity) (int64, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Identity, error)
	GetByUsername(ctx context.Context, username string) (*domain.Identity, error)
}
