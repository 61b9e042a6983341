package store

import (
	"context"

	"github.com/google/uuid"

	"bookwell/backend/internal/domain"
)

type UserRepository interface {
	Get(ctx context.Context, id uuid.UUID) (domain.User, error)
	ListProviders(ctx context.Context) ([]domain.User, error)
}
