package points

import (
	"context"
	"errors"
	"fmt"

	"github.com/accessmap/backend/internal/domain/enums"
	"github.com/accessmap/backend/internal/domain/model"
	"github.com/accessmap/backend/internal/pkg/validate"
	pgrepo "github.com/accessmap/backend/internal/repo/postgres"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("user not found")
)

type UserStore interface {
	ApplyGrant(ctx context.Context, userID string, kind enums.PointsKind, points int) (int, int, error)
	GetByID(ctx context.Context, userID string) (model.User, error)
}

// Service applies point grants emitted by the report lifecycle. The store
// keeps the derived level in step with the running total.
type Service struct {
	store UserStore
}

func NewService(store UserStore) *Service {
	return &Service{store: store}
}

// Apply credits each grant to its user. A failing grant aborts the batch
// and returns the error.
func (s *Service) Apply(ctx context.Context, grants []model.PointsGrant) error {
	if s.store == nil {
		return fmt.Errorf("user store is nil")
	}

	for _, grant := range grants {
		if !validate.Required(grant.UserID) || grant.Points <= 0 {
			return fmt.Errorf("bad grant %+v: %w", grant, ErrInvalidInput)
		}

		if _, _, err := s.store.ApplyGrant(ctx, grant.UserID, grant.Kind, grant.Points); err != nil {
			return fmt.Errorf("apply grant for %s: %w", grant.UserID, err)
		}
	}

	return nil
}

func (s *Service) Get(ctx context.Context, userID string) (model.User, error) {
	if !validate.Required(userID) {
		return model.User{}, fmt.Errorf("user id is required: %w", ErrInvalidInput)
	}
	if s.store == nil {
		return model.User{}, fmt.Errorf("user store is nil")
	}

	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("get user points: %w", err)
	}

	return user, nil
}
