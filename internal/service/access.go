package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tiendago/tienda-api/internal/model"
	"github.com/tiendago/tienda-api/internal/repository"
)

// ErrForbidden means the caller's resolved role does not permit the
// operation. An unknown email resolves to forbidden as well.
var ErrForbidden = errors.New("access denied")

// AccessService resolves a caller's role from their email. Privileged
// operations check here before touching anything; the role always comes
// from the users table, never from a client-supplied field.
type AccessService struct {
	userRepo repository.UserRepository
}

func NewAccessService(userRepo repository.UserRepository) *AccessService {
	return &AccessService{userRepo: userRepo}
}

func (s *AccessService) RequireAdmin(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("resolve role: %w", err)
	}
	if user == nil || user.Role != model.RoleAdmin {
		return ErrForbidden
	}
	return nil
}
