package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/tiendago/tienda-api/internal/dto"
	"github.com/tiendago/tienda-api/internal/model"
	"github.com/tiendago/tienda-api/internal/repository"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

type UserService struct {
	userRepo repository.UserRepository
	access   *AccessService
}

func NewUserService(userRepo repository.UserRepository, access *AccessService) *UserService {
	return &UserService{userRepo: userRepo, access: access}
}

// Register creates a customer account. The role is always RoleCustomer;
// there is no way for the caller to request anything else.
func (s *UserService) Register(ctx context.Context, req dto.RegisterRequest) (int64, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         req.Nombre,
		Email:        req.Email,
		PasswordHash: string(hashed),
		Role:         model.RoleCustomer,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return 0, ErrUserAlreadyExists
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return user.ID, nil
}

func (s *UserService) Login(ctx context.Context, req dto.LoginRequest) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// List returns every registered user. Admin only.
func (s *UserService) List(ctx context.Context, callerEmail string) ([]dto.UserResponse, error) {
	if err := s.access.RequireAdmin(ctx, callerEmail); err != nil {
		return nil, err
	}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, toUserResponse(&users[i]))
	}
	return resp, nil
}

// toUserResponse never exposes the password hash.
func toUserResponse(user *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:     user.ID,
		Nombre: user.Name,
		Email:  user.Email,
		Rol:    user.Role,
	}
}
