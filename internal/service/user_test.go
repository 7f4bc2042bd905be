package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tiendago/tienda-api/internal/dto"
	"github.com/tiendago/tienda-api/internal/model"
	"github.com/tiendago/tienda-api/internal/repository"
)

type mockUserRepo struct {
	byEmail map[string]*model.User
	byID    map[int64]*model.User
	nextID  int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byEmail: make(map[string]*model.User), byID: make(map[int64]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if _, ok := m.byEmail[user.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	m.byEmail[user.Email] = user
	m.byID[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	return m.byID[id], nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return m.byEmail[email], nil
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	var users []model.User
	for _, u := range m.byID {
		users = append(users, *u)
	}
	return users, nil
}

func (m *mockUserRepo) addAdmin(email string) {
	m.nextID++
	u := &model.User{ID: m.nextID, Name: "Admin", Email: email, Role: model.RoleAdmin}
	m.byEmail[email] = u
	m.byID[u.ID] = u
}

func TestUserService_Register(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, NewAccessService(repo))

	id, err := svc.Register(context.Background(), dto.RegisterRequest{
		Nombre: "Ana", Email: "ana@example.com", Password: "secreta123",
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	created := repo.byEmail["ana@example.com"]
	require.NotNil(t, created)
	assert.Equal(t, model.RoleCustomer, created.Role)
	assert.NotEqual(t, "secreta123", created.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secreta123")))
}

func TestUserService_Register_Duplicate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, NewAccessService(repo))

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Nombre: "Ana", Email: "ana@example.com", Password: "secreta123",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), dto.RegisterRequest{
		Nombre: "Otra Ana", Email: "ana@example.com", Password: "distinta",
	})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	assert.Len(t, repo.byID, 1)
	assert.Equal(t, "Ana", repo.byEmail["ana@example.com"].Name)
}

func TestUserService_Login(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, NewAccessService(repo))

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Nombre: "Ana", Email: "ana@example.com", Password: "secreta123",
	})
	require.NoError(t, err)

	user, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "ana@example.com", Password: "secreta123",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, model.RoleCustomer, user.Rol)
}

func TestUserService_Login_WrongPassword(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, NewAccessService(repo))

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Nombre: "Ana", Email: "ana@example.com", Password: "secreta123",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), dto.LoginRequest{
		Email: "ana@example.com", Password: "incorrecta",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_Login_UnknownEmail(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, NewAccessService(repo))

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "nadie@example.com", Password: "lo-que-sea",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, NewAccessService(repo))

	_, err := svc.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_List_AdminOnly(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, NewAccessService(repo))
	repo.addAdmin("admin@example.com")

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Nombre: "Ana", Email: "ana@example.com", Password: "secreta123",
	})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), "ana@example.com")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.List(context.Background(), "desconocido@example.com")
	assert.ErrorIs(t, err, ErrForbidden)

	users, err := svc.List(context.Background(), "admin@example.com")
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
