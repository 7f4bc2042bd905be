package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendago/tienda-api/internal/model"
)

func TestUserRepo_CreateAndGetByEmail(t *testing.T) {
	cleanupTable(t, "cart_lines", "products", "users")

	repo := NewUserRepository(testPool)
	ctx := context.Background()

	user := &model.User{
		Name: "Ana", Email: "ana@example.com", PasswordHash: "hashed", Role: model.RoleCustomer,
	}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotZero(t, user.ID)

	found, err := repo.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	cleanupTable(t, "cart_lines", "products", "users")

	repo := NewUserRepository(testPool)
	ctx := context.Background()

	first := &model.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "h", Role: model.RoleCustomer}
	require.NoError(t, repo.Create(ctx, first))

	second := &model.User{Name: "Otra", Email: "ana@example.com", PasswordHash: "h2", Role: model.RoleCustomer}
	err := repo.Create(ctx, second)
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	// The original row is untouched.
	found, err := repo.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana", found.Name)
}

func TestProductRepo_CRUD(t *testing.T) {
	cleanupTable(t, "cart_lines", "products")

	repo := NewProductRepository(testPool)
	ctx := context.Background()

	desc := "mecánico"
	product := &model.Product{
		Name: "Teclado", Description: &desc,
		Price: decimal.NewFromFloat(29.99), Stock: 100,
	}
	require.NoError(t, repo.Create(ctx, product))
	assert.NotZero(t, product.ID)

	found, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Teclado", found.Name)
	assert.True(t, found.Price.Equal(decimal.NewFromFloat(29.99)))

	product.Name = "Teclado RGB"
	require.NoError(t, repo.Update(ctx, product))

	found, _ = repo.GetByID(ctx, product.ID)
	assert.Equal(t, "Teclado RGB", found.Name)

	require.NoError(t, repo.Delete(ctx, product.ID))
	found, _ = repo.GetByID(ctx, product.ID)
	assert.Nil(t, found)

	assert.ErrorIs(t, repo.Delete(ctx, product.ID), pgx.ErrNoRows)
}

func createTestProduct(t *testing.T, stock int) *model.Product {
	t.Helper()
	repo := NewProductRepository(testPool)
	p := &model.Product{Name: "Teclado", Price: decimal.NewFromInt(30), Stock: stock}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func createTestUser(t *testing.T, email string) *model.User {
	t.Helper()
	repo := NewUserRepository(testPool)
	u := &model.User{Name: "Ana", Email: email, PasswordHash: "h", Role: model.RoleCustomer}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestCartRepo_ReserveDecrementsStock(t *testing.T) {
	cleanupTable(t, "cart_lines", "products", "users")

	cartRepo := NewCartRepository(testPool)
	productRepo := NewProductRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "ana@example.com")
	product := createTestProduct(t, 5)

	line := &model.CartLine{UserID: &user.ID, ProductID: product.ID, Quantity: 3}
	require.NoError(t, cartRepo.Reserve(ctx, line))
	assert.NotZero(t, line.ID)

	found, err := productRepo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Stock)
}

func TestCartRepo_Reserve_InsufficientStockRollsBack(t *testing.T) {
	cleanupTable(t, "cart_lines", "products", "users")

	cartRepo := NewCartRepository(testPool)
	productRepo := NewProductRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "ana@example.com")
	product := createTestProduct(t, 2)

	line := &model.CartLine{UserID: &user.ID, ProductID: product.ID, Quantity: 3}
	err := cartRepo.Reserve(ctx, line)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// No line inserted, no stock moved.
	found, err := productRepo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Stock)

	entries, err := cartRepo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCartRepo_UpdateQuantity_MovesDelta(t *testing.T) {
	cleanupTable(t, "cart_lines", "products", "users")

	cartRepo := NewCartRepository(testPool)
	productRepo := NewProductRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "ana@example.com")
	product := createTestProduct(t, 5)

	line := &model.CartLine{UserID: &user.ID, ProductID: product.ID, Quantity: 3}
	require.NoError(t, cartRepo.Reserve(ctx, line))

	// Shrinking returns stock.
	require.NoError(t, cartRepo.UpdateQuantity(ctx, line.ID, 1))
	found, _ := productRepo.GetByID(ctx, product.ID)
	assert.Equal(t, 4, found.Stock)

	// Growing beyond what remains fails with no partial effect.
	err := cartRepo.UpdateQuantity(ctx, line.ID, 6)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	found, _ = productRepo.GetByID(ctx, product.ID)
	assert.Equal(t, 4, found.Stock)
	got, _ := cartRepo.GetLine(ctx, line.ID)
	assert.Equal(t, 1, got.Quantity)

	assert.ErrorIs(t, cartRepo.UpdateQuantity(ctx, 999999, 2), pgx.ErrNoRows)
}

func TestCartRepo_ReleaseRestoresStock(t *testing.T) {
	cleanupTable(t, "cart_lines", "products", "users")

	cartRepo := NewCartRepository(testPool)
	productRepo := NewProductRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "ana@example.com")
	product := createTestProduct(t, 5)

	line := &model.CartLine{UserID: &user.ID, ProductID: product.ID, Quantity: 3}
	require.NoError(t, cartRepo.Reserve(ctx, line))
	require.NoError(t, cartRepo.Release(ctx, line.ID))

	found, _ := productRepo.GetByID(ctx, product.ID)
	assert.Equal(t, 5, found.Stock)

	gone, err := cartRepo.GetLine(ctx, line.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	assert.ErrorIs(t, cartRepo.Release(ctx, line.ID), pgx.ErrNoRows)
}

func TestCartRepo_ReleaseAll(t *testing.T) {
	cleanupTable(t, "cart_lines", "products", "users")

	cartRepo := NewCartRepository(testPool)
	productRepo := NewProductRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "ana@example.com")
	teclado := createTestProduct(t, 5)
	mouse := &model.Product{Name: "Mouse", Price: decimal.NewFromInt(15), Stock: 8}
	require.NoError(t, productRepo.Create(ctx, mouse))

	require.NoError(t, cartRepo.Reserve(ctx, &model.CartLine{UserID: &user.ID, ProductID: teclado.ID, Quantity: 2}))
	require.NoError(t, cartRepo.Reserve(ctx, &model.CartLine{UserID: &user.ID, ProductID: mouse.ID, Quantity: 3}))

	productIDs, err := cartRepo.ReleaseAll(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, productIDs, 2)

	foundTeclado, _ := productRepo.GetByID(ctx, teclado.ID)
	foundMouse, _ := productRepo.GetByID(ctx, mouse.ID)
	assert.Equal(t, 5, foundTeclado.Stock)
	assert.Equal(t, 8, foundMouse.Stock)

	entries, err := cartRepo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Clearing an empty cart succeeds with nothing to restore.
	productIDs, err = cartRepo.ReleaseAll(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, productIDs)
}

func TestCartRepo_ListByUser_Subtotals(t *testing.T) {
	cleanupTable(t, "cart_lines", "products", "users")

	cartRepo := NewCartRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, "ana@example.com")
	product := createTestProduct(t, 10)

	require.NoError(t, cartRepo.Reserve(ctx, &model.CartLine{UserID: &user.ID, ProductID: product.ID, Quantity: 2}))

	entries, err := cartRepo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Teclado", entries[0].ProductName)
	assert.True(t, entries[0].Subtotal.Equal(decimal.NewFromInt(60)))
}
