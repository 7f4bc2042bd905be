package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/tiendago/tienda-api/internal/dto"
	"github.com/tiendago/tienda-api/internal/model"
	"github.com/tiendago/tienda-api/internal/repository"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCartLineNotFound  = errors.New("cart line not found")
)

// CartService coordinates cart lines and product stock. Every mutation runs
// as a single repository transaction, so stock and reservations can never
// drift apart: adding or growing a line decrements stock by the same amount,
// shrinking or removing one restores it.
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	access      *AccessService
	redisClient *redis.Client
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, access *AccessService, redisClient *redis.Client) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo, access: access, redisClient: redisClient}
}

// AddLine reserves quantity units of a product for a user (nil for an
// anonymous cart). The caller sees ErrProductNotFound before any write is
// attempted; the reservation itself is atomic with the stock decrement.
func (s *CartService) AddLine(ctx context.Context, userID *int64, productID int64, quantity int) (*model.CartLine, error) {
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.Stock < quantity {
		return nil, fmt.Errorf("%w: disponible %d", ErrInsufficientStock, product.Stock)
	}

	line := &model.CartLine{UserID: userID, ProductID: productID, Quantity: quantity}
	if err := s.cartRepo.Reserve(ctx, line); err != nil {
		// A concurrent reservation may have taken the stock between the
		// read above and the transaction.
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, ErrInsufficientStock
		}
		return nil, fmt.Errorf("reserve cart line: %w", err)
	}

	s.invalidateProduct(ctx, productID)
	return line, nil
}

// GetCart returns the user's cart entries and grand total. An empty cart is
// an empty slice and a zero total, not an error.
func (s *CartService) GetCart(ctx context.Context, userID int64) ([]dto.CartEntryResponse, decimal.Decimal, error) {
	entries, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("list cart: %w", err)
	}

	total := decimal.Zero
	resp := make([]dto.CartEntryResponse, 0, len(entries))
	for _, e := range entries {
		total = total.Add(e.Subtotal)
		resp = append(resp, dto.CartEntryResponse{
			CarritoID:  e.LineID,
			ProductoID: e.ProductID,
			Nombre:     e.ProductName,
			Precio:     e.Price,
			Cantidad:   e.Quantity,
			Subtotal:   e.Subtotal,
		})
	}
	return resp, total, nil
}

// UpdateLine changes a line's quantity, moving the difference to or from
// the product's stock.
func (s *CartService) UpdateLine(ctx context.Context, lineID int64, quantity int) error {
	line, err := s.cartRepo.GetLine(ctx, lineID)
	if err != nil {
		return fmt.Errorf("get cart line: %w", err)
	}
	if line == nil {
		return ErrCartLineNotFound
	}

	if err := s.cartRepo.UpdateQuantity(ctx, lineID, quantity); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return ErrInsufficientStock
		}
		return fmt.Errorf("update cart line: %w", err)
	}

	s.invalidateProduct(ctx, line.ProductID)
	return nil
}

// RemoveLine deletes a line and returns its reserved quantity to stock.
func (s *CartService) RemoveLine(ctx context.Context, lineID int64) error {
	line, err := s.cartRepo.GetLine(ctx, lineID)
	if err != nil {
		return fmt.Errorf("get cart line: %w", err)
	}
	if line == nil {
		return ErrCartLineNotFound
	}

	if err := s.cartRepo.Release(ctx, lineID); err != nil {
		return fmt.Errorf("release cart line: %w", err)
	}

	s.invalidateProduct(ctx, line.ProductID)
	return nil
}

// Clear empties a user's cart, restoring stock for every line. Clearing an
// already-empty cart succeeds.
func (s *CartService) Clear(ctx context.Context, userID int64) error {
	productIDs, err := s.cartRepo.ReleaseAll(ctx, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	for _, id := range productIDs {
		s.invalidateProduct(ctx, id)
	}
	return nil
}

// ListAll returns every cart line across all users. Admin only.
func (s *CartService) ListAll(ctx context.Context, callerEmail string) ([]dto.CartOverviewResponse, error) {
	if err := s.access.RequireAdmin(ctx, callerEmail); err != nil {
		return nil, err
	}

	rows, err := s.cartRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all carts: %w", err)
	}

	resp := make([]dto.CartOverviewResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, dto.CartOverviewResponse{
			CarritoID: row.LineID,
			Usuario:   row.UserName,
			Producto:  row.ProductName,
			Cantidad:  row.Quantity,
			Subtotal:  row.Subtotal,
		})
	}
	return resp, nil
}

// Stock moved, so any cached product snapshot is stale.
func (s *CartService) invalidateProduct(ctx context.Context, productID int64) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, productCacheKey(productID))
	}
}
