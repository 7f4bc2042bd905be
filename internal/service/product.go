package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tiendago/tienda-api/internal/dto"
	"github.com/tiendago/tienda-api/internal/model"
	"github.com/tiendago/tienda-api/internal/repository"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product data")
)

const productCacheTTL = 60 * time.Second

type ProductService struct {
	productRepo repository.ProductRepository
	access      *AccessService
	redisClient *redis.Client
}

func NewProductService(productRepo repository.ProductRepository, access *AccessService, redisClient *redis.Client) *ProductService {
	return &ProductService{productRepo: productRepo, access: access, redisClient: redisClient}
}

func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (int64, error) {
	if err := s.access.RequireAdmin(ctx, req.Email); err != nil {
		return 0, err
	}
	if req.Precio.IsNegative() || *req.Stock < 0 {
		return 0, ErrInvalidProduct
	}

	product := &model.Product{
		Name:        req.Nombre,
		Price:       req.Precio,
		Description: req.Descripcion,
		Stock:       *req.Stock,
		Category:    req.Categoria,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return 0, fmt.Errorf("create product: %w", err)
	}
	return product.ID, nil
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	cacheKey := productCacheKey(id)

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var resp dto.ProductResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	resp := toProductResponse(product)

	if s.redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, productCacheTTL)
		}
	}

	return &resp, nil
}

func (s *ProductService) List(ctx context.Context) ([]dto.ProductResponse, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	resp := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		resp = append(resp, toProductResponse(&products[i]))
	}
	return resp, nil
}

// Update applies only the fields present in the request. A supplied zero
// value (price 0, empty description) is written, not skipped.
func (s *ProductService) Update(ctx context.Context, id int64, req dto.UpdateProductRequest) error {
	if err := s.access.RequireAdmin(ctx, req.Email); err != nil {
		return err
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}

	if req.Nombre != nil {
		product.Name = *req.Nombre
	}
	if req.Descripcion != nil {
		product.Description = req.Descripcion
	}
	if req.Precio != nil {
		if req.Precio.IsNegative() {
			return ErrInvalidProduct
		}
		product.Price = *req.Precio
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return ErrInvalidProduct
		}
		product.Stock = *req.Stock
	}
	if req.Categoria != nil {
		product.Category = req.Categoria
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	s.invalidateCache(ctx, id)
	return nil
}

func (s *ProductService) Delete(ctx context.Context, callerEmail string, id int64) error {
	if err := s.access.RequireAdmin(ctx, callerEmail); err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx, id)
	return nil
}

func (s *ProductService) invalidateCache(ctx context.Context, id int64) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, productCacheKey(id))
	}
}

func productCacheKey(id int64) string {
	return "product:" + strconv.FormatInt(id, 10)
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:          p.ID,
		Nombre:      p.Name,
		Precio:      p.Price,
		Descripcion: p.Description,
		Stock:       p.Stock,
		Categoria:   p.Category,
	}
}
