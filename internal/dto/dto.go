package dto

import (
	"github.com/shopspring/decimal"
)

// JSON field names stay in Spanish: the browser frontend in public/ was
// written against this wire format.

// --- Users ---

type RegisterRequest struct {
	Nombre   string `json:"nombre" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
	Rol    string `json:"rol"`
}

type LoginResponse struct {
	Mensaje string       `json:"mensaje"`
	Usuario UserResponse `json:"usuario"`
}

// --- Products ---

type CreateProductRequest struct {
	Email       string          `json:"email" binding:"required,email"`
	Nombre      string          `json:"nombre" binding:"required"`
	Descripcion *string         `json:"descripcion"`
	Precio      decimal.Decimal `json:"precio" binding:"required"`
	Stock       *int            `json:"stock" binding:"required"`
	Categoria   *string         `json:"categoria"`
}

// UpdateProductRequest uses pointers so "field absent" and "field set to a
// zero value" are distinguishable: price 0 or an emptied description is a
// real update, not a no-op.
type UpdateProductRequest struct {
	Email       string           `json:"email" binding:"required,email"`
	Nombre      *string          `json:"nombre"`
	Descripcion *string          `json:"descripcion"`
	Precio      *decimal.Decimal `json:"precio"`
	Stock       *int             `json:"stock"`
	Categoria   *string          `json:"categoria"`
}

type DeleteProductRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ProductResponse struct {
	ID          int64           `json:"id"`
	Nombre      string          `json:"nombre"`
	Precio      decimal.Decimal `json:"precio"`
	Descripcion *string         `json:"descripcion"`
	Stock       int             `json:"stock"`
	Categoria   *string         `json:"categoria"`
}

// --- Cart ---

type AddCartLineRequest struct {
	UsuarioID  *int64 `json:"usuario_id"`
	ProductoID int64  `json:"producto_id" binding:"required"`
	Cantidad   int    `json:"cantidad" binding:"omitempty,min=1"`
}

type AddCartLineResponse struct {
	Mensaje    string `json:"mensaje"`
	ProductoID int64  `json:"producto_id"`
	Cantidad   int    `json:"cantidad"`
}

type UpdateCartLineRequest struct {
	Cantidad int `json:"cantidad" binding:"required,min=1"`
}

type CartEntryResponse struct {
	CarritoID  int64           `json:"carrito_id"`
	ProductoID int64           `json:"producto_id"`
	Nombre     string          `json:"nombre"`
	Precio     decimal.Decimal `json:"precio"`
	Cantidad   int             `json:"cantidad"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

type CartResponse struct {
	UsuarioID int64               `json:"usuario_id"`
	Productos []CartEntryResponse `json:"productos"`
	Total     decimal.Decimal     `json:"total"`
}

type EmptyCartResponse struct {
	Mensaje   string              `json:"mensaje"`
	Productos []CartEntryResponse `json:"productos"`
}

type CartOverviewResponse struct {
	CarritoID int64           `json:"carrito_id"`
	Usuario   string          `json:"usuario"`
	Producto  string          `json:"producto"`
	Cantidad  int             `json:"cantidad"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}
