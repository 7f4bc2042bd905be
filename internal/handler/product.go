package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/tiendago/tienda-api/internal/dto"
	"github.com/tiendago/tienda-api/internal/service"
)

type ProductHandler struct {
	svc *service.ProductService
	log *slog.Logger
}

func NewProductHandler(svc *service.ProductService, log *slog.Logger) *ProductHandler {
	return &ProductHandler{svc: svc, log: log}
}

// Create handles POST /productos (admin only).
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nombre, precio y stock son obligatorios."})
		return
	}

	id, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Acceso denegado. Solo el administrador puede agregar productos."})
		case errors.Is(err, service.ErrInvalidProduct):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Nombre, precio y stock son obligatorios."})
		default:
			h.log.Error("create product", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo registrar el producto"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"mensaje": "Producto agregado correctamente", "id": id})
}

// GetByID handles GET /productos/:id.
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	product, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Producto no encontrado"})
			return
		}
		h.log.Error("get product", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo obtener el producto"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// List handles GET /productos.
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.log.Error("list products", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudieron obtener los productos"})
		return
	}

	c.JSON(http.StatusOK, products)
}

// Update handles PUT /productos/:id (admin only, partial update).
func (h *ProductHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Solicitud inválida"})
		return
	}

	if err := h.svc.Update(c.Request.Context(), id, req); err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Acceso denegado. Solo el administrador puede actualizar productos."})
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Producto no encontrado"})
		case errors.Is(err, service.ErrInvalidProduct):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Solicitud inválida"})
		default:
			h.log.Error("update product", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al actualizar el producto"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"mensaje": "Producto actualizado correctamente"})
}

// Delete handles DELETE /productos/:id (admin only).
func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	var req dto.DeleteProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email es obligatorio"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), req.Email, id); err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Acceso denegado. Solo el administrador puede eliminar productos."})
		case errors.Is(err, pgx.ErrNoRows):
			c.JSON(http.StatusNotFound, gin.H{"error": "Producto no encontrado"})
		default:
			h.log.Error("delete product", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al eliminar el producto"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"mensaje": "Producto eliminado correctamente"})
}
