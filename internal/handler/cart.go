package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tiendago/tienda-api/internal/dto"
	"github.com/tiendago/tienda-api/internal/service"
)

type CartHandler struct {
	svc *service.CartService
	log *slog.Logger
}

func NewCartHandler(svc *service.CartService, log *slog.Logger) *CartHandler {
	return &CartHandler{svc: svc, log: log}
}

// AddLine handles POST /carrito.
func (h *CartHandler) AddLine(c *gin.Context) {
	var req dto.AddCartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "producto_id es obligatorio"})
		return
	}

	line, err := h.svc.AddLine(c.Request.Context(), req.UsuarioID, req.ProductoID, req.Cantidad)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Producto no encontrado"})
		case errors.Is(err, service.ErrInsufficientStock):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Stock insuficiente"})
		default:
			h.log.Error("add cart line", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo agregar al carrito"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.AddCartLineResponse{
		Mensaje:    "Producto agregado al carrito",
		ProductoID: line.ProductID,
		Cantidad:   line.Quantity,
	})
}

// GetCart handles GET /carrito/:usuarioID. An empty cart is a 200 with an
// explicit empty payload.
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("usuarioID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	entries, total, err := h.svc.GetCart(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("get cart", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No se pudo obtener el carrito"})
		return
	}

	if len(entries) == 0 {
		c.JSON(http.StatusOK, dto.EmptyCartResponse{
			Mensaje:   "El carrito está vacío",
			Productos: []dto.CartEntryResponse{},
		})
		return
	}

	c.JSON(http.StatusOK, dto.CartResponse{UsuarioID: userID, Productos: entries, Total: total})
}

// UpdateLine handles PUT /carrito/:id.
func (h *CartHandler) UpdateLine(c *gin.Context) {
	lineID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	var req dto.UpdateCartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cantidad inválida"})
		return
	}

	if err := h.svc.UpdateLine(c.Request.Context(), lineID, req.Cantidad); err != nil {
		switch {
		case errors.Is(err, service.ErrCartLineNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Producto no encontrado en el carrito"})
		case errors.Is(err, service.ErrInsufficientStock):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Stock insuficiente"})
		default:
			h.log.Error("update cart line", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al actualizar la cantidad"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"mensaje": "Cantidad actualizada correctamente"})
}

// RemoveLine handles DELETE /carrito/:id.
func (h *CartHandler) RemoveLine(c *gin.Context) {
	lineID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	if err := h.svc.RemoveLine(c.Request.Context(), lineID); err != nil {
		if errors.Is(err, service.ErrCartLineNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Producto no encontrado en el carrito"})
			return
		}
		h.log.Error("remove cart line", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al eliminar del carrito"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"mensaje": "Producto eliminado del carrito"})
}

// Clear handles DELETE /carrito/usuario/:usuarioID. Registered through the
// :id wildcard, so the static segment is validated here.
func (h *CartHandler) Clear(c *gin.Context) {
	if c.Param("id") != "usuario" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ruta no encontrada"})
		return
	}
	userID, err := strconv.ParseInt(c.Param("usuarioID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	if err := h.svc.Clear(c.Request.Context(), userID); err != nil {
		h.log.Error("clear cart", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al vaciar el carrito"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"mensaje": "Carrito vaciado correctamente"})
}

// ListAll handles GET /carritos?email= (admin only). The caller's role is
// resolved from the users table, not taken from the request.
func (h *CartHandler) ListAll(c *gin.Context) {
	rows, err := h.svc.ListAll(c.Request.Context(), c.Query("email"))
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Acceso denegado: solo administradores"})
			return
		}
		h.log.Error("list all carts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al obtener carritos"})
		return
	}

	c.JSON(http.StatusOK, rows)
}
