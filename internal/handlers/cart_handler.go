package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/summer-camp-school/camp-service/internal/services"
	"github.com/summer-camp-school/camp-service/internal/utils"
)

type CartHandler struct {
	BaseHandler
	cartService services.CartService
}

func NewCartHandler(cartService services.CartService, logger utils.Logger) *CartHandler {
	return &CartHandler{
		BaseHandler: NewBaseHandler(logger),
		cartService: cartService,
	}
}

func (h *CartHandler) ListCart(c *gin.Context) {
	items, err := h.cartService.List(c.Request.Context(), c.Query("email"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *CartHandler) AddToCart(c *gin.Context) {
	var req services.AddCartRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.cartService.Add(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	result, err := h.cartService.Remove(c.Request.Context(), c.Param("id"), c.Query("email"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
