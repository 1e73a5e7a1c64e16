package controllers

import (
	"net/http"

	"dz-fellah/models"
	"dz-fellah/services"

	"github.com/gin-gonic/gin"
)

type CartController struct {
	carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{carts: carts}
}

// @Summary Get cart
// @Description Get the current customer's cart with subtotals and total
// @Tags Cart
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Response{data=models.CartView}
// @Router /api/cart [get]
func (ctrl *CartController) GetCart(c *gin.Context) {
	view, err := ctrl.carts.View(c.Request.Context(), customerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Cart retrieved", Data: view})
}

// @Summary Add to cart
// @Description Add a product to the cart, merging with an existing line
// @Tags Cart
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.AddToCartRequest true "Product and quantity"
// @Success 201 {object} models.Response{data=models.CartItem}
// @Failure 409 {object} models.ErrorResponse
// @Router /api/cart/items [post]
func (ctrl *CartController) AddItem(c *gin.Context) {
	var req models.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	item, err := ctrl.carts.AddItem(c.Request.Context(), customerID(c), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.Response{Success: true, Message: "Product added to cart", Data: item})
}

// @Summary Update cart item
// @Description Replace the quantity of a cart line
// @Tags Cart
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Cart item ID"
// @Param body body models.UpdateCartItemRequest true "New quantity"
// @Success 200 {object} models.Response{data=models.CartItem}
// @Router /api/cart/items/{id} [patch]
func (ctrl *CartController) UpdateItem(c *gin.Context) {
	itemID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	item, err := ctrl.carts.UpdateItemQuantity(c.Request.Context(), customerID(c), itemID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Cart item updated", Data: item})
}

// @Summary Remove cart item
// @Tags Cart
// @Security BearerAuth
// @Produce json
// @Param id path int true "Cart item ID"
// @Success 200 {object} models.Response
// @Router /api/cart/items/{id} [delete]
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	itemID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.carts.RemoveItem(c.Request.Context(), customerID(c), itemID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Cart item removed"})
}

// @Summary Clear cart
// @Tags Cart
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Response
// @Router /api/cart [delete]
func (ctrl *CartController) Clear(c *gin.Context) {
	if err := ctrl.carts.Clear(c.Request.Context(), customerID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Cart cleared"})
}
