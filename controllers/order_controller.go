package controllers

import (
	"errors"
	"io"
	"net/http"

	"dz-fellah/models"
	"dz-fellah/services"

	"github.com/gin-gonic/gin"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// @Summary Checkout
// @Description Convert the cart into an order with one sub-order per producer
// @Tags Orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.CheckoutRequest false "Delivery options"
// @Success 201 {object} models.Response{data=models.Order}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/orders [post]
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Invalid request body", err)
		return
	}

	order, err := ctrl.orders.CreateOrderFromCart(c.Request.Context(), customerID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.Response{Success: true, Message: "Order created", Data: order})
}

// @Summary My orders
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.ListResponse{data=[]models.Order}
// @Router /api/orders [get]
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	orders, err := ctrl.orders.ListOrders(c.Request.Context(), customerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ListResponse{Success: true, Message: "Orders retrieved", Count: len(orders), Data: orders})
}

// @Summary Order detail
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} models.Response{data=models.Order}
// @Failure 404 {object} models.ErrorResponse
// @Router /api/orders/{id} [get]
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := ctrl.orders.GetOrder(c.Request.Context(), customerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Order retrieved", Data: order})
}

// @Summary Cancel order
// @Description Cancel the whole order and restock its items, while still pending or confirmed
// @Tags Orders
// @Security BearerAuth
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} models.Response{data=models.Order}
// @Failure 409 {object} models.ErrorResponse
// @Router /api/orders/{id}/cancel [post]
func (ctrl *OrderController) CancelOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := ctrl.orders.CancelOrder(c.Request.Context(), customerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Order cancelled", Data: order})
}
