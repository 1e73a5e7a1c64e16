package controllers

import (
	"net/http"

	"dz-fellah/models"
	"dz-fellah/services"

	"github.com/gin-gonic/gin"
)

type ProducerOrderController struct {
	subOrders *services.ProducerOrderService
}

func NewProducerOrderController(subOrders *services.ProducerOrderService) *ProducerOrderController {
	return &ProducerOrderController{subOrders: subOrders}
}

// @Summary My sub-orders
// @Tags Producer - Orders
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.ListResponse{data=[]models.SubOrder}
// @Router /api/producer/sub-orders [get]
func (ctrl *ProducerOrderController) ListSubOrders(c *gin.Context) {
	subs, err := ctrl.subOrders.ListSubOrders(c.Request.Context(), producerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ListResponse{Success: true, Message: "Sub-orders retrieved", Count: len(subs), Data: subs})
}

// @Summary Sub-order detail
// @Tags Producer - Orders
// @Security BearerAuth
// @Produce json
// @Param id path int true "Sub-order ID"
// @Success 200 {object} models.Response{data=models.SubOrder}
// @Failure 403 {object} models.ErrorResponse
// @Router /api/producer/sub-orders/{id} [get]
func (ctrl *ProducerOrderController) GetSubOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	sub, err := ctrl.subOrders.GetSubOrder(c.Request.Context(), producerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Sub-order retrieved", Data: sub})
}

// @Summary Update sub-order status
// @Description Move a sub-order forward, or cancel it while pending or confirmed
// @Tags Producer - Orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Sub-order ID"
// @Param body body models.UpdateSubOrderStatusRequest true "New status"
// @Success 200 {object} models.Response{data=models.StatusChangeResult}
// @Failure 409 {object} models.ErrorResponse
// @Router /api/producer/sub-orders/{id}/status [patch]
func (ctrl *ProducerOrderController) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateSubOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	res, err := ctrl.subOrders.UpdateSubOrderStatus(c.Request.Context(), producerID(c), id, models.SubOrderStatusUpdate{
		Status:        status,
		ProducerNotes: req.ProducerNotes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Status updated", Data: res})
}

// @Summary Adjust item quantity
// @Description Record the weighed quantity of a weight-sold item, within the tolerance band
// @Tags Producer - Orders
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Sub-order ID"
// @Param item_id path int true "Order item ID"
// @Param body body models.AdjustItemRequest true "Actual quantity"
// @Success 200 {object} models.Response{data=models.AdjustmentResult}
// @Failure 422 {object} models.ErrorResponse
// @Router /api/producer/sub-orders/{id}/items/{item_id} [patch]
func (ctrl *ProducerOrderController) AdjustItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	itemID, ok := paramID(c, "item_id")
	if !ok {
		return
	}
	var req models.AdjustItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	res, err := ctrl.subOrders.AdjustItemQuantity(c.Request.Context(), producerID(c), id, itemID, req.QuantityActual)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.Response{Success: true, Message: "Quantity adjusted", Data: res})
}
