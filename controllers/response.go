package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"dz-fellah/models"

	"github.com/gin-gonic/gin"
)

var statusByKind = map[models.ErrorKind]int{
	models.KindEmptyCart:             http.StatusBadRequest,
	models.KindInvalidQuantity:       http.StatusBadRequest,
	models.KindInvalidDeliveryMethod: http.StatusBadRequest,
	models.KindProductNotFound:       http.StatusNotFound,
	models.KindNotFound:              http.StatusNotFound,
	models.KindForbidden:             http.StatusForbidden,
	models.KindProductUnavailable:    http.StatusConflict,
	models.KindInsufficientStock:     http.StatusConflict,
	models.KindInvalidTransition:     http.StatusConflict,
	models.KindAdjustmentOutOfRange:  http.StatusUnprocessableEntity,
	models.KindNotAdjustable:         http.StatusUnprocessableEntity,
	models.KindTransactionAborted:    http.StatusServiceUnavailable,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind models.ErrorKind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func errorDetails(err error) interface{} {
	var stock *models.InsufficientStockError
	if errors.As(err, &stock) {
		return gin.H{
			"product_id": stock.ProductID,
			"name":       stock.Name,
			"requested":  stock.Requested,
			"available":  stock.Available,
		}
	}
	var unavailable *models.ProductUnavailableError
	if errors.As(err, &unavailable) {
		return gin.H{"product_id": unavailable.ProductID}
	}
	var transition *models.InvalidTransitionError
	if errors.As(err, &transition) {
		return gin.H{"from": transition.From, "to": transition.To}
	}
	var adjustment *models.AdjustmentRangeError
	if errors.As(err, &adjustment) {
		return gin.H{
			"ordered": adjustment.Ordered,
			"min":     adjustment.Min,
			"max":     adjustment.Max,
			"actual":  adjustment.Actual,
		}
	}
	return nil
}

func respondError(c *gin.Context, err error) {
	kind := models.KindOf(err)
	status := StatusFor(kind)

	message := err.Error()
	if kind == models.KindInternal {
		message = "Internal server error"
	}
	if kind == models.KindTransactionAborted {
		c.Header("Retry-After", "1")
		message = "Temporary failure, please retry"
	}
	_ = c.Error(err)

	c.JSON(status, models.ErrorResponse{
		Success: false,
		Message: message,
		Error:   kind,
		Details: errorDetails(err),
	})
}

func badRequest(c *gin.Context, message string, err error) {
	resp := models.ErrorResponse{Success: false, Message: message}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid "+name, nil)
		return 0, false
	}
	return id, true
}

func customerID(c *gin.Context) int64 {
	return c.GetInt64("user_id")
}

func producerID(c *gin.Context) int64 {
	return c.GetInt64("producer_id")
}
