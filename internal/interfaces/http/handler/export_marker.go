package handler

import (
	"strconv"

	"github.com/erp/connector/internal/domain/commerce"
	"github.com/erp/connector/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExportMarkerHandler clears export markers so records are exported again
type ExportMarkerHandler struct {
	BaseHandler
	orders    commerce.OrderRepository
	customers commerce.CustomerRepository
}

// NewExportMarkerHandler creates a new ExportMarkerHandler
func NewExportMarkerHandler(orders commerce.OrderRepository, customers commerce.CustomerRepository) *ExportMarkerHandler {
	return &ExportMarkerHandler{orders: orders, customers: customers}
}

// ResetOrder clears the export marker of the order in the :id path parameter
func (h *ExportMarkerHandler) ResetOrder(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	order, err := h.orders.FindByID(ctx, commerce.OrderID(id))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	order.ResetExportMarker()
	if err := h.orders.Save(ctx, order); err != nil {
		h.HandleError(c, err)
		return
	}

	getLogger(c).Info("Order export marker reset", zap.Int64("order_id", id))
	h.Success(c, dto.MarkerResetResponse{ID: id, Resource: "order", Exported: order.IsExported()})
}

// ResetCustomer clears the export marker of the customer in the :id path parameter
func (h *ExportMarkerHandler) ResetCustomer(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	customer, err := h.customers.FindByID(ctx, commerce.CustomerID(id))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	customer.ResetExportMarker()
	if err := h.customers.Save(ctx, customer); err != nil {
		h.HandleError(c, err)
		return
	}

	getLogger(c).Info("Customer export marker reset", zap.Int64("customer_id", id))
	h.Success(c, dto.MarkerResetResponse{ID: id, Resource: "customer", Exported: customer.IsExported()})
}

func (h *ExportMarkerHandler) parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.BadRequest(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
