package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	integrationapp "github.com/Carloscisneroides/logistica-sub001/internal/application/integration"
)

// OrderSyncHandler handles marketplace order sync API endpoints
type OrderSyncHandler struct {
	BaseHandler
	sync *integrationapp.OrderSyncService
}

// NewOrderSyncHandler creates a new OrderSyncHandler
func NewOrderSyncHandler(sync *integrationapp.OrderSyncService) *OrderSyncHandler {
	return &OrderSyncHandler{sync: sync}
}

// RegisterRoutes registers order sync routes under a connection
func (h *OrderSyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	connections := rg.Group("/connections/:id")
	{
		connections.POST("/sync", h.SyncBatch)
		connections.GET("/orders", h.ListOrders)
		connections.GET("/orders/:externalOrderId", h.GetOrder)
		connections.POST("/orders/:externalOrderId/fulfillment", h.PushFulfillment)
	}
}

// SyncBatch godoc
// @Summary      Pull new orders from a marketplace
// @Description  Fetch orders changed since the connection's watermark, merge them idempotently, and advance the watermark on full success.
// @Tags         orders
// @Produce      json
// @Param        id path string true "Connection ID"
// @Success      200 {object} dto.Response{data=SyncBatchResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /connections/{id}/sync [post]
func (h *OrderSyncHandler) SyncBatch(c *gin.Context) {
	tenantID, connectionID, ok := h.bindConnectionID(c)
	if !ok {
		return
	}

	result, err := h.sync.SyncBatch(c.Request.Context(), tenantID, connectionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, SyncBatchResponse{
		Pulled:    result.Pulled,
		Dropped:   result.Dropped,
		Watermark: result.Watermark,
	})
}

// ListOrders godoc
// @Summary      List synced orders
// @Tags         orders
// @Produce      json
// @Param        id path string true "Connection ID"
// @Success      200 {object} dto.Response{data=[]OrderResponse}
// @Router       /connections/{id}/orders [get]
func (h *OrderSyncHandler) ListOrders(c *gin.Context) {
	_, connectionID, ok := h.bindConnectionID(c)
	if !ok {
		return
	}

	orders, err := h.sync.ListOrders(c.Request.Context(), connectionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = toOrderResponse(&orders[i])
	}
	h.Success(c, responses)
}

// GetOrder godoc
// @Summary      Get one synced order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Connection ID"
// @Param        externalOrderId path string true "External order ID"
// @Success      200 {object} dto.Response{data=OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /connections/{id}/orders/{externalOrderId} [get]
func (h *OrderSyncHandler) GetOrder(c *gin.Context) {
	_, connectionID, ok := h.bindConnectionID(c)
	if !ok {
		return
	}

	order, err := h.sync.GetOrder(c.Request.Context(), connectionID, c.Param("externalOrderId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toOrderResponse(order))
}

// PushFulfillment godoc
// @Summary      Push a fulfillment to the marketplace
// @Description  Notify the marketplace that the order shipped, then mirror the fulfilled status locally.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Connection ID"
// @Param        externalOrderId path string true "External order ID"
// @Param        request body PushFulfillmentRequest true "Fulfillment details"
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /connections/{id}/orders/{externalOrderId}/fulfillment [post]
func (h *OrderSyncHandler) PushFulfillment(c *gin.Context) {
	tenantID, connectionID, ok := h.bindConnectionID(c)
	if !ok {
		return
	}

	var req PushFulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	err := h.sync.PushFulfillment(c.Request.Context(), tenantID, connectionID,
		c.Param("externalOrderId"), req.Carrier, req.TrackingNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"pushed": true})
}

// bindConnectionID extracts tenant and connection IDs, responding on failure
func (h *OrderSyncHandler) bindConnectionID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	return bindConnectionScope(c, &h.BaseHandler)
}
