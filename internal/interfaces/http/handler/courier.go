package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	integrationapp "github.com/Carloscisneroides/logistica-sub001/internal/application/integration"
	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
)

// CourierHandler handles shipping operations through courier connections
type CourierHandler struct {
	BaseHandler
	couriers *integrationapp.CourierService
}

// NewCourierHandler creates a new CourierHandler
func NewCourierHandler(couriers *integrationapp.CourierService) *CourierHandler {
	return &CourierHandler{couriers: couriers}
}

// RegisterRoutes registers courier routes under a connection
func (h *CourierHandler) RegisterRoutes(rg *gin.RouterGroup) {
	connections := rg.Group("/connections/:id")
	{
		connections.POST("/rates", h.GetRates)
		connections.POST("/labels", h.PurchaseLabel)
		connections.GET("/shipments/:trackingNumber", h.TrackShipment)
		connections.DELETE("/shipments/:trackingNumber", h.CancelShipment)
	}
}

// GetRates godoc
// @Summary      Quote shipping rates
// @Description  Ask the courier for available service levels. Reseller connections get the configured markup applied.
// @Tags         shipping
// @Accept       json
// @Produce      json
// @Param        id path string true "Connection ID"
// @Param        request body RateRequest true "Rate request"
// @Success      200 {object} dto.Response{data=[]RateQuoteResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /connections/{id}/rates [post]
func (h *CourierHandler) GetRates(c *gin.Context) {
	tenantID, connectionID, ok := h.bindConnectionID(c)
	if !ok {
		return
	}

	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	domainReq := &integration.RateRequest{
		From:    req.From.toDomain(),
		To:      req.To.toDomain(),
		Parcels: toParcels(req.Parcels),
	}
	if req.ShipDate != nil {
		domainReq.ShipDate = *req.ShipDate
	}

	quotes, err := h.couriers.GetRates(c.Request.Context(), tenantID, connectionID, domainReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toRateQuoteResponses(quotes))
}

// PurchaseLabel godoc
// @Summary      Purchase a shipping label
// @Description  Buy a label for the chosen service level. The purchase is sent exactly once; pass an idempotency key for providers that support purchase deduplication.
// @Tags         shipping
// @Accept       json
// @Produce      json
// @Param        id path string true "Connection ID"
// @Param        request body PurchaseLabelRequest true "Label purchase request"
// @Success      201 {object} dto.Response{data=LabelResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /connections/{id}/labels [post]
func (h *CourierHandler) PurchaseLabel(c *gin.Context) {
	tenantID, connectionID, ok := h.bindConnectionID(c)
	if !ok {
		return
	}

	var req PurchaseLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.couriers.PurchaseLabel(c.Request.Context(), tenantID, connectionID, &integration.LabelRequest{
		From:           req.From.toDomain(),
		To:             req.To.toDomain(),
		Parcels:        toParcels(req.Parcels),
		ServiceCode:    req.ServiceCode,
		Reference:      req.Reference,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := LabelResponse{
		Success:        result.Success,
		TrackingNumber: result.TrackingNumber,
		Cost:           result.Cost,
		Currency:       result.Currency,
	}
	if result.Label != nil {
		resp.LabelURL = result.Label.URL
	}
	h.Created(c, resp)
}

// TrackShipment godoc
// @Summary      Track a shipment
// @Tags         shipping
// @Produce      json
// @Param        id path string true "Connection ID"
// @Param        trackingNumber path string true "Tracking number"
// @Success      200 {object} dto.Response{data=TrackingResponse}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /connections/{id}/shipments/{trackingNumber} [get]
func (h *CourierHandler) TrackShipment(c *gin.Context) {
	tenantID, connectionID, ok := h.bindConnectionID(c)
	if !ok {
		return
	}

	trackingNumber := c.Param("trackingNumber")
	if trackingNumber == "" {
		h.BadRequest(c, "Tracking number is required")
		return
	}

	snapshot, err := h.couriers.TrackShipment(c.Request.Context(), tenantID, connectionID, trackingNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toTrackingResponse(snapshot))
}

// CancelShipment godoc
// @Summary      Cancel a shipment
// @Description  Ask the courier to void the shipment. Returns whether the courier accepted the cancellation.
// @Tags         shipping
// @Produce      json
// @Param        id path string true "Connection ID"
// @Param        trackingNumber path string true "Tracking number"
// @Success      200 {object} dto.Response
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /connections/{id}/shipments/{trackingNumber} [delete]
func (h *CourierHandler) CancelShipment(c *gin.Context) {
	tenantID, connectionID, ok := h.bindConnectionID(c)
	if !ok {
		return
	}

	trackingNumber := c.Param("trackingNumber")
	if trackingNumber == "" {
		h.BadRequest(c, "Tracking number is required")
		return
	}

	cancelled, err := h.couriers.CancelShipment(c.Request.Context(), tenantID, connectionID, trackingNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"cancelled": cancelled})
}

// bindConnectionID extracts tenant and connection IDs, responding on failure
func (h *CourierHandler) bindConnectionID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	return bindConnectionScope(c, &h.BaseHandler)
}
