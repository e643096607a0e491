package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	integrationapp "github.com/Carloscisneroides/logistica-sub001/internal/application/integration"
	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
)

// ConnectionHandler handles provider connection API endpoints
type ConnectionHandler struct {
	BaseHandler
	connections *integrationapp.ConnectionService
}

// NewConnectionHandler creates a new ConnectionHandler
func NewConnectionHandler(connections *integrationapp.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connections: connections}
}

// RegisterRoutes registers connection routes
func (h *ConnectionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	connections := rg.Group("/connections")
	{
		connections.POST("", h.Create)
		connections.GET("", h.List)
		connections.GET("/:id", h.Get)
		connections.PUT("/:id", h.Update)
		connections.DELETE("/:id", h.Delete)
		connections.POST("/:id/test", h.Test)
	}
}

// Create godoc
// @Summary      Connect a provider account
// @Description  Store a provider connection with its credential blob. The connection starts inactive until tested.
// @Tags         connections
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Param        request body CreateConnectionRequest true "Connection creation request"
// @Success      201 {object} dto.Response{data=ConnectionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /connections [post]
func (h *ConnectionHandler) Create(c *gin.Context) {
	tenantID, ok := requireTenant(c, &h.BaseHandler)
	if !ok {
		return
	}

	var req CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cfg := &integration.ProviderConfig{
		TenantID:          tenantID,
		Code:              integration.ProviderCode(req.Code),
		DisplayName:       req.DisplayName,
		Credentials:       req.Credentials,
		IsReseller:        req.IsReseller,
		MarkupPercent:     req.MarkupPercent,
		CommissionPercent: req.CommissionPercent,
		Sandbox:           req.Sandbox,
	}

	created, err := h.connections.CreateConnection(c.Request.Context(), cfg)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toConnectionResponse(created))
}

// List godoc
// @Summary      List provider connections
// @Tags         connections
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID"
// @Success      200 {object} dto.Response{data=[]ConnectionResponse}
// @Router       /connections [get]
func (h *ConnectionHandler) List(c *gin.Context) {
	tenantID, ok := requireTenant(c, &h.BaseHandler)
	if !ok {
		return
	}

	configs, err := h.connections.ListConnections(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ConnectionResponse, len(configs))
	for i := range configs {
		responses[i] = toConnectionResponse(&configs[i])
	}
	h.Success(c, responses)
}

// Get godoc
// @Summary      Get one provider connection
// @Tags         connections
// @Produce      json
// @Param        id path string true "Connection ID"
// @Success      200 {object} dto.Response{data=ConnectionResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /connections/{id} [get]
func (h *ConnectionHandler) Get(c *gin.Context) {
	tenantID, connectionID, ok := h.bindConnectionID(c)
	if !ok {
		return
	}

	cfg, err := h.connections.GetConnection(c.Request.Context(), tenantID, connectionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toConnectionResponse(cfg))
}

// Update godoc
// @Summary      Update a provider connection
// @Description  Update display settings, pricing, or rotate credentials. An absent credentials field keeps the stored secrets.
// @Tags         connections
// @Accept       json
// @Produce      json
// @Param        id path string true "Connection ID"
// @Param        request body UpdateConnectionRequest true "Connection update request"
// @Success      200 {object} dto.Response{data=ConnectionResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /connections/{id} [put]
func (h *ConnectionHandler) Update(c *gin.Context) {
	tenantID, connectionID, ok := h.bindConnectionID(c)
	if !ok {
		return
	}

	var req UpdateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cfg := &integration.ProviderConfig{
		ID:                connectionID,
		TenantID:          tenantID,
		DisplayName:       req.DisplayName,
		Credentials:       req.Credentials,
		IsReseller:        req.IsReseller,
		MarkupPercent:     req.MarkupPercent,
		CommissionPercent: req.CommissionPercent,
		Sandbox:           req.Sandbox,
	}
	if err := h.connections.UpdateConnection(c.Request.Context(), cfg); err != nil {
		h.HandleError(c, err)
		return
	}

	updated, err := h.connections.GetConnection(c.Request.Context(), tenantID, connectionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toConnectionResponse(updated))
}

// Delete godoc
// @Summary      Disconnect a provider account
// @Tags         connections
// @Param        id path string true "Connection ID"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /connections/{id} [delete]
func (h *ConnectionHandler) Delete(c *gin.Context) {
	tenantID, connectionID, ok := h.bindConnectionID(c)
	if !ok {
		return
	}

	if err := h.connections.DeleteConnection(c.Request.Context(), tenantID, connectionID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Test godoc
// @Summary      Test a provider connection
// @Description  Run a lightweight authenticated call against the provider. Activates the connection on success, marks it errored on failure.
// @Tags         connections
// @Produce      json
// @Param        id path string true "Connection ID"
// @Success      200 {object} dto.Response{data=TestConnectionResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /connections/{id}/test [post]
func (h *ConnectionHandler) Test(c *gin.Context) {
	tenantID, connectionID, ok := h.bindConnectionID(c)
	if !ok {
		return
	}

	result, err := h.connections.TestConnection(c.Request.Context(), tenantID, connectionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, TestConnectionResponse{Success: result.Success, Message: result.Message})
}

// bindConnectionID extracts tenant and connection IDs, responding on failure
func (h *ConnectionHandler) bindConnectionID(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	return bindConnectionScope(c, &h.BaseHandler)
}
