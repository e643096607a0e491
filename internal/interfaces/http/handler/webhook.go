package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	integrationapp "github.com/Carloscisneroides/logistica-sub001/internal/application/integration"
)

// WebhookHandler receives marketplace webhook deliveries. The route embeds
// tenant and connection IDs because providers send no auth headers of ours;
// authenticity comes from the HMAC signature, verified before the payload is
// parsed.
type WebhookHandler struct {
	BaseHandler
	webhooks *integrationapp.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhooks *integrationapp.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// RegisterRoutes registers the webhook ingestion route
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/:tenantId/:id", h.Receive)
}

// Receive godoc
// @Summary      Receive a provider webhook
// @Description  Verify the HMAC signature, suppress replayed deliveries, and apply the translated event. Processing failures after authentication are acknowledged so providers do not retry forever.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        tenantId path string true "Tenant ID"
// @Param        id path string true "Connection ID"
// @Success      200 {object} dto.Response
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /webhooks/{tenantId}/{id} [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID format")
		return
	}
	connectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid connection ID format")
		return
	}

	// The body size cap is enforced by the body limit middleware
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}

	err = h.webhooks.HandleWebhook(c.Request.Context(), tenantID, connectionID, c.Request.Header, body)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"received": true})
}
