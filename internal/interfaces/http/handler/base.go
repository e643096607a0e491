package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
	"github.com/Carloscisneroides/logistica-sub001/internal/interfaces/http/dto"
	"github.com/Carloscisneroides/logistica-sub001/internal/interfaces/http/middleware"
)

// RequestIDKey is the context key for request ID
const RequestIDKey = "X-Request-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	if id := c.GetHeader(RequestIDKey); id != "" {
		return id
	}
	return ""
}

// errTenantRequired signals a request that carries no tenant identity at all
var errTenantRequired = errors.New("tenant identification required")

// getTenantID extracts the tenant ID resolved by the tenant middleware,
// falling back to the X-Tenant-ID header for routes outside that middleware.
// Requests without a tenant are rejected; every admin operation is
// tenant-scoped and there is no safe default to charge it to.
func getTenantID(c *gin.Context) (uuid.UUID, error) {
	tenantIDStr := middleware.GetTenantID(c)
	if tenantIDStr == "" {
		tenantIDStr = c.GetHeader("X-Tenant-ID")
	}
	if tenantIDStr == "" {
		return uuid.Nil, errTenantRequired
	}
	return uuid.Parse(tenantIDStr)
}

// requireTenant resolves the tenant ID, writing the error response itself on
// failure: 401 for an absent tenant, 400 for a malformed one
func requireTenant(c *gin.Context, h *BaseHandler) (uuid.UUID, bool) {
	tenantID, err := getTenantID(c)
	if errors.Is(err, errTenantRequired) {
		h.Unauthorized(c, "Tenant identification required")
		return uuid.Nil, false
	}
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return uuid.Nil, false
	}
	return tenantID, true
}

// bindConnectionScope extracts tenant and connection IDs from the request,
// writing the error response itself on failure
func bindConnectionScope(c *gin.Context, h *BaseHandler) (uuid.UUID, uuid.UUID, bool) {
	tenantID, ok := requireTenant(c, h)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	connectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid connection ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, connectionID, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// Forbidden sends a 403 forbidden response
func (h *BaseHandler) Forbidden(c *gin.Context, message string) {
	h.Error(c, http.StatusForbidden, dto.ErrCodeForbidden, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.Error(c, http.StatusConflict, dto.ErrCodeConflict, message)
}

// UnprocessableEntity sends a 422 unprocessable entity response
func (h *BaseHandler) UnprocessableEntity(c *gin.Context, code, message string) {
	h.Error(c, http.StatusUnprocessableEntity, code, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// TooManyRequests sends a 429 too many requests response
func (h *BaseHandler) TooManyRequests(c *gin.Context, message string) {
	h.Error(c, http.StatusTooManyRequests, dto.ErrCodeRateLimited, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	requestID := getRequestID(c)
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		requestID,
		details,
	))
}

// HandleError converts integration errors to HTTP responses. Provider-side
// faults map to 502, provider refusals to 422, so callers can tell "we broke"
// from "the provider broke" from "the request was wrong".
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var rateErr *integration.RateLimitError
	if errors.As(err, &rateErr) {
		if rateErr.RetryAfter > 0 {
			c.Header("Retry-After", rateErr.RetryAfter.String())
		}
		h.ErrorWithCode(c, dto.ErrCodeRateLimited, err.Error())
		return
	}

	var mapErr *integration.MappingError
	if errors.As(err, &mapErr) {
		h.ErrorWithCode(c, dto.ErrCodeProviderMapping, err.Error())
		return
	}

	switch {
	case errors.Is(err, integration.ErrConnectionNotFound),
		errors.Is(err, integration.ErrOrderNotFound):
		h.ErrorWithCode(c, dto.ErrCodeNotFound, err.Error())
	case errors.Is(err, integration.ErrProviderNotRegistered):
		h.ErrorWithCode(c, dto.ErrCodeInvalidState, err.Error())
	case errors.Is(err, integration.ErrWebhookSignature):
		h.ErrorWithCode(c, dto.ErrCodeWebhookSignature, "webhook signature verification failed")
	case errors.Is(err, integration.ErrProviderAuth):
		h.ErrorWithCode(c, dto.ErrCodeProviderAuth, err.Error())
	case errors.Is(err, integration.ErrProviderUnavailable):
		h.ErrorWithCode(c, dto.ErrCodeProviderUnavailable, err.Error())
	case errors.Is(err, integration.ErrProviderRateLimited):
		h.ErrorWithCode(c, dto.ErrCodeRateLimited, err.Error())
	case errors.Is(err, integration.ErrProviderRequest):
		h.ErrorWithCode(c, dto.ErrCodeProviderRejected, err.Error())
	default:
		h.InternalError(c, "An unexpected error occurred")
	}
}
