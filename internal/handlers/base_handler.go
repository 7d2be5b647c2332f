package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/summer-camp-school/camp-service/internal/services"
	"github.com/summer-camp-school/camp-service/internal/utils"
	"github.com/summer-camp-school/camp-service/internal/validator"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   bool        `json:"error"`
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// BaseHandler carries what every handler needs
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) log(c *gin.Context) utils.Logger {
	return utils.GetLogger(c, h.logger)
}

// LogRequest logs the start of an operation with the request logger
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	h.log(c).Debug(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	h.log(c).Error(msg, append(args, "error", err)...)
}

// bindJSON reads the body through gin's cached copy so an access-control
// predicate that already looked at it does not leave it empty here.
func (h *BaseHandler) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindBodyWith(dst, binding.JSON); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request payload", err.Error())
		return false
	}
	return true
}

func writeError(c *gin.Context, status int, message string, details interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   true,
		Status:  status,
		Message: message,
		Details: details,
	})
}

// handleServiceError maps service errors to HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		writeError(c, http.StatusBadRequest, "Validation failed", validationErrs)
	case errors.Is(err, services.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, services.ErrNoSeatsAvailable):
		writeError(c, http.StatusConflict, "No seats available", nil)
	case errors.Is(err, services.ErrConflict):
		writeError(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, services.ErrUpstreamFailure):
		h.LogError(c, err, "Upstream failure")
		writeError(c, http.StatusBadGateway, "Payment gateway unavailable", nil)
	default:
		h.LogError(c, err, "Unhandled service error")
		writeError(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}
