package apperrors

import (
	"log"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// GinErrorHandler renders AppErrors as JSON responses.
type GinErrorHandler struct {
	Debug bool
}

func (h *GinErrorHandler) HandleGinError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
		if !h.Debug {
			appErr.Message = "Internal server error"
			appErr.Details = nil
		}
	}

	if appErr.HTTPCode >= 500 {
		log.Printf("Server error: %v", appErr.Unwrap())
	}

	c.JSON(appErr.HTTPCode, ErrorResponse{Error: appErr})
}

// HandleError is the quick helper for gin handlers.
func HandleError(c *gin.Context, err error) {
	handler := &GinErrorHandler{Debug: true}
	handler.HandleGinError(c, err)
}

// AsAppError tries to convert an error into *AppError.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HandleValidationError converts gin binding errors into our format.
func HandleValidationError(c *gin.Context, err error) {
	validationErr := ValidationError(gin.H{"details": err.Error()})
	HandleError(c, validationErr)
}
