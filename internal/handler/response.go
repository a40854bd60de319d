package handler

import (
	"errors"
	"net/http"

	"github.com/blues/fundraiser/internal/logger"
	"github.com/blues/fundraiser/internal/logic"
	"github.com/gin-gonic/gin"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Status:  statusSuccess,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Status:  statusError,
		Message: message,
	})
}

// LogicErrorResponse 将 logic 层错误映射为 HTTP 状态码
func LogicErrorResponse(c *gin.Context, err error) {
	var (
		validationErr *logic.ValidationError
		gatewayErr    *logic.GatewayError
	)

	switch {
	case errors.As(err, &validationErr):
		ErrorResponse(c, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &gatewayErr):
		ErrorResponse(c, http.StatusBadRequest, gatewayErr.Reason)
	case errors.Is(err, logic.ErrNoActiveEvent):
		ErrorResponse(c, http.StatusNotFound, "No active event found")
	case errors.Is(err, logic.ErrDonationNotFound):
		ErrorResponse(c, http.StatusNotFound, "Donation not found")
	default:
		logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
}
