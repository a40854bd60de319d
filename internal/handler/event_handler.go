package handler

import (
	"net/http"

	"github.com/blues/fundraiser/internal/logic"
	"github.com/gin-gonic/gin"
)

// EventHandler 活动处理器
type EventHandler struct {
	eventLogic *logic.EventLogic
}

// NewEventHandler 创建活动处理器
func NewEventHandler(eventLogic *logic.EventLogic) *EventHandler {
	return &EventHandler{eventLogic: eventLogic}
}

// GetActiveEvent 获取进行中的活动
func (h *EventHandler) GetActiveEvent(c *gin.Context) {
	event, err := h.eventLogic.GetActive(c.Request.Context())
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", event)
}

// Health 健康检查
func Health(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "API is running", nil)
}
