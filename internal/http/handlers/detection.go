package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/dxplatform-backend/internal/detection"
	"github.com/yungbote/dxplatform-backend/internal/domain/failure"
	"github.com/yungbote/dxplatform-backend/internal/http/response"
)

type DetectionHandler struct {
	engine detection.Engine
}

func NewDetectionHandler(engine detection.Engine) *DetectionHandler {
	return &DetectionHandler{engine: engine}
}

// POST /api/v1/projects/detect-by-objects
func (h *DetectionHandler) DetectByObjects(c *gin.Context) {
	var req detection.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondFailure(c, failure.Validation("http.DetectByObjects", "invalid request body: %v", err))
		return
	}
	resp, err := h.engine.Detect(c.Request.Context(), req)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, resp)
}
