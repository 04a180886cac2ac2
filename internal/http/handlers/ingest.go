package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/dxplatform-backend/internal/domain/failure"
	"github.com/yungbote/dxplatform-backend/internal/http/response"
	"github.com/yungbote/dxplatform-backend/internal/ingestion"
)

type IngestHandler struct {
	pipeline ingestion.Pipeline
}

func NewIngestHandler(pipeline ingestion.Pipeline) *IngestHandler {
	return &IngestHandler{pipeline: pipeline}
}

// POST /api/v1/ingest
//
// Accepts either the legacy export document or a dual-identity payload; the shape is
// detected from the top-level keys.
func (h *IngestHandler) Ingest(c *gin.Context) {
	const op = "http.Ingest"
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "payload_too_large", err)
			return
		}
		response.RespondFailure(c, failure.Validation(op, "read body: %v", err))
		return
	}
	cmd, err := ingestion.DecodePayload(raw)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	res, err := h.pipeline.Ingest(c.Request.Context(), cmd)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "result": res})
}
