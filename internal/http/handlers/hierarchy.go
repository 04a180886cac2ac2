package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/dxplatform-backend/internal/domain/failure"
	"github.com/yungbote/dxplatform-backend/internal/hierarchy"
	"github.com/yungbote/dxplatform-backend/internal/http/response"
)

type HierarchyHandler struct {
	svc hierarchy.Service
}

func NewHierarchyHandler(svc hierarchy.Service) *HierarchyHandler {
	return &HierarchyHandler{svc: svc}
}

// POST /api/v1/navisworks/projects/:code/revisions/:number/hierarchy
//
// The CSV comes from a multipart "file" field or, failing that, the raw body.
func (h *HierarchyHandler) Upload(c *gin.Context) {
	const op = "http.HierarchyUpload"
	number, err := pathInt(c, "number")
	if err != nil {
		response.RespondFailure(c, err)
		return
	}

	var body io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			response.RespondFailure(c, failure.Validation(op, "multipart field \"file\" is required"))
			return
		}
		f, err := fh.Open()
		if err != nil {
			response.RespondFailure(c, failure.Validation(op, "open upload: %v", err))
			return
		}
		defer f.Close()
		body = f
	}

	out, err := h.svc.Upload(c.Request.Context(), hierarchy.UploadRequest{
		ProjectCode:    c.Param("code"),
		RevisionNumber: number,
		SourceType:     c.Query("source_type"),
		CreatedBy:      c.Query("created_by"),
		Body:           body,
	})
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": out})
}
