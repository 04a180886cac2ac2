package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/dxplatform-backend/internal/domain/failure"
	"github.com/yungbote/dxplatform-backend/internal/http/response"
	"github.com/yungbote/dxplatform-backend/internal/services/revisions"
)

type ProjectHandler struct {
	store revisions.Store
}

func NewProjectHandler(store revisions.Store) *ProjectHandler {
	return &ProjectHandler{store: store}
}

// GET /api/v1/projects/:code
func (h *ProjectHandler) GetProject(c *gin.Context) {
	p, err := h.store.GetProject(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, gin.H{"project": p})
}

// DELETE /api/v1/projects/:code?hard_delete=true
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	hard, err := queryBool(c, "hard_delete")
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	if err := h.store.DeleteProject(c.Request.Context(), c.Param("code"), hard); err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "hard_delete": hard})
}

// GET /api/v1/projects/:code/revisions?source_type=&limit=
func (h *ProjectHandler) ListRevisions(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	source := strings.ToLower(strings.TrimSpace(c.Query("source_type")))
	revs, err := h.store.ListRevisions(c.Request.Context(), c.Param("code"), source, limit)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, gin.H{"revisions": revs, "count": len(revs)})
}

// GET /api/v1/projects/:code/revisions/latest/:source_type
func (h *ProjectHandler) LatestRevision(c *gin.Context) {
	source := strings.ToLower(strings.TrimSpace(c.Param("source_type")))
	rev, err := h.store.LatestRevision(c.Request.Context(), c.Param("code"), source)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, gin.H{"revision": rev})
}

// DELETE /api/v1/projects/:code/revisions/:number?source_type=
func (h *ProjectHandler) DeleteRevision(c *gin.Context) {
	number, err := pathInt(c, "number")
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	source := strings.ToLower(strings.TrimSpace(c.Query("source_type")))
	if err := h.store.DeleteRevision(c.Request.Context(), c.Param("code"), number, source); err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}

// GET /api/v1/projects/:code/revisions/:number?source_type=
func (h *ProjectHandler) GetRevision(c *gin.Context) {
	number, err := pathInt(c, "number")
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	source := strings.ToLower(strings.TrimSpace(c.Query("source_type")))
	rev, err := h.store.GetRevision(c.Request.Context(), c.Param("code"), number, source)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, gin.H{"revision": rev})
}

// GET /api/v1/projects/:code/revisions/:number/objects?source_type=&category=&parent_key=&limit=&offset=
func (h *ProjectHandler) ListObjects(c *gin.Context) {
	number, err := pathInt(c, "number")
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	q := revisions.ObjectListQuery{
		SourceType: strings.ToLower(strings.TrimSpace(c.Query("source_type"))),
		Category:   c.Query("category"),
	}
	if parent, ok := c.GetQuery("parent_key"); ok {
		parent = strings.TrimSpace(parent)
		q.ParentKey = &parent
	}
	if q.Limit, err = queryInt(c, "limit"); err != nil {
		response.RespondFailure(c, err)
		return
	}
	if q.Offset, err = queryInt(c, "offset"); err != nil {
		response.RespondFailure(c, err)
		return
	}
	page, err := h.store.ListObjects(c.Request.Context(), c.Param("code"), number, q)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/v1/navisworks/projects/:code/hierarchy?revision_number=&max_level=
func (h *ProjectHandler) HierarchyTree(c *gin.Context) {
	number, err := queryInt(c, "revision_number")
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	var maxLevel *int
	if _, ok := c.GetQuery("max_level"); ok {
		v, err := queryInt(c, "max_level")
		if err != nil {
			response.RespondFailure(c, err)
			return
		}
		maxLevel = &v
	}
	tree, err := h.store.HierarchyTree(c.Request.Context(), c.Param("code"), number, maxLevel)
	if err != nil {
		response.RespondFailure(c, err)
		return
	}
	response.RespondOK(c, tree)
}

// queryInt parses an optional non-negative integer query parameter; absent means 0.
func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, failure.Validation("http.queryInt", "invalid %s %q", key, raw)
	}
	return v, nil
}

func queryBool(c *gin.Context, key string) (bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, failure.Validation("http.queryBool", "invalid %s %q", key, raw)
	}
	return v, nil
}

func pathInt(c *gin.Context, key string) (int, error) {
	raw := c.Param(key)
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, failure.Validation("http.pathInt", "invalid %s %q", key, raw)
	}
	return v, nil
}
