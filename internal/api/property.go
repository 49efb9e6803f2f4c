package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/middleware"
	"github.com/lalith-99/dormlink/internal/workflow"
)

// PropertyHandler serves listings for homeowners and search plus bookmarks
// for students.
type PropertyHandler struct {
	engine *workflow.Engine
	logger *zap.Logger
}

func NewPropertyHandler(engine *workflow.Engine, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{engine: engine, logger: logger}
}

// Create handles POST /v1/properties
func (h *PropertyHandler) Create(c *gin.Context) {
	var in workflow.PropertyInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.engine.PostProperty(c.Request.Context(), middleware.GetIdentity(c), in)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

// Update handles PUT /v1/properties/:id
func (h *PropertyHandler) Update(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var in workflow.PropertyInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.engine.EditProperty(c.Request.Context(), middleware.GetIdentity(c), id, in)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// Delete handles DELETE /v1/properties/:id
func (h *PropertyHandler) Delete(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.engine.TakeDownProperty(c.Request.Context(), middleware.GetIdentity(c), id); err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"id": id})
}

// ListMine handles GET /v1/properties/mine
func (h *PropertyHandler) ListMine(c *gin.Context) {
	props, err := h.engine.ListMyProperties(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, props)
}

// Search handles GET /v1/properties?state=..&city=..&bedrooms=..
func (h *PropertyHandler) Search(c *gin.Context) {
	var in workflow.SearchInput
	if !bindQuery(c, &in) {
		return
	}
	props, err := h.engine.SearchProperties(c.Request.Context(), middleware.GetIdentity(c), in)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, props)
}

// ToggleBookmark handles POST /v1/properties/:id/bookmark
func (h *PropertyHandler) ToggleBookmark(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	bookmarked, err := h.engine.ToggleBookmark(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"property_id": id, "bookmarked": bookmarked})
}

// ListBookmarks handles GET /v1/bookmarks
func (h *PropertyHandler) ListBookmarks(c *gin.Context) {
	props, err := h.engine.ListBookmarks(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, props)
}
