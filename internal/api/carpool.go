package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/middleware"
	"github.com/lalith-99/dormlink/internal/workflow"
)

type CarpoolHandler struct {
	engine *workflow.Engine
	logger *zap.Logger
}

func NewCarpoolHandler(engine *workflow.Engine, logger *zap.Logger) *CarpoolHandler {
	return &CarpoolHandler{engine: engine, logger: logger}
}

// Create handles POST /v1/carpools
func (h *CarpoolHandler) Create(c *gin.Context) {
	var in workflow.CarpoolInput
	if !bindJSON(c, &in) {
		return
	}
	cp, err := h.engine.PostCarpool(c.Request.Context(), middleware.GetIdentity(c), in)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusCreated, cp)
}

// Update handles PUT /v1/carpools/:id
func (h *CarpoolHandler) Update(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var in workflow.CarpoolInput
	if !bindJSON(c, &in) {
		return
	}
	cp, err := h.engine.EditCarpool(c.Request.Context(), middleware.GetIdentity(c), id, in)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, cp)
}

// Delete handles DELETE /v1/carpools/:id
func (h *CarpoolHandler) Delete(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.engine.RemoveCarpool(c.Request.Context(), middleware.GetIdentity(c), id); err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"id": id})
}

// ListMine handles GET /v1/carpools/mine
func (h *CarpoolHandler) ListMine(c *gin.Context) {
	carpools, err := h.engine.ListMyCarpools(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, carpools)
}

// Search handles GET /v1/carpools?start=..&destination=..
func (h *CarpoolHandler) Search(c *gin.Context) {
	var in workflow.CarpoolSearchInput
	if !bindQuery(c, &in) {
		return
	}
	carpools, err := h.engine.SearchCarpools(c.Request.Context(), middleware.GetIdentity(c), in)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, carpools)
}

// ListUpcoming handles GET /v1/carpools/upcoming
func (h *CarpoolHandler) ListUpcoming(c *gin.Context) {
	carpools, err := h.engine.ListUpcomingCarpools(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, carpools)
}
