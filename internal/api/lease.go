package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/middleware"
	"github.com/lalith-99/dormlink/internal/workflow"
)

// LeaseHandler serves tenancy: leases, roommates and maintenance.
type LeaseHandler struct {
	engine *workflow.Engine
	logger *zap.Logger
}

func NewLeaseHandler(engine *workflow.Engine, logger *zap.Logger) *LeaseHandler {
	return &LeaseHandler{engine: engine, logger: logger}
}

// Candidates handles GET /v1/properties/:id/candidates
func (h *LeaseHandler) Candidates(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	users, err := h.engine.ListLeaseCandidates(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, users)
}

// Create handles POST /v1/leases
func (h *LeaseHandler) Create(c *gin.Context) {
	var in workflow.LeaseInput
	if !bindJSON(c, &in) {
		return
	}
	lease, err := h.engine.AddTenant(c.Request.Context(), middleware.GetIdentity(c), in)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusCreated, lease)
}

// Terminate handles POST /v1/leases/:id/terminate
func (h *LeaseHandler) Terminate(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.engine.TerminateLease(c.Request.Context(), middleware.GetIdentity(c), id); err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"id": id})
}

// ListMine handles GET /v1/leases/mine
func (h *LeaseHandler) ListMine(c *gin.Context) {
	leases, err := h.engine.ListMyLeases(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, leases)
}

// Roommates handles GET /v1/properties/:id/roommates
func (h *LeaseHandler) Roommates(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	mates, err := h.engine.ListRoommates(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, mates)
}

// SubmitMaintenance handles POST /v1/maintenance
func (h *LeaseHandler) SubmitMaintenance(c *gin.Context) {
	var in workflow.MaintenanceInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.engine.SubmitMaintenance(c.Request.Context(), middleware.GetIdentity(c), in)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusCreated, m)
}

// ResolveMaintenance handles POST /v1/maintenance/:id/resolve
func (h *LeaseHandler) ResolveMaintenance(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var in workflow.ResolveInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.engine.ResolveMaintenance(c.Request.Context(), middleware.GetIdentity(c), id, in)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, m)
}

// ListMyMaintenance handles GET /v1/maintenance/mine
func (h *LeaseHandler) ListMyMaintenance(c *gin.Context) {
	reqs, err := h.engine.ListMyMaintenance(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, reqs)
}

// ListPropertyMaintenance handles GET /v1/properties/:id/maintenance
func (h *LeaseHandler) ListPropertyMaintenance(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	reqs, err := h.engine.ListPropertyMaintenance(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, reqs)
}
