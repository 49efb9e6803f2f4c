package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/middleware"
	"github.com/lalith-99/dormlink/internal/workflow"
)

// MembershipHandler serves join requests for events and carpools: a
// student asks, the organizer or driver decides.
type MembershipHandler struct {
	engine *workflow.Engine
	logger *zap.Logger
}

func NewMembershipHandler(engine *workflow.Engine, logger *zap.Logger) *MembershipHandler {
	return &MembershipHandler{engine: engine, logger: logger}
}

// JoinEvent handles POST /v1/events/:id/join
func (h *MembershipHandler) JoinEvent(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	p, err := h.engine.RequestToJoinEvent(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusCreated, p)
}

// ListEventRequests handles GET /v1/events/requests
func (h *MembershipHandler) ListEventRequests(c *gin.Context) {
	reqs, err := h.engine.ListEventRequests(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, reqs)
}

// RespondEvent handles POST /v1/event-requests/:id/decision
func (h *MembershipHandler) RespondEvent(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	d, valid := decision(c, h.logger)
	if !valid {
		return
	}
	p, err := h.engine.RespondToEventRequest(c.Request.Context(), middleware.GetIdentity(c), id, d)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// JoinCarpool handles POST /v1/carpools/:id/join
func (h *MembershipHandler) JoinCarpool(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	req, err := h.engine.RequestToJoinCarpool(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusCreated, req)
}

// ListCarpoolRequests handles GET /v1/carpools/requests
func (h *MembershipHandler) ListCarpoolRequests(c *gin.Context) {
	reqs, err := h.engine.ListCarpoolRequests(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, reqs)
}

// RespondCarpool handles POST /v1/carpool-requests/:id/decision
func (h *MembershipHandler) RespondCarpool(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	d, valid := decision(c, h.logger)
	if !valid {
		return
	}
	req, err := h.engine.RespondToCarpoolRequest(c.Request.Context(), middleware.GetIdentity(c), id, d)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, req)
}
