package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/middleware"
	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/workflow"
)

type VisitHandler struct {
	engine *workflow.Engine
	logger *zap.Logger
}

func NewVisitHandler(engine *workflow.Engine, logger *zap.Logger) *VisitHandler {
	return &VisitHandler{engine: engine, logger: logger}
}

type decisionRequest struct {
	Decision string `json:"decision"`
}

// decision reads {"decision": "accept" | "reject"}.
func decision(c *gin.Context, logger *zap.Logger) (workflow.Decision, bool) {
	var req decisionRequest
	if !bindJSON(c, &req) {
		return "", false
	}
	d, err := workflow.ParseDecision(req.Decision)
	if err != nil {
		fail(c, logger, err)
		return "", false
	}
	return d, true
}

// Create handles POST /v1/visits
func (h *VisitHandler) Create(c *gin.Context) {
	var in workflow.VisitInput
	if !bindJSON(c, &in) {
		return
	}
	v, err := h.engine.RequestVisit(c.Request.Context(), middleware.GetIdentity(c), in)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusCreated, v)
}

// Respond handles POST /v1/visits/:id/decision
func (h *VisitHandler) Respond(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	d, valid := decision(c, h.logger)
	if !valid {
		return
	}
	v, err := h.engine.RespondToVisit(c.Request.Context(), middleware.GetIdentity(c), id, d)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// ListRequests handles GET /v1/visits/requests
func (h *VisitHandler) ListRequests(c *gin.Context) {
	visits, err := h.engine.ListVisitRequests(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, visits)
}

// ListUpcoming handles GET /v1/visits/upcoming for either role.
func (h *VisitHandler) ListUpcoming(c *gin.Context) {
	id := middleware.GetIdentity(c)
	list := h.engine.ListUpcomingVisits
	if id.Role == models.RoleHomeowner {
		list = h.engine.ListHomeownerUpcomingVisits
	}
	visits, err := list(c.Request.Context(), id)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, visits)
}
