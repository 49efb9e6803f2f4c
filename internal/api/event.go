package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/middleware"
	"github.com/lalith-99/dormlink/internal/workflow"
)

type EventHandler struct {
	engine *workflow.Engine
	logger *zap.Logger
}

func NewEventHandler(engine *workflow.Engine, logger *zap.Logger) *EventHandler {
	return &EventHandler{engine: engine, logger: logger}
}

// Create handles POST /v1/events
func (h *EventHandler) Create(c *gin.Context) {
	var in workflow.EventInput
	if !bindJSON(c, &in) {
		return
	}
	ev, err := h.engine.CreateEvent(c.Request.Context(), middleware.GetIdentity(c), in)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusCreated, ev)
}

// Update handles PUT /v1/events/:id
func (h *EventHandler) Update(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var in workflow.EventInput
	if !bindJSON(c, &in) {
		return
	}
	ev, err := h.engine.EditEvent(c.Request.Context(), middleware.GetIdentity(c), id, in)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, ev)
}

// Delete handles DELETE /v1/events/:id
func (h *EventHandler) Delete(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.engine.RemoveEvent(c.Request.Context(), middleware.GetIdentity(c), id); err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"id": id})
}

// ListMine handles GET /v1/events/mine
func (h *EventHandler) ListMine(c *gin.Context) {
	events, err := h.engine.ListMyEvents(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, events)
}

// ListAvailable handles GET /v1/events
func (h *EventHandler) ListAvailable(c *gin.Context) {
	events, err := h.engine.ListAvailableEvents(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, events)
}

// ListUpcoming handles GET /v1/events/upcoming
func (h *EventHandler) ListUpcoming(c *gin.Context) {
	events, err := h.engine.ListUpcomingEvents(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, events)
}
