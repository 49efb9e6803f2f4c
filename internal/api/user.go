package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/middleware"
	"github.com/lalith-99/dormlink/internal/workflow"
)

type UserHandler struct {
	engine *workflow.Engine
	logger *zap.Logger
}

func NewUserHandler(engine *workflow.Engine, logger *zap.Logger) *UserHandler {
	return &UserHandler{engine: engine, logger: logger}
}

// Me handles GET /v1/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.engine.Me(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, user)
}
