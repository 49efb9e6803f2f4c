package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/auth"
	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/workflow"
)

// AuthHandler serves the two public endpoints. Everything else sits behind
// AuthMiddleware.
type AuthHandler struct {
	engine    *workflow.Engine
	jwtSecret string
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func NewAuthHandler(engine *workflow.Engine, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		engine:    engine,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

type loginResponse struct {
	Token    string      `json:"token"`
	UserID   int64       `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var in workflow.RegisterInput
	if !bindJSON(c, &in) {
		return
	}

	user, err := h.engine.Register(c.Request.Context(), in)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusCreated, user)
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var in workflow.LoginInput
	if !bindJSON(c, &in) {
		return
	}

	id, err := h.engine.Login(c.Request.Context(), in)
	if err != nil {
		fail(c, h.logger, err)
		return
	}

	token, err := auth.GenerateToken(id, h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Int64("user_id", id.UserID), zap.Error(err))
		failStatus(c, http.StatusInternalServerError, "login failed")
		return
	}

	ok(c, http.StatusOK, loginResponse{
		Token:    token,
		UserID:   id.UserID,
		Username: id.Username,
		Role:     id.Role,
	})
}
