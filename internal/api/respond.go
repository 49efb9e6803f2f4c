package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/dormlink/internal/apperr"
)

// Every response uses one envelope:
//
//	{"success": true, "data": ...}
//	{"success": false, "reason": "..."}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func failStatus(c *gin.Context, status int, reason string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "reason": reason})
}

// fail maps an error onto its status code. Storage and unknown failures are
// logged and reported with a generic reason.
func fail(c *gin.Context, logger *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	failStatus(c, status, apperr.Reason(err))
}

func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConstraint, apperr.KindIllegalTransition:
		return http.StatusConflict
	case apperr.KindPrecondition:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// bindJSON decodes the body. Field rules are checked by the workflow, so
// only malformed JSON fails here.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		failStatus(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		failStatus(c, http.StatusBadRequest, "invalid query parameters")
		return false
	}
	return true
}

// pathID parses a positive int64 path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		failStatus(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
