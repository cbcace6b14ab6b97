package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/bizdirectory-backend/internal/errors"
	"github.com/ikkim/bizdirectory-backend/internal/middleware"
	"github.com/ikkim/bizdirectory-backend/pkg/logger"
)

// parseIDParam reads a positive numeric path parameter. It writes the 400
// itself and returns false on failure.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid id parameter", map[string]interface{}{
			"param": name,
			"value": raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// bindJSON binds the body and answers 400 with per-field messages on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
			"path":  c.FullPath(),
			"error": err.Error(),
		})
		if fields := middleware.ValidationFields(err); fields != nil {
			apperrors.RespondWithValidationError(c, fields)
		} else {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "request body is invalid")
		}
		return false
	}
	return true
}

// respondError logs err at a level matching its kind and writes the reply.
func respondError(c *gin.Context, log *logger.Logger, err error, action string, fields map[string]interface{}) {
	if apperrors.KindOf(err) == apperrors.KindInternal {
		log.Error("Failed to "+action, err, fields)
	} else {
		if fields == nil {
			fields = map[string]interface{}{}
		}
		fields["error"] = err.Error()
		log.Warn("Could not "+action, fields)
	}
	apperrors.RespondWithAppError(c, err, action)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return n
}
