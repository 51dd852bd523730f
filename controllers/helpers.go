package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feyndora/backend/middleware"
	"github.com/feyndora/backend/services"
	"github.com/feyndora/backend/utils"
)

// respondError maps an engine error onto status and numeric code. The code is the
// HTTP status followed by the endpoint suffix, e.g. 400 + 30 -> 40030.
func respondError(ctx *gin.Context, err error, suffix int) {
	var status int
	message := err.Error()
	switch services.KindOf(err) {
	case services.KindValidation, services.KindConflict:
		status = http.StatusBadRequest
	case services.KindNotFound:
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
		utils.Logger.Error("request failed",
			zap.String(utils.RequestIDKey, ctx.GetString(utils.RequestIDKey)),
			zap.String("path", ctx.FullPath()),
			zap.Error(err),
		)
		if !errors.Is(err, services.ErrNoCardAvailable) {
			message = "internal server error"
		}
	}
	utils.Error(ctx, status, status*100+suffix, message)
}

// pathUserID parses the :userId path parameter, answering 400 when it is malformed.
func pathUserID(ctx *gin.Context, suffix int) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param("userId")), 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40000+suffix, "invalid user id")
		return 0, false
	}
	return uint(id), true
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param(name)), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	v, ok := value.(uint)
	return v, ok
}

func parseLimit(raw string, def int) int {
	if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
		return n
	}
	return def
}

// invalidateUser drops the cached public profile after a balance change.
func invalidateUser(userID uint) {
	utils.CacheDelete(userCachePrefix + strconv.FormatUint(uint64(userID), 10))
}
