package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/feyndora/backend/services"
	"github.com/feyndora/backend/utils"
)

// AchievementController serves badge unlocks and claims.
type AchievementController struct {
	achievements *services.AchievementService
}

func NewAchievementController(achievements *services.AchievementService) *AchievementController {
	return &AchievementController{achievements: achievements}
}

// Check unlocks any newly earned badges.
func (a *AchievementController) Check(ctx *gin.Context) {
	userID, ok := pathUserID(ctx, 70)
	if !ok {
		return
	}
	unlocked, err := a.achievements.Check(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err, 70)
		return
	}
	utils.Success(ctx, gin.H{"new_achievements": unlocked})
}

// Claim pays out one unlocked badge.
func (a *AchievementController) Claim(ctx *gin.Context) {
	userID, ok := pathUserID(ctx, 71)
	if !ok {
		return
	}
	var req struct {
		BadgeName string `json:"badge_name" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.BadgeName) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40071, "badge_name is required")
		return
	}
	result, err := a.achievements.Claim(ctx.Request.Context(), userID, strings.TrimSpace(req.BadgeName))
	if err != nil {
		respondError(ctx, err, 71)
		return
	}
	invalidateUser(userID)
	utils.Success(ctx, result)
}

// List returns the user's unlocked badges.
func (a *AchievementController) List(ctx *gin.Context) {
	userID, ok := pathUserID(ctx, 72)
	if !ok {
		return
	}
	badges, err := a.achievements.List(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err, 72)
		return
	}
	utils.Success(ctx, gin.H{"achievements": badges})
}
