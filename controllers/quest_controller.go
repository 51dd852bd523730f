package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feyndora/backend/services"
	"github.com/feyndora/backend/utils"
)

// QuestController serves weekly quest progress and claims.
type QuestController struct {
	quests *services.QuestService
	clock  *services.Clock
}

func NewQuestController(quests *services.QuestService, clock *services.Clock) *QuestController {
	return &QuestController{quests: quests, clock: clock}
}

// Progress lists this week's quests for a user.
func (q *QuestController) Progress(ctx *gin.Context) {
	userID, ok := pathUserID(ctx, 40)
	if !ok {
		return
	}
	tasks, err := q.quests.Progress(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err, 40)
		return
	}
	utils.Success(ctx, gin.H{
		"week_start": q.clock.CurrentWeekStart().Format("2006-01-02"),
		"tasks":      tasks,
	})
}

// Claim pays out a completed quest.
func (q *QuestController) Claim(ctx *gin.Context) {
	var req struct {
		UserID uint `json:"user_id" binding:"required"`
		TaskID *int `json:"task_id"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || req.TaskID == nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "user_id and task_id are required")
		return
	}
	result, err := q.quests.Claim(ctx.Request.Context(), req.UserID, *req.TaskID)
	if err != nil {
		respondError(ctx, err, 41)
		return
	}
	invalidateUser(req.UserID)
	utils.Success(ctx, result)
}
