package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/feyndora/backend/models"
	"github.com/feyndora/backend/services"
	"github.com/feyndora/backend/utils"
)

// RankingController records learning points and serves leaderboards and site stats.
type RankingController struct {
	db       *gorm.DB
	rankings *services.RankingService
	clock    *services.Clock
}

func NewRankingController(db *gorm.DB, rankings *services.RankingService, clock *services.Clock) *RankingController {
	return &RankingController{db: db, rankings: rankings, clock: clock}
}

// LogPoints adds learning points earned in the VR client.
func (r *RankingController) LogPoints(ctx *gin.Context) {
	var req struct {
		UserID uint `json:"user_id" binding:"required"`
		Points int  `json:"points"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40080, "user_id and points are required")
		return
	}
	total, err := r.rankings.LogPoints(ctx.Request.Context(), req.UserID, req.Points)
	if err != nil {
		respondError(ctx, err, 80)
		return
	}
	invalidateUser(req.UserID)
	utils.Success(ctx, gin.H{"user_id": req.UserID, "points": req.Points, "total_learning_points": total})
}

// day parses ?date=YYYY-MM-DD in the service timezone, defaulting to today.
func (r *RankingController) day(ctx *gin.Context) (time.Time, bool) {
	raw := strings.TrimSpace(ctx.Query("date"))
	if raw == "" {
		return r.clock.Today(), true
	}
	d, err := time.ParseInLocation("2006-01-02", raw, r.clock.Location())
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40081, "date must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

func (r *RankingController) leaderboard(ctx *gin.Context, scope string) {
	day, ok := r.day(ctx)
	if !ok {
		return
	}
	entries, err := r.rankings.Leaderboard(ctx.Request.Context(), scope, day, parseLimit(ctx.Query("limit"), 20))
	if err != nil {
		respondError(ctx, err, 82)
		return
	}
	utils.Success(ctx, gin.H{"scope": scope, "date": day.Format("2006-01-02"), "items": entries})
}

// Daily ranks users by points earned on one day.
func (r *RankingController) Daily(ctx *gin.Context) {
	r.leaderboard(ctx, services.ScopeDaily)
}

// Weekly ranks users by points earned in one Monday-based week.
func (r *RankingController) Weekly(ctx *gin.Context) {
	r.leaderboard(ctx, services.ScopeWeekly)
}

// UserRank returns one user's place in a leaderboard.
func (r *RankingController) UserRank(ctx *gin.Context) {
	userID, ok := pathUserID(ctx, 83)
	if !ok {
		return
	}
	day, ok := r.day(ctx)
	if !ok {
		return
	}
	entry, err := r.rankings.UserRank(ctx.Request.Context(), ctx.Param("scope"), day, userID)
	if err != nil {
		respondError(ctx, err, 83)
		return
	}
	utils.Success(ctx, entry)
}

// Stats returns site wide counters.
func (r *RankingController) Stats(ctx *gin.Context) {
	const cacheKey = "cache:stats:site"
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var users, courses, draws, activeToday int64
	db := r.db.WithContext(ctx.Request.Context())
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50084, "failed to count users")
		return
	}
	if err := db.Model(&models.Course{}).Count(&courses).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50084, "failed to count courses")
		return
	}
	if err := db.Model(&models.CardDraw{}).Count(&draws).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50084, "failed to count draws")
		return
	}
	if err := db.Model(&models.DailyLearningPoint{}).Where("log_date = ?", r.clock.Today()).
		Count(&activeToday).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50084, "failed to count learners")
		return
	}

	payload := gin.H{
		"users":          users,
		"courses":        courses,
		"card_draws":     draws,
		"learners_today": activeToday,
	}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, 5*time.Minute)
	utils.Success(ctx, payload)
}
