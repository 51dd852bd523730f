package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/feyndora/backend/config"
	"github.com/feyndora/backend/controllers"
	"github.com/feyndora/backend/middleware"
	"github.com/feyndora/backend/services"
	"github.com/feyndora/backend/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, engines *services.Engines) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		gl = utils.Logger
	}
	r.Use(utils.Ginzap(gl, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(gl, false))
	r.Use(middleware.Metrics())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authController := controllers.NewAuthController(db)
	courseController := controllers.NewCourseController(db)
	signController := controllers.NewSignInController(engines.Signin)
	questController := controllers.NewQuestController(engines.Quests, engines.Clock)
	cardController := controllers.NewCardController(engines.Gacha)
	achievementController := controllers.NewAchievementController(engines.Achievements)
	rankingController := controllers.NewRankingController(db, engines.Rankings, engines.Clock)

	api := r.Group("")
	api.Use(middleware.RateLimitMiddleware())

	// Accounts
	api.POST("/register", authController.Register)
	api.POST("/login", authController.Login)
	api.GET("/captcha", authController.Captcha)
	api.GET("/me", middleware.AuthRequired(), authController.Me)
	api.POST("/logout", middleware.AuthRequired(), authController.Logout)
	api.GET("/users/:userId", authController.GetUserPublic)
	api.PUT("/users/:userId/avatar", middleware.AuthRequired(), authController.UpdateAvatar)

	// Sign-in
	api.GET("/signin/status/:userId", signController.Status)
	api.POST("/signin/init/:userId", signController.Init)
	api.POST("/signin/claim/:userId", signController.Claim)
	api.GET("/signin/history/:userId", signController.History)

	// Weekly quests
	api.GET("/weekly_tasks/:userId", questController.Progress)
	api.POST("/claim_weekly_task", questController.Claim)

	// Achievements
	api.POST("/check_achievements/:userId", achievementController.Check)
	api.POST("/claim_achievement/:userId", achievementController.Claim)
	api.GET("/get_user_achievements/:userId", achievementController.List)

	// Cards
	api.POST("/draw_card/:userId", cardController.Draw)
	api.GET("/user_cards/:userId", cardController.Collection)
	api.POST("/select_teacher_card", cardController.Select)
	api.GET("/cards", cardController.Catalog)

	// Courses
	api.POST("/courses", courseController.CreateCourse)
	api.GET("/courses/user/:userId", courseController.ListUserCourses)
	api.GET("/courses/:id", courseController.GetCourse)
	api.PUT("/courses/:id", courseController.UpdateCourse)
	api.DELETE("/courses/:id", courseController.DeleteCourse)
	api.PUT("/courses/:id/progress", courseController.UpdateProgress)
	api.GET("/courses/:id/chapters", courseController.ListChapters)
	api.POST("/courses/:id/chapters", courseController.CreateChapter)
	api.PUT("/chapters/:id/complete", courseController.CompleteChapter)
	api.GET("/courses/:id/reviews", courseController.ListReviews)
	api.POST("/courses/:id/reviews", courseController.CreateReview)

	// Learning points and rankings
	api.POST("/learning_points", rankingController.LogPoints)
	api.GET("/rankings/daily", rankingController.Daily)
	api.GET("/rankings/weekly", rankingController.Weekly)
	api.GET("/rankings/:scope/:userId", rankingController.UserRank)
	api.GET("/stats", rankingController.Stats)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
