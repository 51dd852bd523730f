package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/feyndora/backend/models"
	"github.com/feyndora/backend/services"
	"github.com/feyndora/backend/utils"
)

const courseCachePrefix = "cache:course:"

// CourseController manages courses, their chapters and reviews.
type CourseController struct {
	db *gorm.DB
}

// NewCourseController creates a new CourseController instance.
func NewCourseController(db *gorm.DB) *CourseController {
	return &CourseController{db: db}
}

type courseRequest struct {
	UserID      uint   `json:"user_id"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

func (c *CourseController) loadCourse(ctx *gin.Context, suffix int) (*models.Course, bool) {
	id, ok := pathID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40000+suffix, "invalid course id")
		return nil, false
	}
	var course models.Course
	if err := c.db.First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = services.ErrCourseNotFound
		}
		respondError(ctx, err, suffix)
		return nil, false
	}
	return &course, true
}

func invalidateCourse(course *models.Course) {
	utils.InvalidateByPrefix(fmt.Sprintf("%sdetail:%d", courseCachePrefix, course.ID))
	utils.InvalidateByPrefix(fmt.Sprintf("%suser:%d:", courseCachePrefix, course.UserID))
}

// CreateCourse adds a course to a user's library.
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	var req courseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.UserID == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40020, "user_id and title are required")
		return
	}
	title := utils.SanitizePlain(strings.TrimSpace(req.Title))
	if title == "" || len(title) > 255 {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title must be 1-255 characters")
		return
	}

	var owner int64
	if err := c.db.Model(&models.User{}).Where("id = ?", req.UserID).Count(&owner).Error; err != nil {
		respondError(ctx, err, 20)
		return
	}
	if owner == 0 {
		respondError(ctx, services.ErrUserNotFound, 20)
		return
	}

	course := models.Course{
		UserID:      req.UserID,
		Title:       title,
		Description: utils.Sanitize(req.Description),
	}
	if err := c.db.Create(&course).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create course")
		return
	}
	invalidateCourse(&course)
	utils.Created(ctx, gin.H{"course": course})
}

// ListUserCourses returns a user's courses, most recently updated first.
func (c *CourseController) ListUserCourses(ctx *gin.Context) {
	userID, ok := pathUserID(ctx, 22)
	if !ok {
		return
	}
	cacheKey := fmt.Sprintf("%suser:%d:list", courseCachePrefix, userID)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var courses []models.Course
	if err := c.db.Where("user_id = ?", userID).Order("updated_at DESC, id DESC").Find(&courses).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list courses")
		return
	}
	payload := gin.H{"items": courses}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Minute)
	utils.Success(ctx, payload)
}

// GetCourse returns a course with its chapters.
func (c *CourseController) GetCourse(ctx *gin.Context) {
	id := strings.TrimSpace(ctx.Param("id"))
	cacheKey := courseCachePrefix + "detail:" + id
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}
	course, ok := c.loadCourse(ctx, 23)
	if !ok {
		return
	}
	if err := c.db.Where("course_id = ?", course.ID).Order("position, id").Find(&course.Chapters).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load chapters")
		return
	}
	payload := gin.H{"course": course}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Minute)
	utils.Success(ctx, payload)
}

// UpdateCourse changes title and description.
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	var req courseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}
	title := utils.SanitizePlain(strings.TrimSpace(req.Title))
	if title == "" || len(title) > 255 {
		utils.Error(ctx, http.StatusBadRequest, 40025, "title must be 1-255 characters")
		return
	}
	course, ok := c.loadCourse(ctx, 24)
	if !ok {
		return
	}
	if err := c.db.Model(course).Updates(map[string]interface{}{
		"title":       title,
		"description": utils.Sanitize(req.Description),
	}).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to update course")
		return
	}
	course.Title = title
	course.Description = utils.Sanitize(req.Description)
	invalidateCourse(course)
	utils.Success(ctx, gin.H{"course": course})
}

// DeleteCourse removes a course together with its chapters and reviews.
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	course, ok := c.loadCourse(ctx, 26)
	if !ok {
		return
	}
	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", course.ID).Delete(&models.Chapter{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", course.ID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		return tx.Delete(course).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to delete course")
		return
	}
	invalidateCourse(course)
	utils.Success(ctx, gin.H{"message": "course deleted"})
}

// UpdateProgress sets the completion percentage of a course.
func (c *CourseController) UpdateProgress(ctx *gin.Context) {
	var req struct {
		Progress *int `json:"progress" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || *req.Progress < 0 || *req.Progress > 100 {
		utils.Error(ctx, http.StatusBadRequest, 40027, "progress must be between 0 and 100")
		return
	}
	course, ok := c.loadCourse(ctx, 27)
	if !ok {
		return
	}
	if err := c.db.Model(course).Update("progress", *req.Progress).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to update progress")
		return
	}
	course.Progress = *req.Progress
	invalidateCourse(course)
	utils.Success(ctx, gin.H{"course": course})
}

// ListChapters returns the chapters of a course in order.
func (c *CourseController) ListChapters(ctx *gin.Context) {
	course, ok := c.loadCourse(ctx, 28)
	if !ok {
		return
	}
	var chapters []models.Chapter
	if err := c.db.Where("course_id = ?", course.ID).Order("position, id").Find(&chapters).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to list chapters")
		return
	}
	utils.Success(ctx, gin.H{"items": chapters})
}

// CreateChapter appends a chapter to a course.
func (c *CourseController) CreateChapter(ctx *gin.Context) {
	var req struct {
		Title    string `json:"title" binding:"required"`
		Content  string `json:"content"`
		Position *int   `json:"position"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40029, "invalid request payload")
		return
	}
	title := utils.SanitizePlain(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40029, "title cannot be empty")
		return
	}
	course, ok := c.loadCourse(ctx, 29)
	if !ok {
		return
	}

	chapter := models.Chapter{CourseID: course.ID, Title: title, Content: utils.Sanitize(req.Content)}
	err := c.db.Transaction(func(tx *gorm.DB) error {
		if req.Position != nil {
			chapter.Position = *req.Position
		} else {
			var last int
			if err := tx.Model(&models.Chapter{}).Where("course_id = ?", course.ID).
				Select("COALESCE(MAX(position), 0)").Scan(&last).Error; err != nil {
				return err
			}
			chapter.Position = last + 1
		}
		if err := tx.Create(&chapter).Error; err != nil {
			return err
		}
		return recomputeProgress(tx, course.ID)
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to create chapter")
		return
	}
	invalidateCourse(course)
	utils.Created(ctx, gin.H{"chapter": chapter})
}

// CompleteChapter marks a chapter done and recomputes the course progress.
func (c *CourseController) CompleteChapter(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40034, "invalid chapter id")
		return
	}
	var chapter models.Chapter
	var course models.Course
	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&chapter, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return services.ErrChapterNotFound
			}
			return err
		}
		if !chapter.Completed {
			if err := tx.Model(&chapter).Update("completed", true).Error; err != nil {
				return err
			}
		}
		if err := recomputeProgress(tx, chapter.CourseID); err != nil {
			return err
		}
		return tx.First(&course, chapter.CourseID).Error
	})
	if err != nil {
		respondError(ctx, err, 34)
		return
	}
	invalidateCourse(&course)
	utils.Success(ctx, gin.H{"chapter": chapter, "course_progress": course.Progress})
}

// recomputeProgress derives course progress from its completed chapters.
// A course without chapters keeps its manually set progress.
func recomputeProgress(tx *gorm.DB, courseID uint) error {
	var total, done int64
	if err := tx.Model(&models.Chapter{}).Where("course_id = ?", courseID).Count(&total).Error; err != nil {
		return err
	}
	if total == 0 {
		return nil
	}
	if err := tx.Model(&models.Chapter{}).Where("course_id = ? AND completed = ?", courseID, true).Count(&done).Error; err != nil {
		return err
	}
	return tx.Model(&models.Course{}).Where("id = ?", courseID).
		Update("progress", int(done*100/total)).Error
}

// ListReviews returns the reviews of a course, newest first.
func (c *CourseController) ListReviews(ctx *gin.Context) {
	course, ok := c.loadCourse(ctx, 35)
	if !ok {
		return
	}
	var reviews []models.Review
	if err := c.db.Preload("User").Where("course_id = ?", course.ID).
		Order("created_at DESC").Find(&reviews).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to list reviews")
		return
	}
	utils.Success(ctx, gin.H{"items": reviews})
}

// CreateReview rates a course from 1 to 5.
func (c *CourseController) CreateReview(ctx *gin.Context) {
	var req struct {
		UserID  uint   `json:"user_id" binding:"required"`
		Rating  int    `json:"rating" binding:"required,min=1,max=5"`
		Content string `json:"content"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40036, "user_id and a rating of 1-5 are required")
		return
	}
	course, ok := c.loadCourse(ctx, 36)
	if !ok {
		return
	}
	review := models.Review{
		CourseID: course.ID,
		UserID:   req.UserID,
		Rating:   req.Rating,
		Content:  utils.Sanitize(req.Content),
	}
	if err := c.db.First(&review.User, req.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = services.ErrUserNotFound
		}
		respondError(ctx, err, 36)
		return
	}
	if err := c.db.Omit("User").Create(&review).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50036, "failed to create review")
		return
	}
	utils.Created(ctx, gin.H{"review": review})
}
