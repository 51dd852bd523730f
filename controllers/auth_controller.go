package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/feyndora/backend/config"
	"github.com/feyndora/backend/middleware"
	"github.com/feyndora/backend/models"
	"github.com/feyndora/backend/utils"
)

const userCachePrefix = "cache:user:public:"

// AuthController handles account registration, login and profile endpoints.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Register creates a local account with a bcrypt hashed password.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username      string `json:"username" binding:"required"`
		Email         string `json:"email" binding:"required,email"`
		Password      string `json:"password" binding:"required"`
		CaptchaID     string `json:"captcha_id"`
		CaptchaAnswer string `json:"captcha_answer"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if l := len([]rune(username)); l < 3 || l > 64 || !validUsername(username) {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username must be 3-64 letters, digits, '-' or '_'")
		return
	}
	if len(req.Password) < 6 || len(req.Password) > 72 {
		utils.Error(ctx, http.StatusBadRequest, 40002, "password must be 6-72 characters")
		return
	}

	cfg := config.Get()
	if cfg.RegisterCaptchaEnabled &&
		!utils.VerifyCaptcha(strings.TrimSpace(req.CaptchaID), strings.TrimSpace(req.CaptchaAnswer)) {
		utils.Error(ctx, http.StatusBadRequest, 40003, "captcha invalid or expired")
		return
	}

	ip := ctx.ClientIP()
	if utils.RegistrationIsBanned(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42920, "registration temporarily blocked for this address")
		return
	}
	if !utils.RegistrationCooldownTry(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42910, "too many requests, try again later")
		return
	}
	if !utils.RegistrationDailyLimitCheck(ip) {
		utils.Error(ctx, http.StatusTooManyRequests, 42921, "daily registration limit reached")
		return
	}

	var count int64
	if err := a.db.Model(&models.User{}).Where("username = ? OR email = ?", username, email).Count(&count).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to check account")
		return
	}
	if count > 0 {
		utils.RegistrationFailRecord(ip)
		utils.Error(ctx, http.StatusBadRequest, 40004, "username or email already exists")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to hash password")
		return
	}

	user := models.User{Username: username, Email: email, PasswordHash: hash, RegisterIP: ip}
	if err := a.db.Create(&user).Error; err != nil {
		utils.RegistrationFailRecord(ip)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.Error(ctx, http.StatusBadRequest, 40004, "username or email already exists")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to create user")
		return
	}
	utils.RegistrationDailyIncrement(ip)

	token, expiresAt, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	utils.Sugar.Infow("user registered", "user_id", user.ID, "ip", ip)
	utils.Created(ctx, gin.H{"token": token, "expires_at": expiresAt, "user": user})
}

// Login verifies email and password and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40005, "invalid request payload")
		return
	}

	var user models.User
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := a.db.Where("email = ?", email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to load user")
			return
		}
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
		return
	}

	if utils.PasswordNeedsRehash(user.PasswordHash) {
		if hash, err := utils.HashPassword(req.Password); err == nil {
			a.db.Model(&user).Update("password_hash", hash)
		}
	}

	token, expiresAt, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}
	utils.Success(ctx, gin.H{"token": token, "expires_at": expiresAt, "user": user})
}

// Logout revokes the presented token until it would have expired anyway.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}
	expires := time.Now().Add(utils.TokenTTL())
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(token, expires)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's own account.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to load user")
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}

// GetUserPublic returns the public profile and balances of a user.
func (a *AuthController) GetUserPublic(ctx *gin.Context) {
	userID, ok := pathUserID(ctx, 50)
	if !ok {
		return
	}
	key := userCachePrefix + strconv.FormatUint(uint64(userID), 10)
	if b, ok := utils.CacheGetBytes(key); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40450, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to get user")
		return
	}
	payload := gin.H{"user": user}
	utils.CacheSetJSON(key, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, 30*time.Second)
	utils.Success(ctx, payload)
}

// UpdateAvatar sets a user's avatar URL. Only the user themself may change it.
func (a *AuthController) UpdateAvatar(ctx *gin.Context) {
	userID, ok := pathUserID(ctx, 11)
	if !ok {
		return
	}
	if self, ok := getUserID(ctx); !ok || self != userID {
		utils.Error(ctx, http.StatusForbidden, 40311, "you can only change your own avatar")
		return
	}
	var req struct {
		AvatarURL string `json:"avatar" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40012, "invalid request payload")
		return
	}
	avatar := strings.TrimSpace(req.AvatarURL)
	u, err := url.Parse(avatar)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || len(avatar) > 512 {
		utils.Error(ctx, http.StatusBadRequest, 40012, "avatar must be an http(s) url")
		return
	}

	res := a.db.Model(&models.User{}).Where("id = ?", userID).Update("avatar_url", avatar)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to update avatar")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}
	invalidateUser(userID)
	utils.Success(ctx, gin.H{"avatar": avatar})
}

// Captcha returns a fresh captcha id and base64 image.
func (a *AuthController) Captcha(ctx *gin.Context) {
	id, b64, err := utils.GenerateCaptcha()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to generate captcha")
		return
	}
	utils.Success(ctx, gin.H{"id": id, "image": b64})
}

func validUsername(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
