package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/feyndora/backend/services"
	"github.com/feyndora/backend/utils"
)

// SignInController exposes the 7-day sign-in cycle.
type SignInController struct {
	signin *services.SigninService
}

// NewSignInController creates a new controller instance.
func NewSignInController(signin *services.SigninService) *SignInController {
	return &SignInController{signin: signin}
}

// Status reports the cycle state and today's reward without writing.
func (s *SignInController) Status(ctx *gin.Context) {
	userID, ok := pathUserID(ctx, 31)
	if !ok {
		return
	}
	status, err := s.signin.Status(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err, 31)
		return
	}
	utils.Success(ctx, status)
}

// Init creates the sign-in record for a new user.
func (s *SignInController) Init(ctx *gin.Context) {
	userID, ok := pathUserID(ctx, 32)
	if !ok {
		return
	}
	status, err := s.signin.Init(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err, 32)
		return
	}
	utils.Success(ctx, status)
}

// Claim grants today's sign-in reward.
func (s *SignInController) Claim(ctx *gin.Context) {
	userID, ok := pathUserID(ctx, 30)
	if !ok {
		return
	}
	result, err := s.signin.Claim(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err, 30)
		return
	}
	invalidateUser(userID)
	utils.Success(ctx, result)
}

// History lists recent claims, newest first.
func (s *SignInController) History(ctx *gin.Context) {
	userID, ok := pathUserID(ctx, 33)
	if !ok {
		return
	}
	logs, err := s.signin.History(ctx.Request.Context(), userID, parseLimit(ctx.Query("limit"), 30))
	if err != nil {
		respondError(ctx, err, 33)
		return
	}
	utils.Success(ctx, gin.H{"items": logs})
}
