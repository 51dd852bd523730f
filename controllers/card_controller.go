package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feyndora/backend/config"
	"github.com/feyndora/backend/services"
	"github.com/feyndora/backend/utils"
)

const cardCatalogTTL = 10 * time.Minute

// CardController serves card draws and the teacher card collection.
type CardController struct {
	gacha *services.GachaService
}

func NewCardController(gacha *services.GachaService) *CardController {
	return &CardController{gacha: gacha}
}

// Draw buys one random card. The draw type defaults to normal.
func (c *CardController) Draw(ctx *gin.Context) {
	userID, ok := pathUserID(ctx, 60)
	if !ok {
		return
	}
	kind := strings.ToLower(strings.TrimSpace(ctx.DefaultQuery("type", config.DrawNormal)))
	result, err := c.gacha.Draw(ctx.Request.Context(), userID, kind)
	if err != nil {
		respondError(ctx, err, 60)
		return
	}
	invalidateUser(userID)
	utils.Success(ctx, result)
}

// Collection lists the cards a user owns.
func (c *CardController) Collection(ctx *gin.Context) {
	userID, ok := pathUserID(ctx, 61)
	if !ok {
		return
	}
	cards, err := c.gacha.Cards(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err, 61)
		return
	}
	utils.Success(ctx, gin.H{"items": cards})
}

// Select sets the user's active teacher card.
func (c *CardController) Select(ctx *gin.Context) {
	var req struct {
		UserID uint `json:"user_id" binding:"required"`
		CardID uint `json:"card_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40062, "user_id and card_id are required")
		return
	}
	selected, err := c.gacha.Select(ctx.Request.Context(), req.UserID, req.CardID)
	if err != nil {
		respondError(ctx, err, 62)
		return
	}
	utils.Success(ctx, selected)
}

// Catalog lists every drawable card.
func (c *CardController) Catalog(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes("cache:cards:catalog"); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}
	cards, err := c.gacha.Catalog(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, 63)
		return
	}
	payload := gin.H{"items": cards}
	utils.CacheSetJSON("cache:cards:catalog", utils.JSONResponse{Code: 0, Message: "success", Data: payload}, cardCatalogTTL)
	utils.Success(ctx, payload)
}
