package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aegle-health/aegle/core"
	"github.com/aegle-health/aegle/service"
)

// Handlers contains the HTTP handlers for the auth and ledger endpoints
type Handlers struct {
	auth         *service.AuthService
	rewards      *service.RewardService
	conditions   *service.ConditionService
	achievements *service.AchievementService
	log          *zap.Logger
}

// NewHandlers creates the handler set
func NewHandlers(
	auth *service.AuthService,
	rewards *service.RewardService,
	conditions *service.ConditionService,
	achievements *service.AchievementService,
	log *zap.Logger,
) *Handlers {
	return &Handlers{
		auth:         auth,
		rewards:      rewards,
		conditions:   conditions,
		achievements: achievements,
		log:          log,
	}
}

// Challenge handles the issue-challenge request
func (h *Handlers) Challenge(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	challenge, err := h.auth.Challenge(c.Request.Context(), req.Address)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": challenge.Message,
		"nonce":   challenge.Nonce,
	})
}

// Verify handles the verify request and issues a session
func (h *Handlers) Verify(c *gin.Context) {
	var req struct {
		Address   string `json:"address" binding:"required"`
		Signature string `json:"signature" binding:"required"`
		Message   string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	result, err := h.auth.Verify(c.Request.Context(), req.Address, req.Signature, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"address":    result.Identity.Address,
			"profile_id": result.Identity.ProfileID,
		},
		"access_token": result.AccessToken,
		"is_new_user":  result.IsNewUser,
	})
}

// MintForEyeTest credits the caller for a completed eye test
func (h *Handlers) MintForEyeTest(c *gin.Context) {
	sess := sessionFrom(c)
	account, err := h.rewards.MintForEyeTest(c.Request.Context(), sess, sess.Address)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accountJSON(account))
}

// MintForDailyExercise credits the caller for today's exercise
func (h *Handlers) MintForDailyExercise(c *gin.Context) {
	sess := sessionFrom(c)
	account, err := h.rewards.MintForDailyExercise(c.Request.Context(), sess, sess.Address)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accountJSON(account))
}

// MintForFamilyMember credits the caller for adding a family member
func (h *Handlers) MintForFamilyMember(c *gin.Context) {
	sess := sessionFrom(c)
	account, err := h.rewards.MintForFamilyMember(c.Request.Context(), sess, sess.Address)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accountJSON(account))
}

// Balance returns the caller's reward account
func (h *Handlers) Balance(c *gin.Context) {
	sess := sessionFrom(c)
	account, err := h.rewards.Balance(c.Request.Context(), sess.Address)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accountJSON(account))
}

// Discount returns the caller's doctor-visit discount tier
func (h *Handlers) Discount(c *gin.Context) {
	sess := sessionFrom(c)
	tier, err := h.rewards.DoctorVisitDiscount(c.Request.Context(), sess.Address)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"discount_percent": uint8(tier)})
}

// ReportCondition appends a health record and mints the tier-gated amount
func (h *Handlers) ReportCondition(c *gin.Context) {
	var req struct {
		Tier       string `json:"tier" binding:"required"`
		Confidence *int   `json:"confidence" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	tier, ok := core.ParseConditionTier(req.Tier)
	if !ok || *req.Confidence < 0 || *req.Confidence > 100 {
		badRequest(c)
		return
	}

	sess := sessionFrom(c)
	record, err := h.conditions.MintForCondition(c.Request.Context(), sess, sess.Address, tier, *req.Confidence)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, recordJSON(*record))
}

// HealthHistory returns the caller's records, oldest first
func (h *Handlers) HealthHistory(c *gin.Context) {
	sess := sessionFrom(c)
	history, err := h.conditions.HealthHistory(c.Request.Context(), sess.Address)
	if err != nil {
		respondError(c, err)
		return
	}

	records := make([]gin.H, 0, len(history))
	for _, r := range history {
		records = append(records, recordJSON(r))
	}
	c.JSON(http.StatusOK, gin.H{"history": records})
}

// HealthStatistics returns the caller's per-tier counts
func (h *Handlers) HealthStatistics(c *gin.Context) {
	sess := sessionFrom(c)
	stats, err := h.conditions.HealthStatistics(c.Request.Context(), sess.Address)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_tests":  stats.TotalTests,
		"normal_count": stats.NormalCount,
		"mild_count":   stats.MildCount,
		"severe_count": stats.SevereCount,
	})
}

// MintAchievement mints a new achievement token, controller only
func (h *Handlers) MintAchievement(c *gin.Context) {
	var req struct {
		Recipient   string `json:"recipient" binding:"required"`
		Type        uint8  `json:"type"`
		MetadataRef string `json:"metadata_ref" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	sess := sessionFrom(c)
	achievement, err := h.achievements.MintAchievement(c.Request.Context(), sess, req.Recipient, req.Type, req.MetadataRef)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, achievementJSON(achievement))
}

// RecordSale records a sale of an achievement token and splits the proceeds
func (h *Handlers) RecordSale(c *gin.Context) {
	tokenID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c)
		return
	}

	var req struct {
		Price int64 `json:"price" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	sess := sessionFrom(c)
	sale, err := h.achievements.RecordSale(c.Request.Context(), sess, tokenID, req.Price)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token_id":      sale.TokenID,
		"price":         sale.Price,
		"royalty":       sale.Royalty,
		"seller_payout": sale.SellerPayout,
	})
}

// GetAchievement returns the record for a token id
func (h *Handlers) GetAchievement(c *gin.Context) {
	tokenID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c)
		return
	}

	achievement, err := h.achievements.Achievement(c.Request.Context(), tokenID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, achievementJSON(achievement))
}

// Pause halts mutating ledger operations, controller only
func (h *Handlers) Pause(c *gin.Context) {
	if err := h.rewards.Pause(sessionFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": true})
}

// Unpause restores normal ledger operation, controller only
func (h *Handlers) Unpause(c *gin.Context) {
	if err := h.rewards.Unpause(sessionFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused": false})
}

func accountJSON(a *core.RewardAccount) gin.H {
	return gin.H{
		"address":      a.Address,
		"balance":      a.Balance,
		"total_minted": a.TotalMinted,
	}
}

func recordJSON(r core.HealthRecord) gin.H {
	return gin.H{
		"tier":        r.Tier.String(),
		"confidence":  r.Confidence,
		"amount":      r.Amount,
		"reported_at": r.ReportedAt,
	}
}

func achievementJSON(a *core.Achievement) gin.H {
	return gin.H{
		"token_id":     a.TokenID,
		"type":         a.Type,
		"recipient":    a.Recipient,
		"metadata_ref": a.MetadataRef,
		"minted_at":    a.MintedAt,
	}
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "reason": "invalid_request"})
}

// respondError maps a core error onto an HTTP status and a machine-readable
// reason code so the caller can decide between retrying and aborting.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrInvalidAddress),
		errors.Is(err, core.ErrInvalidChallenge),
		errors.Is(err, core.ErrInvalidToken):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidSignature),
		errors.Is(err, core.ErrNonceExpired),
		errors.Is(err, core.ErrNonceReplayed),
		errors.Is(err, core.ErrTokenExpired):
		status = http.StatusUnauthorized
	case errors.Is(err, core.ErrUnauthorizedMint),
		errors.Is(err, core.ErrInsufficientRole):
		status = http.StatusForbidden
	case errors.Is(err, core.ErrUnknownToken),
		errors.Is(err, core.ErrIdentityNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrPaused),
		errors.Is(err, core.ErrAlreadyRewardedToday):
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{"error": err.Error(), "reason": core.ReasonCode(err)})
}
