package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fitkpi/challenge-app/internal/engine"
	"fitkpi/challenge-app/internal/service"
)

// ChallengeHandler exposes the KPI dashboard: per-user monthly breakdowns,
// the season penalty history, and the group roster.
type ChallengeHandler struct {
	challengeService service.ChallengeService
}

// NewChallengeHandler creates a new ChallengeHandler.
func NewChallengeHandler(challengeService service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService}
}

// MonthlySummary returns the caller's full month breakdown: every activity
// annotated with its validation and quota outcome, plus the aggregate.
func (h *ChallengeHandler) MonthlySummary(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	year, month, ok := parseYearMonth(c)
	if !ok {
		return
	}

	res, err := h.challengeService.GetMonthlySummary(c.Request.Context(), userID, year, month)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PenaltyHistory returns the caller's per-month penalties since the challenge
// start plus the season total.
func (h *ChallengeHandler) PenaltyHistory(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	history, total, err := h.challengeService.GetPenaltyHistory(c.Request.Context(), userID, time.Now())
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"months": history, "total": total})
}

// Roster returns every approved athlete's summary for the month.
func (h *ChallengeHandler) Roster(c *gin.Context) {
	year, month, ok := parseYearMonth(c)
	if !ok {
		return
	}

	roster, err := h.challengeService.GetRoster(c.Request.Context(), year, month)
	if err != nil {
		h.writeEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, roster)
}

func (h *ChallengeHandler) writeEngineError(c *gin.Context, err error) {
	var cfgErr *engine.ConfigError
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConfigNotFound):
		abortWithError(c, http.StatusServiceUnavailable, "Challenge is not configured yet")
	case errors.As(err, &cfgErr):
		abortWithError(c, http.StatusConflict, cfgErr.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Failed to compute challenge summary")
	}
}
