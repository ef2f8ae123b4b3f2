package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fitkpi/challenge-app/internal/service"
)

// ActivityHandler exposes the Strava link and activity sync endpoints.
type ActivityHandler struct {
	activityService  service.ActivityService
	challengeService service.ChallengeService
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(activityService service.ActivityService, challengeService service.ChallengeService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService, challengeService: challengeService}
}

type SyncRequest struct {
	// After/Before bound the sync window as RFC3339 timestamps. Both are
	// optional: the default window is the last 60 days.
	After  *time.Time `json:"after"`
	Before *time.Time `json:"before"`
}

// Connect returns the Strava consent URL for the caller.
func (h *ActivityHandler) Connect(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": h.activityService.ConnectURL(userID)})
}

// Callback completes the OAuth flow after the Strava consent redirect.
func (h *ActivityHandler) Callback(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	code := c.Query("code")
	if code == "" {
		abortWithError(c, http.StatusBadRequest, "Missing authorization code")
		return
	}
	// The state parameter must match the session that started the flow.
	if state := c.Query("state"); state != "" && state != userID.Hex() {
		abortWithError(c, http.StatusForbidden, "OAuth state does not match the authenticated user")
		return
	}

	if err := h.activityService.HandleCallback(c.Request.Context(), userID, code); err != nil {
		if errors.Is(err, service.ErrStravaExchange) {
			abortWithError(c, http.StatusBadGateway, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to connect Strava account")
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": true})
}

// Sync pulls the caller's recent activities from Strava on demand.
func (h *ActivityHandler) Sync(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	// An empty body means "use the default window".
	var req SyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
			return
		}
	}

	before := time.Now()
	after := before.AddDate(0, 0, -60)
	if req.Before != nil {
		before = *req.Before
	}
	if req.After != nil {
		after = *req.After
	}
	if !after.Before(before) {
		abortWithError(c, http.StatusBadRequest, "Sync window is empty: after must precede before")
		return
	}

	result, err := h.activityService.Sync(c.Request.Context(), userID, after, before)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStravaNotConnected):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusBadGateway, "Activity sync failed")
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListMonth returns the caller's stored activities for one month.
func (h *ActivityHandler) ListMonth(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	year, month, ok := parseYearMonth(c)
	if !ok {
		return
	}

	cfg, err := h.challengeService.GetConfig(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load challenge config")
		return
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Challenge timezone is invalid")
		return
	}

	activities, err := h.activityService.ListMonth(c.Request.Context(), userID, year, month, loc)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list activities")
		return
	}
	c.JSON(http.StatusOK, activities)
}

// parseYearMonth reads the ?year= and ?month= query params, defaulting to the
// current month when absent.
func parseYearMonth(c *gin.Context) (int, time.Month, bool) {
	now := time.Now()
	year, month := now.Year(), now.Month()

	if raw := c.Query("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 2000 || v > 2100 {
			abortWithError(c, http.StatusBadRequest, "Invalid year")
			return 0, 0, false
		}
		year = v
	}
	if raw := c.Query("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 12 {
			abortWithError(c, http.StatusBadRequest, "Invalid month")
			return 0, 0, false
		}
		month = time.Month(v)
	}
	return year, month, true
}
