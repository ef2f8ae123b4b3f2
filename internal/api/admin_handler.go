package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitkpi/challenge-app/internal/domain"
	"fitkpi/challenge-app/internal/service"
)

// AdminHandler exposes config management and season report generation.
type AdminHandler struct {
	challengeService service.ChallengeService
	reportService    service.ReportService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(challengeService service.ChallengeService, reportService service.ReportService) *AdminHandler {
	return &AdminHandler{challengeService: challengeService, reportService: reportService}
}

type ConfigRequest struct {
	Targets      map[domain.Gender]domain.DisciplineTargets `json:"targets" binding:"required"`
	Caps         domain.DailyCaps                           `json:"caps" binding:"required"`
	Penalties    domain.PenaltyRates                        `json:"penalties" binding:"required"`
	Conversion   domain.ConversionRatios                    `json:"conversion" binding:"required"`
	MinHeartRate float64                                    `json:"minHeartRate" binding:"required,gt=0"`
	StartYear    int                                        `json:"startYear" binding:"required"`
	StartMonth   int                                        `json:"startMonth" binding:"required,min=1,max=12"`
	Timezone     string                                     `json:"timezone" binding:"required"`
}

type ToggleHolidayRequest struct {
	Disabled *bool `json:"disabled" binding:"required"`
}

// GetConfig returns the current challenge configuration.
func (h *AdminHandler) GetConfig(c *gin.Context) {
	cfg, err := h.challengeService.GetConfig(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrConfigNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to load config")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// UpdateConfig replaces the challenge configuration. The previous disabled
// holiday toggles are carried over.
func (h *AdminHandler) UpdateConfig(c *gin.Context) {
	adminID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	var req ConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	cfg := &domain.ChallengeConfig{
		Targets:      req.Targets,
		Caps:         req.Caps,
		Penalties:    req.Penalties,
		Conversion:   req.Conversion,
		MinHeartRate: req.MinHeartRate,
		StartYear:    req.StartYear,
		StartMonth:   time.Month(req.StartMonth),
		Timezone:     req.Timezone,
	}
	if existing, err := h.challengeService.GetConfig(c.Request.Context()); err == nil {
		cfg.DisabledHolidays = existing.DisabledHolidays
	}

	updated, err := h.challengeService.UpdateConfig(c.Request.Context(), cfg, adminID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidConfig) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to update config")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ToggleHoliday enables or disables one default holiday.
func (h *AdminHandler) ToggleHoliday(c *gin.Context) {
	adminID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	key := c.Param("key")
	var req ToggleHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	cfg, err := h.challengeService.ToggleHoliday(c.Request.Context(), key, *req.Disabled, adminID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConfigNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidConfig):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to toggle holiday")
		}
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// GenerateReport builds the season penalty CSV and returns a download URL.
func (h *AdminHandler) GenerateReport(c *gin.Context) {
	adminID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	report, err := h.reportService.Generate(c.Request.Context(), adminID, time.Now())
	if err != nil {
		if errors.Is(err, service.ErrConfigNotFound) {
			abortWithError(c, http.StatusServiceUnavailable, "Challenge is not configured yet")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to generate report")
		return
	}
	c.JSON(http.StatusCreated, report)
}

// ListReports returns recently archived reports.
func (h *AdminHandler) ListReports(c *gin.Context) {
	limit := int64(20)
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 || v > 100 {
			abortWithError(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = v
	}
	reports, err := h.reportService.ListRecent(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list reports")
		return
	}
	c.JSON(http.StatusOK, reports)
}

// ReportDownloadURL re-presigns an archived report for download.
func (h *AdminHandler) ReportDownloadURL(c *gin.Context) {
	reportID, err := primitive.ObjectIDFromHex(c.Param("reportId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid report ID format")
		return
	}
	report, err := h.reportService.DownloadURL(c.Request.Context(), reportID)
	if err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to presign report")
		return
	}
	c.JSON(http.StatusOK, report)
}
