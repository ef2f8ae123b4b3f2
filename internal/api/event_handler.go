package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitkpi/challenge-app/internal/domain"
	"fitkpi/challenge-app/internal/service"
)

// EventHandler exposes the special-event calendar and activity links.
type EventHandler struct {
	eventService     service.EventService
	challengeService service.ChallengeService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(eventService service.EventService, challengeService service.ChallengeService) *EventHandler {
	return &EventHandler{eventService: eventService, challengeService: challengeService}
}

type EventRequest struct {
	Kind   domain.EventKind      `json:"kind" binding:"required,oneof=holiday custom"`
	Key    string                `json:"key"`
	Name   string                `json:"name" binding:"required"`
	Start  time.Time             `json:"start" binding:"required"`
	End    time.Time             `json:"end" binding:"required"`
	Filter domain.ActivityFilter `json:"filter" binding:"required,oneof=run swim both"`
	Target domain.GenderTarget   `json:"target" binding:"required,oneof=all male female"`
}

type LinkActivityRequest struct {
	ActivityID string `json:"activityId" binding:"required"`
}

func (r *EventRequest) toDomain() *domain.SpecialEvent {
	return &domain.SpecialEvent{
		Kind:   r.Kind,
		Key:    r.Key,
		Name:   r.Name,
		Start:  r.Start,
		End:    r.End,
		Filter: r.Filter,
		Target: r.Target,
	}
}

// List returns every event on the calendar.
func (h *EventHandler) List(c *gin.Context) {
	events, err := h.eventService.List(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list events")
		return
	}
	c.JSON(http.StatusOK, events)
}

// Create adds an event to the calendar. Admin only.
func (h *EventHandler) Create(c *gin.Context) {
	adminID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), req.toDomain(), adminID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEvent) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to create event")
		return
	}
	c.JSON(http.StatusCreated, event)
}

// Update rewrites an event's window or coverage. Admin only.
func (h *EventHandler) Update(c *gin.Context) {
	eventID, err := primitive.ObjectIDFromHex(c.Param("eventId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid event ID format")
		return
	}
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	event := req.toDomain()
	event.ID = eventID
	updated, err := h.eventService.Update(c.Request.Context(), event)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidEvent):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to update event")
		}
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete removes an event from the calendar. Admin only.
func (h *EventHandler) Delete(c *gin.Context) {
	eventID, err := primitive.ObjectIDFromHex(c.Param("eventId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid event ID format")
		return
	}
	if err := h.eventService.Delete(c.Request.Context(), eventID); err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to delete event")
		return
	}
	c.Status(http.StatusNoContent)
}

// LinkActivity ties one of the caller's activities to a custom event.
func (h *EventHandler) LinkActivity(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	eventID, err := primitive.ObjectIDFromHex(c.Param("eventId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid event ID format")
		return
	}
	var req LinkActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	activityID, err := primitive.ObjectIDFromHex(req.ActivityID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid activity ID format")
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

	link, err := h.eventService.LinkActivity(c.Request.Context(), userID, eventID, activityID, loc)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound), errors.Is(err, service.ErrActivityNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotActivityOwner):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrOutsideEventWindow), errors.Is(err, service.ErrEventFilterMismatch):
			abortWithError(c, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, service.ErrAlreadyLinked):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to link activity")
		}
		return
	}
	c.JSON(http.StatusCreated, link)
}

// Participations lists the caller's event links.
func (h *EventHandler) Participations(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	links, err := h.eventService.ListParticipations(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list participations")
		return
	}
	c.JSON(http.StatusOK, links)
}
