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

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- Request/Response Structs ---

type RegisterRequest struct {
	Name     string        `json:"name" binding:"required"`
	Email    string        `json:"email" binding:"required,email"`
	Password string        `json:"password" binding:"required,min=8"`
	Gender   domain.Gender `json:"gender" binding:"required,oneof=male female"`
}

// UserResponse excludes sensitive info like password hash.
type UserResponse struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Email     string                `json:"email"`
	Role      domain.Role           `json:"role"`
	Gender    domain.Gender         `json:"gender"`
	Status    domain.ApprovalStatus `json:"status"`
	Strava    bool                  `json:"stravaConnected"`
	CreatedAt time.Time             `json:"createdAt"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type ApproveRequest struct {
	Status domain.ApprovalStatus `json:"status" binding:"required,oneof=approved rejected"`
}

type NotifyRequest struct {
	Notify *bool `json:"notify" binding:"required"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID.Hex(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Gender:    u.Gender,
		Status:    u.Status,
		Strava:    u.HasStrava(),
		CreatedAt: u.CreatedAt,
	}
}

// --- Handler Methods ---

// Register creates a new athlete account pending admin approval.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Gender)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			abortWithError(c, http.StatusConflict, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to register user")
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login authenticates a user and returns a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Login failed")
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Token: token, User: toUserResponse(user)})
}

// PendingAthletes lists registrations awaiting approval. Admin only.
func (h *AuthHandler) PendingAthletes(c *gin.Context) {
	users, err := h.authService.PendingAthletes(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list pending registrations")
		return
	}
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Approve sets an athlete's approval status. Admin only.
func (h *AuthHandler) Approve(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format")
		return
	}
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.authService.Approve(c.Request.Context(), userID, req.Status); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to update approval status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID.Hex(), "status": req.Status})
}

// SetNotify updates the caller's push-notification opt-in.
func (h *AuthHandler) SetNotify(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	var req NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.authService.SetNotify(c.Request.Context(), userID, *req.Notify); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to update notification setting")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notify": *req.Notify})
}
