package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/summer-camp-school/camp-service/internal/auth"
	"github.com/summer-camp-school/camp-service/internal/models"
	"github.com/summer-camp-school/camp-service/internal/services"
	"github.com/summer-camp-school/camp-service/internal/utils"
	"github.com/summer-camp-school/camp-service/internal/validator"
)

// TokenIssuer signs identity tokens
type TokenIssuer interface {
	Issue(email, name string) (string, *auth.Claims, error)
}

type UserHandler struct {
	BaseHandler
	userService services.UserService
	issuer      TokenIssuer
	validator   *validator.Validator
}

func NewUserHandler(userService services.UserService, issuer TokenIssuer, validator *validator.Validator, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
		issuer:      issuer,
		validator:   validator,
	}
}

// IssueToken exchanges a sign-in payload for a one hour identity token
// @Router /jwt [post]
func (h *UserHandler) IssueToken(c *gin.Context) {
	var req services.TokenRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	token, _, err := h.issuer.Issue(req.Email, req.Name)
	if err != nil {
		h.LogError(c, err, "Failed to issue token")
		writeError(c, http.StatusInternalServerError, "Failed to issue token", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// ListUsers returns every user
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.LogRequest(c, "Listing users")

	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// CheckRole answers {<role>: bool} for the user in the path
// @Router /users/{role}/{email} [get]
func (h *UserHandler) CheckRole(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Param("email")
		h.LogRequest(c, "Checking user role", "email", email, "role", role)

		ok, err := h.userService.HasRole(c.Request.Context(), email, role)
		if err != nil {
			h.handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{string(role): ok})
	}
}

// CreateUser inserts the user on first sign-in
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.userService.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrUserExists) {
			c.JSON(http.StatusOK, gin.H{"message": "User Exists"})
			return
		}
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateRole sets the role of the user with the path id
// @Router /users/{id} [patch]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Updating user role", "user_id", id)

	var req services.UpdateRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.userService.UpdateRole(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
