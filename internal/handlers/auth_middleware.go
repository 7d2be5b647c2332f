package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/summer-camp-school/camp-service/internal/auth"
	"github.com/summer-camp-school/camp-service/internal/models"
	"github.com/summer-camp-school/camp-service/internal/services"
	"github.com/summer-camp-school/camp-service/internal/utils"
)

const principalKey = "principal"

// Principal is the verified caller. It only exists after token verification.
type Principal struct {
	Email  string
	Claims *auth.Claims
}

// Denial is a failed predicate; it becomes the response verbatim
type Denial struct {
	Status  int
	Message string
}

// Predicate decides whether p may proceed. Returning nil admits.
type Predicate func(c *gin.Context, p *Principal) *Denial

// RoleLookup is the slice of the user service access control needs
type RoleLookup interface {
	HasRole(ctx context.Context, email string, role models.UserRole) (bool, error)
}

// AccessControl builds per-route authorization handlers
type AccessControl struct {
	verifier auth.Verifier
	roles    RoleLookup
	logger   utils.Logger
}

func NewAccessControl(verifier auth.Verifier, roles RoleLookup, logger utils.Logger) *AccessControl {
	return &AccessControl{verifier: verifier, roles: roles, logger: logger}
}

// Authorize verifies the bearer token, then runs preds in order against
// the resulting principal. The first denial aborts the request.
func (ac *AccessControl) Authorize(preds ...Predicate) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, denial := ac.authenticate(c)
		if denial != nil {
			deny(c, denial)
			return
		}

		for _, pred := range preds {
			if denial := pred(c, principal); denial != nil {
				utils.GetLogger(c, ac.logger).Warn("Access denied",
					"email", principal.Email,
					"status", denial.Status,
					"path", c.Request.URL.Path,
				)
				deny(c, denial)
				return
			}
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

func (ac *AccessControl) authenticate(c *gin.Context) (*Principal, *Denial) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, &Denial{http.StatusUnauthorized, "Unauthorized Access: Authorization header not exist"}
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, &Denial{http.StatusUnauthorized, "Unauthorized Access: Invalid authorization header"}
	}

	claims, err := ac.verifier.Verify(strings.TrimSpace(parts[1]))
	if err != nil {
		utils.GetLogger(c, ac.logger).Debug("Token rejected", "error", err)
		return nil, &Denial{http.StatusUnauthorized, "Unauthorized Access: Invalid token"}
	}

	return &Principal{Email: claims.Email, Claims: claims}, nil
}

// RequireRole admits only when the stored user for the principal has role.
// An absent user is denied the same way as a wrong role.
func (ac *AccessControl) RequireRole(role models.UserRole) Predicate {
	return func(c *gin.Context, p *Principal) *Denial {
		ok, err := ac.roles.HasRole(c.Request.Context(), p.Email, role)
		if err != nil {
			utils.GetLogger(c, ac.logger).Error("Role lookup failed", "email", p.Email, "error", err)
			return &Denial{http.StatusInternalServerError, "Internal server error"}
		}
		if !ok {
			return &Denial{http.StatusForbidden, "Forbidden Access: User is not " + string(role) + ", refuses to authorize"}
		}
		return nil
	}
}

// EmailSource pulls the email a request claims to act for
type EmailSource func(c *gin.Context) string

func EmailFromParam(name string) EmailSource {
	return func(c *gin.Context) string { return c.Param(name) }
}

func EmailFromQuery(name string) EmailSource {
	return func(c *gin.Context) string { return c.Query(name) }
}

// EmailFromBody reads a top-level string field of a JSON body. The body is
// cached so the handler can bind it again.
func EmailFromBody(field string) EmailSource {
	return func(c *gin.Context) string {
		var body map[string]interface{}
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
			return ""
		}
		email, _ := body[field].(string)
		return email
	}
}

// RequireSelf admits only when the supplied email equals the principal's,
// compared exactly.
func RequireSelf(source EmailSource) Predicate {
	return func(c *gin.Context, p *Principal) *Denial {
		if source(c) != p.Email {
			return &Denial{http.StatusForbidden, "Forbidden Access: Token is not valid for the user, refuses to authorize"}
		}
		return nil
	}
}

// PrincipalFrom returns the principal set by Authorize
func PrincipalFrom(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok
}

func deny(c *gin.Context, d *Denial) {
	c.AbortWithStatusJSON(d.Status, ErrorResponse{Error: true, Status: d.Status, Message: d.Message})
}

var _ RoleLookup = services.UserService(nil)
