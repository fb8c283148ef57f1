package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/global-academic-forum/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for user role in gin context.
	ContextUserRole = "user_role"
	// ContextUserEmail is the key for user email in gin context.
	ContextUserEmail = "user_email"
	// ContextInstitutionID is the key for the user's institution affiliation (*uuid.UUID, may be nil).
	ContextInstitutionID = "institution_id"
)

// Identity is the authenticated caller extracted from a bearer token.
type Identity struct {
	UserID        uuid.UUID
	Email         string
	Role          string
	InstitutionID *uuid.UUID
}

// ValidateFunc validates a bearer token and returns the caller identity.
type ValidateFunc func(token string) (*Identity, error)

// JWT returns a middleware that validates the Authorization header and sets
// the caller identity in context.
func JWT(validate ValidateFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		identity, err := validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, identity.UserID)
		c.Set(ContextUserRole, identity.Role)
		c.Set(ContextUserEmail, identity.Email)
		c.Set(ContextInstitutionID, identity.InstitutionID)
		c.Next()
	}
}

// IdentityFromContext rebuilds the caller identity set by JWT. Returns nil
// when the request was not authenticated.
func IdentityFromContext(c *gin.Context) *Identity {
	userIDVal, ok := c.Get(ContextUserID)
	if !ok {
		return nil
	}
	userID, _ := userIDVal.(uuid.UUID)
	role, _ := c.Get(ContextUserRole)
	email, _ := c.Get(ContextUserEmail)
	instVal, _ := c.Get(ContextInstitutionID)
	inst, _ := instVal.(*uuid.UUID)
	roleStr, _ := role.(string)
	emailStr, _ := email.(string)
	return &Identity{UserID: userID, Email: emailStr, Role: roleStr, InstitutionID: inst}
}
