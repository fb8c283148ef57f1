package auth

import (
	"github.com/global-academic-forum/backend/internal/middleware"
)

// IdentityValidator adapts the JWT service to the middleware token contract.
func IdentityValidator(svc *JWTService) middleware.ValidateFunc {
	return func(token string) (*middleware.Identity, error) {
		claims, err := svc.Validate(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Identity{
			UserID:        claims.UserID,
			Email:         claims.Email,
			Role:          claims.Role,
			InstitutionID: claims.InstitutionID,
		}, nil
	}
}
