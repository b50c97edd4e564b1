package jwttoken

import (
	"talenttrack/internal/platform/middleware"
)

// MiddlewareAdapter adapts Validator to the middleware.JWTValidator interface
// so transport code depends on the narrow claim shape, not jwt internals.
type MiddlewareAdapter struct {
	validator *Validator
}

func NewMiddlewareAdapter(validator *Validator) *MiddlewareAdapter {
	return &MiddlewareAdapter{validator: validator}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.validator.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		UserID: claims.UserID,
		Role:   claims.Role,
	}, nil
}
