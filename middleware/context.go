package middleware

import (
	"context"

	"github.com/travelhub/travel-hub/models"
	"github.com/travelhub/travel-hub/token"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// ProfileKey is the context key for the authenticated user profile
	ProfileKey contextKey = "profile"

	// ClaimsKey is the context key for hub session claims
	ClaimsKey contextKey = "claims"

	// RoleKey is the context key for the mapped canonical role
	RoleKey contextKey = "role"

	// BearerKey is the context key for the upstream bearer token
	BearerKey contextKey = "bearer"
)

// GetRequestIDFromContext retrieves the request ID from context
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetProfileFromContext retrieves the authenticated profile from context
func GetProfileFromContext(ctx context.Context) *models.UserProfile {
	if val := ctx.Value(ProfileKey); val != nil {
		if profile, ok := val.(*models.UserProfile); ok {
			return profile
		}
	}
	return nil
}

// WithProfile adds the authenticated profile to the context
func WithProfile(ctx context.Context, profile *models.UserProfile) context.Context {
	return context.WithValue(ctx, ProfileKey, profile)
}

// GetClaimsFromContext retrieves hub session claims from context. Nil when
// the session was validated remotely instead of from a hub JWT.
func GetClaimsFromContext(ctx context.Context) *token.Claims {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(*token.Claims); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds hub session claims to the context
func WithClaims(ctx context.Context, claims *token.Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetRoleFromContext retrieves the mapped canonical role from context.
// Falls back to employee, same as the role mapper itself.
func GetRoleFromContext(ctx context.Context) models.Role {
	if val := ctx.Value(RoleKey); val != nil {
		if role, ok := val.(models.Role); ok {
			return role
		}
	}
	return models.RoleEmployee
}

// WithRole adds the mapped canonical role to the context
func WithRole(ctx context.Context, role models.Role) context.Context {
	return context.WithValue(ctx, RoleKey, role)
}

// GetBearerFromContext retrieves the upstream bearer token from context
func GetBearerFromContext(ctx context.Context) string {
	if val := ctx.Value(BearerKey); val != nil {
		if bearer, ok := val.(string); ok {
			return bearer
		}
	}
	return ""
}

// WithBearer adds the upstream bearer token to the context
func WithBearer(ctx context.Context, bearer string) context.Context {
	return context.WithValue(ctx, BearerKey, bearer)
}
