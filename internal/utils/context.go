package utils

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

type ContextKey string

const (
	ClaimsKey    ContextKey = "claims"
	TenantIDKey  ContextKey = "tenant_id"
	RolesKey     ContextKey = "roles"
	ClientIDKey  ContextKey = "client_id"
	RequestIDKey ContextKey = "request_id"
)

var (
	ErrNoClaimsInContext   = errors.New("no claims found in context")
	ErrNoTenantIDInClaims  = errors.New("no tenant_id found in claims")
	ErrInvalidTenantIDType = errors.New("tenant_id must be a string")
)

func GetTenantIDFromContext(c context.Context) (string, error) {
	claims, exists := c.Value(ClaimsKey).(jwt.MapClaims)
	if !exists {
		return "", ErrNoClaimsInContext
	}

	tenantID, exists := claims[string(TenantIDKey)]
	if !exists {
		return "", ErrNoTenantIDInClaims
	}

	tenantIDStr, ok := tenantID.(string)
	if !ok || tenantIDStr == "" {
		return "", ErrInvalidTenantIDType
	}

	return tenantIDStr, nil
}

// HasRole reports whether the verified claims in c carry role.
func HasRole(c context.Context, role string) bool {
	claims, ok := c.Value(ClaimsKey).(jwt.MapClaims)
	if !ok {
		return false
	}
	roles, ok := claims[string(RolesKey)].([]interface{})
	if !ok {
		return false
	}
	for _, r := range roles {
		if s, ok := r.(string); ok && s == role {
			return true
		}
	}
	return false
}

func WithClientID(c context.Context, clientID string) context.Context {
	return context.WithValue(c, ClientIDKey, clientID)
}

// GetClientIDFromContext returns the admission-control client identifier, or "".
func GetClientIDFromContext(c context.Context) string {
	id, _ := c.Value(ClientIDKey).(string)
	return id
}

func WithRequestID(c context.Context, requestID string) context.Context {
	return context.WithValue(c, RequestIDKey, requestID)
}

func GetRequestIDFromContext(c context.Context) string {
	id, _ := c.Value(RequestIDKey).(string)
	return id
}
