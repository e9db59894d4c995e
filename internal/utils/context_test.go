package utils

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestGetTenantIDFromContext(t *testing.T) {
	_, err := GetTenantIDFromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoClaimsInContext)

	ctx := context.WithValue(context.Background(), ClaimsKey, jwt.MapClaims{"sub": "u1"})
	_, err = GetTenantIDFromContext(ctx)
	assert.ErrorIs(t, err, ErrNoTenantIDInClaims)

	ctx = context.WithValue(context.Background(), ClaimsKey, jwt.MapClaims{"tenant_id": 42.0})
	_, err = GetTenantIDFromContext(ctx)
	assert.ErrorIs(t, err, ErrInvalidTenantIDType)

	ctx = context.WithValue(context.Background(), ClaimsKey, jwt.MapClaims{"tenant_id": "tenant-a"})
	tenantID, err := GetTenantIDFromContext(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "tenant-a", tenantID)
}

func TestHasRole(t *testing.T) {
	ctx := context.WithValue(context.Background(), ClaimsKey, jwt.MapClaims{
		"roles": []interface{}{"staff", "admin"},
	})
	assert.True(t, HasRole(ctx, "admin"))
	assert.False(t, HasRole(ctx, "owner"))
	assert.False(t, HasRole(context.Background(), "admin"))
}

func TestClientAndRequestID(t *testing.T) {
	ctx := WithRequestID(WithClientID(context.Background(), "10.0.0.1"), "req-1")
	assert.Equal(t, "10.0.0.1", GetClientIDFromContext(ctx))
	assert.Equal(t, "req-1", GetRequestIDFromContext(ctx))
	assert.Equal(t, "", GetClientIDFromContext(context.Background()))
}
