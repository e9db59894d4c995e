package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSignThenVerify(t *testing.T) {
	out, err := run(t, "sign", "--secret", "s3cr3t", "--tenant", "tenant-a", "--table", "t1", "--version", "4", "--base-url", "https://menu.example.com/")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "https://menu.example.com/qr/"+lines[0], lines[1])

	out, err = run(t, "verify", "--secret", "s3cr3t", lines[1])
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "t1", payload["tableId"])
	assert.Equal(t, "tenant-a", payload["tenantId"])
	assert.Equal(t, float64(4), payload["tokenVersion"])
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Setenv("QR_BASE_URL", "")

	out, err := run(t, "sign", "--secret", "s3cr3t", "--tenant", "tenant-a", "--table", "t1")
	require.NoError(t, err)

	_, err = run(t, "verify", "--secret", "other", strings.TrimSpace(out))
	assert.Error(t, err)
}

func TestSignRequiresSecret(t *testing.T) {
	t.Setenv("QR_SECRET_KEY", "")

	_, err := run(t, "sign", "--tenant", "tenant-a", "--table", "t1")

	assert.Error(t, err)
}

func TestRenderWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t1.svg")

	_, err := run(t, "render", "https://menu.example.com/qr/abc.def", "--format", "svg", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	_, err := run(t, "render", "https://menu.example.com/qr/abc.def", "--format", "gif")
	assert.Error(t, err)
}

func TestStaffToken(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "staff-secret")

	out, err := run(t, "staff-token", "--user", "u1", "--tenant", "tenant-a", "--roles", "admin,user")
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(strings.TrimSpace(out), &claims, func(*jwt.Token) (any, error) {
		return []byte("staff-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", claims["tenant_id"])
	assert.Equal(t, []any{"admin", "user"}, claims["roles"])
}
