package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"SessionScope/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", `{"username":"admin","password":"admin123"}`)
	require.Equal(t, http.StatusOK, w.Code)

	tok := decodeBody[tokenResponse](t, w)
	assert.Equal(t, "bearer", tok.TokenType)
	require.NotEmpty(t, tok.AccessToken)

	// The issued token authenticates follow-up requests.
	w = env.do(t, http.MethodGet, "/api/v1/auth/me", tok.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	me := decodeBody[user.User](t, w)
	assert.Equal(t, "admin", me.Username)
	assert.Equal(t, "admin", me.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})

	cases := []string{
		`{"username":"admin","password":"wrong"}`,
		`{"username":"ghost","password":"admin123"}`,
	}
	for _, body := range cases {
		w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code, body)
	}

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserListIsAdminOnly(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})

	w := env.do(t, http.MethodGet, "/api/v1/users", env.analystToken, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), "admin@example.com")

	w = env.do(t, http.MethodGet, "/api/v1/users", env.adminToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	users := decodeBody[[]user.User](t, w)
	assert.Len(t, users, 2)
}

func TestCreateUpdateDeleteUser(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})

	w := env.do(t, http.MethodPost, "/api/v1/users", env.adminToken,
		`{"username":"carol","email":"carol@example.com","password":"pw123","role":"user"}`)
	require.Equal(t, http.StatusOK, w.Code)
	created := decodeBody[user.User](t, w)
	assert.Equal(t, "carol", created.Username)

	// Duplicate usernames are rejected.
	w = env.do(t, http.MethodPost, "/api/v1/users", env.adminToken,
		`{"username":"carol","email":"x@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/users/%d", created.ID), env.adminToken,
		`{"email":"new@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeBody[user.User](t, w)
	assert.Equal(t, "new@example.com", updated.Email)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", created.ID), env.adminToken, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", created.ID), env.adminToken, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateUserValidation(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})

	cases := []string{
		`{"email":"x@example.com","password":"pw"}`,
		`{"username":"nopass","email":"x@example.com"}`,
	}
	for _, body := range cases {
		w := env.do(t, http.MethodPost, "/api/v1/users", env.adminToken, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestUserMutationsAreAdminOnly(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})

	w := env.do(t, http.MethodPost, "/api/v1/users", env.analystToken,
		`{"username":"mallory","email":"m@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/users/1", env.analystToken, `{"role":"admin"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, "/api/v1/users/1", env.analystToken, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteAdminRejected(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})

	admin, err := env.users.GetByUsername(context.Background(), "admin")
	require.NoError(t, err)

	w := env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", admin.ID), env.adminToken, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUserSelfOrAdmin(t *testing.T) {
	env := newTestEnv(t, &stubGateway{})

	analyst, err := env.users.GetByUsername(context.Background(), "analyst")
	require.NoError(t, err)
	admin, err := env.users.GetByUsername(context.Background(), "admin")
	require.NoError(t, err)

	// Analysts can read themselves but not others.
	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", analyst.ID), env.analystToken, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", admin.ID), env.analystToken, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admins can read anyone.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", analyst.ID), env.adminToken, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/users/9999", env.adminToken, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
