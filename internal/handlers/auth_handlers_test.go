package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/velora-shop/velora/internal/hash"
	"github.com/velora-shop/velora/internal/models"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]string{
		"name":     "Test User",
		"email":    "test@example.com",
		"password": "password",
	}

	rec, c := env.doJSONRequest(t, http.MethodPost, "/api/auth/register", payload)
	require.NoError(t, env.A.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "test@example.com", resp.User.Email)
	require.Equal(t, models.RoleUser, resp.User.Role)
	require.NotEmpty(t, resp.User.ID)
	require.NotEmpty(t, resp.Token)

	var stored models.User
	require.NoError(t, env.DB.Where("email = ?", "test@example.com").First(&stored).Error)
	require.NotEqual(t, "password", stored.PasswordHash)

	// duplicate email
	_, c = env.doJSONRequest(t, http.MethodPost, "/api/auth/register", payload)
	require.Equal(t, http.StatusConflict, httpErrorCode(t, env.A.Register(c)))
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(t, http.MethodPost, "/api/auth/register", map[string]string{"email": "x@y.z"})
	require.Equal(t, http.StatusBadRequest, httpErrorCode(t, env.A.Register(c)))
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	passwordHash, err := hash.HashPassword("password")
	require.NoError(t, err)
	user := models.User{Name: "Test User", Email: "test@example.com", PasswordHash: passwordHash, Role: models.RoleUser}
	require.NoError(t, env.DB.Create(&user).Error)

	rec, c := env.doJSONRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "test@example.com",
		"password": "password",
	})
	require.NoError(t, env.A.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["token"])

	cookies := rec.Result().Cookies()
	names := make(map[string]bool, len(cookies))
	for _, ck := range cookies {
		names[ck.Name] = true
	}
	require.True(t, names["accessToken"])
	require.True(t, names["refreshToken"])

	// a refresh token row was persisted for rotation
	var count int64
	require.NoError(t, env.DB.Model(&models.RefreshToken{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t)

	passwordHash, err := hash.HashPassword("password")
	require.NoError(t, err)
	require.NoError(t, env.DB.Create(&models.User{
		Name: "Test User", Email: "test@example.com", PasswordHash: passwordHash, Role: models.RoleUser,
	}).Error)

	_, c := env.doJSONRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "test@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, httpErrorCode(t, env.A.Login(c)))

	_, c = env.doJSONRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "password",
	})
	require.Equal(t, http.StatusUnauthorized, httpErrorCode(t, env.A.Login(c)))
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)

	access, refresh, err := env.A.Tokens.IssuePair(1, models.RoleUser)
	require.NoError(t, err)
	require.NotEmpty(t, access)

	rec, c := env.doJSONRequest(t, http.MethodPost, "/api/auth/refresh", nil)
	c.Request().AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh, Path: "/"})
	require.NoError(t, env.A.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// the old refresh token is revoked and cannot be replayed
	_, c = env.doJSONRequest(t, http.MethodPost, "/api/auth/refresh", nil)
	c.Request().AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh, Path: "/"})
	require.Equal(t, http.StatusUnauthorized, httpErrorCode(t, env.A.Refresh(c)))
}

func TestLogoutRevokesRefresh(t *testing.T) {
	env := newTestEnv(t)

	_, refresh, err := env.A.Tokens.IssuePair(1, models.RoleUser)
	require.NoError(t, err)

	rec, c := env.doJSONRequest(t, http.MethodPost, "/api/auth/logout", nil)
	c.Request().AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh, Path: "/"})
	require.NoError(t, env.A.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored models.RefreshToken
	require.NoError(t, env.DB.Where("token = ?", refresh).First(&stored).Error)
	require.True(t, stored.Revoked)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)

	user := models.User{Name: "Test User", Email: "test@example.com", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, env.DB.Create(&user).Error)

	rec, c := env.doJSONRequest(t, http.MethodGet, "/api/auth/me", nil)
	asUser(c, user.ID)
	require.NoError(t, env.A.Me(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, user.Email, resp.Email)
}
