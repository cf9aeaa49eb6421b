package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-safety-feed/internal/models"
	"github.com/mr1hm/go-safety-feed/internal/repository"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func setupRouter(users fakeUsers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	s := NewSessions(Options{Secret: "0123456789abcdef0123456789abcdef", MaxAge: time.Hour}, users)

	r := gin.New()
	r.Use(s.Load())
	r.POST("/login/:id", func(c *gin.Context) {
		u, ok := users[c.Param("id")]
		if !ok {
			c.Status(http.StatusNotFound)
			return
		}
		if err := s.Login(c, u); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.POST("/logout", func(c *gin.Context) {
		_ = s.Logout(c)
		c.Status(http.StatusNoContent)
	})
	r.GET("/me", RequireAuth(), func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.JSON(http.StatusOK, u)
	})
	r.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func do(r http.Handler, method, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_Anonymous(t *testing.T) {
	r := setupRouter(fakeUsers{})

	w := do(r, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unauthorized", body["error"])
	assert.Equal(t, LoginPath, body["login"])
}

func TestSession_LoginLogout(t *testing.T) {
	users := fakeUsers{"u1": {ID: "u1", Email: "a@example.com", DisplayName: "A"}}
	r := setupRouter(users)

	w := do(r, http.MethodPost, "/login/u1", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	w = do(r, http.MethodGet, "/me", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"u1"`)

	w = do(r, http.MethodGet, "/admin", cookies)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/logout", cookies)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = do(r, http.MethodGet, "/me", w.Result().Cookies())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	users := fakeUsers{"root": {ID: "root", IsAdmin: true}}
	r := setupRouter(users)

	w := do(r, http.MethodPost, "/login/root", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodGet, "/admin", w.Result().Cookies())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSession_DeletedUserIsAnonymous(t *testing.T) {
	users := fakeUsers{"gone": {ID: "gone"}}
	r := setupRouter(users)

	w := do(r, http.MethodPost, "/login/gone", nil)
	cookies := w.Result().Cookies()
	delete(users, "gone")

	w = do(r, http.MethodGet, "/me", cookies)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword("correct horse", hash))
	assert.Error(t, CheckPassword("wrong", hash))

	assert.ErrorIs(t, ValidatePassword("short"), ErrWeakPassword)
	assert.NoError(t, ValidatePassword("long enough"))
}
