package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"github.com/mr1hm/go-safety-feed/internal/models"
	"github.com/mr1hm/go-safety-feed/internal/repository"
)

const (
	sessionName = "safety_feed_session"
	userIDKey   = "user_id"
	contextKey  = "auth.user"

	// LoginPath is returned with 401 responses so clients know where to send the user.
	LoginPath = "/api/login"
)

// UserLookup resolves the user id stored in a session.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type Sessions struct {
	store sessions.Store
	users UserLookup
}

type Options struct {
	Secret string
	Secure bool
	MaxAge time.Duration
}

func NewSessions(opts Options, users UserLookup) *Sessions {
	store := sessions.NewCookieStore([]byte(opts.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store, users: users}
}

// Login starts a session for u.
func (s *Sessions) Login(c *gin.Context, u *models.User) error {
	session, _ := s.store.Get(c.Request, sessionName)
	session.Values[userIDKey] = u.ID
	if err := session.Save(c.Request, c.Writer); err != nil {
		return err
	}
	c.Set(contextKey, u)
	return nil
}

func (s *Sessions) Logout(c *gin.Context) error {
	session, _ := s.store.Get(c.Request, sessionName)
	delete(session.Values, userIDKey)
	session.Options.MaxAge = -1
	return session.Save(c.Request, c.Writer)
}

// Load attaches the session user, if any, to the request. Invalid or stale
// sessions are treated as anonymous.
func (s *Sessions) Load() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := s.store.Get(c.Request, sessionName)
		if err != nil {
			slog.Debug("ignoring unreadable session", "error", err)
		}
		if id, ok := session.Values[userIDKey].(string); ok && id != "" {
			u, err := s.users.GetUserByID(c.Request.Context(), id)
			switch {
			case err == nil:
				c.Set(contextKey, u)
			case !errors.Is(err, repository.ErrNotFound):
				slog.Warn("session user lookup failed", "user_id", id, "error", err)
			}
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}

// RequireAuth aborts anonymous requests with 401 and a login hint.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			abortUnauthorized(c)
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			abortUnauthorized(c)
			return
		}
		if !u.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": "unauthorized",
		"login": LoginPath,
	})
}
