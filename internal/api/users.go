package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mr1hm/go-safety-feed/internal/auth"
	"github.com/mr1hm/go-safety-feed/internal/models"
	"github.com/mr1hm/go-safety-feed/internal/repository"
)

type registerRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,max=128"`
	DisplayName string `json:"displayName" validate:"required,min=2,max=60"`
	AccountType string `json:"accountType" validate:"omitempty,oneof=regular business"`
	HomeSuburb  string `json:"homeSuburb" validate:"max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if !h.bind(c, &req) {
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		fieldErrors(c, map[string]string{"password": "min"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		fail(c, err, "failed to register")
		return
	}

	accountType := models.AccountRegular
	if req.AccountType != "" {
		accountType = models.AccountType(req.AccountType)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		PasswordHash: hash,
		AccountType:  accountType,
		HomeSuburb:   strings.TrimSpace(req.HomeSuburb),
		CreatedAt:    h.now().UTC(),
	}
	err = h.store.CreateUser(c.Request.Context(), user)
	if errors.Is(err, repository.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	if err != nil {
		fail(c, err, "failed to register")
		return
	}

	if err := h.sessions.Login(c, user); err != nil {
		fail(c, err, "failed to start session")
		return
	}
	slog.Info("user registered", "user_id", user.ID, "account_type", user.AccountType)
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.store.GetUserByEmail(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		fail(c, err, "failed to log in")
		return
	}
	if err != nil || auth.CheckPassword(req.Password, user.PasswordHash) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	if err := h.sessions.Login(c, user); err != nil {
		fail(c, err, "failed to start session")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.sessions.Logout(c); err != nil {
		fail(c, err, "failed to end session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (h *Handler) currentUser(c *gin.Context) {
	user, _ := auth.CurrentUser(c)
	c.JSON(http.StatusOK, user)
}
