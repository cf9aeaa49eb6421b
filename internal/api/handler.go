package api

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/mr1hm/go-safety-feed/internal/auth"
	"github.com/mr1hm/go-safety-feed/internal/cache"
	"github.com/mr1hm/go-safety-feed/internal/feed"
	"github.com/mr1hm/go-safety-feed/internal/repository"
	"github.com/mr1hm/go-safety-feed/internal/storage"
	"github.com/mr1hm/go-safety-feed/internal/stream"
)

// Deps are the collaborators a Handler serves from. Uploads may be nil,
// in which case the upload endpoint answers 503.
type Deps struct {
	Store       repository.Store
	Feed        *feed.Service
	Broadcaster *stream.Broadcaster
	Sessions    *auth.Sessions
	Cache       cache.Cache
	CacheTTL    time.Duration
	Uploads     storage.Presigner
}

type Handler struct {
	store       repository.Store
	feed        *feed.Service
	broadcaster *stream.Broadcaster
	sessions    *auth.Sessions
	cache       cache.Cache
	cacheTTL    time.Duration
	uploads     storage.Presigner
	validate    *validator.Validate
	now         func() time.Time
}

func NewHandler(d Deps) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	ttl := d.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Handler{
		store:       d.Store,
		feed:        d.Feed,
		broadcaster: d.Broadcaster,
		sessions:    d.Sessions,
		cache:       d.Cache,
		cacheTTL:    ttl,
		uploads:     d.Uploads,
		validate:    v,
		now:         time.Now,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	api := r.Group("/api")
	api.Use(h.sessions.Load())

	api.GET("/incidents", h.listReports)
	api.GET("/incidents/:id", h.getIncident)
	api.GET("/traffic/events", h.listTraffic)
	api.GET("/emergency/incidents", h.listEmergency)
	api.GET("/unified", h.listUnified)
	api.GET("/map", h.getMap)
	api.GET("/feed", h.getFeed)
	api.GET("/stream", h.stream)

	api.GET("/categories", h.listCategories)
	api.GET("/subcategories", h.listSubcategories)

	api.GET("/incidents/:id/social/comments", h.listComments)
	api.GET("/incidents/:id/social/likes", h.getLikes)

	api.GET("/ads/active", h.activeAds)
	api.GET("/billing/plans", h.listPlans)
	api.POST("/feedback", h.createFeedback)

	api.POST("/register", h.register)
	api.POST("/login", h.login)
	api.POST("/logout", h.logout)
	api.GET("/logout", h.logout)
	api.GET("/auth/user", auth.RequireAuth(), h.currentUser)

	member := api.Group("", auth.RequireAuth())
	member.POST("/incidents", h.createReport)
	member.PUT("/incidents/:id", h.updateReport)
	member.DELETE("/incidents/:id", h.deleteReport)
	member.POST("/incidents/:id/social/comments", h.createComment)
	member.DELETE("/comments/:id", h.deleteComment)
	member.POST("/incidents/:id/social/likes", h.toggleLike)
	member.POST("/reports", h.createContentReport)
	member.POST("/objects/upload", h.presignUpload)
	member.POST("/ads", h.createAd)
	member.GET("/ads/mine", h.myAds)
	member.PUT("/ads/:id", h.updateAd)
	member.POST("/billing/discount/validate", h.validateDiscount)
	member.POST("/billing/payments", h.createPayment)
	member.GET("/billing/payments", h.myPayments)

	admin := api.Group("/admin", auth.RequireAdmin())
	admin.GET("/ads", h.adminListAds)
	admin.PUT("/ads/:id/status", h.adminSetAdStatus)
	admin.GET("/reports", h.adminListReports)
	admin.PUT("/reports/:id", h.adminSetReportStatus)
	admin.GET("/feedback", h.adminListFeedback)
	admin.PUT("/feedback/:id", h.adminSetFeedbackStatus)
	admin.GET("/discount-codes", h.adminListDiscountCodes)
	admin.POST("/discount-codes", h.adminCreateDiscountCode)
	admin.PUT("/discount-codes/:id/active", h.adminSetDiscountCodeActive)
	admin.POST("/billing/plans", h.adminCreatePlan)
	admin.GET("/payments", h.adminListPayments)
}

func (h *Handler) health(c *gin.Context) {
	status := gin.H{"status": "ok"}
	if h.broadcaster != nil {
		status["subscribers"] = h.broadcaster.SubscriberCount()
	}
	c.JSON(http.StatusOK, status)
}

// bind decodes the JSON body into dst and validates it. It writes the 400
// response itself and reports whether the handler should continue.
func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}

	err := h.validate.Struct(dst)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	fieldErrors(c, fields)
	return false
}

func fieldErrors(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
}

// fail maps repository sentinels to 404/409 and logs anything else as a 500.
func fail(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	default:
		slog.Error(msg, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, gin.H{"error": msg})
}
