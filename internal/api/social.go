package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mr1hm/go-safety-feed/internal/auth"
	"github.com/mr1hm/go-safety-feed/internal/cache"
	"github.com/mr1hm/go-safety-feed/internal/comments"
	"github.com/mr1hm/go-safety-feed/internal/incident"
	"github.com/mr1hm/go-safety-feed/internal/models"
	"github.com/mr1hm/go-safety-feed/internal/repository"
	"github.com/mr1hm/go-safety-feed/internal/storage"
)

const (
	categoriesCacheKey    = "taxonomy:categories"
	subcategoriesCacheKey = "taxonomy:subcategories:"
)

type commentRequest struct {
	Content         string  `json:"content" validate:"required,max=1000"`
	ParentCommentID *string `json:"parentCommentId" validate:"omitempty,uuid"`
}

type contentReportRequest struct {
	EntityType string `json:"entityType" validate:"required,oneof=incident comment"`
	EntityID   string `json:"entityId" validate:"required,max=200"`
	Reason     string `json:"reason" validate:"required,max=200"`
	Details    string `json:"details" validate:"max=1000"`
}

type feedbackRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

type uploadRequest struct {
	ContentType string `json:"contentType" validate:"required"`
}

func (h *Handler) listCategories(c *gin.Context) {
	cats, err := cache.GetOrLoad(c.Request.Context(), h.cache, categoriesCacheKey, h.cacheTTL, h.store.ListCategories)
	if err != nil {
		fail(c, err, "failed to fetch categories")
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (h *Handler) listSubcategories(c *gin.Context) {
	categoryID := c.Query("categoryId")
	if _, ok := incident.LookupCategory(categoryID); categoryID != "" && !ok {
		fieldErrors(c, map[string]string{"categoryId": "unknown"})
		return
	}

	subs, err := cache.GetOrLoad(c.Request.Context(), h.cache, subcategoriesCacheKey+categoryID, h.cacheTTL,
		func(ctx context.Context) ([]models.Subcategory, error) {
			return h.store.ListSubcategories(ctx, categoryID)
		})
	if err != nil {
		fail(c, err, "failed to fetch subcategories")
		return
	}
	c.JSON(http.StatusOK, subs)
}

func (h *Handler) listComments(c *gin.Context) {
	flat, err := h.store.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err, "failed to fetch comments")
		return
	}

	tree := comments.BuildTree(flat)
	c.JSON(http.StatusOK, gin.H{
		"comments": tree,
		"count":    comments.Count(tree),
	})
}

func (h *Handler) createComment(c *gin.Context) {
	ctx := c.Request.Context()
	incidentID := c.Param("id")

	if _, err := h.store.GetIncident(ctx, incidentID); err != nil {
		fail(c, err, "failed to fetch incident")
		return
	}

	var req commentRequest
	if !h.bind(c, &req) {
		return
	}
	if req.ParentCommentID != nil {
		parent, err := h.store.GetComment(ctx, *req.ParentCommentID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && parent.IncidentID != incidentID) {
			fieldErrors(c, map[string]string{"parentCommentId": "unknown"})
			return
		}
		if err != nil {
			fail(c, err, "failed to fetch comment")
			return
		}
	}

	user, _ := auth.CurrentUser(c)
	comment := &models.Comment{
		ID:              uuid.NewString(),
		IncidentID:      incidentID,
		UserID:          user.ID,
		AuthorName:      user.DisplayName,
		ParentCommentID: req.ParentCommentID,
		Content:         req.Content,
		CreatedAt:       h.now().UTC(),
	}
	if err := h.store.AddComment(ctx, comment); err != nil {
		fail(c, err, "failed to add comment")
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// deleteComment removes a single comment. Its replies stay and render as
// roots.
func (h *Handler) deleteComment(c *gin.Context) {
	ctx := c.Request.Context()
	comment, err := h.store.GetComment(ctx, c.Param("id"))
	if err != nil {
		fail(c, err, "failed to fetch comment")
		return
	}

	user, _ := auth.CurrentUser(c)
	if comment.UserID != user.ID && !user.IsAdmin {
		forbidden(c, "forbidden")
		return
	}

	if err := h.store.DeleteComment(ctx, comment.ID); err != nil {
		fail(c, err, "failed to delete comment")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getLikes(c *gin.Context) {
	var userID string
	if u, ok := auth.CurrentUser(c); ok {
		userID = u.ID
	}

	summary, err := h.store.LikeSummary(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		fail(c, err, "failed to fetch likes")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) toggleLike(c *gin.Context) {
	ctx := c.Request.Context()
	incidentID := c.Param("id")

	if _, err := h.store.GetIncident(ctx, incidentID); err != nil {
		fail(c, err, "failed to fetch incident")
		return
	}

	user, _ := auth.CurrentUser(c)
	summary, err := h.store.ToggleLike(ctx, incidentID, user.ID)
	if err != nil {
		fail(c, err, "failed to toggle like")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) createContentReport(c *gin.Context) {
	var req contentReportRequest
	if !h.bind(c, &req) {
		return
	}

	user, _ := auth.CurrentUser(c)
	report := &models.ContentReport{
		ID:         uuid.NewString(),
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		ReporterID: user.ID,
		Reason:     req.Reason,
		Details:    req.Details,
		Status:     models.ReportPending,
		CreatedAt:  h.now().UTC(),
	}
	if err := h.store.AddContentReport(c.Request.Context(), report); err != nil {
		fail(c, err, "failed to submit report")
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *Handler) createFeedback(c *gin.Context) {
	var req feedbackRequest
	if !h.bind(c, &req) {
		return
	}

	fb := &models.Feedback{
		ID:        uuid.NewString(),
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
		Status:    models.FeedbackNew,
		CreatedAt: h.now().UTC(),
	}
	if u, ok := auth.CurrentUser(c); ok {
		fb.UserID = u.ID
	}

	if err := h.store.AddFeedback(c.Request.Context(), fb); err != nil {
		fail(c, err, "failed to submit feedback")
		return
	}
	c.JSON(http.StatusCreated, fb)
}

func (h *Handler) presignUpload(c *gin.Context) {
	if h.uploads == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploads are not configured"})
		return
	}

	var req uploadRequest
	if !h.bind(c, &req) {
		return
	}

	upload, err := h.uploads.PresignUpload(c.Request.Context(), req.ContentType)
	if errors.Is(err, storage.ErrUnsupportedType) {
		fieldErrors(c, map[string]string{"contentType": "unsupported"})
		return
	}
	if err != nil {
		fail(c, err, "failed to prepare upload")
		return
	}
	c.JSON(http.StatusOK, upload)
}
