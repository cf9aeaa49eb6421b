package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mr1hm/go-safety-feed/internal/auth"
	"github.com/mr1hm/go-safety-feed/internal/models"
	"github.com/mr1hm/go-safety-feed/internal/repository"
)

type adStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending active paused rejected"`
	Reason string `json:"reason" validate:"required_if=Status rejected,max=500"`
}

type reportStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending reviewed dismissed"`
}

type feedbackStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new read resolved"`
}

type discountCodeRequest struct {
	Code        string     `json:"code" validate:"required,alphanum,min=3,max=32"`
	Description string     `json:"description" validate:"max=200"`
	Type        string     `json:"discountType" validate:"required,oneof=percentage fixed"`
	Value       int64      `json:"discountValue" validate:"required,gt=0"`
	MaxUses     int        `json:"maxUses" validate:"gte=0"`
	ValidFrom   *time.Time `json:"validFrom"`
	ValidUntil  *time.Time `json:"validUntil"`
	IsActive    *bool      `json:"isActive"`
}

type activeRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type planRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	PricePerDay int64  `json:"pricePerDay" validate:"required,gt=0"`
	MinimumDays int    `json:"minimumDays" validate:"gte=0,lte=365"`
	IsActive    *bool  `json:"isActive"`
}

func (h *Handler) adminListAds(c *gin.Context) {
	status := models.AdStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	ads, err := h.store.ListAds(c.Request.Context(), repository.AdFilter{Status: status})
	if err != nil {
		fail(c, err, "failed to fetch ads")
		return
	}
	c.JSON(http.StatusOK, ads)
}

func (h *Handler) adminSetAdStatus(c *gin.Context) {
	var req adStatusRequest
	if !h.bind(c, &req) {
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	if err := h.store.SetAdStatus(ctx, id, models.AdStatus(req.Status), req.Reason); err != nil {
		fail(c, err, "failed to update ad")
		return
	}

	ad, err := h.store.GetAd(ctx, id)
	if err != nil {
		fail(c, err, "failed to fetch ad")
		return
	}

	admin, _ := auth.CurrentUser(c)
	slog.Info("ad reviewed", "ad_id", id, "status", req.Status, "admin_id", admin.ID)
	c.JSON(http.StatusOK, ad)
}

func (h *Handler) adminListReports(c *gin.Context) {
	reports, err := h.store.ListContentReports(c.Request.Context(), models.ReportStatus(c.Query("status")))
	if err != nil {
		fail(c, err, "failed to fetch reports")
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *Handler) adminSetReportStatus(c *gin.Context) {
	var req reportStatusRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.store.SetContentReportStatus(c.Request.Context(), c.Param("id"), models.ReportStatus(req.Status), h.now().UTC()); err != nil {
		fail(c, err, "failed to update report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": req.Status})
}

func (h *Handler) adminListFeedback(c *gin.Context) {
	items, err := h.store.ListFeedback(c.Request.Context(), models.FeedbackStatus(c.Query("status")))
	if err != nil {
		fail(c, err, "failed to fetch feedback")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) adminSetFeedbackStatus(c *gin.Context) {
	var req feedbackStatusRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.store.SetFeedbackStatus(c.Request.Context(), c.Param("id"), models.FeedbackStatus(req.Status)); err != nil {
		fail(c, err, "failed to update feedback")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": req.Status})
}

func (h *Handler) adminListDiscountCodes(c *gin.Context) {
	codes, err := h.store.ListDiscountCodes(c.Request.Context())
	if err != nil {
		fail(c, err, "failed to fetch discount codes")
		return
	}
	c.JSON(http.StatusOK, codes)
}

func (h *Handler) adminCreateDiscountCode(c *gin.Context) {
	var req discountCodeRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Type == string(models.DiscountPercentage) && req.Value > 100 {
		fieldErrors(c, map[string]string{"discountValue": "max"})
		return
	}
	if req.ValidFrom != nil && req.ValidUntil != nil && req.ValidUntil.Before(*req.ValidFrom) {
		fieldErrors(c, map[string]string{"validUntil": "gtfield"})
		return
	}

	code := &models.DiscountCode{
		ID:          uuid.NewString(),
		Code:        strings.ToUpper(req.Code),
		Description: req.Description,
		Type:        models.DiscountType(req.Type),
		Value:       req.Value,
		MaxUses:     req.MaxUses,
		ValidFrom:   req.ValidFrom,
		ValidUntil:  req.ValidUntil,
		IsActive:    req.IsActive == nil || *req.IsActive,
		CreatedAt:   h.now().UTC(),
	}

	err := h.store.CreateDiscountCode(c.Request.Context(), code)
	if errors.Is(err, repository.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "discount code already exists"})
		return
	}
	if err != nil {
		fail(c, err, "failed to create discount code")
		return
	}
	c.JSON(http.StatusCreated, code)
}

func (h *Handler) adminSetDiscountCodeActive(c *gin.Context) {
	var req activeRequest
	if !h.bind(c, &req) {
		return
	}

	if err := h.store.SetDiscountCodeActive(c.Request.Context(), c.Param("id"), *req.IsActive); err != nil {
		fail(c, err, "failed to update discount code")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "isActive": *req.IsActive})
}

func (h *Handler) adminCreatePlan(c *gin.Context) {
	var req planRequest
	if !h.bind(c, &req) {
		return
	}

	plan := &models.BillingPlan{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		PricePerDay: req.PricePerDay,
		MinimumDays: max(req.MinimumDays, 1),
		IsActive:    req.IsActive == nil || *req.IsActive,
	}

	ctx := c.Request.Context()
	if err := h.store.CreatePlan(ctx, plan); err != nil {
		fail(c, err, "failed to create plan")
		return
	}
	if err := h.cache.Delete(ctx, plansCacheKey); err != nil {
		slog.Warn("error invalidating plan cache", "error", err)
	}
	c.JSON(http.StatusCreated, plan)
}

func (h *Handler) adminListPayments(c *gin.Context) {
	payments, err := h.store.ListPayments(c.Request.Context(), "")
	if err != nil {
		fail(c, err, "failed to fetch payments")
		return
	}
	c.JSON(http.StatusOK, payments)
}
