package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mr1hm/go-safety-feed/internal/auth"
	"github.com/mr1hm/go-safety-feed/internal/cache"
	"github.com/mr1hm/go-safety-feed/internal/models"
	"github.com/mr1hm/go-safety-feed/internal/repository"
)

const (
	plansCacheKey = "billing:plans"
	currency      = "AUD"
)

type adRequest struct {
	BusinessName string `json:"businessName" validate:"required,max=100"`
	Title        string `json:"title" validate:"required,max=100"`
	Content      string `json:"content" validate:"required,max=500"`
	ImageURL     string `json:"imageUrl" validate:"omitempty,url"`
	WebsiteURL   string `json:"websiteUrl" validate:"omitempty,url"`
	CallToAction string `json:"cta" validate:"max=30"`
	Suburb       string `json:"suburb" validate:"required,max=100"`
	DailyBudget  int64  `json:"dailyBudget" validate:"required,gt=0"`
}

type discountRequest struct {
	Code   string `json:"code" validate:"required,max=32"`
	PlanID string `json:"planId" validate:"required"`
	Days   int    `json:"days" validate:"required,gt=0,lte=365"`
}

type paymentRequest struct {
	CampaignID   string `json:"campaignId" validate:"required"`
	PlanID       string `json:"planId" validate:"required"`
	Days         int    `json:"days" validate:"required,gt=0,lte=365"`
	DiscountCode string `json:"discountCode" validate:"max=32"`
}

func (r adRequest) applyTo(ad *models.AdCampaign) {
	ad.BusinessName = strings.TrimSpace(r.BusinessName)
	ad.Title = strings.TrimSpace(r.Title)
	ad.Content = r.Content
	ad.ImageURL = r.ImageURL
	ad.WebsiteURL = r.WebsiteURL
	ad.CallToAction = r.CallToAction
	ad.Suburb = strings.TrimSpace(r.Suburb)
	ad.DailyBudget = r.DailyBudget
}

func (h *Handler) activeAds(c *gin.Context) {
	ads, err := h.store.ActiveAds(c.Request.Context(), c.Query("suburb"))
	if err != nil {
		fail(c, err, "failed to fetch ads")
		return
	}
	c.JSON(http.StatusOK, ads)
}

// createAd files a campaign for review. Only business accounts advertise.
func (h *Handler) createAd(c *gin.Context) {
	user, _ := auth.CurrentUser(c)
	if user.AccountType != models.AccountBusiness && !user.IsAdmin {
		forbidden(c, "business account required")
		return
	}

	var req adRequest
	if !h.bind(c, &req) {
		return
	}

	now := h.now().UTC()
	ad := &models.AdCampaign{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Status:    models.AdPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	req.applyTo(ad)

	if err := h.store.CreateAd(c.Request.Context(), ad); err != nil {
		fail(c, err, "failed to create ad")
		return
	}
	c.JSON(http.StatusCreated, ad)
}

func (h *Handler) myAds(c *gin.Context) {
	user, _ := auth.CurrentUser(c)
	ads, err := h.store.ListAds(c.Request.Context(), repository.AdFilter{UserID: user.ID})
	if err != nil {
		fail(c, err, "failed to fetch ads")
		return
	}
	c.JSON(http.StatusOK, ads)
}

// updateAd edits a campaign. Edits by the owner send it back to review.
func (h *Handler) updateAd(c *gin.Context) {
	ctx := c.Request.Context()
	ad, err := h.store.GetAd(ctx, c.Param("id"))
	if err != nil {
		fail(c, err, "failed to fetch ad")
		return
	}

	user, _ := auth.CurrentUser(c)
	if ad.UserID != user.ID && !user.IsAdmin {
		forbidden(c, "forbidden")
		return
	}

	var req adRequest
	if !h.bind(c, &req) {
		return
	}

	req.applyTo(ad)
	ad.UpdatedAt = h.now().UTC()
	if !user.IsAdmin {
		ad.Status = models.AdPending
		ad.RejectionReason = ""
	}

	if err := h.store.UpdateAd(ctx, ad); err != nil {
		fail(c, err, "failed to update ad")
		return
	}
	c.JSON(http.StatusOK, ad)
}

func (h *Handler) listPlans(c *gin.Context) {
	plans, err := cache.GetOrLoad(c.Request.Context(), h.cache, plansCacheKey, h.cacheTTL,
		func(ctx context.Context) ([]models.BillingPlan, error) {
			return h.store.ListPlans(ctx, true)
		})
	if err != nil {
		fail(c, err, "failed to fetch plans")
		return
	}
	c.JSON(http.StatusOK, plans)
}

// quote prices a booking. Bookings shorter than the plan minimum are billed
// at the minimum.
func quote(plan *models.BillingPlan, days int) (int, int64) {
	days = max(days, plan.MinimumDays)
	return days, plan.PricePerDay * int64(days)
}

func (h *Handler) activePlan(c *gin.Context, id string) (*models.BillingPlan, bool) {
	plan, err := h.store.GetPlan(c.Request.Context(), id)
	if err == nil && !plan.IsActive {
		err = repository.ErrNotFound
	}
	if err != nil {
		fail(c, err, "failed to fetch plan")
		return nil, false
	}
	return plan, true
}

func (h *Handler) validateDiscount(c *gin.Context) {
	var req discountRequest
	if !h.bind(c, &req) {
		return
	}

	plan, ok := h.activePlan(c, req.PlanID)
	if !ok {
		return
	}
	days, subtotal := quote(plan, req.Days)

	code, err := h.store.GetDiscountCode(c.Request.Context(), strings.TrimSpace(req.Code))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"valid": false, "reason": "unknown code"})
		return
	}
	if err != nil {
		fail(c, err, "failed to check discount code")
		return
	}
	if !code.Usable(h.now()) {
		c.JSON(http.StatusOK, gin.H{"valid": false, "reason": "code expired or used up"})
		return
	}

	total := code.Apply(subtotal)
	c.JSON(http.StatusOK, gin.H{
		"valid":    true,
		"code":     code.Code,
		"days":     days,
		"subtotal": subtotal,
		"discount": subtotal - total,
		"total":    total,
		"currency": currency,
	})
}

// createPayment books a campaign on a plan. A discount code is redeemed in
// the same write as the payment.
func (h *Handler) createPayment(c *gin.Context) {
	ctx := c.Request.Context()

	var req paymentRequest
	if !h.bind(c, &req) {
		return
	}

	user, _ := auth.CurrentUser(c)
	ad, err := h.store.GetAd(ctx, req.CampaignID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && ad.UserID != user.ID && !user.IsAdmin) {
		fieldErrors(c, map[string]string{"campaignId": "unknown"})
		return
	}
	if err != nil {
		fail(c, err, "failed to fetch ad")
		return
	}

	plan, ok := h.activePlan(c, req.PlanID)
	if !ok {
		return
	}
	days, amount := quote(plan, req.Days)

	payment := &models.Payment{
		ID:         uuid.NewString(),
		CampaignID: ad.ID,
		UserID:     user.ID,
		PlanID:     plan.ID,
		Days:       days,
		Amount:     amount,
		Currency:   currency,
		Status:     models.PaymentCompleted,
		CreatedAt:  h.now().UTC(),
	}

	if code := strings.TrimSpace(req.DiscountCode); code != "" {
		d, err := h.store.GetDiscountCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && !d.Usable(h.now())) {
			fieldErrors(c, map[string]string{"discountCode": "invalid"})
			return
		}
		if err != nil {
			fail(c, err, "failed to check discount code")
			return
		}
		payment.DiscountCode = d.Code
		payment.Amount = d.Apply(amount)
	}

	err = h.store.CreatePayment(ctx, payment)
	if errors.Is(err, repository.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "discount code is no longer available"})
		return
	}
	if err != nil {
		fail(c, err, "failed to record payment")
		return
	}

	slog.Info("payment recorded", "payment_id", payment.ID, "campaign_id", ad.ID, "amount", payment.Amount)
	c.JSON(http.StatusCreated, payment)
}

func (h *Handler) myPayments(c *gin.Context) {
	user, _ := auth.CurrentUser(c)
	payments, err := h.store.ListPayments(c.Request.Context(), user.ID)
	if err != nil {
		fail(c, err, "failed to fetch payments")
		return
	}
	c.JSON(http.StatusOK, payments)
}
