package models

import "time"

type AdStatus string

const (
	AdPending  AdStatus = "pending"
	AdActive   AdStatus = "active"
	AdPaused   AdStatus = "paused"
	AdRejected AdStatus = "rejected"
)

func (s AdStatus) Valid() bool {
	switch s {
	case AdPending, AdActive, AdPaused, AdRejected:
		return true
	}
	return false
}

type AdCampaign struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	BusinessName    string    `json:"businessName"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	ImageURL        string    `json:"imageUrl,omitempty"`
	WebsiteURL      string    `json:"websiteUrl,omitempty"`
	CallToAction    string    `json:"cta,omitempty"`
	Suburb          string    `json:"suburb"`
	DailyBudget     int64     `json:"dailyBudget"`
	Status          AdStatus  `json:"status"`
	RejectionReason string    `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type BillingPlan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PricePerDay int64  `json:"pricePerDay"`
	MinimumDays int    `json:"minimumDays"`
	IsActive    bool   `json:"isActive"`
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Payment struct {
	ID           string        `json:"id"`
	CampaignID   string        `json:"campaignId"`
	UserID       string        `json:"userId"`
	PlanID       string        `json:"planId"`
	Days         int           `json:"days"`
	Amount       int64         `json:"amount"`
	Currency     string        `json:"currency"`
	DiscountCode string        `json:"discountCode,omitempty"`
	Status       PaymentStatus `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
}

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type DiscountCode struct {
	ID          string       `json:"id"`
	Code        string       `json:"code"`
	Description string       `json:"description,omitempty"`
	Type        DiscountType `json:"discountType"`
	Value       int64        `json:"discountValue"`
	MaxUses     int          `json:"maxUses,omitempty"`
	UsesCount   int          `json:"usesCount"`
	ValidFrom   *time.Time   `json:"validFrom,omitempty"`
	ValidUntil  *time.Time   `json:"validUntil,omitempty"`
	IsActive    bool         `json:"isActive"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Usable reports whether the code can be redeemed at now.
func (d *DiscountCode) Usable(now time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.MaxUses > 0 && d.UsesCount >= d.MaxUses {
		return false
	}
	if d.ValidFrom != nil && now.Before(*d.ValidFrom) {
		return false
	}
	if d.ValidUntil != nil && now.After(*d.ValidUntil) {
		return false
	}
	return true
}

// Apply returns amount after the discount, floored at zero. Percentage
// values are whole percents.
func (d *DiscountCode) Apply(amount int64) int64 {
	var off int64
	switch d.Type {
	case DiscountPercentage:
		off = amount * min(d.Value, 100) / 100
	case DiscountFixed:
		off = d.Value
	}
	return max(amount-off, 0)
}
