package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mr1hm/go-safety-feed/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type IncidentRepository interface {
	// UpsertIncident stores inc under its identity key. An existing row is
	// only overwritten when inc is strictly newer; changed reports whether
	// the stored payload was written.
	UpsertIncident(ctx context.Context, inc models.Incident, seenAt time.Time) (changed bool, err error)
	GetIncident(ctx context.Context, id string) (models.Incident, error)
	ListIncidents(ctx context.Context, source models.Source) ([]models.Incident, error)
	DeleteIncident(ctx context.Context, id string) error
	// PruneStale deletes rows of source last seen before cutoff, except the
	// ids in keep, together with their comments and likes.
	PruneStale(ctx context.Context, source models.Source, cutoff time.Time, keep []string) (int64, error)
}

type TaxonomyRepository interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListSubcategories(ctx context.Context, categoryID string) ([]models.Subcategory, error)
}

type SocialRepository interface {
	AddComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	ListComments(ctx context.Context, incidentID string) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, incidentID, userID string) (models.LikeSummary, error)
	LikeSummary(ctx context.Context, incidentID, userID string) (models.LikeSummary, error)
}

type ModerationRepository interface {
	AddContentReport(ctx context.Context, r *models.ContentReport) error
	ListContentReports(ctx context.Context, status models.ReportStatus) ([]models.ContentReport, error)
	SetContentReportStatus(ctx context.Context, id string, status models.ReportStatus, at time.Time) error
	AddFeedback(ctx context.Context, f *models.Feedback) error
	ListFeedback(ctx context.Context, status models.FeedbackStatus) ([]models.Feedback, error)
	SetFeedbackStatus(ctx context.Context, id string, status models.FeedbackStatus) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type AdRepository interface {
	CreateAd(ctx context.Context, ad *models.AdCampaign) error
	GetAd(ctx context.Context, id string) (*models.AdCampaign, error)
	UpdateAd(ctx context.Context, ad *models.AdCampaign) error
	ListAds(ctx context.Context, filter AdFilter) ([]models.AdCampaign, error)
	ActiveAds(ctx context.Context, suburb string) ([]models.AdCampaign, error)
	SetAdStatus(ctx context.Context, id string, status models.AdStatus, reason string) error
}

type AdFilter struct {
	UserID string
	Status models.AdStatus
}

type BillingRepository interface {
	ListPlans(ctx context.Context, activeOnly bool) ([]models.BillingPlan, error)
	GetPlan(ctx context.Context, id string) (*models.BillingPlan, error)
	CreatePlan(ctx context.Context, p *models.BillingPlan) error

	CreateDiscountCode(ctx context.Context, d *models.DiscountCode) error
	GetDiscountCode(ctx context.Context, code string) (*models.DiscountCode, error)
	ListDiscountCodes(ctx context.Context) ([]models.DiscountCode, error)
	SetDiscountCodeActive(ctx context.Context, id string, active bool) error

	// CreatePayment records p and, when p carries a discount code, redeems
	// one use of it in the same transaction. ErrConflict means the code is
	// used up.
	CreatePayment(ctx context.Context, p *models.Payment) error
	ListPayments(ctx context.Context, userID string) ([]models.Payment, error)
}

// Store is every repository the API serves from.
type Store interface {
	IncidentRepository
	TaxonomyRepository
	SocialRepository
	ModerationRepository
	UserRepository
	AdRepository
	BillingRepository
}
