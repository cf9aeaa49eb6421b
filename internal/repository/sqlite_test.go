package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/go-safety-feed/internal/incident"
	"github.com/mr1hm/go-safety-feed/internal/models"
)

func setupTestDB(t *testing.T) *SQLiteDB {
	db, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func traffic(id, desc string, updated time.Time) models.Incident {
	return models.NewTrafficIncident(&models.TrafficEvent{
		ID:          models.FlexString(id),
		EventType:   "Hazard",
		Description: desc,
		LastUpdated: models.FlexTime{Time: updated},
	})
}

func TestSQLiteDB_UpsertIncident_LastWriteWins(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	changed, err := db.UpsertIncident(ctx, traffic("1", "first", now), now)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = db.UpsertIncident(ctx, traffic("1", "stale", now.Add(-time.Minute)), now)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = db.UpsertIncident(ctx, traffic("1", "same time", now), now)
	require.NoError(t, err)
	assert.False(t, changed, "equal timestamps keep the stored record")

	got, err := db.GetIncident(ctx, "tmr:1")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Traffic.Description)

	changed, err = db.UpsertIncident(ctx, traffic("1", "newer", now.Add(time.Minute)), now)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err = db.GetIncident(ctx, "tmr:1")
	require.NoError(t, err)
	assert.Equal(t, "newer", got.Traffic.Description)
	assert.True(t, got.Traffic.LastUpdated.Equal(now.Add(time.Minute)))
}

func TestSQLiteDB_UpsertIncident_RejectsMismatchedPayload(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.UpsertIncident(context.Background(), models.Incident{Source: models.SourceTMR}, time.Now())
	assert.Error(t, err)
}

func TestSQLiteDB_ListAndPrune(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	_, err := db.UpsertIncident(ctx, traffic("old", "a", now.Add(-time.Hour)), now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = db.UpsertIncident(ctx, traffic("fresh", "b", now), now)
	require.NoError(t, err)
	_, err = db.UpsertIncident(ctx, models.NewUserIncident(&models.UserReport{ID: "r1", ReporterID: "u1", CreatedAt: now}), now.Add(-time.Hour))
	require.NoError(t, err)

	list, err := db.ListIncidents(ctx, models.SourceTMR)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "tmr:fresh", incident.ID(list[0]))

	n, err := db.PruneStale(ctx, models.SourceTMR, now.Add(-time.Minute), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err = db.ListIncidents(ctx, models.SourceTMR)
	require.NoError(t, err)
	require.Len(t, list, 1)

	users, err := db.ListIncidents(ctx, models.SourceUser)
	require.NoError(t, err)
	assert.Len(t, users, 1, "pruning is scoped to one source")
}

func TestSQLiteDB_UpsertTouchesLastSeen(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()
	inc := traffic("1", "a", now.Add(-time.Hour))

	_, err := db.UpsertIncident(ctx, inc, now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = db.UpsertIncident(ctx, inc, now)
	require.NoError(t, err)

	n, err := db.PruneStale(ctx, models.SourceTMR, now.Add(-time.Minute), nil)
	require.NoError(t, err)
	assert.Zero(t, n, "a re-seen incident is not stale")
}

func TestSQLiteDB_DeleteIncident(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.UpsertIncident(ctx, traffic("1", "a", time.Now()), time.Now())
	require.NoError(t, err)
	require.NoError(t, db.AddComment(ctx, &models.Comment{ID: "c1", IncidentID: "tmr:1", UserID: "u", AuthorName: "A", Content: "hi", CreatedAt: time.Now()}))

	require.NoError(t, db.DeleteIncident(ctx, "tmr:1"))
	assert.ErrorIs(t, db.DeleteIncident(ctx, "tmr:1"), ErrNotFound)

	_, err = db.GetIncident(ctx, "tmr:1")
	assert.ErrorIs(t, err, ErrNotFound)

	comments, err := db.ListComments(ctx, "tmr:1")
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestSQLiteDB_PruneStale_DropsCommentsAndKeepsFetched(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	for _, id := range []string{"gone", "back"} {
		_, err := db.UpsertIncident(ctx, traffic(id, id, now.Add(-time.Hour)), now.Add(-time.Hour))
		require.NoError(t, err)
		require.NoError(t, db.AddComment(ctx, &models.Comment{ID: "c-" + id, IncidentID: "tmr:" + id, UserID: "u", AuthorName: "A", Content: "hi", CreatedAt: now}))
		_, err = db.ToggleLike(ctx, "tmr:"+id, "u")
		require.NoError(t, err)
	}

	n, err := db.PruneStale(ctx, models.SourceTMR, now.Add(-time.Minute), []string{"tmr:back"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = db.GetIncident(ctx, "tmr:back")
	require.NoError(t, err)
	kept, err := db.ListComments(ctx, "tmr:back")
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	// A pruned id that reappears starts with no comments or likes.
	_, err = db.UpsertIncident(ctx, traffic("gone", "gone", now), now)
	require.NoError(t, err)
	comments, err := db.ListComments(ctx, "tmr:gone")
	require.NoError(t, err)
	assert.Empty(t, comments)
	likes, err := db.LikeSummary(ctx, "tmr:gone", "u")
	require.NoError(t, err)
	assert.Zero(t, likes.Count)
	assert.False(t, likes.Liked)
}

func TestSQLiteDB_TaxonomySeeded(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	cats, err := db.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, len(incident.Categories()))
	assert.Equal(t, incident.CategorySafety, cats[0].ID)

	subs, err := db.ListSubcategories(ctx, incident.CategoryPets)
	require.NoError(t, err)
	require.Len(t, subs, 3)
	for _, s := range subs {
		assert.Equal(t, incident.CategoryPets, s.CategoryID)
	}

	all, err := db.ListSubcategories(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, len(incident.Subcategories()))
}

func TestSQLiteDB_Comments(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Now()
	parent := "c1"

	require.NoError(t, db.AddComment(ctx, &models.Comment{ID: "c1", IncidentID: "i", UserID: "u", AuthorName: "A", Content: "root", CreatedAt: base}))
	require.NoError(t, db.AddComment(ctx, &models.Comment{ID: "c2", IncidentID: "i", UserID: "u", AuthorName: "A", Content: "reply", ParentCommentID: &parent, CreatedAt: base.Add(time.Second)}))
	assert.ErrorIs(t, db.AddComment(ctx, &models.Comment{ID: "c1", IncidentID: "i", UserID: "u", AuthorName: "A", Content: "dup", CreatedAt: base}), ErrConflict)

	list, err := db.ListComments(ctx, "i")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Nil(t, list[0].ParentCommentID)
	require.NotNil(t, list[1].ParentCommentID)
	assert.Equal(t, "c1", *list[1].ParentCommentID)

	got, err := db.GetComment(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, "reply", got.Content)

	require.NoError(t, db.DeleteComment(ctx, "c1"))
	_, err = db.GetComment(ctx, "c1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteDB_ToggleLike(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	sum, err := db.ToggleLike(ctx, "i", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.LikeSummary{IncidentID: "i", Count: 1, Liked: true}, sum)

	_, err = db.ToggleLike(ctx, "i", "u2")
	require.NoError(t, err)

	sum, err = db.ToggleLike(ctx, "i", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Count)
	assert.False(t, sum.Liked)

	sum, err = db.LikeSummary(ctx, "i", "")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Count)
	assert.False(t, sum.Liked)
}

func TestSQLiteDB_Users(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := &models.User{ID: "u1", Email: "a@example.com", DisplayName: "A", PasswordHash: "h", AccountType: models.AccountBusiness, CreatedAt: time.Now()}

	require.NoError(t, db.CreateUser(ctx, u))
	dup := *u
	dup.ID = "u2"
	dup.Email = "A@Example.com"
	assert.ErrorIs(t, db.CreateUser(ctx, &dup), ErrConflict)

	got, err := db.GetUserByEmail(ctx, "A@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, models.AccountBusiness, got.AccountType)
	assert.False(t, got.IsAdmin)

	_, err = db.GetUserByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteDB_Ads(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	for _, ad := range []*models.AdCampaign{
		{ID: "a1", UserID: "u1", BusinessName: "Cafe", Title: "Coffee", Content: "c", Suburb: "Logan", DailyBudget: 500, Status: models.AdActive, CreatedAt: now, UpdatedAt: now},
		{ID: "a2", UserID: "u1", BusinessName: "Gym", Title: "Lift", Content: "c", Suburb: "Ipswich", DailyBudget: 900, Status: models.AdActive, CreatedAt: now, UpdatedAt: now},
		{ID: "a3", UserID: "u2", BusinessName: "Shop", Title: "Sale", Content: "c", Suburb: "Logan", DailyBudget: 100, Status: models.AdPending, CreatedAt: now, UpdatedAt: now},
	} {
		require.NoError(t, db.CreateAd(ctx, ad))
	}

	active, err := db.ActiveAds(ctx, "logan")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "a1", active[0].ID, "local ads come first")

	mine, err := db.ListAds(ctx, AdFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	require.NoError(t, db.SetAdStatus(ctx, "a3", models.AdRejected, "spam"))
	got, err := db.GetAd(ctx, "a3")
	require.NoError(t, err)
	assert.Equal(t, models.AdRejected, got.Status)
	assert.Equal(t, "spam", got.RejectionReason)

	assert.ErrorIs(t, db.SetAdStatus(ctx, "missing", models.AdActive, ""), ErrNotFound)
	assert.Error(t, db.SetAdStatus(ctx, "a3", models.AdStatus("bogus"), ""))

	got.Title = "Clearance"
	got.UpdatedAt = time.Now()
	require.NoError(t, db.UpdateAd(ctx, got))
	got, err = db.GetAd(ctx, "a3")
	require.NoError(t, err)
	assert.Equal(t, "Clearance", got.Title)
}

func TestSQLiteDB_PaymentRedeemsDiscount(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, db.CreatePlan(ctx, &models.BillingPlan{ID: "p1", Name: "Basic", PricePerDay: 1000, MinimumDays: 7, IsActive: true}))
	require.NoError(t, db.CreateDiscountCode(ctx, &models.DiscountCode{ID: "d1", Code: "ONCE", Type: models.DiscountFixed, Value: 500, MaxUses: 1, IsActive: true, CreatedAt: now}))
	assert.ErrorIs(t, db.CreateDiscountCode(ctx, &models.DiscountCode{ID: "d2", Code: "once", Type: models.DiscountFixed, CreatedAt: now}), ErrConflict)

	pay := func(id string) error {
		return db.CreatePayment(ctx, &models.Payment{ID: id, CampaignID: "a1", UserID: "u1", PlanID: "p1", Days: 7,
			Amount: 6500, Currency: "AUD", DiscountCode: "ONCE", Status: models.PaymentCompleted, CreatedAt: now})
	}
	require.NoError(t, pay("pay1"))
	assert.ErrorIs(t, pay("pay2"), ErrConflict)

	code, err := db.GetDiscountCode(ctx, "once")
	require.NoError(t, err)
	assert.Equal(t, 1, code.UsesCount)
	assert.False(t, code.Usable(now))

	payments, err := db.ListPayments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, int64(6500), payments[0].Amount)

	plans, err := db.ListPlans(ctx, true)
	require.NoError(t, err)
	assert.Len(t, plans, 1)
}

func TestSQLiteDB_Moderation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, db.AddContentReport(ctx, &models.ContentReport{ID: "r1", EntityType: "incident", EntityID: "tmr:1", ReporterID: "u1", Reason: "spam", Status: models.ReportPending, CreatedAt: now}))
	require.NoError(t, db.SetContentReportStatus(ctx, "r1", models.ReportReviewed, now))
	assert.ErrorIs(t, db.SetContentReportStatus(ctx, "nope", models.ReportReviewed, now), ErrNotFound)

	reports, err := db.ListContentReports(ctx, models.ReportReviewed)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.NotNil(t, reports[0].ReviewedAt)

	require.NoError(t, db.AddFeedback(ctx, &models.Feedback{ID: "f1", Email: "a@b.co", Subject: "Hi", Message: "Great", Status: models.FeedbackNew, CreatedAt: now}))
	require.NoError(t, db.SetFeedbackStatus(ctx, "f1", models.FeedbackResolved))

	fb, err := db.ListFeedback(ctx, "")
	require.NoError(t, err)
	require.Len(t, fb, 1)
	assert.Equal(t, models.FeedbackResolved, fb[0].Status)
}
