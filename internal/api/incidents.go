package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mr1hm/go-safety-feed/internal/auth"
	"github.com/mr1hm/go-safety-feed/internal/incident"
	"github.com/mr1hm/go-safety-feed/internal/models"
)

const streamKeepAlive = 15 * time.Second

type reportRequest struct {
	CategoryID    string   `json:"categoryId" validate:"required,uuid"`
	SubcategoryID string   `json:"subcategoryId" validate:"omitempty,uuid"`
	Title         string   `json:"title" validate:"required,min=3,max=120"`
	Description   string   `json:"description" validate:"required,max=2000"`
	Location      string   `json:"location" validate:"required,max=200"`
	Latitude      *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude     *float64 `json:"longitude" validate:"omitempty,longitude"`
	PhotoURL      string   `json:"photoUrl" validate:"omitempty,url"`
	Status        string   `json:"status" validate:"omitempty,oneof=active resolved"`
}

// taxonomyErrors checks the category pair against the built-in taxonomy.
func (r reportRequest) taxonomyErrors() map[string]string {
	fields := map[string]string{}
	if _, ok := incident.LookupCategory(r.CategoryID); !ok {
		fields["categoryId"] = "unknown"
	}
	if r.SubcategoryID != "" {
		sub, ok := incident.LookupSubcategory(r.SubcategoryID)
		if !ok || sub.CategoryID != r.CategoryID {
			fields["subcategoryId"] = "unknown"
		}
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		fields["latitude"] = "required_with"
	}
	return fields
}

func (h *Handler) listSource(c *gin.Context, source models.Source) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f.Sources = []models.Source{source}

	incs, err := h.feed.Unified(c.Request.Context(), f)
	if err != nil {
		fail(c, err, "failed to fetch incidents")
		return
	}
	c.JSON(http.StatusOK, incs)
}

func (h *Handler) listReports(c *gin.Context)   { h.listSource(c, models.SourceUser) }
func (h *Handler) listTraffic(c *gin.Context)   { h.listSource(c, models.SourceTMR) }
func (h *Handler) listEmergency(c *gin.Context) { h.listSource(c, models.SourceEmergency) }

func (h *Handler) listUnified(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	incs, err := h.feed.Unified(c.Request.Context(), f)
	if err != nil {
		fail(c, err, "failed to fetch incidents")
		return
	}
	c.JSON(http.StatusOK, incs)
}

func (h *Handler) getMap(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	incs, err := h.feed.Unified(c.Request.Context(), f)
	if err != nil {
		fail(c, err, "failed to fetch incidents")
		return
	}

	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, toGeoJSON(incs))
}

// getFeed serves the composed feed. Ads target the suburb query parameter,
// falling back to the signed-in user's home suburb.
func (h *Handler) getFeed(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suburb := c.Query("suburb")
	if u, ok := auth.CurrentUser(c); ok && suburb == "" {
		suburb = u.HomeSuburb
	}

	items, err := h.feed.Feed(c.Request.Context(), f, suburb)
	if err != nil {
		fail(c, err, "failed to build feed")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) getIncident(c *gin.Context) {
	inc, err := h.store.GetIncident(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err, "failed to fetch incident")
		return
	}
	c.JSON(http.StatusOK, incident.Unify(inc, h.now()))
}

func (h *Handler) createReport(c *gin.Context) {
	var req reportRequest
	if !h.bind(c, &req) {
		return
	}
	if fields := req.taxonomyErrors(); len(fields) > 0 {
		fieldErrors(c, fields)
		return
	}

	user, _ := auth.CurrentUser(c)
	now := h.now().UTC()
	report := &models.UserReport{
		ID:         uuid.NewString(),
		ReporterID: user.ID,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	req.applyTo(report)

	u, ok := h.saveReport(c, report, now)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) updateReport(c *gin.Context) {
	report, ok := h.ownedReport(c)
	if !ok {
		return
	}

	var req reportRequest
	if !h.bind(c, &req) {
		return
	}
	if fields := req.taxonomyErrors(); len(fields) > 0 {
		fieldErrors(c, fields)
		return
	}

	// The store keeps the newest copy, so the edit must sort after the
	// stored timestamp even within the same millisecond.
	now := h.now().UTC()
	if floor := incident.Timestamp(models.NewUserIncident(report)).Add(time.Millisecond); now.Before(floor) {
		now = floor
	}
	req.applyTo(report)
	report.UpdatedAt = now

	u, ok := h.saveReport(c, report, now)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) deleteReport(c *gin.Context) {
	report, ok := h.ownedReport(c)
	if !ok {
		return
	}

	id := incident.ID(models.NewUserIncident(report))
	if err := h.store.DeleteIncident(c.Request.Context(), id); err != nil {
		fail(c, err, "failed to delete incident")
		return
	}
	c.Status(http.StatusNoContent)
}

func (r reportRequest) applyTo(report *models.UserReport) {
	report.CategoryID = r.CategoryID
	report.SubcategoryID = r.SubcategoryID
	report.Title = r.Title
	report.Description = r.Description
	report.Location = r.Location
	report.Latitude = r.Latitude
	report.Longitude = r.Longitude
	report.PhotoURL = r.PhotoURL
	if r.Status != "" {
		report.Status = r.Status
	}
}

// ownedReport loads the user report named by :id and checks the caller
// may modify it. It writes the error response when it returns false.
func (h *Handler) ownedReport(c *gin.Context) (*models.UserReport, bool) {
	inc, err := h.store.GetIncident(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err, "failed to fetch incident")
		return nil, false
	}
	if inc.Source != models.SourceUser || inc.Report == nil {
		forbidden(c, "only user reports can be modified")
		return nil, false
	}

	user, _ := auth.CurrentUser(c)
	if inc.Report.ReporterID != user.ID && !user.IsAdmin {
		forbidden(c, "forbidden")
		return nil, false
	}
	return inc.Report, true
}

func (h *Handler) saveReport(c *gin.Context, report *models.UserReport, now time.Time) (models.UnifiedIncident, bool) {
	inc := models.NewUserIncident(report)
	if _, err := h.store.UpsertIncident(c.Request.Context(), inc, now); err != nil {
		fail(c, err, "failed to save incident")
		return models.UnifiedIncident{}, false
	}

	u := incident.Unify(inc, now)
	if h.broadcaster != nil {
		h.broadcaster.Broadcast(&u)
	}
	return u, true
}

// stream relays changed incidents as server-sent events. The shared filter
// query parameters narrow what a subscriber receives.
func (h *Handler) stream(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.broadcaster == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live updates are not available"})
		return
	}

	id, updates := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)
	slog.Debug("stream subscriber connected", "id", id)

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"id": id})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case u, ok := <-updates:
			if !ok {
				return false
			}
			if f.Match(*u) {
				c.SSEvent("incident", u)
			}
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", h.now().UTC().Format(time.RFC3339))
			return true
		}
	})

	slog.Debug("stream subscriber disconnected", "id", id)
}
