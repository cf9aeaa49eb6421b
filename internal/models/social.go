package models

import "time"

type Comment struct {
	ID              string    `json:"id"`
	IncidentID      string    `json:"incidentId"`
	UserID          string    `json:"userId"`
	AuthorName      string    `json:"authorName"`
	ParentCommentID *string   `json:"parentCommentId,omitempty"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"createdAt"`
}

type LikeSummary struct {
	IncidentID string `json:"incidentId"`
	Count      int    `json:"count"`
	Liked      bool   `json:"liked"`
}

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportReviewed  ReportStatus = "reviewed"
	ReportDismissed ReportStatus = "dismissed"
)

// ContentReport flags an incident or comment for moderation.
type ContentReport struct {
	ID         string       `json:"id"`
	EntityType string       `json:"entityType"`
	EntityID   string       `json:"entityId"`
	ReporterID string       `json:"reporterId"`
	Reason     string       `json:"reason"`
	Details    string       `json:"details,omitempty"`
	Status     ReportStatus `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
	ReviewedAt *time.Time   `json:"reviewedAt,omitempty"`
}

type FeedbackStatus string

const (
	FeedbackNew      FeedbackStatus = "new"
	FeedbackRead     FeedbackStatus = "read"
	FeedbackResolved FeedbackStatus = "resolved"
)

type Feedback struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId,omitempty"`
	Email     string         `json:"email"`
	Subject   string         `json:"subject"`
	Message   string         `json:"message"`
	Status    FeedbackStatus `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
}
