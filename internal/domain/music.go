package domain

import (
	"fmt"
	"time"
)

// Music is the catalog entity representing one suggested, approved or
// rejected track. Mutation goes through the named transitions below, each of
// which returns a new value with UpdatedAt refreshed; the entity itself is
// never mutated in place. Transitions are unconditional value transforms,
// the service layer enforces state preconditions.
type Music struct {
	ID              int64
	Title           string
	Artist          string
	Video           VideoReference
	ViewCount       int64
	ThumbnailURL    string
	DurationSeconds int
	Status          Status
	SuggestedBy     *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewMusic builds a fresh, unpersisted music item. New items always start
// pending; createdAt and updatedAt are both set to now.
func NewMusic(title, artist string, video VideoReference, viewCount int64, thumbnailURL string, durationSeconds int, suggestedBy *int64, now time.Time) Music {
	return Music{
		Title:           title,
		Artist:          artist,
		Video:           video,
		ViewCount:       viewCount,
		ThumbnailURL:    thumbnailURL,
		DurationSeconds: durationSeconds,
		Status:          StatusPending,
		SuggestedBy:     suggestedBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Approve returns a copy in the approved state with UpdatedAt refreshed.
func (m Music) Approve(now time.Time) Music {
	m.Status = StatusApproved
	m.UpdatedAt = now
	return m
}

// Reject returns a copy in the rejected state with UpdatedAt refreshed.
func (m Music) Reject(now time.Time) Music {
	m.Status = StatusRejected
	m.UpdatedAt = now
	return m
}

// WithDetails returns a copy with the editable fields replaced and UpdatedAt
// refreshed. ID, status and CreatedAt are preserved.
func (m Music) WithDetails(title, artist string, video VideoReference, viewCount int64, thumbnailURL string, durationSeconds int, now time.Time) Music {
	m.Title = title
	m.Artist = artist
	m.Video = video
	m.ViewCount = viewCount
	m.ThumbnailURL = thumbnailURL
	m.DurationSeconds = durationSeconds
	m.UpdatedAt = now
	return m
}

// IsPending reports whether the item awaits moderation.
func (m Music) IsPending() bool { return m.Status == StatusPending }

// IsApproved reports whether the item is publicly visible.
func (m Music) IsApproved() bool { return m.Status == StatusApproved }

// FormattedViews returns the view count with a K/M/B suffix, one decimal
// place (1500 -> "1.5K").
func (m Music) FormattedViews() string { return FormatViewCount(m.ViewCount) }

// FormattedDuration returns the duration as minutes:seconds (65 -> "1:05").
func (m Music) FormattedDuration() string { return FormatDuration(m.DurationSeconds) }

// FormatViewCount renders n with K/M/B suffixes at the 1e3/1e6/1e9 thresholds.
func FormatViewCount(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

// FormatDuration renders a duration in seconds as m:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Statistics aggregates catalog-wide counters for the admin dashboard.
type Statistics struct {
	TotalCount    int64            `json:"total_count"`
	ApprovedCount int64            `json:"approved_count"`
	PendingCount  int64            `json:"pending_count"`
	RejectedCount int64            `json:"rejected_count"`
	TotalViews    int64            `json:"total_views"`
	AverageViews  float64          `json:"average_views"`
	ApprovalRate  float64          `json:"approval_rate"`
	MostPopular   *Music           `json:"-"`
	MonthlyCounts []MonthCount     `json:"monthly_counts,omitempty"`
	TopSuggesters []SuggesterCount `json:"top_suggesters,omitempty"`
}

// MonthCount is the number of items created in one calendar month.
type MonthCount struct {
	Month string `json:"month"` // "2024-05"
	Count int64  `json:"count"`
}

// SuggesterCount ranks a suggesting user by how many items they submitted.
type SuggesterCount struct {
	UserID int64 `json:"user_id"`
	Count  int64 `json:"count"`
}
