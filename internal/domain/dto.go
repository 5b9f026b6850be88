package domain

// TimeFormat is the standard format for time serialization.
const TimeFormat = "2006-01-02T15:04:05Z"

// SuggestMusicRequestDTO is the request body for the public suggestion
// endpoint. UserID is optional; when set the suggestion is attributed to that
// user and the user must exist and be active.
type SuggestMusicRequestDTO struct {
	YouTubeURL string `json:"youtube_url" binding:"required"`
	UserID     *int64 `json:"user_id" binding:"omitempty,gt=0"`
}

// CreateMusicRequestDTO is the admin request body for creating an item directly.
type CreateMusicRequestDTO struct {
	Title           string `json:"title" binding:"required,max=255"`
	Artist          string `json:"artist" binding:"required,max=255"`
	YouTubeURL      string `json:"youtube_url" binding:"required"`
	ViewCount       int64  `json:"views" binding:"omitempty,gte=0"`
	ThumbnailURL    string `json:"thumbnail_url" binding:"omitempty,max=500"`
	DurationSeconds int    `json:"duration" binding:"omitempty,gte=0"`
}

// UpdateMusicRequestDTO is the admin request body for replacing the editable fields.
type UpdateMusicRequestDTO struct {
	Title           string `json:"title" binding:"required,max=255"`
	Artist          string `json:"artist" binding:"required,max=255"`
	YouTubeURL      string `json:"youtube_url" binding:"required"`
	ViewCount       int64  `json:"views" binding:"omitempty,gte=0"`
	ThumbnailURL    string `json:"thumbnail_url" binding:"omitempty,max=500"`
	DurationSeconds int    `json:"duration" binding:"omitempty,gte=0"`
}

// MusicResponseDTO is the serialized form of a music item, exposing both raw
// and formatted view-count/duration fields.
type MusicResponseDTO struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	Artist            string `json:"artist"`
	YouTubeURL        string `json:"youtube_url"`
	YouTubeID         string `json:"youtube_id"`
	EmbedURL          string `json:"embed_url"`
	ViewCount         int64  `json:"views"`
	ViewsFormatted    string `json:"views_formatted"`
	ThumbnailURL      string `json:"thumbnail_url"`
	DurationSeconds   int    `json:"duration"`
	DurationFormatted string `json:"duration_formatted"`
	Status            string `json:"status"`
	StatusLabel       string `json:"status_label"`
	SuggestedBy       *int64 `json:"suggested_by,omitempty"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

// MusicToResponse maps the entity into its serializable record.
func MusicToResponse(m Music) MusicResponseDTO {
	return MusicResponseDTO{
		ID:                m.ID,
		Title:             m.Title,
		Artist:            m.Artist,
		YouTubeURL:        m.Video.URL(),
		YouTubeID:         m.Video.ID(),
		EmbedURL:          m.Video.EmbedURL(),
		ViewCount:         m.ViewCount,
		ViewsFormatted:    m.FormattedViews(),
		ThumbnailURL:      m.ThumbnailURL,
		DurationSeconds:   m.DurationSeconds,
		DurationFormatted: m.FormattedDuration(),
		Status:            string(m.Status),
		StatusLabel:       m.Status.Label(),
		SuggestedBy:       m.SuggestedBy,
		CreatedAt:         m.CreatedAt.UTC().Format(TimeFormat),
		UpdatedAt:         m.UpdatedAt.UTC().Format(TimeFormat),
	}
}

// MusicsToResponse maps a slice of entities.
func MusicsToResponse(items []Music) []MusicResponseDTO {
	out := make([]MusicResponseDTO, 0, len(items))
	for _, m := range items {
		out = append(out, MusicToResponse(m))
	}
	return out
}

// StatisticsResponseDTO is the admin statistics payload.
type StatisticsResponseDTO struct {
	TotalCount    int64             `json:"total_count"`
	ApprovedCount int64             `json:"approved_count"`
	PendingCount  int64             `json:"pending_count"`
	RejectedCount int64             `json:"rejected_count"`
	TotalViews    int64             `json:"total_views"`
	AverageViews  float64           `json:"average_views"`
	ApprovalRate  float64           `json:"approval_rate"`
	MostPopular   *MusicResponseDTO `json:"most_popular,omitempty"`
	MonthlyCounts []MonthCount      `json:"musics_per_month,omitempty"`
	TopSuggesters []SuggesterCount  `json:"top_suggesters,omitempty"`
}

// StatisticsToResponse maps aggregates into the response payload.
func StatisticsToResponse(s Statistics) StatisticsResponseDTO {
	resp := StatisticsResponseDTO{
		TotalCount:    s.TotalCount,
		ApprovedCount: s.ApprovedCount,
		PendingCount:  s.PendingCount,
		RejectedCount: s.RejectedCount,
		TotalViews:    s.TotalViews,
		AverageViews:  s.AverageViews,
		ApprovalRate:  s.ApprovalRate,
		MonthlyCounts: s.MonthlyCounts,
		TopSuggesters: s.TopSuggesters,
	}
	if s.MostPopular != nil {
		dto := MusicToResponse(*s.MostPopular)
		resp.MostPopular = &dto
	}
	return resp
}
