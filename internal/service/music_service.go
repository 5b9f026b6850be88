// Package service contains business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tiaocarreiro/top5/internal/domain"
	"github.com/tiaocarreiro/top5/internal/repository"
)

// Error variables
var (
	ErrMusicNotFound       = errors.New("music not found")
	ErrDuplicateSuggestion = errors.New("this music has already been suggested")
	ErrDuplicateReference  = errors.New("video reference already in use by another music")
	ErrArtistMismatch      = errors.New("video does not appear to match the expected artist")
	ErrMetadataUnavailable = errors.New("video metadata unavailable")
	ErrInvalidFilter       = errors.New("invalid list filter")
	ErrNotPending          = errors.New("music is not pending moderation")
	ErrInactiveUser        = errors.New("suggesting user is not active")
)

// VideoMetadata is what the metadata provider resolves for a video ID.
type VideoMetadata struct {
	Title           string
	Channel         string
	ViewCount       int64
	ThumbnailURL    string
	DurationSeconds int
}

// MetadataProvider resolves a video ID into its public metadata.
type MetadataProvider interface {
	Fetch(ctx context.Context, videoID string) (VideoMetadata, error)
}

// CatalogArtist is the display artist attached to every accepted suggestion.
const CatalogArtist = "Tião Carreiro & Pardinho"

// artistKeywords is the fixed keyword set for the artist-match heuristic.
// A soft content filter, not a security boundary.
var artistKeywords = []string{
	"tião carreiro",
	"tiao carreiro",
	"pardinho",
	"carreiro",
	"dupla caipira",
}

// Listing defaults and bounds.
const (
	DefaultPage    = 1
	DefaultPerPage = 15
	MaxPerPage     = 100
	DefaultTopN    = 5
	MaxTopN        = 20
)

// Service provides music catalog business logic.
type Service struct {
	repo     repository.MusicRepository
	users    repository.UserRepository
	provider MetadataProvider
	clock    Clock
	keywords []string
}

// Option configures the service.
type Option func(*Service)

// WithUserRepository wires the optional user store used to validate
// suggesting users.
func WithUserRepository(users repository.UserRepository) Option {
	return func(s *Service) { s.users = users }
}

// WithKeywords overrides the artist-match keyword set.
func WithKeywords(keywords []string) Option {
	return func(s *Service) { s.keywords = keywords }
}

// NewService creates a new Service with the given repository, metadata
// provider and clock.
func NewService(repo repository.MusicRepository, provider MetadataProvider, clock Clock, opts ...Option) *Service {
	s := &Service{repo: repo, provider: provider, clock: clock, keywords: artistKeywords}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suggest runs the public suggestion flow: parse the URL, reject duplicates,
// resolve metadata, apply the artist heuristic and persist a pending item.
// The store's unique constraint backstops the duplicate pre-check under
// concurrent submissions.
func (s *Service) Suggest(ctx context.Context, rawURL string, userID *int64) (domain.Music, error) {
	ref, err := domain.VideoReferenceFromURL(rawURL)
	if err != nil {
		return domain.Music{}, err
	}

	if userID != nil && s.users != nil {
		u, err := s.users.FindByID(ctx, *userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.Music{}, ErrInactiveUser
			}
			return domain.Music{}, fmt.Errorf("find suggesting user: %w", err)
		}
		if !u.IsActive {
			return domain.Music{}, ErrInactiveUser
		}
	}

	exists, err := s.repo.ExistsByVideoID(ctx, ref.ID())
	if err != nil {
		return domain.Music{}, fmt.Errorf("check existing suggestion: %w", err)
	}
	if exists {
		return domain.Music{}, ErrDuplicateSuggestion
	}

	meta, err := s.provider.Fetch(ctx, ref.ID())
	if err != nil {
		return domain.Music{}, fmt.Errorf("%w: %v", ErrMetadataUnavailable, err)
	}

	if !s.matchesArtist(meta.Title, meta.Channel) {
		return domain.Music{}, ErrArtistMismatch
	}

	thumbnail := meta.ThumbnailURL
	if thumbnail == "" {
		thumbnail = ref.ThumbnailURL("maxresdefault")
	}
	m := domain.NewMusic(meta.Title, CatalogArtist, ref, meta.ViewCount, thumbnail, meta.DurationSeconds, userID, s.clock.Now())

	created, err := s.repo.Create(ctx, m)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateReference) {
			// Lost the race against a concurrent identical suggestion.
			return domain.Music{}, ErrDuplicateSuggestion
		}
		return domain.Music{}, fmt.Errorf("persist suggestion: %w", err)
	}
	return created, nil
}

func (s *Service) matchesArtist(title, channel string) bool {
	title = strings.ToLower(title)
	channel = strings.ToLower(channel)
	for _, kw := range s.keywords {
		if strings.Contains(title, kw) || strings.Contains(channel, kw) {
			return true
		}
	}
	return false
}

// TopApproved returns the most viewed approved items, view count descending.
func (s *Service) TopApproved(ctx context.Context, limit int) ([]domain.Music, error) {
	if limit < 1 {
		limit = DefaultTopN
	}
	if limit > MaxTopN {
		limit = MaxTopN
	}
	items, err := s.repo.ListTopApproved(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list top approved: %w", err)
	}
	return items, nil
}

// ListQuery carries the raw listing parameters before validation.
type ListQuery struct {
	Page           int
	PerPage        int
	Status         string
	Search         string
	OrderBy        string
	OrderDirection string
}

var allowedOrderBy = map[string]repository.OrderBy{
	"title":     repository.OrderByTitle,
	"artist":    repository.OrderByArtist,
	"viewCount": repository.OrderByViewCount,
	"createdAt": repository.OrderByCreatedAt,
}

// buildFilter validates the query against the ordering allow-list and page
// bounds, applying defaults for unset fields.
func buildFilter(q ListQuery) (repository.ListFilter, error) {
	f := repository.ListFilter{
		Page:           q.Page,
		PerPage:        q.PerPage,
		Search:         strings.TrimSpace(q.Search),
		OrderBy:        repository.OrderByViewCount,
		OrderDirection: "desc",
	}
	if f.Page == 0 {
		f.Page = DefaultPage
	}
	if f.PerPage == 0 {
		f.PerPage = DefaultPerPage
	}
	if f.Page < 1 {
		return repository.ListFilter{}, fmt.Errorf("%w: page must be >= 1", ErrInvalidFilter)
	}
	if f.PerPage < 1 || f.PerPage > MaxPerPage {
		return repository.ListFilter{}, fmt.Errorf("%w: per_page must be between 1 and %d", ErrInvalidFilter, MaxPerPage)
	}
	if q.Status != "" {
		st, err := domain.ParseStatus(q.Status)
		if err != nil {
			return repository.ListFilter{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		f.Status = &st
	}
	if q.OrderBy != "" {
		col, ok := allowedOrderBy[q.OrderBy]
		if !ok {
			return repository.ListFilter{}, fmt.Errorf("%w: order_by %q not allowed", ErrInvalidFilter, q.OrderBy)
		}
		f.OrderBy = col
	}
	if q.OrderDirection != "" {
		dir := strings.ToLower(q.OrderDirection)
		if dir != "asc" && dir != "desc" {
			return repository.ListFilter{}, fmt.Errorf("%w: order_direction must be asc or desc", ErrInvalidFilter)
		}
		f.OrderDirection = dir
	}
	return f, nil
}

// List returns one validated page of the catalog.
func (s *Service) List(ctx context.Context, q ListQuery) (repository.Page, error) {
	f, err := buildFilter(q)
	if err != nil {
		return repository.Page{}, err
	}
	page, err := s.repo.List(ctx, f)
	if err != nil {
		return repository.Page{}, fmt.Errorf("list musics: %w", err)
	}
	return page, nil
}

// PendingSuggestions lists pending items oldest first, for the moderation queue.
func (s *Service) PendingSuggestions(ctx context.Context, page, perPage int) (repository.Page, error) {
	return s.List(ctx, ListQuery{
		Page:           page,
		PerPage:        perPage,
		Status:         string(domain.StatusPending),
		OrderBy:        "createdAt",
		OrderDirection: "asc",
	})
}

// Get fetches a single item by ID.
func (s *Service) Get(ctx context.Context, id int64) (domain.Music, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Music{}, ErrMusicNotFound
		}
		return domain.Music{}, fmt.Errorf("find music: %w", err)
	}
	return m, nil
}

// CreateInput carries the fields for an admin-created item.
type CreateInput struct {
	Title           string
	Artist          string
	YouTubeURL      string
	ViewCount       int64
	ThumbnailURL    string
	DurationSeconds int
}

// Create persists an admin-supplied item. It still starts pending; approval
// is a separate moderation step.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Music, error) {
	ref, err := domain.VideoReferenceFromURL(in.YouTubeURL)
	if err != nil {
		return domain.Music{}, err
	}
	exists, err := s.repo.ExistsByVideoID(ctx, ref.ID())
	if err != nil {
		return domain.Music{}, fmt.Errorf("check existing video: %w", err)
	}
	if exists {
		return domain.Music{}, ErrDuplicateReference
	}
	thumbnail := in.ThumbnailURL
	if thumbnail == "" {
		thumbnail = ref.ThumbnailURL("maxresdefault")
	}
	m := domain.NewMusic(in.Title, in.Artist, ref, in.ViewCount, thumbnail, in.DurationSeconds, nil, s.clock.Now())
	created, err := s.repo.Create(ctx, m)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateReference) {
			return domain.Music{}, ErrDuplicateReference
		}
		return domain.Music{}, fmt.Errorf("persist music: %w", err)
	}
	return created, nil
}

// UpdateInput carries the replacement values for the editable fields.
type UpdateInput struct {
	Title           string
	Artist          string
	YouTubeURL      string
	ViewCount       int64
	ThumbnailURL    string
	DurationSeconds int
}

// Update replaces the editable fields of an existing item, re-validating
// video uniqueness when the reference changed.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (domain.Music, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.Music{}, err
	}
	ref, err := domain.VideoReferenceFromURL(in.YouTubeURL)
	if err != nil {
		return domain.Music{}, err
	}
	if !ref.Equal(current.Video) {
		exists, err := s.repo.ExistsByVideoID(ctx, ref.ID())
		if err != nil {
			return domain.Music{}, fmt.Errorf("check existing video: %w", err)
		}
		if exists {
			return domain.Music{}, ErrDuplicateReference
		}
	}
	updated := current.WithDetails(in.Title, in.Artist, ref, in.ViewCount, in.ThumbnailURL, in.DurationSeconds, s.clock.Now())
	saved, err := s.repo.Update(ctx, updated)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateReference):
			return domain.Music{}, ErrDuplicateReference
		case errors.Is(err, repository.ErrNotFound):
			return domain.Music{}, ErrMusicNotFound
		}
		return domain.Music{}, fmt.Errorf("update music: %w", err)
	}
	return saved, nil
}

// Approve moves a pending item to approved. The status precondition lives
// here; the entity transition itself is unconditional.
func (s *Service) Approve(ctx context.Context, id int64) (domain.Music, error) {
	return s.moderate(ctx, id, domain.Music.Approve)
}

// Reject moves a pending item to rejected.
func (s *Service) Reject(ctx context.Context, id int64) (domain.Music, error) {
	return s.moderate(ctx, id, domain.Music.Reject)
}

func (s *Service) moderate(ctx context.Context, id int64, transition func(domain.Music, time.Time) domain.Music) (domain.Music, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.Music{}, err
	}
	if !current.IsPending() {
		return domain.Music{}, fmt.Errorf("%w: status is %s", ErrNotPending, current.Status)
	}
	saved, err := s.repo.Update(ctx, transition(current, s.clock.Now()))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Music{}, ErrMusicNotFound
		}
		return domain.Music{}, fmt.Errorf("persist moderation: %w", err)
	}
	return saved, nil
}

// Delete removes an item after confirming it exists.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete music: %w", err)
	}
	if !removed {
		return ErrMusicNotFound
	}
	return nil
}

// RegisterPlay bumps the view count by one in a single atomic statement.
func (s *Service) RegisterPlay(ctx context.Context, id int64) (domain.Music, error) {
	m, err := s.repo.IncrementViewCount(ctx, id, 1)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Music{}, ErrMusicNotFound
		}
		return domain.Music{}, fmt.Errorf("register play: %w", err)
	}
	return m, nil
}

// RefreshViewCount re-resolves provider metadata and overwrites the stored
// view count in one statement.
func (s *Service) RefreshViewCount(ctx context.Context, id int64) (domain.Music, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.Music{}, err
	}
	meta, err := s.provider.Fetch(ctx, current.Video.ID())
	if err != nil {
		return domain.Music{}, fmt.Errorf("%w: %v", ErrMetadataUnavailable, err)
	}
	m, err := s.repo.SetViewCount(ctx, id, meta.ViewCount)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Music{}, ErrMusicNotFound
		}
		return domain.Music{}, fmt.Errorf("refresh view count: %w", err)
	}
	return m, nil
}

// Statistics aggregates catalog-wide counters for the admin dashboard.
func (s *Service) Statistics(ctx context.Context) (domain.Statistics, error) {
	stats, err := s.repo.Statistics(ctx)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("statistics: %w", err)
	}
	return stats, nil
}
