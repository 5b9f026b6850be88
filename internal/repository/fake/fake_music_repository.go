// Package fake provides in-memory fakes for repository interfaces for testing.
package fake

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/tiaocarreiro/top5/internal/domain"
	"github.com/tiaocarreiro/top5/internal/repository"
)

// MusicRepository is an in-memory fake implementing repository.MusicRepository.
// Items keep insertion order, which doubles as the tie-break order for sorted
// listings. Not concurrency-safe; tests run it single-threaded.
type MusicRepository struct {
	items  []domain.Music
	nextID int64
	now    func() time.Time
}

// Option configures the fake repository.
type Option func(*MusicRepository)

// WithNow overrides the time source used for view-count updates.
func WithNow(f func() time.Time) Option { return func(r *MusicRepository) { r.now = f } }

// WithItems seeds the repository with the provided items, assigning IDs to
// any item that has none.
func WithItems(items ...domain.Music) Option {
	return func(r *MusicRepository) {
		for _, m := range items {
			if m.ID == 0 {
				m.ID = r.nextID
				r.nextID++
			} else if m.ID >= r.nextID {
				r.nextID = m.ID + 1
			}
			r.items = append(r.items, m)
		}
	}
}

// NewMusicRepository creates a new in-memory fake repo.
func NewMusicRepository(opts ...Option) *MusicRepository {
	r := &MusicRepository{nextID: 1, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *MusicRepository) indexOf(id int64) int {
	for i, m := range r.items {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (r *MusicRepository) FindByID(_ context.Context, id int64) (domain.Music, error) {
	if i := r.indexOf(id); i >= 0 {
		return r.items[i], nil
	}
	return domain.Music{}, repository.ErrNotFound
}

func (r *MusicRepository) FindByVideoID(_ context.Context, videoID string) (domain.Music, error) {
	for _, m := range r.items {
		if m.Video.ID() == videoID {
			return m, nil
		}
	}
	return domain.Music{}, repository.ErrNotFound
}

func (r *MusicRepository) ExistsByVideoID(_ context.Context, videoID string) (bool, error) {
	for _, m := range r.items {
		if m.Video.ID() == videoID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MusicRepository) ListTopApproved(_ context.Context, limit int) ([]domain.Music, error) {
	approved := make([]domain.Music, 0, limit)
	for _, m := range r.items {
		if m.Status == domain.StatusApproved {
			approved = append(approved, m)
		}
	}
	sort.SliceStable(approved, func(i, j int) bool { return approved[i].ViewCount > approved[j].ViewCount })
	if len(approved) > limit {
		approved = approved[:limit]
	}
	return approved, nil
}

func (r *MusicRepository) List(_ context.Context, f repository.ListFilter) (repository.Page, error) {
	if f.Page < 1 || f.PerPage < 1 {
		return repository.Page{}, repository.ErrInvalidPagination
	}
	matched := make([]domain.Music, 0, len(r.items))
	search := strings.ToLower(f.Search)
	for _, m := range r.items {
		if f.Status != nil && m.Status != *f.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(m.Title), search) &&
			!strings.Contains(strings.ToLower(m.Artist), search) {
			continue
		}
		matched = append(matched, m)
	}

	less := func(a, b domain.Music) bool {
		switch f.OrderBy {
		case repository.OrderByTitle:
			return a.Title < b.Title
		case repository.OrderByArtist:
			return a.Artist < b.Artist
		case repository.OrderByCreatedAt:
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.ViewCount < b.ViewCount
		}
	}
	asc := strings.EqualFold(f.OrderDirection, "asc")
	sort.SliceStable(matched, func(i, j int) bool {
		if asc {
			return less(matched[i], matched[j])
		}
		return less(matched[j], matched[i])
	})

	total := len(matched)
	start := (f.Page - 1) * f.PerPage
	if start > total {
		start = total
	}
	end := start + f.PerPage
	if end > total {
		end = total
	}
	return repository.Page{
		Items:      append([]domain.Music(nil), matched[start:end]...),
		Pagination: repository.NewPagination(f.Page, f.PerPage, total),
	}, nil
}

func (r *MusicRepository) Create(_ context.Context, m domain.Music) (domain.Music, error) {
	if m.ID != 0 {
		return domain.Music{}, repository.ErrInvalidID
	}
	for _, existing := range r.items {
		if existing.Video.ID() == m.Video.ID() {
			return domain.Music{}, repository.ErrDuplicateReference
		}
	}
	m.ID = r.nextID
	r.nextID++
	r.items = append(r.items, m)
	return m, nil
}

func (r *MusicRepository) Update(_ context.Context, m domain.Music) (domain.Music, error) {
	if m.ID == 0 {
		return domain.Music{}, repository.ErrInvalidID
	}
	i := r.indexOf(m.ID)
	if i < 0 {
		return domain.Music{}, repository.ErrNotFound
	}
	for _, existing := range r.items {
		if existing.ID != m.ID && existing.Video.ID() == m.Video.ID() {
			return domain.Music{}, repository.ErrDuplicateReference
		}
	}
	r.items[i] = m
	return m, nil
}

func (r *MusicRepository) Delete(_ context.Context, id int64) (bool, error) {
	i := r.indexOf(id)
	if i < 0 {
		return false, nil
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	return true, nil
}

func (r *MusicRepository) IncrementViewCount(_ context.Context, id int64, delta int64) (domain.Music, error) {
	i := r.indexOf(id)
	if i < 0 {
		return domain.Music{}, repository.ErrNotFound
	}
	r.items[i].ViewCount += delta
	r.items[i].UpdatedAt = r.now()
	return r.items[i], nil
}

func (r *MusicRepository) SetViewCount(_ context.Context, id int64, views int64) (domain.Music, error) {
	i := r.indexOf(id)
	if i < 0 {
		return domain.Music{}, repository.ErrNotFound
	}
	r.items[i].ViewCount = views
	r.items[i].UpdatedAt = r.now()
	return r.items[i], nil
}

func (r *MusicRepository) Statistics(_ context.Context) (domain.Statistics, error) {
	var s domain.Statistics
	var mostPopular *domain.Music
	months := map[string]int64{}
	suggesters := map[int64]int64{}
	for i, m := range r.items {
		s.TotalCount++
		months[m.CreatedAt.UTC().Format("2006-01")]++
		if m.SuggestedBy != nil {
			suggesters[*m.SuggestedBy]++
		}
		switch m.Status {
		case domain.StatusApproved:
			s.ApprovedCount++
			s.TotalViews += m.ViewCount
			if mostPopular == nil || m.ViewCount > mostPopular.ViewCount {
				mostPopular = &r.items[i]
			}
		case domain.StatusPending:
			s.PendingCount++
		case domain.StatusRejected:
			s.RejectedCount++
		}
	}
	if s.ApprovedCount > 0 {
		s.AverageViews = float64(int64(float64(s.TotalViews)/float64(s.ApprovedCount)*100+0.5)) / 100
	}
	if s.TotalCount > 0 {
		s.ApprovalRate = float64(int64(float64(s.ApprovedCount)/float64(s.TotalCount)*100*100+0.5)) / 100
	}
	if mostPopular != nil {
		cp := *mostPopular
		s.MostPopular = &cp
	}
	for month, n := range months {
		s.MonthlyCounts = append(s.MonthlyCounts, domain.MonthCount{Month: month, Count: n})
	}
	sort.Slice(s.MonthlyCounts, func(i, j int) bool { return s.MonthlyCounts[i].Month < s.MonthlyCounts[j].Month })
	for id, n := range suggesters {
		s.TopSuggesters = append(s.TopSuggesters, domain.SuggesterCount{UserID: id, Count: n})
	}
	sort.Slice(s.TopSuggesters, func(i, j int) bool {
		a, b := s.TopSuggesters[i], s.TopSuggesters[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.UserID < b.UserID
	})
	if len(s.TopSuggesters) > repository.TopSuggesterLimit {
		s.TopSuggesters = s.TopSuggesters[:repository.TopSuggesterLimit]
	}
	return s, nil
}

var _ repository.MusicRepository = (*MusicRepository)(nil)
