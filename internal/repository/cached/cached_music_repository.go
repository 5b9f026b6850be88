// Package cached provides a caching wrapper over a primary repository using Redis.
package cached

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tiaocarreiro/top5/internal/domain"
	"github.com/tiaocarreiro/top5/internal/repository"
)

// key helpers
func keyMusic(id int64) string     { return fmt.Sprintf("music:%d", id) }
func keyTop(limit int) string      { return fmt.Sprintf("musics:top:%d", limit) }
func keyVideoID(vid string) string { return "music:vid:" + vid }

// cacheRecord is the serialized form of a music item. The video reference
// carries unexported fields, so it round-trips through explicit url/id.
type cacheRecord struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Artist          string    `json:"artist"`
	URL             string    `json:"url"`
	VideoID         string    `json:"video_id"`
	ViewCount       int64     `json:"view_count"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	DurationSeconds int       `json:"duration_seconds"`
	Status          string    `json:"status"`
	SuggestedBy     *int64    `json:"suggested_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toRecord(m domain.Music) cacheRecord {
	return cacheRecord{
		ID:              m.ID,
		Title:           m.Title,
		Artist:          m.Artist,
		URL:             m.Video.URL(),
		VideoID:         m.Video.ID(),
		ViewCount:       m.ViewCount,
		ThumbnailURL:    m.ThumbnailURL,
		DurationSeconds: m.DurationSeconds,
		Status:          string(m.Status),
		SuggestedBy:     m.SuggestedBy,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func fromRecord(c cacheRecord) (domain.Music, error) {
	ref, err := domain.RehydrateVideoReference(c.URL, c.VideoID)
	if err != nil {
		return domain.Music{}, err
	}
	return domain.Music{
		ID:              c.ID,
		Title:           c.Title,
		Artist:          c.Artist,
		Video:           ref,
		ViewCount:       c.ViewCount,
		ThumbnailURL:    c.ThumbnailURL,
		DurationSeconds: c.DurationSeconds,
		Status:          domain.Status(c.Status),
		SuggestedBy:     c.SuggestedBy,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}, nil
}

// MusicRepository is a cache-aside repository combining Redis with a primary
// store. Hot public reads (top list, find-by-id) are cached; every mutation
// invalidates, keeping reads consistent with the latest committed write on
// this node.
type MusicRepository struct {
	primary repository.MusicRepository
	redis   *redis.Client
	ttl     time.Duration
}

// NewMusicRepository creates a new cached repository.
func NewMusicRepository(primary repository.MusicRepository, redis *redis.Client, ttl time.Duration) *MusicRepository {
	return &MusicRepository{primary: primary, redis: redis, ttl: ttl}
}

// FindByID attempts Redis then falls back to primary.
func (r *MusicRepository) FindByID(ctx context.Context, id int64) (domain.Music, error) {
	if val, err := r.redis.Get(ctx, keyMusic(id)).Result(); err == nil && val != "" {
		var c cacheRecord
		if jsonErr := json.Unmarshal([]byte(val), &c); jsonErr == nil {
			if m, convErr := fromRecord(c); convErr == nil {
				return m, nil
			}
		}
	}
	m, err := r.primary.FindByID(ctx, id)
	if err != nil {
		return domain.Music{}, err
	}
	r.cacheItem(ctx, m)
	return m, nil
}

// FindByVideoID passes through to primary; the video-id key is only kept as
// a fast existence hint.
func (r *MusicRepository) FindByVideoID(ctx context.Context, videoID string) (domain.Music, error) {
	return r.primary.FindByVideoID(ctx, videoID)
}

// ExistsByVideoID answers from the hint key when present, else primary.
// The unique constraint downstream remains the correctness guarantee.
func (r *MusicRepository) ExistsByVideoID(ctx context.Context, videoID string) (bool, error) {
	if val, err := r.redis.Get(ctx, keyVideoID(videoID)).Result(); err == nil && val == "1" {
		return true, nil
	}
	exists, err := r.primary.ExistsByVideoID(ctx, videoID)
	if err != nil {
		return false, err
	}
	if exists {
		_ = r.redis.Set(ctx, keyVideoID(videoID), "1", r.ttl).Err()
	}
	return exists, nil
}

// ListTopApproved caches the top page keyed by limit.
func (r *MusicRepository) ListTopApproved(ctx context.Context, limit int) ([]domain.Music, error) {
	k := keyTop(limit)
	if val, err := r.redis.Get(ctx, k).Result(); err == nil && val != "" {
		var recs []cacheRecord
		if jsonErr := json.Unmarshal([]byte(val), &recs); jsonErr == nil {
			items := make([]domain.Music, 0, len(recs))
			ok := true
			for _, c := range recs {
				m, convErr := fromRecord(c)
				if convErr != nil {
					ok = false
					break
				}
				items = append(items, m)
			}
			if ok {
				return items, nil
			}
		}
	}
	items, err := r.primary.ListTopApproved(ctx, limit)
	if err != nil {
		return nil, err
	}
	recs := make([]cacheRecord, 0, len(items))
	for _, m := range items {
		recs = append(recs, toRecord(m))
	}
	if data, err := json.Marshal(recs); err == nil {
		_ = r.redis.Set(ctx, k, data, r.ttl).Err()
	}
	return items, nil
}

// List is not cached; filter combinations are unbounded and admin listings
// want fresh rows.
func (r *MusicRepository) List(ctx context.Context, f repository.ListFilter) (repository.Page, error) {
	return r.primary.List(ctx, f)
}

// Create writes through to primary and invalidates.
func (r *MusicRepository) Create(ctx context.Context, m domain.Music) (domain.Music, error) {
	created, err := r.primary.Create(ctx, m)
	if err != nil {
		return domain.Music{}, err
	}
	_ = r.redis.Set(ctx, keyVideoID(created.Video.ID()), "1", r.ttl).Err()
	r.invalidate(ctx, created)
	return created, nil
}

// Update writes through to primary and invalidates.
func (r *MusicRepository) Update(ctx context.Context, m domain.Music) (domain.Music, error) {
	updated, err := r.primary.Update(ctx, m)
	if err != nil {
		return domain.Music{}, err
	}
	r.invalidate(ctx, updated)
	return updated, nil
}

// Delete removes from primary and invalidates.
func (r *MusicRepository) Delete(ctx context.Context, id int64) (bool, error) {
	m, err := r.primary.FindByID(ctx, id)
	if err == nil {
		_ = r.redis.Del(ctx, keyVideoID(m.Video.ID())).Err()
	}
	removed, err := r.primary.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if removed {
		r.invalidate(ctx, domain.Music{ID: id})
	}
	return removed, nil
}

// IncrementViewCount passes through and invalidates, view counts order the
// top list.
func (r *MusicRepository) IncrementViewCount(ctx context.Context, id int64, delta int64) (domain.Music, error) {
	m, err := r.primary.IncrementViewCount(ctx, id, delta)
	if err != nil {
		return domain.Music{}, err
	}
	r.invalidate(ctx, m)
	return m, nil
}

// SetViewCount passes through and invalidates.
func (r *MusicRepository) SetViewCount(ctx context.Context, id int64, views int64) (domain.Music, error) {
	m, err := r.primary.SetViewCount(ctx, id, views)
	if err != nil {
		return domain.Music{}, err
	}
	r.invalidate(ctx, m)
	return m, nil
}

// Statistics always hits primary; the admin dashboard wants live numbers.
func (r *MusicRepository) Statistics(ctx context.Context) (domain.Statistics, error) {
	return r.primary.Statistics(ctx)
}

func (r *MusicRepository) cacheItem(ctx context.Context, m domain.Music) {
	if data, err := json.Marshal(toRecord(m)); err == nil {
		_ = r.redis.Set(ctx, keyMusic(m.ID), data, r.ttl).Err()
	}
}

// invalidate drops the item key and every cached top page, best-effort.
func (r *MusicRepository) invalidate(ctx context.Context, m domain.Music) {
	_ = r.redis.Del(ctx, keyMusic(m.ID)).Err()
	var cursor uint64
	for {
		keys, next, err := r.redis.Scan(ctx, cursor, "musics:top:*", 100).Result()
		if err != nil {
			return
		}
		if len(keys) > 0 {
			_ = r.redis.Del(ctx, keys...).Err()
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}

var _ repository.MusicRepository = (*MusicRepository)(nil)
