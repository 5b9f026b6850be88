// Package postgres provides a Postgres-backed implementation of the music repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tiaocarreiro/top5/internal/domain"
	"github.com/tiaocarreiro/top5/internal/repository"
	"github.com/tiaocarreiro/top5/pkg/logger"
)

const uniqueViolation = "23505"

// MusicRepository implements repository.MusicRepository using Postgres.
type MusicRepository struct {
	pool *pgxpool.Pool
}

// NewMusicRepository creates a new Postgres-backed music repository.
func NewMusicRepository(pool *pgxpool.Pool) *MusicRepository {
	return &MusicRepository{pool: pool}
}

// EnsureSchema creates required tables if they don't exist.
func (r *MusicRepository) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS musics (
    id BIGSERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    artist TEXT NOT NULL,
    youtube_url TEXT NOT NULL,
    youtube_id TEXT NOT NULL UNIQUE,
    view_count BIGINT NOT NULL DEFAULT 0 CHECK (view_count >= 0),
    thumbnail_url TEXT NOT NULL DEFAULT '',
    duration_seconds INT NOT NULL DEFAULT 0 CHECK (duration_seconds >= 0),
    status TEXT NOT NULL DEFAULT 'pending',
    suggested_by BIGINT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_musics_status ON musics (status);
CREATE INDEX IF NOT EXISTS idx_musics_view_count ON musics (view_count DESC);
CREATE INDEX IF NOT EXISTS idx_musics_created_at ON musics (created_at);
`
	_, err := r.pool.Exec(ctx, schema)
	if err != nil {
		return err
	}
	logger.Info(ctx, "postgres schema ensured")
	return nil
}

const musicColumns = `id, title, artist, youtube_url, youtube_id, view_count, thumbnail_url, duration_seconds, status, suggested_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMusic(row rowScanner) (domain.Music, error) {
	var (
		m            domain.Music
		url, videoID string
		status       string
		suggestedBy  *int64
	)
	err := row.Scan(&m.ID, &m.Title, &m.Artist, &url, &videoID, &m.ViewCount,
		&m.ThumbnailURL, &m.DurationSeconds, &status, &suggestedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return domain.Music{}, err
	}
	ref, err := domain.RehydrateVideoReference(url, videoID)
	if err != nil {
		return domain.Music{}, fmt.Errorf("rehydrate video reference: %w", err)
	}
	m.Video = ref
	m.Status = domain.Status(status)
	m.SuggestedBy = suggestedBy
	return m, nil
}

// FindByID retrieves a music item by its ID.
func (r *MusicRepository) FindByID(ctx context.Context, id int64) (domain.Music, error) {
	q := `SELECT ` + musicColumns + ` FROM musics WHERE id = $1`
	m, err := scanMusic(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Music{}, repository.ErrNotFound
		}
		return domain.Music{}, fmt.Errorf("query music: %w", err)
	}
	return m, nil
}

// FindByVideoID retrieves a music item by its YouTube video ID.
func (r *MusicRepository) FindByVideoID(ctx context.Context, videoID string) (domain.Music, error) {
	q := `SELECT ` + musicColumns + ` FROM musics WHERE youtube_id = $1`
	m, err := scanMusic(r.pool.QueryRow(ctx, q, videoID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Music{}, repository.ErrNotFound
		}
		return domain.Music{}, fmt.Errorf("query music by video id: %w", err)
	}
	return m, nil
}

// ExistsByVideoID reports whether any item holds the given video ID, in any status.
func (r *MusicRepository) ExistsByVideoID(ctx context.Context, videoID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM musics WHERE youtube_id = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, q, videoID).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists by video id: %w", err)
	}
	return exists, nil
}

// ListTopApproved returns the most viewed approved items. Ties break by
// insertion order (ascending id).
func (r *MusicRepository) ListTopApproved(ctx context.Context, limit int) ([]domain.Music, error) {
	q := `SELECT ` + musicColumns + ` FROM musics WHERE status = $1 ORDER BY view_count DESC, id ASC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, string(domain.StatusApproved), limit)
	if err != nil {
		return nil, fmt.Errorf("list top approved: %w", err)
	}
	defer rows.Close()
	return collect(rows, limit)
}

var orderColumns = map[repository.OrderBy]string{
	repository.OrderByTitle:     "title",
	repository.OrderByArtist:    "artist",
	repository.OrderByViewCount: "view_count",
	repository.OrderByCreatedAt: "created_at",
}

// List returns one page of items matching the filter plus pagination metadata.
// The order column comes from a fixed allow-list, never from user input.
func (r *MusicRepository) List(ctx context.Context, f repository.ListFilter) (repository.Page, error) {
	if f.Page < 1 || f.PerPage < 1 {
		return repository.Page{}, repository.ErrInvalidPagination
	}
	col, ok := orderColumns[f.OrderBy]
	if !ok {
		return repository.Page{}, fmt.Errorf("unsupported order column %q", f.OrderBy)
	}
	dir := "DESC"
	if strings.EqualFold(f.OrderDirection, "asc") {
		dir = "ASC"
	}

	where := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if f.Status != nil {
		args = append(args, string(*f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR artist ILIKE $%d)", len(args), len(args)))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM musics`+cond, args...).Scan(&total); err != nil {
		return repository.Page{}, fmt.Errorf("count musics: %w", err)
	}

	offset := (f.Page - 1) * f.PerPage
	args = append(args, f.PerPage, offset)
	q := fmt.Sprintf(`SELECT %s FROM musics%s ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d`,
		musicColumns, cond, col, dir, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return repository.Page{}, fmt.Errorf("list musics: %w", err)
	}
	defer rows.Close()
	items, err := collect(rows, f.PerPage)
	if err != nil {
		return repository.Page{}, err
	}
	return repository.Page{
		Items:      items,
		Pagination: repository.NewPagination(f.Page, f.PerPage, total),
	}, nil
}

func collect(rows pgx.Rows, capHint int) ([]domain.Music, error) {
	items := make([]domain.Music, 0, capHint)
	for rows.Next() {
		m, err := scanMusic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan music: %w", err)
		}
		items = append(items, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

// Create inserts a new item and assigns its ID. The unique constraint on
// youtube_id is the final arbiter for the suggest check-then-insert race.
func (r *MusicRepository) Create(ctx context.Context, m domain.Music) (domain.Music, error) {
	if m.ID != 0 {
		return domain.Music{}, repository.ErrInvalidID
	}
	const q = `
INSERT INTO musics (title, artist, youtube_url, youtube_id, view_count, thumbnail_url, duration_seconds, status, suggested_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id
`
	err := r.pool.QueryRow(ctx, q,
		m.Title, m.Artist, m.Video.URL(), m.Video.ID(), m.ViewCount, m.ThumbnailURL,
		m.DurationSeconds, string(m.Status), m.SuggestedBy, m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Music{}, repository.ErrDuplicateReference
		}
		return domain.Music{}, fmt.Errorf("insert music: %w", err)
	}
	return m, nil
}

// Update persists all editable fields of an existing item.
func (r *MusicRepository) Update(ctx context.Context, m domain.Music) (domain.Music, error) {
	if m.ID == 0 {
		return domain.Music{}, repository.ErrInvalidID
	}
	const q = `
UPDATE musics
SET title = $2, artist = $3, youtube_url = $4, youtube_id = $5, view_count = $6,
    thumbnail_url = $7, duration_seconds = $8, status = $9, updated_at = $10
WHERE id = $1
`
	ct, err := r.pool.Exec(ctx, q,
		m.ID, m.Title, m.Artist, m.Video.URL(), m.Video.ID(), m.ViewCount,
		m.ThumbnailURL, m.DurationSeconds, string(m.Status), m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Music{}, repository.ErrDuplicateReference
		}
		return domain.Music{}, fmt.Errorf("update music: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.Music{}, repository.ErrNotFound
	}
	return m, nil
}

// Delete removes an item, reporting whether a row was removed.
func (r *MusicRepository) Delete(ctx context.Context, id int64) (bool, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM musics WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete music: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// IncrementViewCount applies the delta in a single statement to avoid lost
// updates under concurrent increments.
func (r *MusicRepository) IncrementViewCount(ctx context.Context, id int64, delta int64) (domain.Music, error) {
	q := `UPDATE musics SET view_count = view_count + $2, updated_at = $3 WHERE id = $1 RETURNING ` + musicColumns
	m, err := scanMusic(r.pool.QueryRow(ctx, q, id, delta, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Music{}, repository.ErrNotFound
		}
		return domain.Music{}, fmt.Errorf("increment view count: %w", err)
	}
	return m, nil
}

// SetViewCount overwrites the view count in a single statement.
func (r *MusicRepository) SetViewCount(ctx context.Context, id int64, views int64) (domain.Music, error) {
	q := `UPDATE musics SET view_count = $2, updated_at = $3 WHERE id = $1 RETURNING ` + musicColumns
	m, err := scanMusic(r.pool.QueryRow(ctx, q, id, views, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Music{}, repository.ErrNotFound
		}
		return domain.Music{}, fmt.Errorf("set view count: %w", err)
	}
	return m, nil
}

// Statistics aggregates catalog-wide counters plus the most popular approved
// item, monthly creation counts and the top suggesting users.
func (r *MusicRepository) Statistics(ctx context.Context) (domain.Statistics, error) {
	const q = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE status = 'approved'),
       COUNT(*) FILTER (WHERE status = 'pending'),
       COUNT(*) FILTER (WHERE status = 'rejected'),
       COALESCE(SUM(view_count) FILTER (WHERE status = 'approved'), 0)
FROM musics
`
	var s domain.Statistics
	err := r.pool.QueryRow(ctx, q).Scan(&s.TotalCount, &s.ApprovedCount, &s.PendingCount, &s.RejectedCount, &s.TotalViews)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("statistics: %w", err)
	}
	if s.ApprovedCount > 0 {
		s.AverageViews = round2(float64(s.TotalViews) / float64(s.ApprovedCount))
	}
	if s.TotalCount > 0 {
		s.ApprovalRate = round2(float64(s.ApprovedCount) / float64(s.TotalCount) * 100)
	}

	top, err := r.ListTopApproved(ctx, 1)
	if err != nil {
		return domain.Statistics{}, err
	}
	if len(top) > 0 {
		s.MostPopular = &top[0]
	}

	if s.MonthlyCounts, err = r.monthlyCounts(ctx); err != nil {
		return domain.Statistics{}, err
	}
	if s.TopSuggesters, err = r.topSuggesters(ctx); err != nil {
		return domain.Statistics{}, err
	}
	return s, nil
}

func (r *MusicRepository) monthlyCounts(ctx context.Context) ([]domain.MonthCount, error) {
	const q = `
SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM'), COUNT(*)
FROM musics GROUP BY 1 ORDER BY 1
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("monthly counts: %w", err)
	}
	defer rows.Close()
	var out []domain.MonthCount
	for rows.Next() {
		var mc domain.MonthCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, fmt.Errorf("scan monthly count: %w", err)
		}
		out = append(out, mc)
	}
	return out, rows.Err()
}

func (r *MusicRepository) topSuggesters(ctx context.Context) ([]domain.SuggesterCount, error) {
	const q = `
SELECT suggested_by, COUNT(*)
FROM musics WHERE suggested_by IS NOT NULL
GROUP BY suggested_by ORDER BY COUNT(*) DESC, suggested_by ASC
LIMIT $1
`
	rows, err := r.pool.Query(ctx, q, repository.TopSuggesterLimit)
	if err != nil {
		return nil, fmt.Errorf("top suggesters: %w", err)
	}
	defer rows.Close()
	var out []domain.SuggesterCount
	for rows.Next() {
		var sc domain.SuggesterCount
		if err := rows.Scan(&sc.UserID, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan top suggester: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ repository.MusicRepository = (*MusicRepository)(nil)
