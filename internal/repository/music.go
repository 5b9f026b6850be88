// Package repository defines the persistence boundary for the catalog.
package repository

import (
	"context"
	"errors"

	"github.com/tiaocarreiro/top5/internal/domain"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateReference is returned when the video ID uniqueness
	// constraint is violated.
	ErrDuplicateReference = errors.New("video reference already exists")
	// ErrInvalidID is returned when Create receives a persisted item or
	// Update receives an unpersisted one.
	ErrInvalidID = errors.New("invalid item id for operation")
	// ErrInvalidPagination is returned by List when Page or PerPage is < 1.
	ErrInvalidPagination = errors.New("page and per-page must be >= 1")
)

// TopSuggesterLimit caps how many suggesting users Statistics ranks.
const TopSuggesterLimit = 5

// OrderBy is the allow-list of sortable columns.
type OrderBy string

const (
	OrderByTitle     OrderBy = "title"
	OrderByArtist    OrderBy = "artist"
	OrderByViewCount OrderBy = "viewCount"
	OrderByCreatedAt OrderBy = "createdAt"
)

// ListFilter narrows and orders a paginated listing. Page is 1-indexed.
type ListFilter struct {
	Page           int
	PerPage        int
	Status         *domain.Status
	Search         string
	OrderBy        OrderBy
	OrderDirection string // "asc" or "desc"
}

// Pagination describes the page window of a listing result.
type Pagination struct {
	CurrentPage int
	PerPage     int
	Total       int
	TotalPages  int
	HasNext     bool
	HasPrevious bool
}

// NewPagination computes the page window for a total row count.
func NewPagination(page, perPage, total int) Pagination {
	totalPages := 0
	if perPage > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	return Pagination{
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

// Page is one page of music items plus its pagination metadata.
type Page struct {
	Items      []domain.Music
	Pagination Pagination
}

// MusicRepository defines data access for music items.
type MusicRepository interface {
	FindByID(ctx context.Context, id int64) (domain.Music, error)
	FindByVideoID(ctx context.Context, videoID string) (domain.Music, error)
	ExistsByVideoID(ctx context.Context, videoID string) (bool, error)
	// ListTopApproved returns at most limit approved items ordered by view
	// count descending, ties broken by insertion order.
	ListTopApproved(ctx context.Context, limit int) ([]domain.Music, error)
	// List returns one page matching the filter. Fails with
	// ErrInvalidPagination when Page or PerPage is below 1.
	List(ctx context.Context, f ListFilter) (Page, error)
	// Create persists a new item and assigns its ID. Fails with ErrInvalidID
	// if the item already has one.
	Create(ctx context.Context, m domain.Music) (domain.Music, error)
	// Update persists all editable fields of an existing item. Fails with
	// ErrInvalidID when the item has no ID and with ErrDuplicateReference
	// when the video ID is owned by a different row.
	Update(ctx context.Context, m domain.Music) (domain.Music, error)
	Delete(ctx context.Context, id int64) (bool, error)
	// IncrementViewCount applies a single atomic view-count delta.
	IncrementViewCount(ctx context.Context, id int64, delta int64) (domain.Music, error)
	// SetViewCount overwrites the view count in one statement.
	SetViewCount(ctx context.Context, id int64, views int64) (domain.Music, error)
	Statistics(ctx context.Context) (domain.Statistics, error)
}
