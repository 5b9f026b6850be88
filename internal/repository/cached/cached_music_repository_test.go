//go:build integration

package cached

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/tiaocarreiro/top5/internal/domain"
	"github.com/tiaocarreiro/top5/internal/repository/fake"
)

func newCached(t *testing.T) (*MusicRepository, *fake.MusicRepository, *redis.Client, *miniredis.Miniredis) {
	t.Helper()
	primary := fake.NewMusicRepository()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rcli := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewMusicRepository(primary, rcli, time.Minute), primary, rcli, mr
}

func newMusic(t *testing.T, videoID string, views int64, status domain.Status) domain.Music {
	t.Helper()
	ref, err := domain.VideoReferenceFromID(videoID)
	if err != nil {
		t.Fatalf("reference: %v", err)
	}
	m := domain.NewMusic("Song "+videoID, "Tião Carreiro & Pardinho", ref, views, "", 180, nil, time.Now().UTC())
	m.Status = status
	return m
}

func TestFindByIDFillsCache(t *testing.T) {
	ctx := context.Background()
	repo, _, rcli, _ := newCached(t)

	created, err := repo.Create(ctx, newMusic(t, "AAAAAAAAAAA", 10, domain.StatusPending))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Video.ID() != "AAAAAAAAAAA" {
		t.Fatalf("wrong item: %+v", got)
	}

	if _, err := rcli.Get(ctx, keyMusic(created.ID)).Result(); err != nil {
		t.Fatalf("item key not cached after read: %v", err)
	}

	// cached read survives the reference round-trip
	again, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("cached find: %v", err)
	}
	if !again.Video.Equal(got.Video) || again.Title != got.Title {
		t.Fatalf("cached item differs: %+v vs %+v", again, got)
	}
}

func TestTopListCachedAndInvalidated(t *testing.T) {
	ctx := context.Background()
	repo, _, rcli, _ := newCached(t)

	a, err := repo.Create(ctx, newMusic(t, "AAAAAAAAAAA", 100, domain.StatusApproved))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, newMusic(t, "BBBBBBBBBBB", 50, domain.StatusApproved)); err != nil {
		t.Fatalf("create: %v", err)
	}

	top, err := repo.ListTopApproved(ctx, 5)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].ID != a.ID {
		t.Fatalf("top = %+v", top)
	}
	if _, err := rcli.Get(ctx, keyTop(5)).Result(); err != nil {
		t.Fatalf("top key not cached: %v", err)
	}

	// a view-count write must drop the cached top page
	if _, err := repo.IncrementViewCount(ctx, a.ID, 1); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if _, err := rcli.Get(ctx, keyTop(5)).Result(); err != redis.Nil {
		t.Fatalf("top key should be invalidated, got err=%v", err)
	}
}

func TestStaleTopServedUntilInvalidation(t *testing.T) {
	ctx := context.Background()
	repo, primary, _, _ := newCached(t)

	if _, err := repo.Create(ctx, newMusic(t, "AAAAAAAAAAA", 100, domain.StatusApproved)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.ListTopApproved(ctx, 5); err != nil {
		t.Fatalf("warm top: %v", err)
	}

	// write behind the cache's back, directly into the primary
	if _, err := primary.Create(ctx, newMusic(t, "BBBBBBBBBBB", 900, domain.StatusApproved)); err != nil {
		t.Fatalf("primary create: %v", err)
	}

	top, err := repo.ListTopApproved(ctx, 5)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 1 {
		t.Fatalf("expected stale cached page with 1 item, got %d", len(top))
	}
}

func TestExistsByVideoIDHint(t *testing.T) {
	ctx := context.Background()
	repo, primary, _, _ := newCached(t)

	if _, err := repo.Create(ctx, newMusic(t, "AAAAAAAAAAA", 0, domain.StatusPending)); err != nil {
		t.Fatalf("create: %v", err)
	}
	exists, err := repo.ExistsByVideoID(ctx, "AAAAAAAAAAA")
	if err != nil || !exists {
		t.Fatalf("exists = %v err = %v", exists, err)
	}

	// hint answers even when the primary row is gone; the unique constraint
	// downstream stays the arbiter
	m, err := primary.FindByVideoID(ctx, "AAAAAAAAAAA")
	if err != nil {
		t.Fatalf("find primary: %v", err)
	}
	if _, err := primary.Delete(ctx, m.ID); err != nil {
		t.Fatalf("primary delete: %v", err)
	}
	exists, err = repo.ExistsByVideoID(ctx, "AAAAAAAAAAA")
	if err != nil || !exists {
		t.Fatalf("hinted exists = %v err = %v", exists, err)
	}

	exists, err = repo.ExistsByVideoID(ctx, "CCCCCCCCCCC")
	if err != nil || exists {
		t.Fatalf("unknown video: exists = %v err = %v", exists, err)
	}
}

func TestDeleteInvalidates(t *testing.T) {
	ctx := context.Background()
	repo, _, rcli, _ := newCached(t)

	created, err := repo.Create(ctx, newMusic(t, "AAAAAAAAAAA", 10, domain.StatusApproved))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.FindByID(ctx, created.ID); err != nil {
		t.Fatalf("warm item: %v", err)
	}

	removed, err := repo.Delete(ctx, created.ID)
	if err != nil || !removed {
		t.Fatalf("delete: removed=%v err=%v", removed, err)
	}
	if _, err := rcli.Get(ctx, keyMusic(created.ID)).Result(); err != redis.Nil {
		t.Fatalf("item key should be gone, got err=%v", err)
	}
	if _, err := rcli.Get(ctx, keyVideoID("AAAAAAAAAAA")).Result(); err != redis.Nil {
		t.Fatalf("video hint should be gone, got err=%v", err)
	}
}
