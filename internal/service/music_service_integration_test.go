//go:build integration

package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	cachedRepo "github.com/tiaocarreiro/top5/internal/repository/cached"
	postgresRepo "github.com/tiaocarreiro/top5/internal/repository/postgres"
)

type integrationProvider struct {
	meta VideoMetadata
	err  error
}

func (p integrationProvider) Fetch(context.Context, string) (VideoMetadata, error) {
	return p.meta, p.err
}

func startIntegrationPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	if os.Getenv("CI") == "true" {
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			t.Skip("DATABASE_URL not set in CI environment")
		}
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			t.Fatalf("connect: %v", err)
		}
		t.Cleanup(pool.Close)
		return pool
	}
	pg, err := tcpostgres.RunContainer(ctx,
		tcpostgres.WithUsername("top5"),
		tcpostgres.WithPassword("secret"),
		tcpostgres.WithDatabase("top5"),
	)
	if err != nil {
		t.Skipf("skipping: cannot start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = pg.Terminate(ctx) })
	host, _ := pg.Host(ctx)
	port, _ := pg.MappedPort(ctx, "5432")
	dsn := fmt.Sprintf("postgres://top5:secret@%s:%s/top5?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	deadline := time.Now().Add(30 * time.Second)
	for pool.Ping(ctx) != nil {
		if time.Now().After(deadline) {
			t.Fatal("postgres never became ready")
		}
		time.Sleep(200 * time.Millisecond)
	}
	return pool
}

// TestServiceIntegrationFullStack runs the suggestion workflow through the
// cached repository over real Postgres and an in-process Redis.
func TestServiceIntegrationFullStack(t *testing.T) {
	ctx := context.Background()
	pool := startIntegrationPool(ctx, t)

	primary := postgresRepo.NewMusicRepository(pool)
	if err := primary.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rcli := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := cachedRepo.NewMusicRepository(primary, rcli, time.Minute)

	svc := NewService(repo, integrationProvider{meta: VideoMetadata{
		Title:           "Pagode em Brasília - Tião Carreiro e Pardinho",
		Channel:         "Canal Caipira",
		ViewCount:       1500,
		DurationSeconds: 185,
	}}, RealClock{})

	m, err := svc.Suggest(ctx, "https://youtu.be/dQw4w9WgXcQ", nil)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if !m.IsPending() {
		t.Fatalf("status = %s", m.Status)
	}

	if _, err := svc.Suggest(ctx, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", nil); !errors.Is(err, ErrDuplicateSuggestion) {
		t.Fatalf("resubmit: want ErrDuplicateSuggestion, got %v", err)
	}

	top, err := svc.TopApproved(ctx, 5)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 0 {
		t.Fatalf("pending item leaked into top list")
	}

	approved, err := svc.Approve(ctx, m.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !approved.IsApproved() {
		t.Fatalf("status = %s", approved.Status)
	}

	top, err = svc.TopApproved(ctx, 5)
	if err != nil {
		t.Fatalf("top after approve: %v", err)
	}
	if len(top) != 1 || top[0].ID != m.ID {
		t.Fatalf("top = %+v", top)
	}

	played, err := svc.RegisterPlay(ctx, m.ID)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if played.ViewCount != 1501 {
		t.Fatalf("views = %d", played.ViewCount)
	}

	// the play invalidated the cached top page; the fresh count must show
	top, err = svc.TopApproved(ctx, 5)
	if err != nil {
		t.Fatalf("top after play: %v", err)
	}
	if top[0].ViewCount != 1501 {
		t.Fatalf("cached top stale after invalidation: views = %d", top[0].ViewCount)
	}

	stats, err := svc.Statistics(ctx)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if stats.TotalCount != 1 || stats.ApprovedCount != 1 || stats.TotalViews != 1501 {
		t.Fatalf("stats = %+v", stats)
	}
}
