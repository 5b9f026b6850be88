package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tiaocarreiro/top5/internal/http/handler"
	"github.com/tiaocarreiro/top5/internal/repository/fake"
	"github.com/tiaocarreiro/top5/internal/service"
	"github.com/tiaocarreiro/top5/pkg"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type stubProvider struct {
	meta service.VideoMetadata
	err  error
}

func (p stubProvider) Fetch(context.Context, string) (service.VideoMetadata, error) {
	return p.meta, p.err
}

const adminToken = "test-admin-token"

func newTestRouter(provider service.MetadataProvider) *gin.Engine {
	if provider == nil {
		provider = stubProvider{meta: service.VideoMetadata{
			Title:           "Pagode em Brasília - Tião Carreiro e Pardinho",
			Channel:         "Canal Caipira",
			ViewCount:       1500,
			DurationSeconds: 185,
		}}
	}
	svc := service.NewService(fake.NewMusicRepository(), provider,
		fixedClock{time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)})
	return New(
		handler.NewMusicHandler(svc),
		handler.NewAdminHandler(svc),
		handler.NewHealthHandler(nil, nil),
		Config{AdminToken: adminToken},
	)
}

func do(t *testing.T, r http.Handler, method, path, body, token string) (*httptest.ResponseRecorder, pkg.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp pkg.Response
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal envelope: %v (%s)", err, w.Body.String())
		}
	}
	return w, resp
}

func TestRouteWiring(t *testing.T) {
	r := newTestRouter(nil)
	cases := []struct {
		method, path string
		wantNot      int
	}{
		{http.MethodGet, "/api/v1/health/live", http.StatusNotFound},
		{http.MethodGet, "/api/v1/health/ready", http.StatusNotFound},
		{http.MethodGet, "/api/v1/musics", http.StatusNotFound},
		{http.MethodGet, "/api/v1/musics/top5", http.StatusNotFound},
		{http.MethodGet, "/api/v1/musics/statuses", http.StatusNotFound},
		{http.MethodGet, "/api/v1/musics/1", http.StatusNotFound},
	}
	for _, tc := range cases {
		w, _ := do(t, r, tc.method, tc.path, "", "")
		if w.Code == tc.wantNot {
			t.Errorf("%s %s unexpectedly unrouted", tc.method, tc.path)
		}
	}
}

func TestUnknownRouteEnvelope(t *testing.T) {
	r := newTestRouter(nil)
	w, resp := do(t, r, http.MethodGet, "/api/v1/nope", "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if resp.Success || resp.Message != "route not found" {
		t.Fatalf("envelope = %+v", resp)
	}
}

func TestTracingHeadersPresent(t *testing.T) {
	r := newTestRouter(nil)
	w, _ := do(t, r, http.MethodGet, "/api/v1/musics/top5", "", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("request id header missing")
	}
}

func TestAdminGroupRequiresToken(t *testing.T) {
	r := newTestRouter(nil)

	w, _ := do(t, r, http.MethodGet, "/api/v1/admin/suggestions", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", w.Code)
	}
	w, _ = do(t, r, http.MethodGet, "/api/v1/admin/suggestions", "", "wrong")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d", w.Code)
	}
	w, _ = do(t, r, http.MethodGet, "/api/v1/admin/suggestions", "", adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("good token: status = %d", w.Code)
	}
}

func TestSuggestionLifecycle(t *testing.T) {
	r := newTestRouter(nil)
	body := `{"youtube_url":"https://youtu.be/dQw4w9WgXcQ"}`

	// public suggestion lands pending
	w, resp := do(t, r, http.MethodPost, "/api/v1/musics/suggest", body, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("suggest: status = %d body = %s", w.Code, w.Body.String())
	}
	data, _ := json.Marshal(resp.Data)
	var created struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Status != "pending" {
		t.Fatalf("status = %q", created.Status)
	}

	// resubmitting the same video conflicts, even via another url form
	w, _ = do(t, r, http.MethodPost, "/api/v1/musics/suggest",
		`{"youtube_url":"https://www.youtube.com/watch?v=dQw4w9WgXcQ"}`, "")
	if w.Code != http.StatusConflict {
		t.Fatalf("resubmit: status = %d", w.Code)
	}

	// pending items are invisible in the public top list
	w, resp = do(t, r, http.MethodGet, "/api/v1/musics/top5", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("top5: status = %d", w.Code)
	}
	data, _ = json.Marshal(resp.Data)
	var top []json.RawMessage
	_ = json.Unmarshal(data, &top)
	if len(top) != 0 {
		t.Fatalf("pending item leaked into top list")
	}

	// moderation queue sees it
	w, resp = do(t, r, http.MethodGet, "/api/v1/admin/suggestions", "", adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("suggestions: status = %d", w.Code)
	}
	data, _ = json.Marshal(resp.Data)
	_ = json.Unmarshal(data, &top)
	if len(top) != 1 {
		t.Fatalf("moderation queue size = %d", len(top))
	}

	// approve, then it shows up publicly
	w, _ = do(t, r, http.MethodPost, "/api/v1/admin/suggestions/1/approve", "", adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("approve: status = %d body = %s", w.Code, w.Body.String())
	}
	w, resp = do(t, r, http.MethodGet, "/api/v1/musics/top5", "", "")
	data, _ = json.Marshal(resp.Data)
	_ = json.Unmarshal(data, &top)
	if len(top) != 1 {
		t.Fatalf("approved item missing from top list")
	}

	// approving twice is a moderation error
	w, _ = do(t, r, http.MethodPost, "/api/v1/admin/suggestions/1/approve", "", adminToken)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("double approve: status = %d", w.Code)
	}

	// playback bumps the public counter
	w, resp = do(t, r, http.MethodPost, "/api/v1/musics/1/play", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("play: status = %d", w.Code)
	}
	data, _ = json.Marshal(resp.Data)
	var played struct {
		Views int64 `json:"views"`
	}
	_ = json.Unmarshal(data, &played)
	if played.Views != 1501 {
		t.Fatalf("views = %d, want 1501", played.Views)
	}
}

func TestSuggestArtistMismatchOverHTTP(t *testing.T) {
	r := newTestRouter(stubProvider{meta: service.VideoMetadata{
		Title:   "Never Gonna Give You Up",
		Channel: "Rick Astley",
	}})
	w, _ := do(t, r, http.MethodPost, "/api/v1/musics/suggest",
		`{"youtube_url":"https://youtu.be/dQw4w9WgXcQ"}`, "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHealthLiveness(t *testing.T) {
	r := newTestRouter(nil)
	w, resp := do(t, r, http.MethodGet, "/api/v1/health/live", "", "")
	if w.Code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d envelope = %+v", w.Code, resp)
	}
}

func TestAdminUnconfiguredToken(t *testing.T) {
	svc := service.NewService(fake.NewMusicRepository(), stubProvider{}, fixedClock{time.Now()})
	r := New(
		handler.NewMusicHandler(svc),
		handler.NewAdminHandler(svc),
		handler.NewHealthHandler(nil, nil),
		Config{},
	)
	w, _ := do(t, r, http.MethodGet, "/api/v1/admin/statistics", "", "anything")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 when admin token unset", w.Code)
	}
}
