package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/terra456/rsschool-graphql/internal/graph"
	"github.com/terra456/rsschool-graphql/internal/loader"
	"github.com/terra456/rsschool-graphql/internal/metrics"
	"github.com/terra456/rsschool-graphql/internal/middleware"
	"github.com/terra456/rsschool-graphql/internal/model"
	"github.com/terra456/rsschool-graphql/internal/mutation"
	"github.com/terra456/rsschool-graphql/internal/repository"
	"github.com/terra456/rsschool-graphql/internal/security"
)

type stubUserRepo struct {
	repository.UserRepository
	users []*model.User
}

func (r *stubUserRepo) FindAll(_ context.Context) ([]*model.User, error) {
	return r.users, nil
}

func (r *stubUserRepo) FindByIDs(_ context.Context, ids []string) (map[string]*model.User, error) {
	out := make(map[string]*model.User)
	for _, u := range r.users {
		for _, id := range ids {
			if u.ID == id {
				out[id] = u
			}
		}
	}
	return out, nil
}

type stubPostRepo struct{ repository.PostRepository }

func (r *stubPostRepo) FindByAuthorIDs(_ context.Context, _ []string) (map[string][]*model.Post, error) {
	return map[string][]*model.Post{}, nil
}

type stubProfileRepo struct{ repository.ProfileRepository }
type stubMemberTypeRepo struct{ repository.MemberTypeRepository }
type stubSubRepo struct{ repository.SubscriptionRepository }

func newTestRouter(t *testing.T, users []*model.User, db Pinger) http.Handler {
	t.Helper()
	repos := loader.Repos{
		Users:         &stubUserRepo{users: users},
		Posts:         &stubPostRepo{},
		Profiles:      &stubProfileRepo{},
		MemberTypes:   &stubMemberTypeRepo{},
		Subscriptions: &stubSubRepo{},
	}
	svc := mutation.NewService(repos.Users, repos.Posts, repos.Profiles, repos.Subscriptions, security.NewContentSanitizer())
	schema, err := graph.NewSchema(repos, svc)
	if err != nil {
		t.Fatalf("failed to build schema: %v", err)
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	rl := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(120))
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		Schema:            schema,
		Repos:             repos,
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(reg),
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		DB:                db,
	})
}

// 正常なクエリが200とデータを返すことを検証
func TestExecute(t *testing.T) {
	router := newTestRouter(t, []*model.User{{ID: "u1", Name: "alice", Balance: 1.5}}, nil)

	body := `{"query": "{ users { id name balance } }"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gql", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"alice"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), `"errors"`) {
		t.Errorf("unexpected errors in body: %s", rec.Body.String())
	}
}

// 変数付きクエリが解決されることを検証
func TestExecute_WithVariables(t *testing.T) {
	const uid = "33333333-3333-4333-8333-333333333333"
	router := newTestRouter(t, []*model.User{{ID: uid, Name: "bob"}}, nil)

	body := `{"query": "query($id: UUID!) { user(id: $id) { name } }", "variables": {"id": "` + uid + `"}}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gql", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"bob"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

// 不正なJSONボディが400で拒否されることを検証
func TestExecute_MalformedBody(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gql", strings.NewReader("{not json")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "MALFORMED_REQUEST") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

// queryフィールド欠落が400で拒否されることを検証
func TestExecute_MissingQuery(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gql", strings.NewReader(`{"variables": {}}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// 構文エラーのクエリが200のレスポンス内errorsで表現されることを検証
func TestExecute_QuerySyntaxError(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gql", strings.NewReader(`{"query": "{ users {"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"errors"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

type stubPinger struct {
	err error
}

func (p *stubPinger) PingContext(_ context.Context) error {
	return p.err
}

// ヘルスチェックがストア到達時に200を返すことを検証
func TestHealth_OK(t *testing.T) {
	router := newTestRouter(t, nil, &stubPinger{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

// ストア不達のヘルスチェックが503を返すことを検証
func TestHealth_Degraded(t *testing.T) {
	router := newTestRouter(t, nil, &stubPinger{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

// /metricsがPrometheusフォーマットで公開されることを検証
func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, []*model.User{{ID: "u1", Name: "alice"}}, nil)

	// クエリを1回実行してからスクレイプする
	body := `{"query": "{ users { id } }"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gql", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("query status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "gqlbatch_query_latency_seconds") {
		t.Errorf("metrics body missing query latency histogram")
	}
}
