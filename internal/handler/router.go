package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/graphql-go/graphql"

	"github.com/terra456/rsschool-graphql/internal/loader"
	"github.com/terra456/rsschool-graphql/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Schema    graphql.Schema
	Repos     loader.Repos
	LoaderCfg loader.Config

	Logger            *slog.Logger
	Metrics           MetricsRecorder
	MetricsHandler    http.Handler
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	DB                Pinger
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → CORS → RateLimit（/gqlのみ）
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Logger != nil {
		var obs middleware.StatusObserver
		if deps.Metrics != nil {
			obs = deps.Metrics
		}
		r.Use(middleware.NewLoggingMiddleware(deps.Logger, obs))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	healthHandler := NewHealthHandler(deps.DB)
	r.Get("/health", healthHandler.Check)

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	gqlHandler := NewGraphQLHandler(deps.Schema, deps.Repos, deps.LoaderCfg, deps.Metrics)
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}
		r.Post("/gql", gqlHandler.Execute)
	})

	return r
}
