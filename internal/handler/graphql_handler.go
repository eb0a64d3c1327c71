// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/terra456/rsschool-graphql/internal/loader"
	"github.com/terra456/rsschool-graphql/internal/model"
)

// MetricsRecorder はハンドラーとバッチスケジューラが記録するメトリクスの集約先。
type MetricsRecorder interface {
	ObserveFlush(kind string, batchSize int)
	RecordQueryLatency(duration time.Duration)
	RecordQueryErrors(count int)
	RecordHTTPStatus(statusCode int)
}

// graphqlRequest はPOST /gqlのリクエストボディ。
type graphqlRequest struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// GraphQLHandler はGraphQLエンドポイントのHTTPハンドラー。
// リクエストごとに新しいローダー一式を作り、実行後に破棄する。
type GraphQLHandler struct {
	schema    graphql.Schema
	repos     loader.Repos
	loaderCfg loader.Config
	metrics   MetricsRecorder
}

// NewGraphQLHandler はGraphQLHandlerを生成する。
// metricsはnil可。
func NewGraphQLHandler(schema graphql.Schema, repos loader.Repos, loaderCfg loader.Config, metrics MetricsRecorder) *GraphQLHandler {
	return &GraphQLHandler{
		schema:    schema,
		repos:     repos,
		loaderCfg: loaderCfg,
		metrics:   metrics,
	}
}

// Execute はGraphQLクエリを実行する。
// POST /gql
func (h *GraphQLHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, &model.APIError{
			Code:     "MALFORMED_REQUEST",
			Message:  "リクエストボディをJSONとして解釈できません。",
			Category: "client",
			Action:   "{query, variables}形式のJSONを送信してください。",
		})
		return
	}
	if req.Query == "" {
		writeAPIError(w, http.StatusBadRequest, &model.APIError{
			Code:     "MALFORMED_REQUEST",
			Message:  "queryフィールドは必須です。",
			Category: "client",
			Action:   "GraphQLクエリ文字列を指定してください。",
		})
		return
	}

	// ローダー一式はリクエスト境界で生成・破棄する
	var obs loader.Observer
	if h.metrics != nil {
		obs = h.metrics
	}
	loaders := loader.NewLoaders(h.repos, h.loaderCfg, obs)
	ctx := loader.NewContext(r.Context(), loaders)

	start := time.Now()
	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
	if h.metrics != nil {
		h.metrics.RecordQueryLatency(time.Since(start))
		h.metrics.RecordQueryErrors(len(result.Errors))
	}

	// フィールドエラーはGraphQLレスポンス内のerrorsで表現され、
	// トランスポートとしては200で返す
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// writeAPIError はAPIエラーをJSONで書き込む。
func writeAPIError(w http.ResponseWriter, status int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"code":     apiErr.Code,
		"message":  apiErr.Message,
		"category": apiErr.Category,
		"action":   apiErr.Action,
	})
}
