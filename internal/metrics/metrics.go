// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーとバッチスケジューラから利用する。
type MetricsCollector interface {
	// ObserveFlush はバッチの波1回分（種別とキー数）を記録する。
	ObserveFlush(kind string, batchSize int)
	RecordQueryLatency(duration time.Duration)
	RecordQueryErrors(count int)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	batchFlush   *prometheus.CounterVec
	batchSize    *prometheus.HistogramVec
	queryLatency prometheus.Histogram
	queryErrors  prometheus.Counter
	httpStatus   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		batchFlush: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gqlbatch_store_calls_total",
			Help: "バッチ種別ごとのストア呼び出し合計数",
		}, []string{"kind"}),
		batchSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gqlbatch_batch_size",
			Help:    "1回のストア呼び出しに合流したキー数",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		}, []string{"kind"}),
		queryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gqlbatch_query_latency_seconds",
			Help:    "GraphQLクエリ実行のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		queryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gqlbatch_query_errors_total",
			Help: "GraphQLフィールドエラーの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gqlbatch_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.batchFlush,
		c.batchSize,
		c.queryLatency,
		c.queryErrors,
		c.httpStatus,
	)

	return c
}

// ObserveFlush はバッチの波1回分を記録する。
// loader.Observerとして各Batcherに渡される。
func (c *Collector) ObserveFlush(kind string, batchSize int) {
	c.batchFlush.WithLabelValues(kind).Inc()
	c.batchSize.WithLabelValues(kind).Observe(float64(batchSize))
}

// RecordQueryLatency はクエリ実行のレイテンシを記録する。
func (c *Collector) RecordQueryLatency(duration time.Duration) {
	c.queryLatency.Observe(duration.Seconds())
}

// RecordQueryErrors はクエリ1回分のフィールドエラー数を記録する。
func (c *Collector) RecordQueryErrors(count int) {
	c.queryErrors.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
