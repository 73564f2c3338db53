// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hitoshi/layershowcase/internal/model"
)

// MetricsCollector はメトリクス収集のインターフェース。
// HTTPミドルウェアとハンドラーから利用する。
type MetricsCollector interface {
	RecordRequest(method, route string, status int, duration time.Duration)
	RecordOperationError(operation string, kind model.Kind)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	operationErrors *prometheus.CounterVec
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "layershowcase_http_requests_total",
			Help: "ルート・メソッド・ステータス別のHTTPリクエスト数",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "layershowcase_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		operationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "layershowcase_operation_errors_total",
			Help: "Facade操作の失敗数（エラー種別ごと）",
		}, []string{"operation", "kind"}),
	}

	reg.MustRegister(
		c.requests,
		c.requestDuration,
		c.operationErrors,
	)

	return c
}

// RecordRequest はHTTPリクエスト1件を記録する。
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordOperationError はFacade操作の失敗をエラー種別ごとに記録する。
func (c *Collector) RecordOperationError(operation string, kind model.Kind) {
	c.operationErrors.WithLabelValues(operation, kind.String()).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
