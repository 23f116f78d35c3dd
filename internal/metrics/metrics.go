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
// ミドルウェア・サービス層・ワーカーから利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordArticleCreated(status string)
	RecordSignInFailure()
	RecordLike(action string)
	AddExpiredTokensDeleted(n int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	articlesCreated *prometheus.CounterVec
	signInFailures  prometheus.Counter
	likes           *prometheus.CounterVec
	tokensDeleted   prometheus.Counter
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bloghub_http_requests_total",
			Help: "HTTPリクエストの合計数",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bloghub_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		articlesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bloghub_articles_created_total",
			Help: "作成された記事の合計数",
		}, []string{"status"}),
		signInFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bloghub_sign_in_failures_total",
			Help: "サインイン失敗の合計数",
		}),
		likes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bloghub_likes_total",
			Help: "いいねの登録・取消の合計数",
		}, []string{"action"}),
		tokensDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bloghub_expired_tokens_deleted_total",
			Help: "削除された期限切れトークンの合計数",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.articlesCreated,
		c.signInFailures,
		c.likes,
		c.tokensDeleted,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの件数と処理時間を記録する。
// routeにはパスではなくルートパターンを渡す。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordArticleCreated は記事作成を記録する。
func (c *Collector) RecordArticleCreated(status string) {
	c.articlesCreated.WithLabelValues(status).Inc()
}

// RecordSignInFailure はサインイン失敗を記録する。
func (c *Collector) RecordSignInFailure() {
	c.signInFailures.Inc()
}

// RecordLike はいいねの登録（like）・取消（unlike）を記録する。
func (c *Collector) RecordLike(action string) {
	c.likes.WithLabelValues(action).Inc()
}

// AddExpiredTokensDeleted は削除された期限切れトークン数を加算する。
func (c *Collector) AddExpiredTokensDeleted(n int) {
	if n <= 0 {
		return
	}
	c.tokensDeleted.Add(float64(n))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
