// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector は認証サービスのPrometheusメトリクスを収集する。
// ハンドラーとミドルウェアから利用する。
type Collector struct {
	loginSuccess       prometheus.Counter
	loginFailure       *prometheus.CounterVec
	sessionValidations *prometheus.CounterVec
	originRejections   prometheus.Counter
	httpStatus         *prometheus.CounterVec
	sessionsPurged     prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authman_login_success_total",
			Help: "OAuthログイン成功の合計数",
		}),
		loginFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authman_login_failure_total",
			Help: "OAuthログイン失敗の合計数（理由別）",
		}, []string{"reason"}),
		sessionValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authman_session_validations_total",
			Help: "セッション検証の合計数（結果別）",
		}, []string{"result"}),
		originRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authman_origin_rejections_total",
			Help: "同一オリジン検証で拒否したリクエストの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		sessionsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authman_sessions_purged_total",
			Help: "クリーンアップジョブが削除した期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.loginSuccess,
		c.loginFailure,
		c.sessionValidations,
		c.originRejections,
		c.httpStatus,
		c.sessionsPurged,
	)

	return c
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を理由別に記録する。
func (c *Collector) RecordLoginFailure(reason string) {
	c.loginFailure.WithLabelValues(reason).Inc()
}

// RecordSessionValidation はセッション検証の結果を記録する。
func (c *Collector) RecordSessionValidation(result string) {
	c.sessionValidations.WithLabelValues(result).Inc()
}

// RecordOriginRejection は同一オリジン検証の拒否を記録する。
func (c *Collector) RecordOriginRejection() {
	c.originRejections.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordSessionsPurged はクリーンアップで削除されたセッション数を記録する。
func (c *Collector) RecordSessionsPurged(count int64) {
	c.sessionsPurged.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
