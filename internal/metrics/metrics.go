// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LifecycleRecorder はアカウントライフサイクルのメトリクス収集インターフェース。
// ハンドラー層およびスイープジョブから利用する。
type LifecycleRecorder interface {
	RecordRegistration()
	RecordOtpIssued(purpose string)
	RecordOtpVerification(success bool)
	RecordLogin(outcome string)
	RecordPasswordReset()
	RecordOtpSweep(deleted int64)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	registrations  prometheus.Counter
	otpIssued      *prometheus.CounterVec
	otpVerify      *prometheus.CounterVec
	logins         *prometheus.CounterVec
	passwordResets prometheus.Counter
	otpSwept       prometheus.Counter
	httpStatus     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_registrations_total",
			Help: "アカウント登録の合計数",
		}),
		otpIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_otp_issued_total",
			Help: "目的別のOTP発行数",
		}, []string{"purpose"}),
		otpVerify: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_otp_verification_total",
			Help: "結果別のOTP検証数",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_login_total",
			Help: "結果別のログイン試行数",
		}, []string{"outcome"}),
		passwordResets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_password_resets_total",
			Help: "完了したパスワードリセットの合計数",
		}),
		otpSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_otp_swept_total",
			Help: "スイープジョブが削除した期限切れOTPの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.registrations,
		c.otpIssued,
		c.otpVerify,
		c.logins,
		c.passwordResets,
		c.otpSwept,
		c.httpStatus,
	)

	return c
}

// RecordRegistration はアカウント登録を記録する。
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordOtpIssued はOTP発行を記録する。
func (c *Collector) RecordOtpIssued(purpose string) {
	c.otpIssued.WithLabelValues(purpose).Inc()
}

// RecordOtpVerification はOTP検証の結果を記録する。
func (c *Collector) RecordOtpVerification(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.otpVerify.WithLabelValues(result).Inc()
}

// RecordLogin はログイン試行の結果を記録する。
// outcome: success, invalid_credentials, not_verified
func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

// RecordPasswordReset は完了したパスワードリセットを記録する。
func (c *Collector) RecordPasswordReset() {
	c.passwordResets.Inc()
}

// RecordOtpSweep はスイープジョブの削除件数を記録する。
func (c *Collector) RecordOtpSweep(deleted int64) {
	c.otpSwept.Add(float64(deleted))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ LifecycleRecorder = (*Collector)(nil)
