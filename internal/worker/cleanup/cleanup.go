// Package cleanup は期限切れOTPの自動削除ジョブを提供する。
// 期限切れコードは読み取り時にも拒否されるため、このジョブは
// テーブル肥大の防止が目的であり、正しさには影響しない。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lopsie/portfolio/internal/repository"
)

// DefaultInterval はスイープ実行間隔のデフォルト値。
const DefaultInterval = time.Minute

// SweepRecorder はスイープ結果のメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type SweepRecorder interface {
	RecordOtpSweep(deleted int64)
}

// SweepJob は期限切れOTPの定期削除ジョブ。
// 冪等な削除処理であり、削除対象がない場合もエラーにならない。
type SweepJob struct {
	otpRepo repository.OtpRepository
	logger  *slog.Logger
	metrics SweepRecorder
}

// NewSweepJob は新しいSweepJobを生成する。metricsはnilでもよい。
func NewSweepJob(otpRepo repository.OtpRepository, logger *slog.Logger, metrics SweepRecorder) *SweepJob {
	return &SweepJob{
		otpRepo: otpRepo,
		logger:  logger,
		metrics: metrics,
	}
}

// Run は期限切れOTPを1回削除する。
func (j *SweepJob) Run(ctx context.Context) error {
	start := time.Now()

	deleted, err := j.otpRepo.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("OTPスイープジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to sweep expired otps: %w", err)
	}

	if j.metrics != nil {
		j.metrics.RecordOtpSweep(deleted)
	}

	duration := time.Since(start)
	j.logger.Info("OTPスイープジョブが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// RunLoop は指定間隔でRunを繰り返し実行する。ctxのキャンセルで停止する。
// 起動直後に1回実行してから周期実行に入る。
func (j *SweepJob) RunLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	if err := j.Run(ctx); err != nil {
		j.logger.Error("initial otp sweep failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("OTPスイープループを停止します")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("otp sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}
