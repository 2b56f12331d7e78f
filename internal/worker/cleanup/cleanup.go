// Package cleanup は期限切れセッションの自動削除ジョブを提供する。
// 期限切れ行は検証時に発見され次第削除される（eager purge）が、
// 二度とアクセスされないセッションはテーブルに残り続けるため、
// 日次バッチで掃除してテーブルの肥大化を防ぐ。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionPurger は期限切れセッションの一括削除インターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// PurgeRecorder は削除件数をメトリクスに記録するインターフェース。
type PurgeRecorder interface {
	RecordSessionsPurged(count int64)
}

// Job は期限切れセッションの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type Job struct {
	purger  SessionPurger
	logger  *slog.Logger
	metrics PurgeRecorder // nil可
}

// NewJob は新しいJobを生成する。metricsはnil可。
func NewJob(purger SessionPurger, logger *slog.Logger, metrics PurgeRecorder) *Job {
	return &Job{
		purger:  purger,
		logger:  logger,
		metrics: metrics,
	}
}

// Run は期限切れセッションを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *Job) Run(ctx context.Context) error {
	start := time.Now()

	deleted, err := j.purger.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("session cleanup failed",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to run session cleanup: %w", err)
	}

	if j.metrics != nil {
		j.metrics.RecordSessionsPurged(deleted)
	}

	j.logger.Info("session cleanup completed",
		slog.Int64("deleted", deleted),
		slog.Duration("duration", time.Since(start)),
	)

	return nil
}

// Start はジョブを即時に1回実行した後、指定間隔で繰り返し実行する。
// コンテキストのキャンセルで停止する（ブロッキング）。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("session cleanup job failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("session cleanup job failed", slog.String("error", err.Error()))
			}
		}
	}
}
