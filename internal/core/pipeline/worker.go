package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	// DefaultMaxAttempts はイベント1件あたりのパイプライン実行回数の上限
	DefaultMaxAttempts = 3

	// retryBaseDelay はリトライ間の基底待機時間
	retryBaseDelay = 2 * time.Second
)

// EventSource は「音声アップロード済み」イベントの受信を抽象化する。
// Nextはイベントが到着するまでブロックする。
type EventSource interface {
	Next(ctx context.Context) (AudioUploadedEvent, error)
}

// Worker はイベントを受信してパイプラインを起動する配送ループ。
// リトライ方針はパイプライン本体ではなくここが持つ。
type Worker struct {
	source      EventSource
	service     *Service
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// NewWorker は新しいWorkerを作成する
func NewWorker(source EventSource, service *Service, maxAttempts int, logger *slog.Logger) *Worker {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		source:      source,
		service:     service,
		maxAttempts: maxAttempts,
		retryDelay:  retryBaseDelay,
		logger:      logger,
	}
}

// SetRetryDelay はリトライ間の基底待機時間を設定する
func (w *Worker) SetRetryDelay(d time.Duration) {
	w.retryDelay = d
}

// Run はイベントループを実行する。contextのキャンセルで停止する。
// 異なるジョブのイベントであっても1件ずつ順に処理する。
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("ワーカーを起動しました", "maxAttempts", w.maxAttempts)

	for {
		event, err := w.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("ワーカーを停止します")
				return ctx.Err()
			}
			return err
		}

		w.dispatch(ctx, event)
	}
}

// dispatch はイベント1件を上限回数までリトライしながら処理する。
// 入力不正とジョブ不在はリトライしても成功しないため即座に打ち切る。
func (w *Worker) dispatch(ctx context.Context, event AudioUploadedEvent) {
	logger := w.logger.With("jobID", event.JobID)

	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(attempt-1) * w.retryDelay):
			}
		}

		_, err := w.service.Process(ctx, event)
		if err == nil {
			return
		}

		if errors.Is(err, ErrInvalidEvent) || errors.Is(err, ErrJobNotFound) {
			logger.Error("イベントを破棄します", "error", err)
			return
		}

		if attempt < w.maxAttempts {
			logger.Warn("パイプラインが失敗しました。リトライします",
				"attempt", attempt,
				"error", err,
			)
			continue
		}

		logger.Error("リトライ上限に達したためイベントを断念します",
			"attempts", w.maxAttempts,
			"error", err,
		)
	}
}
