package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/jinford/voxly/internal/core/summary"
)

// Status はジョブの処理状態。
// uploaded → processing → done と遷移し、processingからのみerrorに到達する。
// 後方への遷移は行わない。
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Job は1件の音声アップロードからサマリー生成までのタスクを表す。
// ジョブの作成はアップロード側の責務であり、パイプラインは
// statusとコンテンツフィールドの更新のみを行う。削除は決してしない。
type Job struct {
	ID         uuid.UUID
	StorageKey string
	Template   string
	Status     Status

	// Transcript は文字起こし完了までnil
	Transcript *string

	// Summary はサマリー生成完了までnil
	Summary *summary.Summary

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AudioUploadedEvent はパイプラインを起動するイベント。
// JobIDとStorageKeyは必須で、欠落は全ステップ実行前の致命的な入力エラー。
type AudioUploadedEvent struct {
	JobID      string `json:"jobId"`
	StorageKey string `json:"storageKey"`
	Template   string `json:"template,omitempty"`
	Bucket     string `json:"bucket,omitempty"`
}

// Result はパイプライン正常終了時に呼び出し元へ返す値
type Result struct {
	JobID string `json:"jobId"`
}
