package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jinford/voxly/internal/core/llm"
	"github.com/jinford/voxly/internal/core/summary"
)

var (
	// ErrJobNotFound は参照されたジョブが存在しない場合のエラー。
	// リトライ対象外であり、ステータス書き込みも行わない。
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidEvent はイベントの必須フィールドが欠落している場合のエラー
	ErrInvalidEvent = errors.New("invalid event")

	// ErrEmptyTranscript は音声認識が使用可能なテキストを返さなかった場合のエラー。
	// パイプライン内ではリトライしない致命的エラーとして扱う。
	ErrEmptyTranscript = errors.New("transcription returned empty text")
)

// JobRepository はジョブストアへの操作を抽象化する。
// last-write-wins以上のトランザクション保証は仮定しない。
type JobRepository interface {
	// GetJob はIDでジョブを取得する。存在しない場合はErrJobNotFoundを返す。
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)

	// UpdateStatus はジョブのstatusのみを更新する
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error

	// CompleteJob はトランスクリプトとサマリーを書き込みstatusをdoneにする
	CompleteJob(ctx context.Context, id uuid.UUID, transcript string, s summary.Summary) error

	// UpdateSummary はサマリーフィールドのみを書き換える（アシスタント編集用）
	UpdateSummary(ctx context.Context, id uuid.UUID, s summary.Summary) error

	// ListJobs は新しい順にジョブを列挙する
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
}

// URLSigner は保存済み音声への時限付き署名URLを発行する
type URLSigner interface {
	SignedURL(ctx context.Context, key, bucket string, ttl time.Duration) (string, error)
}

// Transcriber は署名URLの音声をテキストに変換する。
// 使用可能な候補がないレスポンスは空文字列を返し、空を致命とするか
// どうかの判断は呼び出し側が行う。
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

// Summarizer はフォールバック付きのサマリー生成を抽象化する。
// llm.Resolverが実装する。
type Summarizer interface {
	Summarize(ctx context.Context, transcript string, tmpl summary.Template, opts llm.Options) (summary.Summary, error)
}

// TranscriptClipper はトランスクリプトをトークン上限に収める。
// summary.TokenClipperが実装する。
type TranscriptClipper interface {
	Clip(text string, budget int) (string, int)
}
