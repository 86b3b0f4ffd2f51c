package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jinford/voxly/internal/core/llm"
	"github.com/jinford/voxly/internal/core/summary"
)

const (
	// DefaultSignTTL は署名URLのデフォルト有効期間
	DefaultSignTTL = time.Hour
)

// ServiceConfig はパイプラインの動作設定
type ServiceConfig struct {
	// SignTTL は署名URLの有効期間
	SignTTL time.Duration

	// TokenBudget はサマリー生成に渡すトランスクリプトの最大トークン数
	TokenBudget int

	// Selection はLLMプロバイダの選択方法
	Selection llm.Selection
}

// DefaultServiceConfig はデフォルトのパイプライン設定を返す
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		SignTTL:     DefaultSignTTL,
		TokenBudget: summary.DefaultTokenBudget,
		Selection:   llm.AllProviders(),
	}
}

// Service は「音声アップロード済み」イベントから起動されるジョブパイプライン。
// ステップは固定順で逐次実行され、各ステップはジョブIDに対して冪等である。
// 1つのジョブは常に1つの呼び出しだけが処理する前提で、ロックは持たない。
type Service struct {
	jobs        JobRepository
	signer      URLSigner
	transcriber Transcriber
	summarizer  Summarizer
	clipper     TranscriptClipper
	config      ServiceConfig
	logger      *slog.Logger
}

// NewService は新しいパイプラインServiceを作成する
func NewService(
	jobs JobRepository,
	signer URLSigner,
	transcriber Transcriber,
	summarizer Summarizer,
	clipper TranscriptClipper,
	config ServiceConfig,
	logger *slog.Logger,
) *Service {
	if config.SignTTL <= 0 {
		config.SignTTL = DefaultSignTTL
	}
	if config.TokenBudget <= 0 {
		config.TokenBudget = summary.DefaultTokenBudget
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		jobs:        jobs,
		signer:      signer,
		transcriber: transcriber,
		summarizer:  summarizer,
		clipper:     clipper,
		config:      config,
		logger:      logger,
	}
}

// Process はイベント1件をパイプライン実行する。
// ジョブのロード以降のステップで失敗した場合はベストエフォートで
// statusをerrorに更新した上で元のエラーを呼び出し元へ返す。
// 呼び出し側フレームワークのリトライ方針には関与しない。
func (s *Service) Process(ctx context.Context, event AudioUploadedEvent) (Result, error) {
	// 入力検証: 必須フィールドの欠落は全ステップ実行前の致命的エラー
	if event.JobID == "" {
		return Result{}, fmt.Errorf("%w: jobId is required", ErrInvalidEvent)
	}
	if event.StorageKey == "" {
		return Result{}, fmt.Errorf("%w: storageKey is required", ErrInvalidEvent)
	}
	jobID, err := uuid.Parse(event.JobID)
	if err != nil {
		return Result{}, fmt.Errorf("%w: jobId is not a valid UUID: %v", ErrInvalidEvent, err)
	}

	logger := s.logger.With("jobID", event.JobID)
	logger.Info("パイプラインを開始します", "storageKey", event.StorageKey)

	// ステップ1: ジョブのロード。
	// 不在はリトライ対象外で、status書き込みも行わず即座に失敗する。
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return Result{}, err
	}

	if err := s.run(ctx, job, event, logger); err != nil {
		// 失敗を永続化された状態として見えるようにする。
		// error更新自体の失敗はログに残すのみで元のエラーを優先する。
		s.markError(ctx, job.ID, logger)
		return Result{}, err
	}

	logger.Info("パイプラインが完了しました")
	return Result{JobID: event.JobID}, nil
}

// run はジョブロード後のステップ2〜6を実行する
func (s *Service) run(ctx context.Context, job *Job, event AudioUploadedEvent, logger *slog.Logger) error {
	// ステップ2: processingへの遷移。
	// 現在のstatusは確認しない。再実行時も同じ書き込みになるだけで無害。
	if err := s.jobs.UpdateStatus(ctx, job.ID, StatusProcessing); err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}

	// ステップ3: 署名URLの取得
	signedURL, err := s.signer.SignedURL(ctx, event.StorageKey, event.Bucket, s.config.SignTTL)
	if err != nil {
		return fmt.Errorf("failed to sign audio url: %w", err)
	}

	// ステップ4: 文字起こし。空の結果は致命的エラー。
	transcript, err := s.transcriber.Transcribe(ctx, signedURL)
	if err != nil {
		return err
	}
	if transcript == "" {
		return ErrEmptyTranscript
	}

	// ステップ5: サマリー生成。
	// テンプレートはイベント指定 → ジョブ保存値 → default の順で解決する。
	tmpl := s.effectiveTemplate(job, event)

	clipped := transcript
	if s.clipper != nil {
		var tokens int
		clipped, tokens = s.clipper.Clip(transcript, s.config.TokenBudget)
		logger.Info("サマリー生成を開始します", "template", string(tmpl), "tokens", tokens)
		if clipped != transcript {
			logger.Warn("トランスクリプトがトークン上限を超えたため切り詰めました", "budget", s.config.TokenBudget)
		}
	}

	result, err := s.summarizer.Summarize(ctx, clipped, tmpl, llm.Options{Selection: s.config.Selection})
	if err != nil {
		return err
	}

	// ステップ6: 永続化とdoneへの遷移。
	// 切り詰め前の完全なトランスクリプトを保存する。
	if err := s.jobs.CompleteJob(ctx, job.ID, transcript, result); err != nil {
		return fmt.Errorf("failed to persist summary: %w", err)
	}

	return nil
}

// effectiveTemplate は有効なテンプレートを解決する
func (s *Service) effectiveTemplate(job *Job, event AudioUploadedEvent) summary.Template {
	name := event.Template
	if name == "" {
		name = job.Template
	}
	return summary.NormalizeTemplate(name)
}

// markError はジョブのstatusをerrorに更新する。ベストエフォートであり、
// 更新に失敗しても警告ログを残すのみで呼び出し元へは伝播しない。
// 確定した失敗の後にstatusがprocessingのまま残ることを防ぐ。
func (s *Service) markError(ctx context.Context, id uuid.UUID, logger *slog.Logger) {
	if err := s.jobs.UpdateStatus(ctx, id, StatusError); err != nil {
		logger.Warn("ジョブのerrorステータス更新に失敗しました", "error", err)
	}
}
