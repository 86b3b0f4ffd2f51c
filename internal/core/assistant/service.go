package assistant

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jinford/voxly/internal/core/llm"
	"github.com/jinford/voxly/internal/core/pipeline"
	"github.com/jinford/voxly/internal/core/summary"
)

var (
	// ErrEmptyChatHistory は正規化後のチャット履歴が空の場合のエラー
	ErrEmptyChatHistory = errors.New("chat requires at least one non-empty message")
)

// Resolver はアシスタント操作が必要とするLLM操作。llm.Resolverが実装する。
type Resolver interface {
	EditSummary(ctx context.Context, current summary.Summary, instruction string, opts llm.Options) (summary.Summary, error)
	Chat(ctx context.Context, history []summary.ChatMessage, current summary.Summary, opts llm.Options) (string, error)
}

// Service は確定済みサマリーに対する編集とチャットを提供する
type Service struct {
	jobs     pipeline.JobRepository
	resolver Resolver
	logger   *slog.Logger
}

// NewService は新しいアシスタントServiceを作成する
func NewService(jobs pipeline.JobRepository, resolver Resolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{jobs: jobs, resolver: resolver, logger: logger}
}

// Edit はジョブのサマリーに自然言語の編集指示を適用し、結果を永続化する
func (s *Service) Edit(ctx context.Context, jobID uuid.UUID, instruction string, opts llm.Options) (summary.Summary, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return summary.Summary{}, err
	}

	current := summary.Empty()
	if job.Summary != nil {
		current = summary.NormalizeSummary(*job.Summary)
	}

	edited, err := s.resolver.EditSummary(ctx, current, instruction, opts)
	if err != nil {
		return summary.Summary{}, err
	}

	if err := s.jobs.UpdateSummary(ctx, job.ID, edited); err != nil {
		return summary.Summary{}, err
	}

	s.logger.Info("サマリーを編集しました", "jobID", jobID.String())
	return edited, nil
}

// Chat はジョブのサマリーを文脈としてチャット応答を生成する。
// サマリーは読み取り専用の文脈であり、永続化状態は変更しない。
func (s *Service) Chat(ctx context.Context, jobID uuid.UUID, history []summary.ChatMessage, opts llm.Options) (string, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return "", err
	}

	cleaned := summary.NormalizeChat(history)
	if len(cleaned) == 0 {
		return "", ErrEmptyChatHistory
	}

	current := summary.Empty()
	if job.Summary != nil {
		current = summary.NormalizeSummary(*job.Summary)
	}

	return s.resolver.Chat(ctx, cleaned, current, opts)
}
