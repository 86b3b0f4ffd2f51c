package llm

import (
	"context"
	"log/slog"

	"github.com/jinford/voxly/internal/core/summary"
)

// Candidate はフォールバック対象の (プロバイダ, モデル) の組。
// 候補は呼び出しごとに生成される純粋な設定値であり、永続化されない。
type Candidate struct {
	Provider string
	Model    string
}

// Selection はプロバイダの選択方法。
// ゼロ値は全プロバイダを既定順で試すことを意味する。
type Selection struct {
	pinned string
}

// AllProviders は既定順で全プロバイダを試すSelectionを返す
func AllProviders() Selection {
	return Selection{}
}

// OnlyProvider は単一プロバイダに固定したSelectionを返す
func OnlyProvider(name string) Selection {
	return Selection{pinned: name}
}

// Pinned は固定されたプロバイダ名を返す
func (s Selection) Pinned() (string, bool) {
	return s.pinned, s.pinned != ""
}

// ParseSelection は設定値の文字列をSelectionに解決する。
// "<provider>-only" 形式のみ単一プロバイダ固定として解釈し、
// それ以外（既定プロバイダ名や空文字列を含む）は全プロバイダ順となる。
func ParseSelection(value string) Selection {
	switch value {
	case "openai-only":
		return OnlyProvider("openai")
	case "gemini-only":
		return OnlyProvider("gemini")
	default:
		return AllProviders()
	}
}

// Options はResolver呼び出し時のオプション
type Options struct {
	// Selection はプロバイダの選択方法
	Selection Selection

	// Model は明示的なモデル指定。指定時は各プロバイダで
	// このモデルのみが候補となる。
	Model string
}

// Resolver は (プロバイダ, モデル) 候補を順に試すフォールバックエンジン。
// 候補は常に逐次実行され、並行に試されることはない。
type Resolver struct {
	providers []Provider
	logger    *slog.Logger
}

// NewResolver は優先順に並んだプロバイダからResolverを作成する
func NewResolver(providers []Provider, logger *slog.Logger) (*Resolver, error) {
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{providers: providers, logger: logger}, nil
}

// Candidates はSelectionとモデル指定から順序付きの候補リストを構築する
func (r *Resolver) Candidates(opts Options) ([]Candidate, error) {
	ordered, err := r.orderedProviders(opts.Selection)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, p := range ordered {
		models := p.Models()
		if opts.Model != "" {
			models = []string{opts.Model}
		}
		for _, m := range models {
			candidates = append(candidates, Candidate{Provider: p.Name(), Model: m})
		}
	}
	return candidates, nil
}

// Summarize は候補を順に試してサマリーを生成する
func (r *Resolver) Summarize(ctx context.Context, transcript string, tmpl summary.Template, opts Options) (summary.Summary, error) {
	return runWithFallback(ctx, r, opts, func(ctx context.Context, p Provider, model string) (summary.Summary, error) {
		return p.Summarize(ctx, transcript, tmpl, model)
	})
}

// EditSummary は候補を順に試して編集済みサマリーを生成する
func (r *Resolver) EditSummary(ctx context.Context, current summary.Summary, instruction string, opts Options) (summary.Summary, error) {
	return runWithFallback(ctx, r, opts, func(ctx context.Context, p Provider, model string) (summary.Summary, error) {
		return p.EditSummary(ctx, current, instruction, model)
	})
}

// Chat は候補を順に試してチャット応答を生成する
func (r *Resolver) Chat(ctx context.Context, history []summary.ChatMessage, current summary.Summary, opts Options) (string, error) {
	return runWithFallback(ctx, r, opts, func(ctx context.Context, p Provider, model string) (string, error) {
		return p.Chat(ctx, history, current, model)
	})
}

// orderedProviders はSelectionを適用した順序付きプロバイダリストを返す
func (r *Resolver) orderedProviders(sel Selection) ([]Provider, error) {
	name, ok := sel.Pinned()
	if !ok {
		return r.providers, nil
	}
	for _, p := range r.providers {
		if p.Name() == name {
			return []Provider{p}, nil
		}
	}
	return nil, ErrUnknownProvider
}

// runWithFallback は候補を順に1つずつ試す。
// プロバイダ内のモデルフォールバックはレート制限エラーの場合のみ継続し、
// プロバイダ間のフォールバックはエラー種別によらず常に次へ進む。
// 全候補が失敗した場合は最後のエラーのみを保持するExhaustedErrorを返す。
// 途中で捨てられるエラーはWARNログにのみ残る。
func runWithFallback[T any](ctx context.Context, r *Resolver, opts Options, op func(context.Context, Provider, string) (T, error)) (T, error) {
	var zero T

	ordered, err := r.orderedProviders(opts.Selection)
	if err != nil {
		return zero, err
	}

	var lastErr error
	attempts := 0

	for _, p := range ordered {
		models := p.Models()
		if opts.Model != "" {
			models = []string{opts.Model}
		}

		for _, model := range models {
			attempts++
			result, err := op(ctx, p, model)
			if err == nil {
				return result, nil
			}

			lastErr = err
			rateLimited := IsRateLimited(err)
			r.logger.Warn("LLM候補が失敗しました",
				"provider", p.Name(),
				"model", model,
				"rateLimited", rateLimited,
				"error", err,
			)

			if !rateLimited {
				// レート制限以外は同一プロバイダ内の次モデルを試さない
				break
			}
		}
	}

	return zero, &ExhaustedError{Attempts: attempts, Last: lastErr}
}
