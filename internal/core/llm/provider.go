package llm

import (
	"context"

	"github.com/jinford/voxly/internal/core/summary"
)

// Provider はひとつのLLMバックエンドに対する操作を抽象化するインターフェース。
// 各操作は1回の外部呼び出しのみを行い、内部でリトライしない。
// リトライとフォールバックはResolverの責務である。
type Provider interface {
	// Name はプロバイダ名（"openai"、"gemini"など）を返す
	Name() string

	// Models は優先順のモデル候補リストを返す
	Models() []string

	// Summarize はトランスクリプトから構造化サマリーを生成する
	Summarize(ctx context.Context, transcript string, tmpl summary.Template, model string) (summary.Summary, error)

	// EditSummary は既存サマリーに自然言語の編集指示を適用する
	EditSummary(ctx context.Context, current summary.Summary, instruction string, model string) (summary.Summary, error)

	// Chat はサマリーを文脈としたチャット応答を自由文で返す
	Chat(ctx context.Context, history []summary.ChatMessage, current summary.Summary, model string) (string, error)
}
