package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/jinford/voxly/internal/core/llm"
	"github.com/jinford/voxly/internal/core/summary"
)

const (
	// ProviderName はフォールバック候補としてのプロバイダ名
	ProviderName = "gemini"

	// DefaultModel はデフォルトで使用するGeminiモデル
	DefaultModel = "gemini-2.5-flash"

	// summarizeTemperature はJSON生成系操作の温度
	summarizeTemperature float32 = 0.2

	// chatTemperature は自由文チャットの温度
	chatTemperature float32 = 0.4

	// topP は全操作共通のnucleus samplingパラメータ
	topP float32 = 0.9

	mimeJSON = "application/json"
	mimeText = "text/plain"
)

var (
	// ErrAPIKeyNotSet はAPIキーが設定されていない場合のエラー
	ErrAPIKeyNotSet = errors.New("Gemini API key not set")

	// ErrEmptyResponse はレスポンスに使用可能な候補が含まれない場合のエラー
	ErrEmptyResponse = errors.New("empty response from Gemini")
)

// Client はGemini APIを使用したllm.Provider実装。
// OpenAI側と同様、1操作につき外部呼び出しは1回のみで内部リトライは行わない。
type Client struct {
	client *genai.Client
	models []string
}

// NewClient はAPIキーとモデル候補リストを指定してClientを作成する
func NewClient(ctx context.Context, apiKey string, models []string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if len(models) == 0 {
		models = []string{DefaultModel}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{client: client, models: models}, nil
}

// Name はプロバイダ名を返す
func (c *Client) Name() string {
	return ProviderName
}

// Models は優先順のモデル候補リストを返す
func (c *Client) Models() []string {
	out := make([]string, len(c.models))
	copy(out, c.models)
	return out
}

// Summarize はトランスクリプトから構造化サマリーを生成する
func (c *Client) Summarize(ctx context.Context, transcript string, tmpl summary.Template, model string) (summary.Summary, error) {
	prompt, err := summary.BuildSummaryPrompt(transcript, tmpl)
	if err != nil {
		return summary.Summary{}, err
	}

	raw, err := c.generate(ctx, model, prompt, summarizeTemperature, mimeJSON)
	if err != nil {
		return summary.Summary{}, err
	}

	return summary.Normalize(summary.ParseLoose(raw)), nil
}

// EditSummary は既存サマリーに編集指示を適用する
func (c *Client) EditSummary(ctx context.Context, current summary.Summary, instruction string, model string) (summary.Summary, error) {
	prompt, err := summary.BuildEditPrompt(current, instruction)
	if err != nil {
		return summary.Summary{}, err
	}

	raw, err := c.generate(ctx, model, prompt, summarizeTemperature, mimeJSON)
	if err != nil {
		return summary.Summary{}, err
	}

	return summary.Normalize(summary.ParseLoose(raw)), nil
}

// Chat はサマリーを文脈としたチャット応答を自由文で返す。
// Geminiはロール付きメッセージ列ではなく、履歴を埋め込んだ単一の
// テキストプロンプトとして送る。
func (c *Client) Chat(ctx context.Context, history []summary.ChatMessage, current summary.Summary, model string) (string, error) {
	prompt := summary.BuildChatPrompt(history, current)

	raw, err := c.generate(ctx, model, prompt, chatTemperature, mimeText)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(raw), nil
}

// generate はGenerateContent APIを1回だけ呼び出してテキストを取り出す
func (c *Client) generate(ctx context.Context, model, prompt string, temperature float32, mimeType string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(temperature),
		TopP:             genai.Ptr(topP),
		ResponseMIMEType: mimeType,
	}

	result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return "", c.wrapError(model, err)
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", &llm.ProviderError{
			Provider: ProviderName,
			Model:    model,
			Err:      ErrEmptyResponse,
		}
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}

	return sb.String(), nil
}

// wrapError はバックエンドのエラーをレート制限分類付きで包む
func (c *Client) wrapError(model string, err error) error {
	statusCode := 0

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		statusCode = apiErr.Code
	}

	return &llm.ProviderError{
		Provider:    ProviderName,
		Model:       model,
		StatusCode:  statusCode,
		RateLimited: isRateLimited(statusCode, err),
		Err:         fmt.Errorf("Gemini API call failed: %w", err),
	}
}

// isRateLimited はGeminiのエラーがレート制限かどうかを判定する。
// ステータスコード429のほか、クォータ超過を示すRESOURCE_EXHAUSTEDも
// レート制限として扱う。
func isRateLimited(statusCode int, err error) bool {
	if statusCode == 429 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "quota")
}

// インターフェース実装の確認
var _ llm.Provider = (*Client)(nil)
