package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/jinford/voxly/internal/core/llm"
	"github.com/jinford/voxly/internal/core/summary"
)

const (
	// ProviderName はフォールバック候補としてのプロバイダ名
	ProviderName = "openai"

	// DefaultModel はデフォルトで使用するOpenAIモデル
	DefaultModel = "gpt-4o-mini"

	// DefaultTimeout はAPI呼び出しのデフォルトタイムアウト
	DefaultTimeout = 60 * time.Second

	// summarizeTemperature はJSON生成系操作の温度
	summarizeTemperature = 0.2

	// chatTemperature は自由文チャットの温度
	chatTemperature = 0.4

	// rateLimitErrorCode はOpenAIのレート制限エラーコード
	rateLimitErrorCode = "rate_limit_exceeded"
)

var (
	// ErrAPIKeyNotSet はAPIキーが設定されていない場合のエラー
	ErrAPIKeyNotSet = errors.New("OpenAI API key not set")

	// ErrNoChoices はレスポンスに選択肢が含まれない場合のエラー
	ErrNoChoices = errors.New("no completion choices returned")
)

// Client はOpenAI APIを使用したllm.Provider実装。
// 1回の操作につき外部呼び出しは1回のみで、内部リトライは行わない。
// フォールバックはResolverの責務である。
type Client struct {
	client  openai.Client
	models  []string
	timeout time.Duration
}

// NewClient はAPIキーとモデル候補リストを指定してClientを作成する。
// modelsが空の場合はデフォルトモデルのみが候補となる。
func NewClient(apiKey string, models []string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if len(models) == 0 {
		models = []string{DefaultModel}
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &Client{
		client:  client,
		models:  models,
		timeout: DefaultTimeout,
	}, nil
}

// SetTimeout はAPIコールのタイムアウトを設定する
func (c *Client) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
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

	raw, err := c.complete(ctx, model, summarizeTemperature, true, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(summary.SummarizeSystemPrompt),
		openai.UserMessage(prompt),
	})
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

	raw, err := c.complete(ctx, model, summarizeTemperature, true, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(summary.EditSystemPrompt),
		openai.UserMessage(prompt),
	})
	if err != nil {
		return summary.Summary{}, err
	}

	return summary.Normalize(summary.ParseLoose(raw)), nil
}

// Chat はサマリーを文脈としたチャット応答を自由文で返す
func (c *Client) Chat(ctx context.Context, history []summary.ChatMessage, current summary.Summary, model string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(summary.ChatSystemPrompt),
		openai.SystemMessage("Current summary JSON:\n" + summary.MarshalIndent(current)),
	}
	for _, m := range summary.NormalizeChat(history) {
		if m.Role == summary.RoleAssistant {
			messages = append(messages, openai.AssistantMessage(m.Content))
		} else {
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	raw, err := c.complete(ctx, model, chatTemperature, false, messages)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(raw), nil
}

// complete はChatCompletion APIを1回だけ呼び出す
func (c *Client) complete(ctx context.Context, model string, temperature float64, jsonMode bool, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(model),
		Messages:    messages,
		Temperature: openai.Float(temperature),
	}

	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", c.wrapError(model, err)
	}

	if len(completion.Choices) == 0 {
		return "", &llm.ProviderError{
			Provider: ProviderName,
			Model:    model,
			Err:      ErrNoChoices,
		}
	}

	return completion.Choices[0].Message.Content, nil
}

// wrapError はバックエンドのエラーをレート制限分類付きで包む。
// レート制限以外のエラーは分類を付けるのみで中身は変更しない。
func (c *Client) wrapError(model string, err error) error {
	statusCode := 0
	code := ""

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		statusCode = apiErr.StatusCode
		code = apiErr.Code
	}

	return &llm.ProviderError{
		Provider:    ProviderName,
		Model:       model,
		StatusCode:  statusCode,
		RateLimited: statusCode == 429 || code == rateLimitErrorCode,
		Err:         fmt.Errorf("OpenAI API call failed: %w", err),
	}
}

// インターフェース実装の確認
var _ llm.Provider = (*Client)(nil)
