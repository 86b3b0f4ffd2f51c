package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL はDeepgram APIのベースURL
	DefaultBaseURL = "https://api.deepgram.com"

	// DefaultModel はデフォルトの音声認識モデル
	DefaultModel = "nova-3"

	// DefaultLanguage はデフォルトの認識言語
	DefaultLanguage = "en"

	// DefaultTimeout はAPI呼び出しのデフォルトタイムアウト
	DefaultTimeout = 5 * time.Minute

	// fallbackStatusCode はステータス不明の失敗に割り当てるHTTPステータス
	fallbackStatusCode = http.StatusBadGateway
)

var (
	// ErrAPIKeyNotSet はAPIキーが設定されていない場合のエラー
	ErrAPIKeyNotSet = errors.New("Deepgram API key not set")

	// ErrMissingAudioURL は音声URLが空の場合のエラー
	ErrMissingAudioURL = errors.New("audio url is required")
)

// TranscriptionError は音声認識バックエンドの失敗を表す。
// パイプラインが一貫した失敗を呼び出し元へ返せるよう、
// HTTP形式のステータスコードを必ず保持する（不明時は502）。
type TranscriptionError struct {
	StatusCode int
	Err        error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed (status %d): %v", e.StatusCode, e.Err)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}

// Client はDeepgramの事前録音音声APIを呼び出すトランスクリプションゲートウェイ
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string

	model       string
	language    string
	smartFormat bool
}

// Option はClientの設定オプション
type Option func(*Client)

// WithBaseURL はAPIのベースURLを差し替える（テスト用）
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient はHTTPクライアントを差し替える
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithModel は音声認識モデルを指定する
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithLanguage は認識言語を指定する
func WithLanguage(language string) Option {
	return func(c *Client) {
		c.language = language
	}
}

// NewClient は新しいClientを作成する
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		baseURL:     DefaultBaseURL,
		apiKey:      apiKey,
		model:       DefaultModel,
		language:    DefaultLanguage,
		smartFormat: true,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// transcribeResponse はDeepgramレスポンスのうち依存する形のみを写す
type transcribeResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe は署名URLの音声をテキストに変換する。
// 最初のチャンネルの最初の候補のテキストを返し、使用可能な候補が
// ない場合は空文字列を返す。空を致命とするかは呼び出し側が決める。
func (c *Client) Transcribe(ctx context.Context, audioURL string) (string, error) {
	if audioURL == "" {
		return "", ErrMissingAudioURL
	}

	body, err := json.Marshal(map[string]string{"url": audioURL})
	if err != nil {
		return "", &TranscriptionError{StatusCode: fallbackStatusCode, Err: err}
	}

	query := url.Values{}
	query.Set("model", c.model)
	query.Set("language", c.language)
	query.Set("smart_format", strconv.FormatBool(c.smartFormat))

	endpoint := fmt.Sprintf("%s/v1/listen?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &TranscriptionError{StatusCode: fallbackStatusCode, Err: err}
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TranscriptionError{StatusCode: fallbackStatusCode, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &TranscriptionError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("deepgram returned %s: %s", resp.Status, strings.TrimSpace(string(payload))),
		}
	}

	var parsed transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &TranscriptionError{StatusCode: fallbackStatusCode, Err: fmt.Errorf("failed to decode deepgram response: %w", err)}
	}

	return extractTranscript(parsed), nil
}

// extractTranscript は最初のチャンネルの最初の候補のテキストを取り出す
func extractTranscript(resp transcribeResponse) string {
	if len(resp.Results.Channels) == 0 {
		return ""
	}
	alternatives := resp.Results.Channels[0].Alternatives
	if len(alternatives) == 0 {
		return ""
	}
	return strings.TrimSpace(alternatives[0].Transcript)
}
