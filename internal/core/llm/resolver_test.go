package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/voxly/internal/core/summary"
)

// fakeProvider はテスト用のProvider実装。
// モデルごとの結果を事前に登録し、呼び出し順を記録する。
type fakeProvider struct {
	name    string
	models  []string
	results map[string]fakeResult
	calls   []string
}

type fakeResult struct {
	text string
	err  error
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Models() []string { return f.models }

func (f *fakeProvider) Summarize(_ context.Context, _ string, _ summary.Template, model string) (summary.Summary, error) {
	f.calls = append(f.calls, model)
	r := f.results[model]
	if r.err != nil {
		return summary.Summary{}, r.err
	}
	return summary.Summary{KeyPoints: []string{r.text}}, nil
}

func (f *fakeProvider) EditSummary(_ context.Context, current summary.Summary, _ string, model string) (summary.Summary, error) {
	f.calls = append(f.calls, model)
	r := f.results[model]
	if r.err != nil {
		return summary.Summary{}, r.err
	}
	return current, nil
}

func (f *fakeProvider) Chat(_ context.Context, _ []summary.ChatMessage, _ summary.Summary, model string) (string, error) {
	f.calls = append(f.calls, model)
	r := f.results[model]
	if r.err != nil {
		return "", r.err
	}
	return r.text, nil
}

func rateLimitErr(provider, model string) error {
	return &ProviderError{Provider: provider, Model: model, StatusCode: 429, RateLimited: true, Err: errors.New("rate limit exceeded")}
}

func hardErr(provider, model string, msg string) error {
	return &ProviderError{Provider: provider, Model: model, StatusCode: 500, Err: errors.New(msg)}
}

// TestResolver_RateLimitFallback はレート制限時のモデルフォールバックをテストする
func TestResolver_RateLimitFallback(t *testing.T) {
	p := &fakeProvider{
		name:   "gemini",
		models: []string{"m1", "m2", "m3", "m4"},
		results: map[string]fakeResult{
			"m1": {err: rateLimitErr("gemini", "m1")},
			"m2": {err: rateLimitErr("gemini", "m2")},
			"m3": {text: "ok"},
			"m4": {text: "never reached"},
		},
	}
	r, err := NewResolver([]Provider{p}, nil)
	require.NoError(t, err)

	got, err := r.Chat(context.Background(), nil, summary.Empty(), Options{})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	// 成功した時点で打ち切られ、4番目の候補は呼ばれない
	assert.Equal(t, []string{"m1", "m2", "m3"}, p.calls)
}

// TestResolver_NonRateLimitStopsModelFallback は非レート制限エラーで
// プロバイダ内のモデルフォールバックが停止することをテストする
func TestResolver_NonRateLimitStopsModelFallback(t *testing.T) {
	gemini := &fakeProvider{
		name:   "gemini",
		models: []string{"g1", "g2"},
		results: map[string]fakeResult{
			"g1": {err: hardErr("gemini", "g1", "invalid request")},
			"g2": {text: "unreachable"},
		},
	}
	openai := &fakeProvider{
		name:   "openai",
		models: []string{"o1"},
		results: map[string]fakeResult{
			"o1": {text: "from openai"},
		},
	}
	r, err := NewResolver([]Provider{gemini, openai}, nil)
	require.NoError(t, err)

	got, err := r.Chat(context.Background(), nil, summary.Empty(), Options{})

	require.NoError(t, err)
	assert.Equal(t, "from openai", got)
	// g2は試されず、プロバイダ間のフォールバックは常に次へ進む
	assert.Equal(t, []string{"g1"}, gemini.calls)
	assert.Equal(t, []string{"o1"}, openai.calls)
}

// TestResolver_ExhaustedCarriesLastError は全候補失敗時に
// 最後のエラーのみが保持されることをテストする
func TestResolver_ExhaustedCarriesLastError(t *testing.T) {
	lastErr := hardErr("openai", "o1", "server exploded")
	gemini := &fakeProvider{
		name:   "gemini",
		models: []string{"g1"},
		results: map[string]fakeResult{
			"g1": {err: rateLimitErr("gemini", "g1")},
		},
	}
	openai := &fakeProvider{
		name:   "openai",
		models: []string{"o1"},
		results: map[string]fakeResult{
			"o1": {err: lastErr},
		},
	}
	r, err := NewResolver([]Provider{gemini, openai}, nil)
	require.NoError(t, err)

	_, err = r.Summarize(context.Background(), "text", summary.TemplateDefault, Options{})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)
	// 先行するエラーは捨てられ、最後のエラーだけが残る
	assert.Equal(t, lastErr, exhausted.Last)
	assert.ErrorIs(t, err, lastErr.(*ProviderError).Err)
}

// TestResolver_OnlyProvider は単一プロバイダ固定をテストする
func TestResolver_OnlyProvider(t *testing.T) {
	gemini := &fakeProvider{
		name:    "gemini",
		models:  []string{"g1"},
		results: map[string]fakeResult{"g1": {text: "gemini answer"}},
	}
	openai := &fakeProvider{
		name:    "openai",
		models:  []string{"o1"},
		results: map[string]fakeResult{"o1": {text: "openai answer"}},
	}
	r, err := NewResolver([]Provider{gemini, openai}, nil)
	require.NoError(t, err)

	got, err := r.Chat(context.Background(), nil, summary.Empty(), Options{Selection: OnlyProvider("openai")})
	require.NoError(t, err)
	assert.Equal(t, "openai answer", got)
	assert.Empty(t, gemini.calls)

	t.Run("未登録のプロバイダはエラー", func(t *testing.T) {
		_, err := r.Chat(context.Background(), nil, summary.Empty(), Options{Selection: OnlyProvider("claude")})
		assert.ErrorIs(t, err, ErrUnknownProvider)
	})
}

// TestResolver_ExplicitModel は明示的なモデル指定をテストする
func TestResolver_ExplicitModel(t *testing.T) {
	p := &fakeProvider{
		name:   "gemini",
		models: []string{"g1", "g2"},
		results: map[string]fakeResult{
			"pinned": {text: "pinned answer"},
		},
	}
	r, err := NewResolver([]Provider{p}, nil)
	require.NoError(t, err)

	got, err := r.Chat(context.Background(), nil, summary.Empty(), Options{Model: "pinned"})
	require.NoError(t, err)
	assert.Equal(t, "pinned answer", got)
	assert.Equal(t, []string{"pinned"}, p.calls)
}

// TestResolver_Candidates は候補リストの構築をテストする
func TestResolver_Candidates(t *testing.T) {
	gemini := &fakeProvider{name: "gemini", models: []string{"g1", "g2"}}
	openai := &fakeProvider{name: "openai", models: []string{"o1"}}
	r, err := NewResolver([]Provider{gemini, openai}, nil)
	require.NoError(t, err)

	t.Run("既定順は構築順を保つ", func(t *testing.T) {
		got, err := r.Candidates(Options{})
		require.NoError(t, err)
		assert.Equal(t, []Candidate{
			{Provider: "gemini", Model: "g1"},
			{Provider: "gemini", Model: "g2"},
			{Provider: "openai", Model: "o1"},
		}, got)
	})

	t.Run("モデル指定時は各プロバイダ1候補", func(t *testing.T) {
		got, err := r.Candidates(Options{Model: "x"})
		require.NoError(t, err)
		assert.Equal(t, []Candidate{
			{Provider: "gemini", Model: "x"},
			{Provider: "openai", Model: "x"},
		}, got)
	})
}

// TestParseSelection は設定文字列からSelectionへの解決をテストする
func TestParseSelection(t *testing.T) {
	tests := []struct {
		in         string
		wantPinned string
	}{
		{"openai-only", "openai"},
		{"gemini-only", "gemini"},
		{"openai", ""},
		{"gemini", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run("input="+tt.in, func(t *testing.T) {
			sel := ParseSelection(tt.in)
			pinned, ok := sel.Pinned()
			if tt.wantPinned == "" {
				assert.False(t, ok)
			} else {
				assert.True(t, ok)
				assert.Equal(t, tt.wantPinned, pinned)
			}
		})
	}
}

// TestNewResolver_NoProviders はプロバイダなしでの初期化をテストする
func TestNewResolver_NoProviders(t *testing.T) {
	_, err := NewResolver(nil, nil)
	assert.ErrorIs(t, err, ErrNoProviders)
}
