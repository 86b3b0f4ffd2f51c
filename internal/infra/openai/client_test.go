package openai

import (
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/voxly/internal/core/llm"
)

// TestNewClient は初期化時の検証をテストする
func TestNewClient(t *testing.T) {
	t.Run("APIキーなしはエラー", func(t *testing.T) {
		_, err := NewClient("", nil)
		assert.ErrorIs(t, err, ErrAPIKeyNotSet)
	})

	t.Run("モデル未指定はデフォルトモデルのみが候補", func(t *testing.T) {
		client, err := NewClient("key", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{DefaultModel}, client.Models())
	})

	t.Run("Modelsは内部リストのコピーを返す", func(t *testing.T) {
		client, err := NewClient("key", []string{"gpt-4o", "gpt-4o-mini"})
		require.NoError(t, err)

		models := client.Models()
		models[0] = "mutated"
		assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, client.Models())
	})
}

// TestClient_WrapError はレート制限分類をテストする
func TestClient_WrapError(t *testing.T) {
	client, err := NewClient("key", nil)
	require.NoError(t, err)

	tests := []struct {
		name        string
		err         error
		rateLimited bool
	}{
		{
			name:        "HTTP 429はレート制限",
			err:         &openai.Error{StatusCode: 429},
			rateLimited: true,
		},
		{
			name:        "rate_limit_exceededコードはステータスによらずレート制限",
			err:         &openai.Error{StatusCode: 400, Code: "rate_limit_exceeded"},
			rateLimited: true,
		},
		{
			name:        "認証エラーはレート制限ではない",
			err:         &openai.Error{StatusCode: 401, Code: "invalid_api_key"},
			rateLimited: false,
		},
		{
			name:        "API型でないエラーはレート制限ではない",
			err:         assert.AnError,
			rateLimited: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := client.wrapError("gpt-4o-mini", tt.err)

			var perr *llm.ProviderError
			require.ErrorAs(t, wrapped, &perr)
			assert.Equal(t, ProviderName, perr.Provider)
			assert.Equal(t, "gpt-4o-mini", perr.Model)
			assert.Equal(t, tt.rateLimited, llm.IsRateLimited(wrapped))
		})
	}
}
