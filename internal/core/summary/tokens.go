package summary

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultTokenBudget はサマリー生成プロンプトに載せるトランスクリプトの
// デフォルトの最大トークン数
const DefaultTokenBudget = 100_000

// TokenClipper はトランスクリプトをトークン数上限に収める
type TokenClipper struct {
	encoding *tiktoken.Tiktoken
}

// NewTokenClipper は新しいTokenClipperを作成する。
// cl100k_baseエンコーディングを使用する。
func NewTokenClipper() (*TokenClipper, error) {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding: %w", err)
	}
	return &TokenClipper{encoding: encoding}, nil
}

// CountTokens はテキストのトークン数をカウントする
func (tc *TokenClipper) CountTokens(text string) int {
	if tc.encoding == nil {
		return 0
	}
	return len(tc.encoding.Encode(text, nil, nil))
}

// Clip はテキストをbudgetトークン以内に切り詰める。
// 収まっている場合は入力をそのまま返す。
func (tc *TokenClipper) Clip(text string, budget int) (string, int) {
	if tc.encoding == nil || budget <= 0 {
		return text, 0
	}
	tokens := tc.encoding.Encode(text, nil, nil)
	if len(tokens) <= budget {
		return text, len(tokens)
	}
	return tc.encoding.Decode(tokens[:budget]), budget
}
