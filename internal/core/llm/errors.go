package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrNoProviders は利用可能なプロバイダが1つもない場合のエラー
	ErrNoProviders = errors.New("no providers configured")

	// ErrUnknownProvider は未登録のプロバイダ名が指定された場合のエラー
	ErrUnknownProvider = errors.New("unknown provider")
)

// ProviderError はLLMバックエンド呼び出しの失敗を表す。
// RateLimitedの分類以外はバックエンドのエラーをそのまま運ぶ。
type ProviderError struct {
	// Provider は失敗したプロバイダ名
	Provider string

	// Model は失敗時に使用していたモデル名
	Model string

	// StatusCode はHTTPステータスコード（不明な場合は0）
	StatusCode int

	// RateLimited はレート制限として分類されたかどうか。
	// trueの場合のみプロバイダ内のモデルフォールバックを継続してよい。
	RateLimited bool

	// Err はバックエンドの元エラー
	Err error
}

func (e *ProviderError) Error() string {
	if e.RateLimited {
		return fmt.Sprintf("%s model %s rate limited: %v", e.Provider, e.Model, e.Err)
	}
	return fmt.Sprintf("%s model %s failed: %v", e.Provider, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRateLimited はエラーがレート制限として分類されているかどうかを返す
func IsRateLimited(err error) bool {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.RateLimited
	}
	return false
}

// ExhaustedError は全フォールバック候補が失敗したことを表す。
// 最後に発生したエラーのみを保持し、途中のエラーは保持しない。
type ExhaustedError struct {
	// Attempts は試行した候補数
	Attempts int

	// Last は最後の候補で発生したエラー
	Last error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all candidates exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}
