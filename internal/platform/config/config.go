package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// Database設定
	Database DatabaseConfig

	// ログ設定
	Log LogConfig

	// OpenAI設定
	OpenAI OpenAIConfig

	// Gemini設定
	Gemini GeminiConfig

	// Deepgram設定（文字起こし）
	Deepgram DeepgramConfig

	// Storage設定（音声ファイルの署名URL発行）
	Storage StorageConfig

	// LLMProvider はプロバイダ選択（"all", "openai-only", "gemini-only"）
	LLMProvider string

	// TranscriptTokenBudget はサマリー入力のトークン上限
	TranscriptTokenBudget int

	// Worker設定
	Worker WorkerConfig
}

// DatabaseConfig はデータベース接続設定。
// DATABASE_URLが設定されている場合は個別パラメータより優先される。
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// LogConfig はログ出力設定
type LogConfig struct {
	Level  string
	Format string
}

// OpenAIConfig はOpenAI API設定
type OpenAIConfig struct {
	APIKey string
	// Models は優先順のモデル候補リスト
	Models []string
}

// GeminiConfig はGemini API設定
type GeminiConfig struct {
	APIKey string
	// Models は優先順のモデル候補リスト
	Models []string
}

// DeepgramConfig はDeepgram API設定
type DeepgramConfig struct {
	APIKey   string
	Model    string
	Language string
}

// StorageConfig はS3署名URL発行の設定
type StorageConfig struct {
	Region string
	Bucket string
	// SignTTLSeconds は署名URLの有効期間（秒）
	SignTTLSeconds int
}

// WorkerConfig はイベントワーカーの設定
type WorkerConfig struct {
	// MaxAttempts はイベント1件あたりのパイプライン実行回数の上限
	MaxAttempts int
	// EventChannel はLISTEN/NOTIFYのチャンネル名
	EventChannel string
}

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "voxly"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "voxly"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		OpenAI: OpenAIConfig{
			APIKey: getEnv("OPENAI_API_KEY", ""),
			Models: getEnvAsList("OPENAI_MODELS", []string{"gpt-4o-mini"}),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GOOGLE_GEMINI_API_KEY", getEnv("GEMINI_API_KEY", "")),
			Models: getEnvAsList("GEMINI_MODELS", []string{"gemini-2.5-flash"}),
		},
		Deepgram: DeepgramConfig{
			APIKey:   getEnv("DEEPGRAM_API_KEY", ""),
			Model:    getEnv("DEEPGRAM_MODEL", "nova-3"),
			Language: getEnv("DEEPGRAM_LANGUAGE", "en"),
		},
		Storage: StorageConfig{
			Region:         getEnv("AWS_REGION", "us-east-1"),
			Bucket:         getEnv("AUDIO_BUCKET", ""),
			SignTTLSeconds: getEnvAsInt("SIGNED_URL_TTL", 3600),
		},
		LLMProvider:           getEnv("LLM_PROVIDER", "all"),
		TranscriptTokenBudget: getEnvAsInt("TRANSCRIPT_TOKEN_BUDGET", 100_000),
		Worker: WorkerConfig{
			MaxAttempts:  getEnvAsInt("WORKER_MAX_ATTEMPTS", 3),
			EventChannel: getEnv("EVENT_CHANNEL", "voxly_audio_uploaded"),
		},
	}

	return cfg, nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList はカンマ区切りの環境変数をリストとして取得します
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
