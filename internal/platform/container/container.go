package container

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jinford/voxly/internal/core/assistant"
	"github.com/jinford/voxly/internal/core/llm"
	"github.com/jinford/voxly/internal/core/pipeline"
	"github.com/jinford/voxly/internal/core/summary"
	"github.com/jinford/voxly/internal/infra/deepgram"
	"github.com/jinford/voxly/internal/infra/gemini"
	"github.com/jinford/voxly/internal/infra/openai"
	"github.com/jinford/voxly/internal/infra/postgres"
	"github.com/jinford/voxly/internal/infra/s3"
	"github.com/jinford/voxly/internal/platform/config"
	"github.com/jinford/voxly/internal/platform/database"
)

// Container はアプリケーションの依存関係を保持する。
// クライアントの生成と配線はすべてここで行い、各コアサービスは
// インターフェース越しに注入されたものだけを使う。
type Container struct {
	Pipeline  *pipeline.Service
	Assistant *assistant.Service
	Resolver  *llm.Resolver
	Jobs      pipeline.JobRepository
	Publisher *postgres.Publisher

	cfg      *config.Config
	logger   *slog.Logger
	database *database.DB
	listener *postgres.Listener
}

type containerOptions struct {
	logger      *slog.Logger
	providers   []llm.Provider
	transcriber pipeline.Transcriber
	signer      pipeline.URLSigner
}

// Option は Container 構築時のオプション
type Option func(*containerOptions)

// WithLogger はロガーを差し替える
func WithLogger(logger *slog.Logger) Option {
	return func(opts *containerOptions) {
		opts.logger = logger
	}
}

// WithProviders はLLMプロバイダリストを差し替える（優先順）
func WithProviders(providers ...llm.Provider) Option {
	return func(opts *containerOptions) {
		opts.providers = providers
	}
}

// WithTranscriber は文字起こしクライアントを差し替える
func WithTranscriber(t pipeline.Transcriber) Option {
	return func(opts *containerOptions) {
		opts.transcriber = t
	}
}

// WithURLSigner は署名URL発行を差し替える
func WithURLSigner(s pipeline.URLSigner) Option {
	return func(opts *containerOptions) {
		opts.signer = s
	}
}

// New は設定からコンテナを生成する。
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	db, err := database.New(ctx, database.ConnectionParams{
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("データベース初期化に失敗しました: %w", err)
	}

	c, err := NewWithDB(ctx, cfg, db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewWithDB は既存のデータベース接続を受け取りコンテナを生成する。
func NewWithDB(ctx context.Context, cfg *config.Config, db *database.DB, opts ...Option) (*Container, error) {
	options := containerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	// JobRepository (PostgreSQL)
	jobs := postgres.NewJobRepository(db.Pool)

	// LLMプロバイダ。既定の優先順は gemini → openai。
	providers := options.providers
	if providers == nil {
		built, err := buildProviders(ctx, cfg)
		if err != nil {
			return nil, err
		}
		providers = built
	}

	resolver, err := llm.NewResolver(providers, options.logger)
	if err != nil {
		return nil, fmt.Errorf("LLMリゾルバ初期化に失敗しました: %w", err)
	}

	// Transcriber (Deepgram)
	transcriber := options.transcriber
	if transcriber == nil {
		dg, err := deepgram.NewClient(
			cfg.Deepgram.APIKey,
			deepgram.WithModel(cfg.Deepgram.Model),
			deepgram.WithLanguage(cfg.Deepgram.Language),
		)
		if err != nil {
			return nil, fmt.Errorf("Deepgramクライアント初期化に失敗しました: %w", err)
		}
		transcriber = dg
	}

	// URLSigner (S3)
	signer := options.signer
	if signer == nil {
		s3Signer, err := s3.NewSigner(ctx, cfg.Storage.Region, cfg.Storage.Bucket)
		if err != nil {
			return nil, fmt.Errorf("S3署名クライアント初期化に失敗しました: %w", err)
		}
		signer = s3Signer
	}

	// TranscriptClipper (tiktoken)
	clipper, err := summary.NewTokenClipper()
	if err != nil {
		return nil, fmt.Errorf("トークンカウンタ初期化に失敗しました: %w", err)
	}

	pipelineService := pipeline.NewService(
		jobs,
		signer,
		transcriber,
		resolver,
		clipper,
		pipeline.ServiceConfig{
			SignTTL:     time.Duration(cfg.Storage.SignTTLSeconds) * time.Second,
			TokenBudget: cfg.TranscriptTokenBudget,
			Selection:   llm.ParseSelection(cfg.LLMProvider),
		},
		options.logger,
	)

	assistantService := assistant.NewService(jobs, resolver, options.logger)

	return &Container{
		Pipeline:  pipelineService,
		Assistant: assistantService,
		Resolver:  resolver,
		Jobs:      jobs,
		Publisher: postgres.NewPublisher(db.Pool, cfg.Worker.EventChannel),
		cfg:       cfg,
		logger:    options.logger,
		database:  db,
	}, nil
}

// buildProviders は設定済みのAPIキーからプロバイダリストを構築する。
// 少なくとも1つのプロバイダが設定されている必要がある。
func buildProviders(ctx context.Context, cfg *config.Config) ([]llm.Provider, error) {
	var providers []llm.Provider

	if cfg.Gemini.APIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Models)
		if err != nil {
			return nil, fmt.Errorf("Geminiクライアント初期化に失敗しました: %w", err)
		}
		providers = append(providers, client)
	}

	if cfg.OpenAI.APIKey != "" {
		client, err := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Models)
		if err != nil {
			return nil, fmt.Errorf("OpenAIクライアント初期化に失敗しました: %w", err)
		}
		providers = append(providers, client)
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("LLMプロバイダが設定されていません: GOOGLE_GEMINI_API_KEY または OPENAI_API_KEY を設定してください")
	}

	return providers, nil
}

// NewWorker はイベントワーカーを生成する。Listenerはコンテナが保持し、
// Closeで解放される。
func (c *Container) NewWorker() *pipeline.Worker {
	c.listener = postgres.NewListener(c.database.Pool, c.cfg.Worker.EventChannel, c.logger)
	return pipeline.NewWorker(c.listener, c.Pipeline, c.cfg.Worker.MaxAttempts, c.logger)
}

// Close は内部リソースを解放する。
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.listener != nil {
		c.listener.Close()
	}
	if c.database != nil {
		c.database.Close()
	}
}

// Logger はロガーを返す。
func (c *Container) Logger() *slog.Logger {
	if c == nil || c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// Database はデータベースを返す。
func (c *Container) Database() *database.DB {
	if c == nil {
		return nil
	}
	return c.database
}
