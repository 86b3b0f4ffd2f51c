package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jinford/voxly/internal/core/pipeline"
)

// DefaultChannel は音声アップロードイベントのNOTIFYチャンネル名
const DefaultChannel = "voxly_audio_uploaded"

// Listener はPostgreSQLのLISTEN/NOTIFYで音声アップロードイベントを
// 受信するpipeline.EventSource実装。専用コネクションを1本占有する。
type Listener struct {
	pool    *pgxpool.Pool
	channel string
	logger  *slog.Logger

	conn *pgxpool.Conn
}

// NewListener は新しいListenerを作成する。channelが空の場合はデフォルトを使う。
func NewListener(pool *pgxpool.Pool, channel string, logger *slog.Logger) *Listener {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{pool: pool, channel: channel, logger: logger}
}

// コンパイル時の型チェック
var _ pipeline.EventSource = (*Listener)(nil)

// Next は次のイベントが届くまでブロックする。
// 解釈できないペイロードは警告を出して読み飛ばし、待機を続ける。
func (l *Listener) Next(ctx context.Context) (pipeline.AudioUploadedEvent, error) {
	for {
		if err := l.ensureConn(ctx); err != nil {
			return pipeline.AudioUploadedEvent{}, err
		}

		notification, err := l.conn.Conn().WaitForNotification(ctx)
		if err != nil {
			l.release()
			if ctx.Err() != nil {
				return pipeline.AudioUploadedEvent{}, ctx.Err()
			}
			// コネクション断は次のNextで張り直すのではなく、その場で再接続して待機を続ける
			l.logger.Warn("通知待機が中断されました。再接続します", "error", err)
			continue
		}

		var event pipeline.AudioUploadedEvent
		if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
			l.logger.Warn("イベントペイロードを解釈できないため読み飛ばします",
				"payload", notification.Payload,
				"error", err,
			)
			continue
		}

		return event, nil
	}
}

// Close は占有中のコネクションをプールへ返す
func (l *Listener) Close() {
	l.release()
}

func (l *Listener) ensureConn(ctx context.Context) error {
	if l.conn != nil {
		return nil
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire listen connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+l.channel); err != nil {
		conn.Release()
		return fmt.Errorf("failed to listen on channel %s: %w", l.channel, err)
	}

	l.conn = conn
	l.logger.Info("イベントチャンネルを購読しました", "channel", l.channel)

	return nil
}

func (l *Listener) release() {
	if l.conn != nil {
		l.conn.Release()
		l.conn = nil
	}
}

// Publisher はNOTIFYで音声アップロードイベントを発行する。
// 手動再処理コマンドがパイプラインと同じ経路でイベントを流すために使う。
type Publisher struct {
	pool    *pgxpool.Pool
	channel string
}

// NewPublisher は新しいPublisherを作成する
func NewPublisher(pool *pgxpool.Pool, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{pool: pool, channel: channel}
}

// Publish はイベントをJSONペイロードとして発行する
func (p *Publisher) Publish(ctx context.Context, event pipeline.AudioUploadedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	if _, err := p.pool.Exec(ctx, "SELECT pg_notify($1, $2)", p.channel, string(payload)); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
