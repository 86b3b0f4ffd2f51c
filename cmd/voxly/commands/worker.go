package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/urfave/cli/v3"
)

// WorkerRunAction はイベントワーカーを起動するコマンドのアクション。
// PostgreSQLのNOTIFYで届く「音声アップロード済み」イベントを順に処理し、
// シグナルによるcontextキャンセルで停止する。
func WorkerRunAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	worker := appCtx.Container.NewWorker()

	slog.Info("イベントワーカーを起動します", "channel", appCtx.Config.Worker.EventChannel)

	if err := worker.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	return nil
}
