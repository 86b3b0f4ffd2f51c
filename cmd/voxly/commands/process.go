package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/jinford/voxly/internal/core/pipeline"
)

// ProcessAction はジョブ1件のパイプラインを手動で実行するコマンドのアクション。
// 失敗したジョブの再処理や、ワーカーを経由しない動作確認に使う。
// --notify 指定時は自分で処理せず、稼働中のワーカーへイベントを発行する。
func ProcessAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	jobID := cmd.String("job-id")
	storageKey := cmd.String("storage-key")
	template := cmd.String("template")
	bucket := cmd.String("bucket")
	notify := cmd.Bool("notify")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	event := pipeline.AudioUploadedEvent{
		JobID:      jobID,
		StorageKey: storageKey,
		Template:   template,
		Bucket:     bucket,
	}

	if notify {
		if err := appCtx.Container.Publisher.Publish(ctx, event); err != nil {
			return err
		}
		slog.Info("イベントを発行しました", "jobID", jobID)
		return nil
	}

	result, err := appCtx.Container.Pipeline.Process(ctx, event)
	if err != nil {
		slog.Error("パイプライン実行に失敗しました", "jobID", jobID, "error", err)
		return err
	}

	fmt.Printf("処理が完了しました: %s\n", result.JobID)
	return nil
}
