package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/jinford/voxly/cmd/voxly/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 構造化ログの設定
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	envFlag := &cli.StringFlag{
		Name:  "env",
		Usage: "環境変数ファイルパス",
		Value: ".env",
	}

	app := &cli.Command{
		Name:  "voxly",
		Usage: "音声メモの文字起こしとLLMサマリー生成パイプライン",
		Commands: []*cli.Command{
			{
				Name:  "worker",
				Usage: "イベントワーカー管理コマンド",
				Commands: []*cli.Command{
					{
						Name:   "run",
						Usage:  "イベントワーカーを起動",
						Flags:  []cli.Flag{envFlag},
						Action: commands.WorkerRunAction,
					},
				},
			},
			{
				Name:  "process",
				Usage: "ジョブのパイプラインを手動実行",
				Flags: []cli.Flag{
					envFlag,
					&cli.StringFlag{
						Name:     "job-id",
						Usage:    "ジョブID (UUID)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "storage-key",
						Usage:    "音声ファイルのストレージキー",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "template",
						Usage: "サマリーテンプレート (default/brainstorm/interview/lecture/voice-memo)",
					},
					&cli.StringFlag{
						Name:  "bucket",
						Usage: "バケット名（省略時はデフォルトバケット）",
					},
					&cli.BoolFlag{
						Name:  "notify",
						Usage: "自分で処理せず稼働中のワーカーへイベントを発行",
					},
				},
				Action: commands.ProcessAction,
			},
			{
				Name:  "job",
				Usage: "ジョブ管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "ジョブ一覧を表示",
						Flags: []cli.Flag{
							envFlag,
							&cli.IntFlag{
								Name:  "limit",
								Usage: "表示件数の上限",
								Value: 50,
							},
						},
						Action: commands.JobListAction,
					},
					{
						Name:  "show",
						Usage: "ジョブ詳細を表示",
						Flags: []cli.Flag{
							envFlag,
							&cli.StringFlag{
								Name:     "job-id",
								Usage:    "ジョブID (UUID)",
								Required: true,
							},
						},
						Action: commands.JobShowAction,
					},
				},
			},
			{
				Name:  "assistant",
				Usage: "確定済みサマリーへのアシスタント操作",
				Commands: []*cli.Command{
					{
						Name:  "edit",
						Usage: "サマリーに自然言語の編集指示を適用",
						Flags: []cli.Flag{
							envFlag,
							&cli.StringFlag{
								Name:     "job-id",
								Usage:    "ジョブID (UUID)",
								Required: true,
							},
							&cli.StringFlag{
								Name:     "instruction",
								Usage:    "編集指示",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "provider",
								Usage: "プロバイダ固定 (openai/gemini)",
							},
							&cli.StringFlag{
								Name:  "model",
								Usage: "モデル固定",
							},
						},
						Action: commands.AssistantEditAction,
					},
					{
						Name:  "chat",
						Usage: "サマリーを文脈にチャット応答を生成",
						Flags: []cli.Flag{
							envFlag,
							&cli.StringFlag{
								Name:     "job-id",
								Usage:    "ジョブID (UUID)",
								Required: true,
							},
							&cli.StringFlag{
								Name:     "message",
								Usage:    "ユーザーメッセージ",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "provider",
								Usage: "プロバイダ固定 (openai/gemini)",
							},
							&cli.StringFlag{
								Name:  "model",
								Usage: "モデル固定",
							},
						},
						Action: commands.AssistantChatAction,
					},
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
