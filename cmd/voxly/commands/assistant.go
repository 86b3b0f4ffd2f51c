package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/jinford/voxly/internal/core/llm"
	"github.com/jinford/voxly/internal/core/summary"
)

// resolveOptions はCLIフラグからLLM呼び出しオプションを組み立てる。
// --provider 未指定時は設定ファイルのプロバイダ選択に従う。
func resolveOptions(appCtx *AppContext, cmd *cli.Command) llm.Options {
	opts := llm.Options{
		Selection: llm.ParseSelection(appCtx.Config.LLMProvider),
		Model:     cmd.String("model"),
	}
	if provider := cmd.String("provider"); provider != "" {
		opts.Selection = llm.OnlyProvider(provider)
	}
	return opts
}

// logCandidatePlan はフォールバック候補の試行順をデバッグログに残す
func logCandidatePlan(appCtx *AppContext, opts llm.Options) {
	candidates, err := appCtx.Container.Resolver.Candidates(opts)
	if err != nil {
		return
	}
	plan := make([]string, 0, len(candidates))
	for _, c := range candidates {
		plan = append(plan, c.Provider+"/"+c.Model)
	}
	appCtx.Logger().Debug("フォールバック候補", "plan", plan)
}

// AssistantEditAction はサマリーへ編集指示を適用するコマンドのアクション
func AssistantEditAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	rawID := cmd.String("job-id")
	instruction := cmd.String("instruction")

	jobID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("job-idが不正です: %w", err)
	}

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	opts := resolveOptions(appCtx, cmd)
	logCandidatePlan(appCtx, opts)

	edited, err := appCtx.Container.Assistant.Edit(ctx, jobID, instruction, opts)
	if err != nil {
		slog.Error("サマリー編集に失敗しました", "jobID", rawID, "error", err)
		return err
	}

	fmt.Println(summary.MarshalIndent(edited))
	return nil
}

// AssistantChatAction はサマリーを文脈にチャット応答を生成するコマンドのアクション
func AssistantChatAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	rawID := cmd.String("job-id")
	message := cmd.String("message")

	jobID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("job-idが不正です: %w", err)
	}

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	opts := resolveOptions(appCtx, cmd)
	logCandidatePlan(appCtx, opts)

	history := []summary.ChatMessage{
		{Role: summary.RoleUser, Content: message},
	}

	reply, err := appCtx.Container.Assistant.Chat(ctx, jobID, history, opts)
	if err != nil {
		slog.Error("チャット応答の生成に失敗しました", "jobID", rawID, "error", err)
		return err
	}

	fmt.Println(reply)
	return nil
}
