package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/jinford/voxly/internal/core/summary"
)

// JobListAction はジョブ一覧を表示するコマンドのアクション
func JobListAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	limit := cmd.Int("limit")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	jobs, err := appCtx.Container.Jobs.ListJobs(ctx, int(limit))
	if err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Println("ジョブがありません")
		return nil
	}

	for _, job := range jobs {
		fmt.Printf("%s  %-10s  %-12s  %s  %s\n",
			job.ID,
			job.Status,
			job.Template,
			job.CreatedAt.Format("2006-01-02 15:04:05"),
			job.StorageKey,
		)
	}

	return nil
}

// JobShowAction はジョブ詳細を表示するコマンドのアクション
func JobShowAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	rawID := cmd.String("job-id")

	jobID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("job-idが不正です: %w", err)
	}

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	job, err := appCtx.Container.Jobs.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	fmt.Printf("ID:          %s\n", job.ID)
	fmt.Printf("Status:      %s\n", job.Status)
	fmt.Printf("Template:    %s\n", job.Template)
	fmt.Printf("StorageKey:  %s\n", job.StorageKey)
	fmt.Printf("CreatedAt:   %s\n", job.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("UpdatedAt:   %s\n", job.UpdatedAt.Format("2006-01-02 15:04:05"))

	if job.Transcript != nil {
		fmt.Printf("\n--- Transcript ---\n%s\n", *job.Transcript)
	}
	if job.Summary != nil {
		fmt.Printf("\n--- Summary ---\n%s\n", summary.MarshalIndent(*job.Summary))
	}

	return nil
}
