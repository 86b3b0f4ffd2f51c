package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jinford/voxly/internal/core/pipeline"
	"github.com/jinford/voxly/internal/core/summary"
)

// querier はpgxpool.Poolとpgx.Txの共通部分
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// JobRepository は pipeline.JobRepository インターフェースを実装する PostgreSQL リポジトリです
type JobRepository struct {
	db querier
}

// NewJobRepository は新しい JobRepository を作成します
func NewJobRepository(db querier) *JobRepository {
	return &JobRepository{db: db}
}

// コンパイル時の型チェック
var _ pipeline.JobRepository = (*JobRepository)(nil)

const jobColumns = `id, storage_key, template, status, transcript,
	decisions, key_points, next_steps, action_items, created_at, updated_at`

func (r *JobRepository) GetJob(ctx context.Context, id uuid.UUID) (*pipeline.Job, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`,
		UUIDToPgtype(id),
	)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", pipeline.ErrJobNotFound, id)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

func (r *JobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status pipeline.Status) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE jobs SET status = $2, updated_at = now() WHERE id = $1`,
		UUIDToPgtype(id), string(status),
	)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", pipeline.ErrJobNotFound, id)
	}

	return nil
}

func (r *JobRepository) CompleteJob(ctx context.Context, id uuid.UUID, transcript string, s summary.Summary) error {
	s = summary.NormalizeSummary(s)

	tag, err := r.db.Exec(ctx,
		`UPDATE jobs SET
			status = $2,
			transcript = $3,
			decisions = $4,
			key_points = $5,
			next_steps = $6,
			action_items = $7,
			updated_at = now()
		WHERE id = $1`,
		UUIDToPgtype(id),
		string(pipeline.StatusDone),
		transcript,
		JSONBFromStringSlice(s.Decisions),
		JSONBFromStringSlice(s.KeyPoints),
		JSONBFromStringSlice(s.NextSteps),
		JSONBFromActionItems(s.ActionItems),
	)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", pipeline.ErrJobNotFound, id)
	}

	return nil
}

func (r *JobRepository) UpdateSummary(ctx context.Context, id uuid.UUID, s summary.Summary) error {
	s = summary.NormalizeSummary(s)

	tag, err := r.db.Exec(ctx,
		`UPDATE jobs SET
			decisions = $2,
			key_points = $3,
			next_steps = $4,
			action_items = $5,
			updated_at = now()
		WHERE id = $1`,
		UUIDToPgtype(id),
		JSONBFromStringSlice(s.Decisions),
		JSONBFromStringSlice(s.KeyPoints),
		JSONBFromStringSlice(s.NextSteps),
		JSONBFromActionItems(s.ActionItems),
	)
	if err != nil {
		return fmt.Errorf("failed to update job summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", pipeline.ErrJobNotFound, id)
	}

	return nil
}

func (r *JobRepository) ListJobs(ctx context.Context, limit int) ([]*pipeline.Job, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*pipeline.Job, 0, limit)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

// scanJob は1行をpipeline.Jobへ変換する。
// サマリー列はdone到達まですべてNULLであり、その場合Summaryはnilになる。
func scanJob(row pgx.Row) (*pipeline.Job, error) {
	var (
		id         pgtype.UUID
		storageKey string
		template   string
		status     string
		transcript pgtype.Text
		decisions  []byte
		keyPoints  []byte
		nextSteps  []byte
		actions    []byte
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
	)

	if err := row.Scan(&id, &storageKey, &template, &status, &transcript,
		&decisions, &keyPoints, &nextSteps, &actions, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	job := &pipeline.Job{
		ID:         PgtypeToUUID(id),
		StorageKey: storageKey,
		Template:   template,
		Status:     pipeline.Status(status),
		Transcript: PgtextToStringPtr(transcript),
		CreatedAt:  createdAt.Time,
		UpdatedAt:  updatedAt.Time,
	}

	if decisions != nil || keyPoints != nil || nextSteps != nil || actions != nil {
		s := summary.NormalizeSummary(summary.Summary{
			Decisions:   StringSliceFromJSONB(decisions),
			KeyPoints:   StringSliceFromJSONB(keyPoints),
			NextSteps:   StringSliceFromJSONB(nextSteps),
			ActionItems: ActionItemsFromJSONB(actions),
		})
		job.Summary = &s
	}

	return job, nil
}
