package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/voxly/internal/core/llm"
	"github.com/jinford/voxly/internal/core/summary"
)

// queueSource は事前登録したイベントを順に配送し、
// 尽きたらcontextのキャンセルまでブロックするEventSource。
type queueSource struct {
	events []AudioUploadedEvent
}

func (q *queueSource) Next(ctx context.Context) (AudioUploadedEvent, error) {
	if len(q.events) == 0 {
		<-ctx.Done()
		return AudioUploadedEvent{}, ctx.Err()
	}
	ev := q.events[0]
	q.events = q.events[1:]
	return ev, nil
}

// flakySummarizer は指定回数失敗した後に成功するSummarizer
type flakySummarizer struct {
	failures int
	calls    int
}

func (f *flakySummarizer) Summarize(_ context.Context, _ string, _ summary.Template, _ llm.Options) (summary.Summary, error) {
	f.calls++
	if f.calls <= f.failures {
		return summary.Summary{}, errors.New("transient failure")
	}
	return summary.Empty(), nil
}

func runWorker(t *testing.T, w *Worker) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestWorker_RetriesTransientFailure は一時的な失敗のリトライをテストする
func TestWorker_RetriesTransientFailure(t *testing.T) {
	fx := newFixture(t, "")
	flaky := &flakySummarizer{failures: 2}
	service := NewService(fx.repo, fx.signer, fx.transcriber, flaky, nil, DefaultServiceConfig(), nil)

	source := &queueSource{events: []AudioUploadedEvent{
		{JobID: fx.jobID.String(), StorageKey: "k1"},
	}}
	w := NewWorker(source, service, 3, nil)
	w.SetRetryDelay(time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	err := w.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// 2回失敗して3回目で成功する
	assert.Equal(t, 3, flaky.calls)
	job := fx.repo.jobs[fx.jobID]
	assert.Equal(t, StatusDone, job.Status)
}

// TestWorker_GivesUpAfterMaxAttempts はリトライ上限をテストする
func TestWorker_GivesUpAfterMaxAttempts(t *testing.T) {
	fx := newFixture(t, "")
	flaky := &flakySummarizer{failures: 10}
	service := NewService(fx.repo, fx.signer, fx.transcriber, flaky, nil, DefaultServiceConfig(), nil)

	source := &queueSource{events: []AudioUploadedEvent{
		{JobID: fx.jobID.String(), StorageKey: "k1"},
	}}
	w := NewWorker(source, service, 3, nil)
	w.SetRetryDelay(time.Millisecond)

	runWorker(t, w)

	assert.Equal(t, 3, flaky.calls)
	assert.Equal(t, StatusError, fx.repo.jobs[fx.jobID].Status)
}

// TestWorker_DoesNotRetryNotFound はジョブ不在イベントの破棄をテストする
func TestWorker_DoesNotRetryNotFound(t *testing.T) {
	fx := newFixture(t, "")
	flaky := &flakySummarizer{}
	service := NewService(fx.repo, fx.signer, fx.transcriber, flaky, nil, DefaultServiceConfig(), nil)

	source := &queueSource{events: []AudioUploadedEvent{
		{JobID: uuid.NewString(), StorageKey: "k1"},
		{JobID: "", StorageKey: "k1"},
	}}
	w := NewWorker(source, service, 3, nil)
	w.SetRetryDelay(time.Millisecond)

	runWorker(t, w)

	// 不在・入力不正はリトライされずサマリー生成にも到達しない
	assert.Equal(t, 0, flaky.calls)
	assert.Empty(t, fx.repo.statusHistory)
}
