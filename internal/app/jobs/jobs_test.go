package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"mp3player/internal/app/api/provider"
	"mp3player/internal/app/errors"
	"mp3player/internal/app/testutil"
)

type stubOrchestrator struct {
	response *provider.TranscriptionResponse
	err      error
	gotReq   *provider.TranscriptionRequest
}

func (s *stubOrchestrator) Transcribe(ctx context.Context, req *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	s.gotReq = req
	return s.response, s.err
}

func TestTranscribeFileWorkflow(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflowWithOptions(TranscribeFileWorkflow, workflow.RegisterOptions{Name: WorkflowName})

	env.RegisterActivityWithOptions(
		func(ctx context.Context, req TranscribeRequest) (transcribeOutcome, error) {
			return transcribeOutcome{
				Text:     "hello world",
				Provider: "faster_whisper",
				Duration: 12.5,
			}, nil
		}, activity.RegisterOptions{Name: ActivityTranscribe})
	env.RegisterActivityWithOptions(
		func(ctx context.Context, in persistInput) (persistOutcome, error) {
			assert.Equal(t, "files/lesson.mp3", in.FilePath)
			assert.Equal(t, "hello world", in.Outcome.Text)
			return persistOutcome{TranscriptID: 42, SidecarPath: "files/lesson_transcription.txt"}, nil
		}, activity.RegisterOptions{Name: ActivityPersist})

	env.ExecuteWorkflow(WorkflowName, TranscribeRequest{
		JobID:    "job-1",
		FilePath: "files/lesson.mp3",
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result TranscribeResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, "job-1", result.JobID)
	assert.Equal(t, "hello world", result.Text)
	assert.Equal(t, "faster_whisper", result.Provider)
	assert.Equal(t, int64(42), result.TranscriptID)
	assert.Equal(t, "files/lesson_transcription.txt", result.SidecarPath)
}

func TestTranscribeFileWorkflowActivityFailure(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflowWithOptions(TranscribeFileWorkflow, workflow.RegisterOptions{Name: WorkflowName})

	env.RegisterActivityWithOptions(
		func(ctx context.Context, req TranscribeRequest) (transcribeOutcome, error) {
			return transcribeOutcome{}, errors.New("no provider could transcribe")
		}, activity.RegisterOptions{Name: ActivityTranscribe})
	env.RegisterActivityWithOptions(
		func(ctx context.Context, in persistInput) (persistOutcome, error) {
			t.Fatal("persist must not run after a failed transcription")
			return persistOutcome{}, nil
		}, activity.RegisterOptions{Name: ActivityPersist})

	env.ExecuteWorkflow(WorkflowName, TranscribeRequest{JobID: "job-2", FilePath: "x.mp3"})

	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
}

func TestTranscribeActivity(t *testing.T) {
	orch := &stubOrchestrator{
		response: &provider.TranscriptionResponse{
			Text:      "bonjour",
			Provider:  "openai",
			Language:  "fr",
			ModelUsed: "whisper-1",
			Duration:  7 * time.Second,
		},
	}
	a := NewActivities(orch, testutil.NewMemoryDAO(), afero.NewMemMapFs())

	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivityWithOptions(a.Transcribe, activity.RegisterOptions{Name: ActivityTranscribe})

	val, err := env.ExecuteActivity(ActivityTranscribe, TranscribeRequest{
		JobID:    "job-3",
		FilePath: "files/lesson.mp3",
		Provider: "openai",
		Language: "fr",
	})
	require.NoError(t, err)

	var outcome transcribeOutcome
	require.NoError(t, val.Get(&outcome))
	assert.Equal(t, "bonjour", outcome.Text)
	assert.Equal(t, "openai", outcome.Provider)
	assert.InDelta(t, 7.0, outcome.Duration, 1e-9)

	require.NotNil(t, orch.gotReq)
	assert.Equal(t, "openai", orch.gotReq.Provider)
	assert.Equal(t, "fr", orch.gotReq.Language)
}

func TestPersistActivity(t *testing.T) {
	dao := testutil.NewMemoryDAO()
	fs := afero.NewMemMapFs()
	a := NewActivities(&stubOrchestrator{}, dao, fs)

	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivityWithOptions(a.Persist, activity.RegisterOptions{Name: ActivityPersist})

	val, err := env.ExecuteActivity(ActivityPersist, persistInput{
		FilePath: "files/lesson.mp3",
		Outcome: transcribeOutcome{
			Text:     "persisted text",
			Provider: "whisper_cpp",
			Duration: 30,
		},
	})
	require.NoError(t, err)

	var out persistOutcome
	require.NoError(t, val.Get(&out))
	assert.NotZero(t, out.TranscriptID)
	assert.Equal(t, "files/lesson_transcription.txt", out.SidecarPath)

	data, err := afero.ReadFile(fs, out.SidecarPath)
	require.NoError(t, err)
	assert.Equal(t, "persisted text\n", string(data))

	rows, err := dao.GetAllByFile(context.Background(), "lesson.mp3")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "persisted text", rows[0].Text)
}

func TestTemporalLoggerNormalize(t *testing.T) {
	assert.Len(t, normalize([]interface{}{"k", "v"}), 2)
	assert.Len(t, normalize([]interface{}{"k"}), 2)

	// Smoke: adapter methods must accept odd keyvals without panicking.
	l := NewTemporalLogger(zap.NewNop())
	l.Info("message", "dangling")
	l.Error("message", "k", "v")
}
