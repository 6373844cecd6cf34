package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"mp3player/internal/app/errors"
	"mp3player/internal/config"
)

const (
	// PollInterval paces workflow status checks while waiting.
	PollInterval = 5 * time.Second
	// WaitTimeout bounds one submission's wait.
	WaitTimeout = 30 * time.Minute
)

// Submitter starts transcription workflows and waits for them.
type Submitter struct {
	client    client.Client
	taskQueue string
	log       *zap.Logger
}

// NewSubmitter dials Temporal and returns a Submitter. Close it when
// done.
func NewSubmitter(cfg *config.TemporalConfig, log *zap.Logger) (*Submitter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c, err := Dial(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Submitter{client: c, taskQueue: cfg.TaskQueue, log: log}, nil
}

// Close releases the Temporal connection.
func (s *Submitter) Close() {
	s.client.Close()
}

// Submit starts a workflow for one file and returns its workflow id.
func (s *Submitter) Submit(ctx context.Context, req TranscribeRequest) (string, error) {
	if req.JobID == "" {
		req.JobID = uuid.New().String()
	}
	workflowID := "transcribe-" + req.JobID

	_, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: s.taskQueue,
	}, WorkflowName, req)
	if err != nil {
		return "", errors.Wrapf(err, "start workflow for %s", req.FilePath)
	}

	s.log.Info("submitted transcription job",
		zap.String("workflow_id", workflowID),
		zap.String("file", req.FilePath))
	return workflowID, nil
}

// ProgressFunc receives the workflow status on every poll.
type ProgressFunc func(status string)

// Wait polls the workflow every PollInterval until it finishes,
// failing after WaitTimeout.
func (s *Submitter) Wait(ctx context.Context, workflowID string, progress ProgressFunc) (*TranscribeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, WaitTimeout)
	defer cancel()

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			desc, err := s.client.DescribeWorkflowExecution(ctx, workflowID, "")
			if err != nil {
				return nil, errors.Wrap(err, "describe workflow")
			}

			status := desc.GetWorkflowExecutionInfo().GetStatus()
			if progress != nil {
				progress(status.String())
			}

			switch status {
			case enums.WORKFLOW_EXECUTION_STATUS_COMPLETED:
				var result TranscribeResult
				if err := s.client.GetWorkflow(ctx, workflowID, "").Get(ctx, &result); err != nil {
					return nil, errors.Wrap(err, "fetch workflow result")
				}
				return &result, nil
			case enums.WORKFLOW_EXECUTION_STATUS_FAILED,
				enums.WORKFLOW_EXECUTION_STATUS_CANCELED,
				enums.WORKFLOW_EXECUTION_STATUS_TERMINATED,
				enums.WORKFLOW_EXECUTION_STATUS_TIMED_OUT:
				return nil, errors.Newf("workflow %s ended with status %s", workflowID, status)
			}

		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, errors.Timeout("workflow wait", WaitTimeout.String())
			}
			return nil, ctx.Err()
		}
	}
}
