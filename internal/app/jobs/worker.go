package jobs

import (
	"encoding/json"
	"net/http"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"mp3player/internal/app/errors"
	"mp3player/internal/config"
)

// WorkflowName identifies the single-file workflow at submission time.
const WorkflowName = "TranscribeFileWorkflow"

// Dial connects to the configured Temporal cluster.
func Dial(cfg *config.TemporalConfig, log *zap.Logger) (client.Client, error) {
	if !cfg.Enabled() {
		return nil, errors.Wrap(errors.ErrInvalidConfig, "distributed transcription requires TEMPORAL_HOST")
	}
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Host,
		Namespace: cfg.Namespace,
		Logger:    NewTemporalLogger(log),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "connect to temporal at %s", cfg.Host)
	}
	return c, nil
}

// WorkerOptions tunes RunWorker.
type WorkerOptions struct {
	// HealthAddr starts an HTTP health endpoint when non-empty,
	// e.g. ":8090".
	HealthAddr string
}

// RunWorker registers the workflow and activities on the task queue
// and blocks until interrupted.
func RunWorker(cfg *config.TemporalConfig, activities *Activities, opts WorkerOptions, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	c, err := Dial(cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	w := worker.New(c, cfg.TaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(TranscribeFileWorkflow, workflow.RegisterOptions{Name: WorkflowName})
	w.RegisterActivityWithOptions(activities.Transcribe, activity.RegisterOptions{Name: ActivityTranscribe})
	w.RegisterActivityWithOptions(activities.Persist, activity.RegisterOptions{Name: ActivityPersist})

	if opts.HealthAddr != "" {
		startHealthServer(opts.HealthAddr, cfg, log)
	}

	log.Info("transcription worker started",
		zap.String("host", cfg.Host),
		zap.String("task_queue", cfg.TaskQueue))
	return w.Run(worker.InterruptCh())
}

type healthStatus struct {
	Status    string    `json:"status"`
	TaskQueue string    `json:"task_queue"`
	Temporal  string    `json:"temporal"`
	StartedAt time.Time `json:"started_at"`
	UptimeSec float64   `json:"uptime_seconds"`
}

// startHealthServer serves liveness and readiness probes for
// containerized workers.
func startHealthServer(addr string, cfg *config.TemporalConfig, log *zap.Logger) {
	started := time.Now()
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(healthStatus{
			Status:    "healthy",
			TaskQueue: cfg.TaskQueue,
			Temporal:  cfg.Host,
			StartedAt: started,
			UptimeSec: time.Since(started).Seconds(),
		})
	})
	mux.HandleFunc("/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Warn("worker health server stopped", zap.Error(err))
		}
	}()
}
