package worker

import (
	"github.com/spf13/cobra"

	"mp3player/internal/app"
	"mp3player/internal/app/jobs"
	"mp3player/internal/config"
)

var healthAddr string

func init() {
	Cmd.Flags().StringVar(&healthAddr, "health-addr", ":8090", "health endpoint address (empty to disable)")
}

// Cmd represents the worker command
var Cmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a distributed transcription worker",
	Long: `Run a Temporal worker that processes transcription workflows from the
task queue. Requires TEMPORAL_HOST; submit jobs with
"m3p transcribe --distributed".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := app.InitializeApp(app.Options{JSONLog: true})
		if err != nil {
			return err
		}
		defer cleanup()

		if err := a.RequireStack(); err != nil {
			return err
		}

		activities := jobs.NewActivities(a.Stack.Orchestrator, a.DB, a.FS)
		return jobs.RunWorker(config.GetTemporalConfig(), activities,
			jobs.WorkerOptions{HealthAddr: healthAddr}, a.Log)
	},
}
