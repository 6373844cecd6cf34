package serve

import (
	"github.com/spf13/cobra"

	"mp3player/internal/app"
	"mp3player/internal/config"
	"mp3player/internal/server"
)

var (
	host string
	port string
)

func init() {
	Cmd.Flags().StringVar(&host, "host", "", "bind address (default M3P_SERVER_HOST)")
	Cmd.Flags().StringVar(&port, "port", "", "listen port (default M3P_SERVER_PORT)")
}

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the library over HTTP",
	Long: `Start the HTTP API: library files, segments, transcripts, providers,
stats, semantic search, Prometheus metrics and Swagger UI. Shuts down
gracefully on SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := app.InitializeApp(app.Options{JSONLog: true})
		if err != nil {
			return err
		}
		defer cleanup()

		cfg := config.GetServerConfig()
		if host != "" {
			cfg.Host = host
		}
		if port != "" {
			cfg.Port = port
		}

		deps := server.Dependencies{
			DB:       a.DB,
			Library:  a.Library,
			Searcher: a.Searcher,
			FilesDir: a.Dirs.Files,
		}
		if a.Stack != nil {
			deps.Orchestrator = a.Stack.Orchestrator
			deps.Registry = a.Stack.Registry
		}

		return server.New(cfg, deps, a.Log).Run()
	},
}
