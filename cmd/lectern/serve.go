package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/lectern/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lectern server",
	Long: `Start the lectern HTTP server.

The server exposes the library and processing pipeline:
  - /health                                    - Server health check
  - /api/v1/books                              - Library listing and book submission
  - /api/v1/books/{id}/status                  - Processing status
  - /api/v1/books/{id}/chapters/{index}/audio  - Chapter narration audio

Examples:
  lectern serve                    # Start on default port 8080
  lectern serve --port 3000        # Start on custom port
  lectern serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		services, cleanup, err := buildServices(logger)
		if err != nil {
			return err
		}
		defer cleanup()

		services.Config.WatchConfig()

		cfg := services.Config.Get()
		host := serveHost
		if host == "" {
			host = cfg.Server.Host
		}
		port := servePort
		if port == "" {
			port = cfg.Server.Port
		}

		srv, err := server.New(server.Config{
			Host:     host,
			Port:     port,
			Services: services,
			Logger:   logger,
		})
		if err != nil {
			return err
		}

		// Blocks until shutdown.
		return srv.Start(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}
