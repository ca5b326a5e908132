package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/api"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP capture server",
	Long: `Start the screenshot-gnome HTTP server.

The server exposes the detected session, window listings, monitor
information and capture endpoints over a REST API, plus a websocket
stream of window changes.`,
	Example: `  # Start server on default port (8080)
  screenshot-gnome serve

  # Start server on custom port
  screenshot-gnome serve --port 9090

  # Start with specific config file
  screenshot-gnome serve --config /path/to/config.yaml

  # Start with debug logging
  screenshot-gnome serve --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	configMgr, cfg, facade, err := setup()
	if err != nil {
		return err
	}

	// Override port from flag if provided
	if viper.IsSet("server_port") {
		if port := viper.GetInt("server_port"); port > 0 {
			if err := configMgr.SetPort(port); err != nil {
				return fmt.Errorf("failed to set port: %w", err)
			}
			cfg = configMgr.Get()
		}
	}

	log := logger.WithComponent("serve")
	log.Info().Str("config", configMgr.GetConfigPath()).Msg("Configuration loaded")

	info := facade.SessionInfo()
	log.Info().
		Str("display_server", info.Session.DisplayServer.String()).
		Str("environment", info.Label).
		Str("backends", info.BackendChain()).
		Msg("Session detected")

	server := api.NewServer(facade, configMgr)

	// Start server in a goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(cfg.ServerPort)
	}()

	fmt.Printf("screenshot-gnome server running on http://localhost:%d\n", cfg.ServerPort)
	fmt.Printf("  - API: http://localhost:%d/api\n", cfg.ServerPort)
	fmt.Println("  - Press Ctrl+C to stop")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-sigChan:
		fmt.Println()
		log.Info().Msg("Shutting down")
		return nil
	}
}
