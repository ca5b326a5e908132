package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/api"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/backend"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/config"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/logger"
)

// Headless server entry: the default config, the detected session, the
// HTTP API. The screenshot-gnome binary's serve command is the flagged
// version of the same thing.
func main() {
	configMgr, err := config.NewManager("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize config manager: %v\n", err)
		os.Exit(1)
	}
	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, true)

	log := logger.WithComponent("server")
	log.Info().Str("config", configMgr.GetConfigPath()).Msg("Configuration loaded")

	facade := backend.NewFacade(cfg.AttemptTimeout())
	info := facade.SessionInfo()
	log.Info().
		Str("display_server", info.Session.DisplayServer.String()).
		Str("environment", info.Label).
		Str("backends", info.BackendChain()).
		Msg("Session detected")

	server := api.NewServer(facade, configMgr)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(cfg.ServerPort)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Fatal().Err(err).Msg("Server error")
	case <-sigChan:
		log.Info().Msg("Shutting down")
	}
}
