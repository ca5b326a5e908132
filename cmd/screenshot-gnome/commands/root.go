package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/backend"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/config"
	"github.com/rodsilvavieira2/screenshot-gnome/internal/logger"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "screenshot-gnome",
		Short: "Desktop-aware screenshot tool for Linux",
		Long: `screenshot-gnome captures screens, windows and regions on Linux desktops.

It detects the running desktop session (Hyprland, Sway, GNOME, KDE, plain
X11) and dispatches every capture to the best backend for that session,
falling back down a per-session chain when a backend is missing or fails:
compositor IPC where available, desktop D-Bus interfaces, and finally
generic native capture.`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/screenshot-gnome/config.yaml)")
	rootCmd.PersistentFlags().Int("port", 0, "server port (default is 8080)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("pretty", true, "human-readable console logs (false emits JSON)")

	// Bind flags to viper
	viper.BindPFlag("server_port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_pretty", rootCmd.PersistentFlags().Lookup("pretty"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// setup loads configuration, applies flag overrides, initializes logging
// and returns the capture facade every subcommand works through.
func setup() (*config.Manager, *config.Config, *backend.Facade, error) {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if viper.IsSet("log_level") {
		if level := viper.GetString("log_level"); level != "" {
			configMgr.SetLogLevel(level)
		}
	}

	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, viper.GetBool("log_pretty"))

	return configMgr, cfg, backend.NewFacade(cfg.AttemptTimeout()), nil
}
