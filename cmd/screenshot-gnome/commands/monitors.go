package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var monitorsCmd = &cobra.Command{
	Use:   "monitors",
	Short: "List connected monitors",
	Long: `List connected monitors with their geometry, scale and refresh rate.

On Hyprland and Sway the listing comes from the compositor; on X11 it
comes from the display server. When no source answers, a single default
monitor is reported so region math still has something to work with.`,
	Example: `  # List monitors in table format (default)
  screenshot-gnome monitors

  # List monitors in JSON format
  screenshot-gnome monitors --format json`,
	RunE: runMonitors,
}

var monitorsFormat string

func init() {
	rootCmd.AddCommand(monitorsCmd)

	monitorsCmd.Flags().StringVarP(&monitorsFormat, "format", "f", "table", "output format (table or json)")
}

func runMonitors(cmd *cobra.Command, args []string) error {
	_, _, facade, err := setup()
	if err != nil {
		return err
	}

	monitors, err := facade.Monitors(context.Background())
	if err != nil {
		return fmt.Errorf("failed to enumerate monitors: %w", err)
	}

	switch monitorsFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(monitors)
	case "table":
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Name", "Geometry", "Scale", "Refresh", "Primary", "Builtin"})
		for _, m := range monitors {
			primary := ""
			if m.IsPrimary {
				primary = "yes"
			}
			builtin := ""
			if m.IsBuiltin {
				builtin = "yes"
			}
			t.AppendRow(table.Row{
				m.ID,
				m.Name,
				fmt.Sprintf("%dx%d+%d+%d", m.Width, m.Height, m.X, m.Y),
				fmt.Sprintf("%.2f", m.ScaleFactor),
				fmt.Sprintf("%.1f Hz", m.Frequency),
				primary,
				builtin,
			})
		}
		t.SetStyle(table.StyleColoredBright)
		t.Render()
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", monitorsFormat)
	}
}
