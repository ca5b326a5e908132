package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rodsilvavieira2/screenshot-gnome/internal/window"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List windows on the current desktop",
	Long: `List the windows the detected session's backends can see.

The listing comes from the first backend in the chain that answers:
compositor IPC on Hyprland and Sway, the desktop's D-Bus interface on
GNOME and KDE, the X client list elsewhere.`,
	Example: `  # List windows in table format (default)
  screenshot-gnome list

  # List windows in JSON format
  screenshot-gnome list --format json

  # Show only the focused window
  screenshot-gnome list --focused`,
	RunE: runList,
}

var (
	listFormat  string
	listFocused bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table or json)")
	listCmd.Flags().BoolVarP(&listFocused, "focused", "c", false, "show only the focused window")
}

func runList(cmd *cobra.Command, args []string) error {
	_, _, facade, err := setup()
	if err != nil {
		return err
	}

	windows, err := facade.ListWindows(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list windows: %w", err)
	}

	if listFocused {
		focused := make([]window.Info, 0, 1)
		for _, w := range windows {
			if w.Focused {
				focused = append(focused, w)
			}
		}
		windows = focused
	}

	switch listFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(windows)
	case "table":
		return printWindowsTable(windows)
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", listFormat)
	}
}

func printWindowsTable(windows []window.Info) error {
	if len(windows) == 0 {
		fmt.Println("No windows found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tWINDOW\tGEOMETRY\tWORKSPACE\tFOCUSED")
	fmt.Fprintln(w, "--\t------\t--------\t---------\t-------")

	for _, win := range windows {
		focused := ""
		if win.Focused {
			focused = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			win.ID, win.DisplayLabel(), win.Geometry, win.Workspace, focused)
	}

	return nil
}
