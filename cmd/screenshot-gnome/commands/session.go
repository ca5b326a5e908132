package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show the detected desktop session",
	Long: `Detect and display the current desktop session and the backend chain
captures will be dispatched to.

Detection never fails: when nothing identifies the desktop, the session is
reported as unknown and the generic backends are used.`,
	Example: `  # Show detected session
  screenshot-gnome session

  # Show detected session as JSON
  screenshot-gnome session --format json`,
	RunE: runSession,
}

var sessionFormat string

func init() {
	rootCmd.AddCommand(sessionCmd)

	sessionCmd.Flags().StringVarP(&sessionFormat, "format", "f", "text", "output format (text or json)")
}

func runSession(cmd *cobra.Command, args []string) error {
	_, _, facade, err := setup()
	if err != nil {
		return err
	}

	info := facade.SessionInfo()

	switch sessionFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(info)
	case "text":
		fmt.Printf("Display server: %s\n", info.Session.DisplayServer)
		fmt.Printf("Environment:    %s\n", info.Label)

		fmt.Println("Backend chain:")
		for i, b := range info.Backends {
			state := "unavailable"
			if b.Available {
				state = "available"
			}
			fmt.Printf("  %d. %s (%s) - %s\n", i+1, b.Name, b.Kind, state)
		}

		fmt.Println("Capture tools:")
		names := make([]string, 0, len(info.Tools))
		for name := range info.Tools {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			state := "missing"
			if info.Tools[name] {
				state = "installed"
			}
			fmt.Printf("  %-17s %s\n", name, state)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (use 'text' or 'json')", sessionFormat)
	}
}
