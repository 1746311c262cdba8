package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/veracity-tools/lorecheck/internal/pipeline"
)

var statusFile string

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show progress of a running or finished batch",
	Long: `Status reads the snapshot file a batch run keeps up to date and prints
the current stage, per-claim progress, and the most recent log lines.

Example:
  lorecheck status
  lorecheck status --file ./run/status.json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusFile, "file", "status.json", "batch status snapshot file")
}

// statusLogTail bounds the log lines printed
const statusLogTail = 10

func runStatus(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(statusFile)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no status file at %s (is a batch running with --status-file?)", statusFile)
		}
		return fmt.Errorf("read status file: %w", err)
	}

	var st pipeline.Status
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("parse status file: %w", err)
	}

	state := "finished"
	if st.Running {
		state = "running"
	}
	if st.Cancelled {
		state = "cancelled"
	}

	fmt.Printf("Stage:    %s (%s)\n", st.Stage, state)
	fmt.Printf("Progress: %d/%d claims\n", st.Done, st.Total)
	fmt.Printf("Started:  %s (%s ago)\n", st.StartedAt.Format(time.RFC3339), time.Since(st.StartedAt).Round(time.Second))

	if len(st.Log) > 0 {
		fmt.Println("\nRecent activity:")
		start := len(st.Log) - statusLogTail
		if start < 0 {
			start = 0
		}
		for _, line := range st.Log[start:] {
			fmt.Printf("  %s\n", line)
		}
	}
	return nil
}
