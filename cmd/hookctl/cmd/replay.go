package cmd

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var replayDevReassign bool

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay the archived payloads through the server",
	Long: `Trigger a replay run on the server: every archived payload is
re-driven through normalization, resolution, and relational recording,
oldest first. Duplicate events are suppressed by the event store, so a
replay is safe to repeat.

With --dev-reassign each source host is mapped to a randomly chosen
catalog service. The server only honors it when replay.dev_reassign is
enabled in its configuration.`,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVar(&replayDevReassign, "dev-reassign", false, "randomly reassign events to catalog services")

	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	target := serverURL + "/webhook/uptime/replay"
	if replayDevReassign {
		target += "?dev_reassign=true"
	}

	PrintVerbose("POST %s", target)
	req, err := http.NewRequest(http.MethodPost, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if t := webhookToken(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}

	// Replay runs synchronously on the server and can take a while for a
	// large archive.
	client := &http.Client{Timeout: time.Hour}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("trigger replay: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body)
	}

	fmt.Println(string(body))
	return nil
}
