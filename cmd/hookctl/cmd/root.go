// Package cmd contains the CLI commands for hookctl.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Used for flags
	verbose   bool
	output    string
	serverURL string
	token     string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hookctl",
	Short: "hookctl - statushook operations tool",
	Long: `hookctl drives a running statushook instance: it sends test alert
payloads, lists the event archive, triggers replays, and inspects the
service catalog.

Examples:
  # Send a synthetic down alert for a service
  hookctl send --resource my-api --state OPEN

  # Summarize the archived payloads in a bucket
  hookctl list --bucket uptime-archive

  # Replay the archive into the relational store
  hookctl replay

  # Show the monitored services
  hookctl services`,
	// Run when no subcommand is specified
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "statushook server URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "webhook token (defaults to STATUSHOOK_WEBHOOK_TOKEN)")
}

// GetOutput returns the output format.
func GetOutput() string {
	return output
}

// webhookToken resolves the credential for server calls.
func webhookToken() string {
	if token != "" {
		return token
	}
	return os.Getenv("STATUSHOOK_WEBHOOK_TOKEN")
}

// PrintError prints an error message and exits if fatal is true.
func PrintError(msg string, fatal bool) {
	fmt.Fprintln(os.Stderr, "Error:", msg)
	if fatal {
		os.Exit(1)
	}
}

// PrintVerbose prints a message only if verbose mode is enabled.
func PrintVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format+"\n", args...)
	}
}
