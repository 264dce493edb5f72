package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/statushook/internal/catalog"
)

var servicesPostgrestURL string

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List the monitored services in the catalog",
	RunE:  runServices,
}

func init() {
	servicesCmd.Flags().StringVar(&servicesPostgrestURL, "postgrest-url", "http://localhost:3000", "PostgREST base URL")

	rootCmd.AddCommand(servicesCmd)
}

func runServices(cmd *cobra.Command, args []string) error {
	client := catalog.NewClient(servicesPostgrestURL, 10*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	services, err := client.ListFull(ctx)
	if err != nil {
		return fmt.Errorf("list services: %w", err)
	}

	if GetOutput() == "json" {
		data, _ := json.MarshalIndent(services, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("%-38s %-24s %s\n", "SERVICE ID", "NAME", "URL")
	for _, s := range services {
		fmt.Printf("%-38s %-24s %s\n", s.ServiceID, s.Name, s.URL())
	}
	fmt.Printf("\n%d services\n", len(services))
	return nil
}
