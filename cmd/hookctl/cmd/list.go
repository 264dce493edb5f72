package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/statushook/internal/sink"
)

var (
	listBucket   string
	listLocalDir string
	listPrefix   string
	listLimit    int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Summarize the archived event payloads",
	Long: `List the archived payloads directly from the object store, newest
first. Points at the same bucket (or local directory) the server archives
to; the server itself is not involved.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listBucket, "bucket", "", "GCS bucket holding the archive")
	listCmd.Flags().StringVar(&listLocalDir, "local-dir", "", "local archive directory (instead of a bucket)")
	listCmd.Flags().StringVar(&listPrefix, "prefix", sink.DefaultPrefix, "archive object prefix")
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum objects to print (0 for all)")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if (listBucket == "") == (listLocalDir == "") {
		return fmt.Errorf("exactly one of --bucket or --local-dir is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var store sink.ObjectStore
	if listLocalDir != "" {
		fsStore, err := sink.NewFSStore(listLocalDir)
		if err != nil {
			return fmt.Errorf("open local archive: %w", err)
		}
		store = fsStore
	} else {
		gcsStore, err := sink.NewGCSStore(ctx, listBucket)
		if err != nil {
			return fmt.Errorf("open bucket: %w", err)
		}
		defer gcsStore.Close()
		store = gcsStore
	}

	objects, err := store.List(ctx, listPrefix)
	if err != nil {
		return fmt.Errorf("list archive: %w", err)
	}
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].Created.After(objects[j].Created)
	})

	if GetOutput() == "json" {
		data, _ := json.MarshalIndent(objects, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	shown := objects
	if listLimit > 0 && len(shown) > listLimit {
		shown = shown[:listLimit]
	}
	fmt.Printf("%-26s %s\n", "CREATED", "OBJECT")
	for _, obj := range shown {
		fmt.Printf("%-26s %s\n", obj.Created.UTC().Format(time.RFC3339), obj.Name)
	}
	fmt.Printf("\n%d archived payloads", len(objects))
	if len(shown) < len(objects) {
		fmt.Printf(" (%d shown)", len(shown))
	}
	fmt.Println()
	if len(objects) > 0 {
		oldest := objects[len(objects)-1].Created.UTC()
		newest := objects[0].Created.UTC()
		fmt.Printf("oldest: %s\nnewest: %s\n", oldest.Format(time.RFC3339), newest.Format(time.RFC3339))
	}
	return nil
}
