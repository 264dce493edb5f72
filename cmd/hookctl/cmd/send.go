package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	sendState     string
	sendResource  string
	sendURL       string
	sendServiceID string
	sendUseGCS    string
	sendSummary   string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a synthetic alert payload to the server",
	Long: `Send a Google Cloud Monitoring shaped incident payload to the
webhook endpoint. Useful for verifying a deployment end to end without
waiting for a real uptime check to fail.`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendState, "state", "OPEN", "incident state (OPEN, CLOSED)")
	sendCmd.Flags().StringVar(&sendResource, "resource", "hookctl-test", "monitored resource name")
	sendCmd.Flags().StringVar(&sendURL, "url", "", "checked URL (default derived from resource)")
	sendCmd.Flags().StringVar(&sendServiceID, "service-id", "", "explicit service id, skips catalog resolution")
	sendCmd.Flags().StringVar(&sendUseGCS, "use-gcs", "", "per-request storage override (true or false)")
	sendCmd.Flags().StringVar(&sendSummary, "summary", "", "incident summary text")

	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	checkedURL := sendURL
	if checkedURL == "" {
		checkedURL = "https://" + sendResource + ".example.com/health"
	}
	summary := sendSummary
	if summary == "" {
		summary = fmt.Sprintf("%s is failing its uptime check", sendResource)
	}

	incident := map[string]any{
		"version": "1.2",
		"incident": map[string]any{
			"incident_id":    uuid.New().String(),
			"policy_name":    "uptime-check",
			"condition_name": "uptime-failure",
			"resource_name":  sendResource,
			"state":          sendState,
			"started_at":     time.Now().UTC().Format(time.RFC3339),
			"url":            checkedURL,
			"summary":        summary,
		},
	}
	body, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	target := serverURL + "/webhook/uptime"
	params := url.Values{}
	if sendServiceID != "" {
		params.Set("service_id", sendServiceID)
	}
	if sendUseGCS != "" {
		params.Set("use_gcs", sendUseGCS)
	}
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	PrintVerbose("POST %s", target)
	req, err := http.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t := webhookToken(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, respBody)
	}

	if GetOutput() == "json" {
		fmt.Println(string(respBody))
		return nil
	}
	fmt.Printf("delivered %s alert for %s\n", sendState, sendResource)
	fmt.Printf("  response: %s\n", respBody)
	return nil
}
