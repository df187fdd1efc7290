package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chamnan-dev/slipguard/internal/cli"
	"github.com/chamnan-dev/slipguard/internal/model"
	"github.com/chamnan-dev/slipguard/internal/service"
)

func alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List fraud alerts",
		Long: `List fraud alerts raised by rejected verifications, newest first.
Filter by type, severity, or tenant to work the review queue.`,
		RunE: runAlerts,
	}

	cmd.Flags().String("type", "", "Filter by fraud type (e.g. OLD_SCREENSHOT)")
	cmd.Flags().String("severity", "", "Filter by severity (LOW, MEDIUM, HIGH, CRITICAL)")
	cmd.Flags().String("tenant", "", "Filter by tenant id")
	cmd.Flags().Duration("since", 0, "Only show alerts from within this duration (e.g. 168h)")
	cmd.Flags().Int("limit", 50, "Maximum number of alerts")
	cmd.Flags().Bool("json", false, "Print as JSON")

	return cmd
}

func runAlerts(cmd *cobra.Command, _ []string) error {
	store, err := openStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	fraudType, _ := cmd.Flags().GetString("type")
	severity, _ := cmd.Flags().GetString("severity")
	tenant, _ := cmd.Flags().GetString("tenant")
	since, _ := cmd.Flags().GetDuration("since")
	limit, _ := cmd.Flags().GetInt("limit")

	alerts, err := store.ListFraudAlerts(cmd.Context(), service.AlertFilter{
		FraudType: model.FraudType(fraudType),
		Severity:  model.Severity(severity),
		TenantID:  tenant,
		Since:     sinceFlag(since),
		Limit:     limit,
	})
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(alerts)
	}
	if len(alerts) == 0 {
		fmt.Println(cli.FormatInfo("no fraud alerts found"))
		return nil
	}
	fmt.Println(cli.FormatTitle(fmt.Sprintf("Fraud alerts (%d)", len(alerts))))
	fmt.Println(cli.RenderAlertTable(alerts))
	return nil
}
