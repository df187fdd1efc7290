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

func resultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "List stored verification results",
		RunE:  runResults,
	}

	cmd.Flags().String("status", "", "Filter by status (verified, pending, rejected)")
	cmd.Flags().String("tenant", "", "Filter by tenant id")
	cmd.Flags().Duration("since", 0, "Only show results uploaded within this duration (e.g. 72h)")
	cmd.Flags().Int("limit", 50, "Maximum number of results")
	cmd.Flags().String("record", "", "Show one result in full by record id")
	cmd.Flags().Bool("json", false, "Print as JSON")

	return cmd
}

func runResults(cmd *cobra.Command, _ []string) error {
	store, err := openStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	asJSON, _ := cmd.Flags().GetBool("json")

	if recordID, _ := cmd.Flags().GetString("record"); recordID != "" {
		result, getErr := store.GetVerificationResult(cmd.Context(), recordID)
		if getErr != nil {
			return getErr
		}
		if asJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		}
		fmt.Println(cli.RenderResult(result))
		return nil
	}

	status, _ := cmd.Flags().GetString("status")
	tenant, _ := cmd.Flags().GetString("tenant")
	since, _ := cmd.Flags().GetDuration("since")
	limit, _ := cmd.Flags().GetInt("limit")

	results, err := store.ListVerificationResults(cmd.Context(), service.ResultFilter{
		Status:   model.VerificationStatus(status),
		TenantID: tenant,
		Since:    sinceFlag(since),
		Limit:    limit,
	})
	if err != nil {
		return err
	}

	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}
	if len(results) == 0 {
		fmt.Println(cli.FormatInfo("no verification results found"))
		return nil
	}
	fmt.Println(cli.FormatTitle(fmt.Sprintf("Verification results (%d)", len(results))))
	fmt.Println(cli.RenderResultTable(results))
	return nil
}
