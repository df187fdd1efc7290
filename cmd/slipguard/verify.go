package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/chamnan-dev/slipguard/internal/cli"
	"github.com/chamnan-dev/slipguard/internal/model"
)

func verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <screenshot>",
		Short: "Verify one payment screenshot",
		Long: `Run OCR over a payment screenshot and verify it against the expected
payment supplied through flags. Prints the verdict and every check that ran.`,
		Args: cobra.ExactArgs(1),
		RunE: runVerify,
	}

	cmd.Flags().String("amount", "", "Expected amount (e.g. 50000 or 12.50)")
	cmd.Flags().String("currency", "KHR", "Expected currency (KHR or USD)")
	cmd.Flags().StringSlice("recipient", nil, "Expected recipient name (repeatable)")
	cmd.Flags().String("account", "", "Expected recipient account number")
	cmd.Flags().String("bank", "", "Expected bank name")
	cmd.Flags().String("aliases", "", "JSON file of allowed alias groups ([{\"primary\":...,\"aliases\":[...]}])")
	cmd.Flags().Float64("tolerance", 0, "Amount tolerance percent (default 5)")
	cmd.Flags().String("invoice", "", "Invoice id to attach to the result")
	cmd.Flags().String("customer", "", "Customer id to attach to the result")
	cmd.Flags().String("tenant", "", "Tenant id to attach to the result")
	cmd.Flags().String("uploaded-at", "", "Upload time, RFC 3339 (default: now)")
	cmd.Flags().Bool("json", false, "Print the result as JSON")

	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	image, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read screenshot: %w", err)
	}

	expected, err := expectationFromFlags(cmd)
	if err != nil {
		return err
	}
	vctx, err := contextFromFlags(cmd)
	if err != nil {
		return err
	}

	store, err := openStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	engine, err := buildPipeline(store, slog.Default())
	if err != nil {
		return err
	}

	result, err := engine.Verify(cmd.Context(), image, expected, vctx)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	fmt.Println(cli.RenderResult(result))
	return nil
}

func expectationFromFlags(cmd *cobra.Command) (model.ExpectedPayment, error) {
	var expected model.ExpectedPayment

	if raw, _ := cmd.Flags().GetString("amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return expected, fmt.Errorf("invalid amount %q: %w", raw, err)
		}
		expected.Amount = &amount
	}

	currency, _ := cmd.Flags().GetString("currency")
	switch model.Currency(currency) {
	case model.CurrencyKHR, model.CurrencyUSD:
		expected.Currency = model.Currency(currency)
	default:
		return expected, fmt.Errorf("unsupported currency %q", currency)
	}

	expected.RecipientNames, _ = cmd.Flags().GetStringSlice("recipient")
	expected.ToAccount, _ = cmd.Flags().GetString("account")
	expected.Bank, _ = cmd.Flags().GetString("bank")
	expected.TolerancePercent, _ = cmd.Flags().GetFloat64("tolerance")

	if path, _ := cmd.Flags().GetString("aliases"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return expected, fmt.Errorf("failed to read aliases file: %w", err)
		}
		if err := json.Unmarshal(data, &expected.AllowedAliases); err != nil {
			return expected, fmt.Errorf("invalid aliases file %s: %w", path, err)
		}
	}

	return expected, nil
}

func contextFromFlags(cmd *cobra.Command) (model.VerificationContext, error) {
	vctx := model.VerificationContext{UploadedAt: time.Now()}

	if raw, _ := cmd.Flags().GetString("uploaded-at"); raw != "" {
		uploadedAt, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return vctx, fmt.Errorf("invalid uploaded-at %q: %w", raw, err)
		}
		vctx.UploadedAt = uploadedAt
	}

	vctx.InvoiceID, _ = cmd.Flags().GetString("invoice")
	vctx.CustomerID, _ = cmd.Flags().GetString("customer")
	vctx.TenantID, _ = cmd.Flags().GetString("tenant")
	return vctx, nil
}
