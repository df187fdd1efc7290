package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/chamnan-dev/slipguard/internal/cli"
	"github.com/chamnan-dev/slipguard/internal/model"
)

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <directory>",
		Short: "Verify every screenshot in a directory",
		Long: `Verify every image file in a directory against the same expected
payment. Useful for sweeping a backlog of uploads after changing expected
recipients or thresholds.`,
		Args: cobra.ExactArgs(1),
		RunE: runBatch,
	}

	cmd.Flags().String("amount", "", "Expected amount")
	cmd.Flags().String("currency", "KHR", "Expected currency (KHR or USD)")
	cmd.Flags().StringSlice("recipient", nil, "Expected recipient name (repeatable)")
	cmd.Flags().String("account", "", "Expected recipient account number")
	cmd.Flags().String("bank", "", "Expected bank name")
	cmd.Flags().Float64("tolerance", 0, "Amount tolerance percent (default 5)")
	cmd.Flags().String("tenant", "", "Tenant id to attach to the results")

	return cmd
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".bmp":  true,
}

func runBatch(cmd *cobra.Command, args []string) error {
	entries, err := os.ReadDir(args[0])
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			images = append(images, filepath.Join(args[0], entry.Name()))
		}
	}
	sort.Strings(images)
	if len(images) == 0 {
		return fmt.Errorf("no image files found in %s", args[0])
	}

	expected, err := expectationFromFlags(cmd)
	if err != nil {
		return err
	}
	tenant, _ := cmd.Flags().GetString("tenant")

	store, err := openStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	engine, err := buildPipeline(store, slog.Default())
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(images),
		progressbar.OptionSetDescription("Verifying screenshots"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
	)

	var results []model.VerificationResult
	counts := map[model.VerificationStatus]int{}
	for _, path := range images {
		image, readErr := os.ReadFile(path)
		if readErr != nil {
			slog.Warn("skipping unreadable file", "path", path, "error", readErr)
			_ = bar.Add(1)
			continue
		}

		vctx := model.VerificationContext{
			UploadedAt: time.Now(),
			InvoiceID:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			TenantID:   tenant,
		}
		result, verifyErr := engine.Verify(cmd.Context(), image, expected, vctx)
		if verifyErr != nil {
			slog.Warn("verification failed", "path", path, "error", verifyErr)
			_ = bar.Add(1)
			continue
		}
		results = append(results, *result)
		counts[result.Status]++
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	fmt.Println(cli.RenderResultTable(results))
	fmt.Println(cli.FormatInfo(fmt.Sprintf("verified %d, pending %d, rejected %d of %d screenshots",
		counts[model.StatusVerified], counts[model.StatusPending], counts[model.StatusRejected], len(images))))
	return nil
}
