package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/msgledger/msgledger/internal/cli"
	"github.com/msgledger/msgledger/internal/common"
	"github.com/msgledger/msgledger/internal/model"
	"github.com/msgledger/msgledger/internal/scan"
)

func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <messages.json>",
		Short: "Extract transactions from a batch of raw messages",
		Long: `Run the extraction rules over a batch of raw SMS or email messages and
persist the resulting transactions.

The input file is a JSON array of messages:

  [{"id": "...", "sender": "VM-HDFCBK", "text": "...", "date": "2023-05-12T10:30:00Z", "source": "sms"}]`,
		Args: cobra.ExactArgs(1),
		RunE: runScan,
	}

	cmd.Flags().Bool("no-progress", false, "Disable the progress bar")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	msgs, err := loadMessages(args[0])
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return common.NewUserError("no messages found in input file", common.ErrNoMessages)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return common.NewUserError("failed to open database", err)
	}
	defer func() { _ = store.Close() }()

	rules, err := store.GetRules(ctx)
	if err != nil {
		return common.NewUserError("failed to load rules", err)
	}
	if !hasEnabledRule(rules) {
		return common.NewUserError("add and enable at least one rule before scanning", common.ErrNoRules)
	}

	orchestrator := scan.New(store, store, scanConfig())

	noProgress, _ := cmd.Flags().GetBool("no-progress")
	if !noProgress {
		bar := progressbar.NewOptions(len(msgs),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("Scanning messages..."),
		)
		orchestrator.SetProgress(func(done, _ int) {
			_ = bar.Set(done)
		})
	}

	result, scanErr := orchestrator.Scan(ctx, msgs, rules)
	fmt.Println()
	printScanSummary(result)

	if scanErr != nil {
		return common.NewUserError("scan aborted", scanErr)
	}
	return nil
}

func hasEnabledRule(rules []model.Rule) bool {
	for _, rule := range rules {
		if rule.Enabled {
			return true
		}
	}
	return false
}

func loadMessages(path string) ([]model.RawMessage, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-supplied input file
	if err != nil {
		return nil, common.NewUserError("failed to read messages file", err)
	}

	var msgs []model.RawMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, common.NewUserError("messages file is not a valid JSON array", err)
	}

	return msgs, nil
}

func printScanSummary(result *scan.Result) {
	fmt.Println(cli.TitleStyle.Render("Scan summary"))
	fmt.Printf("  %s %d\n", cli.SuccessStyle.Render("Extracted: "), result.Success)
	fmt.Printf("  %s %d\n", cli.WarningStyle.Render("Duplicates:"), result.Duplicate)
	fmt.Printf("  %s %d\n", cli.SubtleStyle.Render("Skipped:   "), result.Skipped)
	fmt.Printf("  %s %d\n", cli.ErrorStyle.Render("Failed:    "), result.Failed)
	fmt.Printf("  %s %d\n", cli.BoldStyle.Render("Total:     "), result.TotalProcessed)

	for _, txn := range result.Transactions {
		fmt.Printf("  %s %s %.2f %s (%s)\n",
			cli.SubtleStyle.Render(txn.Date.Format("2006-01-02")),
			txn.MerchantName, txn.Amount, txn.Currency, txn.Type)
	}
}
