package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/msgledger/msgledger/internal/cli"
	"github.com/msgledger/msgledger/internal/common"
	"github.com/msgledger/msgledger/internal/enrich"
	"github.com/msgledger/msgledger/internal/match"
	"github.com/msgledger/msgledger/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage extraction rules",
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesToggleCmd("enable", true))
	cmd.AddCommand(rulesToggleCmd("disable", false))
	cmd.AddCommand(rulesDeleteCmd())
	cmd.AddCommand(rulesSuggestCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all extraction rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return common.NewUserError("failed to open database", err)
			}
			defer func() { _ = store.Close() }()

			rules, err := store.GetRules(ctx)
			if err != nil {
				return common.NewUserError("failed to load rules", err)
			}

			if len(rules) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No rules configured."))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render("Extraction rules"))
			for _, rule := range rules {
				state := cli.SuccessStyle.Render("enabled")
				if !rule.Enabled {
					state = cli.SubtleStyle.Render("disabled")
				}
				fmt.Printf("  [%d] %s (%s, priority %d, %s, matched %d)\n",
					rule.ID, cli.BoldStyle.Render(rule.Name), rule.Type,
					rule.Priority, state, rule.SuccessCount)
				if rule.LastError != "" {
					fmt.Printf("      %s %s\n", cli.ErrorStyle.Render("last error:"), rule.LastError)
				}
			}
			return nil
		},
	}
}

func rulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <rule.json>",
		Short: "Add a rule from a JSON definition",
		Long: `Add an extraction rule defined in a JSON file. Pattern fields accept
either a single string or an array of strings:

  {
    "name": "HDFC debit",
    "transaction_type": "expense",
    "enabled": true,
    "priority": 20,
    "sender_match": "HDFCBK",
    "amount_regex": "Rs\\.?\\s*([\\d,]+\\.?\\d*)",
    "merchant_extraction": [{"start_text": "to", "end_text": "on", "start_index": 1}]
  }`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0]) // #nosec G304 -- user-supplied input file
			if err != nil {
				return common.NewUserError("failed to read rule file", err)
			}

			var rule model.Rule
			if err := json.Unmarshal(data, &rule); err != nil {
				return common.NewUserError("rule file is not valid JSON", err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return common.NewUserError("failed to open database", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.AddRule(ctx, &rule); err != nil {
				return common.NewUserError("failed to add rule", err)
			}

			fmt.Printf("%s rule %q (id %d)\n", cli.SuccessStyle.Render("Added"), rule.Name, rule.ID)
			return nil
		},
	}

	return cmd
}

func rulesToggleCmd(use string, enabled bool) *cobra.Command {
	short := "Enable a rule"
	if !enabled {
		short = "Disable a rule"
	}

	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return common.NewUserError("rule id must be a number", err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return common.NewUserError("failed to open database", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.SetRuleEnabled(ctx, id, enabled); err != nil {
				return common.NewUserError("failed to update rule", err)
			}

			fmt.Printf("Rule %d %s\n", id, use+"d")
			return nil
		},
	}
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.Atoi(args[0])
			if err != nil {
				return common.NewUserError("rule id must be a number", err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return common.NewUserError("failed to open database", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRule(ctx, id); err != nil {
				return common.NewUserError("failed to delete rule", err)
			}

			fmt.Printf("Rule %d deleted\n", id)
			return nil
		},
	}
}

func rulesSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <messages.json>",
		Short: "Dry-run messages against the rules and report extraction hints",
		Long: `Evaluate a batch of messages without persisting anything. For each
message, reports which rule would match and what would be extracted; for
merchant names close to an already-known merchant, suggests the existing
spelling.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			msgs, err := loadMessages(args[0])
			if err != nil {
				return err
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
			history, err := store.GetTransactions(ctx)
			if err != nil {
				return common.NewUserError("failed to load transactions", err)
			}

			matcher := match.NewMatcher(store)
			for _, msg := range msgs {
				result, ok := matcher.Match(ctx, msg, rules)
				if !ok {
					fmt.Printf("%s %s: no rule matched\n",
						cli.WarningStyle.Render("unmatched"), msg.Sender)
					continue
				}

				fmt.Printf("%s %s: %.2f via rule %q, merchant %q\n",
					cli.SuccessStyle.Render("matched"), msg.Sender,
					result.Amount, result.Rule.Name, result.MerchantName)

				if known, found := enrich.SimilarMerchant(result.MerchantName, history); found {
					fmt.Printf("  %s did you mean %q?\n",
						cli.SubtleStyle.Render("hint:"), known)
				}
			}
			return nil
		},
	}
}
