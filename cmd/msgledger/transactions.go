package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msgledger/msgledger/internal/cli"
	"github.com/msgledger/msgledger/internal/common"
	"github.com/msgledger/msgledger/internal/model"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Inspect extracted transactions",
	}

	cmd.AddCommand(transactionsListCmd())

	return cmd
}

func transactionsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List extracted transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			limit, _ := cmd.Flags().GetInt("limit")
			merchant, _ := cmd.Flags().GetString("merchant")

			store, err := initStorage(ctx)
			if err != nil {
				return common.NewUserError("failed to open database", err)
			}
			defer func() { _ = store.Close() }()

			var txns []model.Transaction
			if merchant != "" {
				txns, err = store.GetTransactionsByMerchant(ctx, merchant)
			} else {
				txns, err = store.GetTransactions(ctx)
			}
			if err != nil {
				return common.NewUserError("failed to load transactions", err)
			}

			if len(txns) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No transactions recorded."))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render("Transactions"))
			for i, txn := range txns {
				if limit > 0 && i >= limit {
					fmt.Printf("%s\n", cli.SubtleStyle.Render(fmt.Sprintf("  ... and %d more", len(txns)-limit)))
					break
				}
				sign := "-"
				if txn.Type == model.TypeIncome {
					sign = "+"
				}
				fmt.Printf("  %s  %s%.2f %s  %s  %s\n",
					cli.SubtleStyle.Render(txn.Date.Format("2006-01-02 15:04")),
					sign, txn.Amount, txn.Currency,
					cli.BoldStyle.Render(txn.MerchantName),
					cli.SubtleStyle.Render(txn.Category))
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 25, "Maximum transactions to display")
	cmd.Flags().String("merchant", "", "Filter by merchant name")

	return cmd
}
