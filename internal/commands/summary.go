package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fintrack-dev/fintrack/internal/ledger"
	"github.com/fintrack-dev/fintrack/internal/model"
)

func newSummaryCommand(g *globalOptions) *cobra.Command {
	var currency string
	var byCategory bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show income, expense, saved and donated totals for one currency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.open()
			if err != nil {
				return err
			}
			defer a.Close()

			accts, err := a.store.FetchAccounts(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching accounts: %w", err)
			}
			txns, err := a.store.FetchTransactions(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching transactions: %w", err)
			}

			if currency == "" {
				currency = a.cfg.Ledger.DefaultCurrency
			}
			currency = strings.ToUpper(currency)
			t := a.classifier.Aggregates(accts, txns, currency)

			out := cmd.OutOrStdout()
			headColor.Fprintf(out, "Summary (%s, %d transactions)\n", t.Currency, t.Count)
			fmt.Fprintf(out, "  Income:   %s\n", money(t.TotalIncome))
			fmt.Fprintf(out, "  Expense:  %s\n", money(t.TotalExpense))
			fmt.Fprintf(out, "  Saved:    %s\n", money(t.TotalSaved))
			fmt.Fprintf(out, "  Donated:  %s\n", money(t.TotalDonated))
			fmt.Fprintf(out, "  Net:      %s\n", signed(t.Net()))

			if others := otherCurrencies(ledger.Currencies(accts), currency); len(others) > 0 {
				warnColor.Fprintf(out, "Other currencies: %s\n", strings.Join(others, ", "))
			}

			if !byCategory {
				return nil
			}
			for _, typ := range []model.TransactionType{model.TransactionIncome, model.TransactionExpense} {
				totals := ledger.ByCategory(accts, txns, currency, typ)
				if len(totals) == 0 {
					continue
				}
				fmt.Fprintln(out)
				headColor.Fprintf(out, "%s by category\n", strings.ToUpper(string(typ[:1]))+string(typ[1:]))
				tw := newTable(out)
				for _, ct := range totals {
					fmt.Fprintf(tw, "  %s\t%s\t%d\n", ct.Category, money(ct.Amount), ct.Count)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "", "currency (default from config)")
	cmd.Flags().BoolVar(&byCategory, "by-category", false, "break totals down by category")

	return cmd
}

func otherCurrencies(all []string, current string) []string {
	var out []string
	for _, c := range all {
		if c != current {
			out = append(out, c)
		}
	}
	return out
}
