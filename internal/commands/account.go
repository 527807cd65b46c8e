package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fintrack-dev/fintrack/internal/accounts"
	"github.com/fintrack-dev/fintrack/internal/ledger"
	"github.com/fintrack-dev/fintrack/internal/model"
	"github.com/fintrack-dev/fintrack/internal/store"
)

func newAccountCommand(g *globalOptions) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	accountCmd.AddCommand(
		newAccountListCommand(g),
		newAccountAddCommand(g),
		newAccountShowCommand(g),
		newAccountSetActiveCommand(g, "activate", true),
		newAccountSetActiveCommand(g, "deactivate", false),
	)
	return accountCmd
}

func newAccountListCommand(g *globalOptions) *cobra.Command {
	var filter ledger.AccountFilter
	var sortKey string
	var desc bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
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
			dir := ledger.Ascending
			if desc {
				dir = ledger.Descending
			}
			rows := ledger.FilterRows(accts, filter.Predicates()...)
			rows = ledger.SortRows(rows, sortKey, dir, ledger.AccountFields)

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No accounts.")
				return nil
			}
			tw := newTable(out)
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tCURRENCY\tBALANCE\tSTATUS\tDPS")
			for _, acct := range rows {
				status := "active"
				if !acct.IsActive {
					status = "inactive"
				}
				link := ""
				if acct.DPS.Linked() {
					link = "-> " + acct.DPS.SavingsAccountID
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					acct.ID, acct.Name, acct.Type, acct.Currency, money(acct.CalculatedBalance), status, link)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			for _, err := range accounts.NewService(accts).CheckDPSLinks() {
				warnColor.Fprintf(out, "warning: %v\n", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Search, "search", "", "match name or description")
	cmd.Flags().StringVar(&filter.Type, "type", "", "account type")
	cmd.Flags().StringVar(&filter.Currency, "currency", "", "currency code")
	cmd.Flags().StringVar(&filter.Status, "status", "", "active, inactive or all")
	cmd.Flags().StringVar(&sortKey, "sort", "name", "sort key ("+strings.Join(ledger.AccountFields.Keys(), ", ")+")")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")

	return cmd
}

func newAccountAddCommand(g *globalOptions) *cobra.Command {
	var name, typ, currency, initial, description string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.open()
			if err != nil {
				return err
			}
			defer a.Close()

			balance := decimal.Zero
			if initial != "" {
				if balance, err = parseAmount(initial); err != nil {
					return err
				}
			}
			if currency == "" {
				currency = a.cfg.Ledger.DefaultCurrency
			}

			acct, err := accounts.Create(cmd.Context(), a.store, accounts.NewAccountParams{
				Name:           name,
				Type:           model.AccountType(typ),
				Currency:       strings.ToUpper(currency),
				InitialBalance: balance,
				Description:    description,
			})
			if err != nil {
				return err
			}
			a.commit("account: add " + acct.Name)

			successColor.Fprintf(cmd.OutOrStdout(), "Created account %s (%s)\n", acct.Name, acct.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "account name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&typ, "type", string(model.AccountTypeChecking), "account type")
	cmd.Flags().StringVar(&currency, "currency", "", "currency code (default from config)")
	cmd.Flags().StringVar(&initial, "initial", "", "initial balance")
	cmd.Flags().StringVar(&description, "description", "", "description")

	return cmd
}

func newAccountShowCommand(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <account-id>",
		Short: "Show an account statement with running balances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open()
			if err != nil {
				return err
			}
			defer a.Close()
			return showStatement(cmd, a, args[0])
		},
	}
	return cmd
}

func showStatement(cmd *cobra.Command, a *app, id string) error {
	ctx := cmd.Context()
	accts, err := accounts.Load(ctx, a.store)
	if err != nil {
		return err
	}
	acct, ok := accts.Get(id)
	if !ok {
		return fmt.Errorf("account %s: %w", id, store.ErrNotFound)
	}
	txns, err := a.store.FetchTransactions(ctx)
	if err != nil {
		return fmt.Errorf("fetching transactions: %w", err)
	}
	lines := ledger.Statement(acct, ledger.ForAccount(id, txns))

	out := cmd.OutOrStdout()
	headColor.Fprintf(out, "%s (%s, %s)\n", acct.Name, acct.Type, acct.Currency)
	fmt.Fprintf(out, "Initial balance: %s\n", money(acct.InitialBalance))
	fmt.Fprintf(out, "Balance:         %s\n", signed(ledger.ClosingBalance(acct, lines)))
	if sub, ok := accts.LinkedDPS(id); ok {
		fmt.Fprintf(out, "DPS:             %s (%s, %s) balance %s\n", sub.Name, acct.DPS.Type, acct.DPS.AmountType, money(sub.CalculatedBalance))
	}
	if primary, ok := accts.PrimaryOf(id); ok {
		fmt.Fprintf(out, "DPS of:          %s\n", primary.Name)
	}
	fmt.Fprintln(out)

	if len(lines) == 0 {
		fmt.Fprintln(out, "No transactions.")
		return nil
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "DATE\tID\tCATEGORY\tAMOUNT\tBALANCE\tDESCRIPTION")
	for _, l := range lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			l.Transaction.Date.Format(dateLayout), l.Transaction.TransactionID, l.Transaction.Category,
			money(l.Transaction.Signed()), money(l.Balance), l.Transaction.Description)
	}
	return tw.Flush()
}

func newAccountSetActiveCommand(g *globalOptions, verb string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <account-id>",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := setActive(cmd.Context(), a, args[0], active, verb); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "Account %s %sd\n", args[0], verb)
			return nil
		},
	}
}

func setActive(ctx context.Context, a *app, id string, active bool, verb string) error {
	if err := accounts.SetActive(ctx, a.store, id, active); err != nil {
		return err
	}
	a.commit("account: " + verb + " " + id)
	return nil
}
