package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fintrack-dev/fintrack/internal/ledger"
	"github.com/fintrack-dev/fintrack/internal/model"
	"github.com/fintrack-dev/fintrack/internal/transactions"
)

func newTxCommand(g *globalOptions) *cobra.Command {
	txCmd := &cobra.Command{
		Use:   "tx",
		Short: "Record and list transactions",
	}
	txCmd.AddCommand(
		newTxAddCommand(g),
		newTxListCommand(g),
		newTxTransferCommand(g),
	)
	return txCmd
}

type txAddOptions struct {
	account     string
	typ         string
	amount      string
	category    string
	description string
	date        string
	tags        []string
	purpose     string
	donation    string
	item        string
	notes       string
}

func newTxAddCommand(g *globalOptions) *cobra.Command {
	var opts txAddOptions

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an income or expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.open()
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := opts.params()
			if err != nil {
				return err
			}
			ref, err := a.txns.Add(cmd.Context(), p)
			if err != nil {
				return err
			}
			a.commit("tx: add " + ref.TransactionID)

			successColor.Fprintf(cmd.OutOrStdout(), "Recorded %s %s %s on %s\n", ref.TransactionID, p.Type, money(p.Amount), p.AccountID)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.account, "account", "", "account ID (required)")
	cmd.Flags().StringVar(&opts.typ, "type", string(model.TransactionExpense), "income or expense")
	cmd.Flags().StringVar(&opts.amount, "amount", "", "amount (required)")
	cmd.Flags().StringVar(&opts.category, "category", "", "category (required)")
	cmd.Flags().StringVar(&opts.description, "description", "", "description")
	cmd.Flags().StringVar(&opts.date, "date", "", "date YYYY-MM-DD (default today)")
	cmd.Flags().StringSliceVar(&opts.tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().StringVar(&opts.purpose, "purpose", "", "savings or donation")
	cmd.Flags().StringVar(&opts.donation, "donation", "", "portion of the amount donated")
	cmd.Flags().StringVar(&opts.item, "item", "", "record a linked purchase with this item name")
	cmd.Flags().StringVar(&opts.notes, "notes", "", "purchase notes")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func (o txAddOptions) params() (transactions.AddParams, error) {
	amount, err := parseAmount(o.amount)
	if err != nil {
		return transactions.AddParams{}, err
	}
	date, err := parseDate(o.date)
	if err != nil {
		return transactions.AddParams{}, err
	}
	p := transactions.AddParams{
		AccountID:   o.account,
		Type:        model.TransactionType(strings.ToLower(o.typ)),
		Amount:      amount,
		Category:    o.category,
		Description: o.description,
		Date:        date,
		Tags:        o.tags,
		Purpose:     model.Purpose(strings.ToLower(o.purpose)),
	}
	if o.donation != "" {
		d, err := parseAmount(o.donation)
		if err != nil {
			return transactions.AddParams{}, err
		}
		p.DonationAmount = &d
	}
	if o.item != "" {
		p.Purchase = &model.Purchase{
			ItemName: o.item,
			Category: o.category,
			Price:    amount,
			Date:     date,
			Notes:    o.notes,
		}
	}
	return p, nil
}

func newTxListCommand(g *globalOptions) *cobra.Command {
	var filter ledger.TransactionFilter
	var from, to, sortKey string
	var desc bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if from != "" {
				if filter.From, err = parseDate(from); err != nil {
					return err
				}
			}
			if to != "" {
				if filter.To, err = parseDate(to); err != nil {
					return err
				}
			}

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

			dir := ledger.Ascending
			if desc {
				dir = ledger.Descending
			}
			rows := ledger.FilterRows(txns, filter.Predicates(accts)...)
			rows = ledger.SortRows(rows, sortKey, dir, ledger.TransactionFields)

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No transactions.")
				return nil
			}
			names := make(map[string]string, len(accts))
			for _, acct := range accts {
				names[acct.ID] = acct.Name
			}
			tw := newTable(out)
			fmt.Fprintln(tw, "DATE\tID\tACCOUNT\tTYPE\tCATEGORY\tAMOUNT\tTAGS\tDESCRIPTION")
			for _, t := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					t.Date.Format(dateLayout), t.TransactionID, names[t.AccountID], t.Type, t.Category,
					money(t.Amount), strings.Join(t.Tags, ","), t.Description)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&filter.Search, "search", "", "match description, category or ID")
	cmd.Flags().StringVar(&filter.AccountID, "account", "", "account ID")
	cmd.Flags().StringVar(&filter.Category, "category", "", "category")
	cmd.Flags().StringVar(&filter.Type, "type", "", "income or expense")
	cmd.Flags().StringVar(&filter.Currency, "currency", "", "currency of the owning account")
	cmd.Flags().StringVar(&filter.Tag, "tag", "", "tag")
	cmd.Flags().StringVar(&from, "from", "", "first date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date YYYY-MM-DD")
	cmd.Flags().StringVar(&sortKey, "sort", "date", "sort key ("+strings.Join(ledger.TransactionFields.Keys(), ", ")+")")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")

	return cmd
}

func newTxTransferCommand(g *globalOptions) *cobra.Command {
	var fromID, toID, amount, date, description string

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move money between two accounts of the same currency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, err := parseAmount(amount)
			if err != nil {
				return err
			}
			d, err := parseDate(date)
			if err != nil {
				return err
			}

			a, err := g.open()
			if err != nil {
				return err
			}
			defer a.Close()

			out, in, err := a.txns.Transfer(cmd.Context(), transactions.TransferParams{
				FromID: fromID, ToID: toID, Amount: amt, Date: d, Description: description,
			})
			if err != nil {
				if out.TransactionID != "" {
					a.commit("tx: partial transfer " + out.TransactionID)
				}
				return err
			}
			a.commit(fmt.Sprintf("tx: transfer %s/%s", out.TransactionID, in.TransactionID))

			successColor.Fprintf(cmd.OutOrStdout(), "Transferred %s (%s, %s)\n", money(amt), out.TransactionID, in.TransactionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromID, "from", "", "source account ID (required)")
	cmd.Flags().StringVar(&toID, "to", "", "destination account ID (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount (required)")
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&description, "description", "", "description for both legs")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

