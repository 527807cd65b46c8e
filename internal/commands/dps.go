package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fintrack-dev/fintrack/internal/dps"
	"github.com/fintrack-dev/fintrack/internal/model"
)

func newDPSCommand(g *globalOptions) *cobra.Command {
	dpsCmd := &cobra.Command{
		Use:   "dps",
		Short: "Manage recurring savings (DPS) accounts",
	}
	dpsCmd.AddCommand(
		newDPSAttachCommand(g),
		newDPSCloseCommand(g),
		newDPSResumeCommand(g),
		newDPSStatusCommand(g),
		newDPSContributeCommand(g),
	)
	return dpsCmd
}

func newDPSAttachCommand(g *globalOptions) *cobra.Command {
	var typ, amountType, amount string

	cmd := &cobra.Command{
		Use:   "attach <account-id>",
		Short: "Create a DPS account linked to an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := dps.AttachParams{
				Type:       model.DPSType(typ),
				AmountType: model.DPSAmountType(amountType),
			}
			if amount != "" {
				d, err := parseAmount(amount)
				if err != nil {
					return err
				}
				p.FixedAmount = &d
			}

			a, err := g.open()
			if err != nil {
				return err
			}
			defer a.Close()

			sub, err := a.workflow.Attach(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			a.commit("dps: attach " + sub.Name)

			successColor.Fprintf(cmd.OutOrStdout(), "Created DPS account %s (%s)\n", sub.Name, sub.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&typ, "type", string(model.DPSTypeMonthly), "monthly or flexible")
	cmd.Flags().StringVar(&amountType, "amount-type", string(model.DPSAmountFixed), "fixed or custom")
	cmd.Flags().StringVar(&amount, "amount", "", "fixed deposit amount")

	return cmd
}

func newDPSCloseCommand(g *globalOptions) *cobra.Command {
	var to string
	var yes bool

	cmd := &cobra.Command{
		Use:   "close <account-id>",
		Short: "Close the DPS account of an account and move its balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest, err := dps.ParseDestination(to)
			if err != nil {
				return err
			}

			a, err := g.open()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			c, err := a.workflow.Begin(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Closing %s: %s %s will be moved to the %s.\n", c.SubName, money(c.Amount), c.Currency, describeDestination(dest))
			if !yes {
				ok, err := confirm(cmd.InOrStdin(), out, "Proceed?")
				if err != nil {
					return err
				}
				if !ok {
					if err := a.workflow.Cancel(ctx, c); err != nil {
						return err
					}
					warnColor.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			err = a.workflow.Confirm(ctx, c, dest)
			a.commit("dps: close " + c.SubName)
			if err != nil {
				reportClosure(out, c)
				return err
			}
			successColor.Fprintf(out, "Closed %s (closure %s)\n", c.SubName, c.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", string(dps.DestinationPrimary), "destination: primary or cash_wallet")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	return cmd
}

func newDPSResumeCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <closure-id>",
		Short: "Retry a failed or interrupted DPS closure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open()
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			c, err := a.workflow.Resume(cmd.Context(), args[0])
			if c != nil {
				a.commit("dps: resume closure " + c.ID)
			}
			if err != nil {
				if c != nil {
					reportClosure(out, c)
				}
				return err
			}
			successColor.Fprintf(out, "Closure %s is %s\n", c.ID, c.State)
			return nil
		},
	}
}

func newDPSStatusCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status [closure-id]",
		Short: "Show DPS closures",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open()
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				c, err := a.workflow.Status(args[0])
				if err != nil {
					return err
				}
				reportClosure(out, c)
				return nil
			}

			closures, err := a.workflow.List()
			if err != nil {
				return err
			}
			if len(closures) == 0 {
				fmt.Fprintln(out, "No DPS closures.")
				return nil
			}
			tw := newTable(out)
			fmt.Fprintln(tw, "ID\tACCOUNT\tAMOUNT\tDESTINATION\tSTATE\tUPDATED")
			for _, c := range closures {
				state := string(c.State)
				if c.State == dps.StateFailed {
					state += " (" + string(c.FailedStep) + ")"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\t%s\t%s\n",
					c.ID, c.SubName, money(c.Amount), c.Currency, c.Destination, state, c.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}

func newDPSContributeCommand(g *globalOptions) *cobra.Command {
	var amount, date string

	cmd := &cobra.Command{
		Use:   "contribute <account-id>",
		Short: "Move a deposit from an account into its DPS account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amt := decimal.Zero
			if amount != "" {
				var err error
				if amt, err = parseAmount(amount); err != nil {
					return err
				}
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

			out, in, err := a.workflow.Contribute(cmd.Context(), args[0], amt, d)
			if err != nil {
				return err
			}
			a.commit(fmt.Sprintf("dps: contribute %s/%s", out.TransactionID, in.TransactionID))

			successColor.Fprintf(cmd.OutOrStdout(), "Deposited (%s, %s)\n", out.TransactionID, in.TransactionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "amount (default the fixed DPS amount)")
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default today)")

	return cmd
}

func describeDestination(d dps.Destination) string {
	if d == dps.DestinationCashWallet {
		return "cash wallet"
	}
	return "primary account"
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func reportClosure(out io.Writer, c *dps.Closure) {
	fmt.Fprintf(out, "Closure:     %s\n", c.ID)
	fmt.Fprintf(out, "Account:     %s (%s)\n", c.SubName, c.SubID)
	fmt.Fprintf(out, "Amount:      %s %s\n", money(c.Amount), c.Currency)
	if c.Destination != "" {
		fmt.Fprintf(out, "Destination: %s %s\n", describeDestination(c.Destination), c.DestinationID)
	}
	if c.TransferTxnID != "" {
		fmt.Fprintf(out, "Transfer:    %s\n", c.TransferTxnID)
	}
	switch c.State {
	case dps.StateDone:
		successColor.Fprintf(out, "State:       %s\n", c.State)
	case dps.StateFailed:
		failColor.Fprintf(out, "State:       failed while %s: %s\n", c.FailedStep, c.Err)
		if c.Partial() {
			warnColor.Fprintln(out, "Some steps completed and were not rolled back.")
		}
		fmt.Fprintf(out, "Resume with: fintrack dps resume %s\n", c.ID)
	default:
		fmt.Fprintf(out, "State:       %s\n", c.State)
	}
}
