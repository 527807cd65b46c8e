package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fintrack-dev/fintrack/internal/importer"
)

func newImportCommand(g *globalOptions) *cobra.Command {
	var accountID, format string
	cats := importer.DefaultCategories

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a bank CSV export into an account",
		Long: "Import a bank CSV export into an account. Without a file, every CSV in\n" +
			"<data>/import/ is imported and moved to import/processed/.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open()
			if err != nil {
				return err
			}
			defer a.Close()

			im := importer.New(a.store, a.txns, importer.DefaultRegistry(), a.log)
			format = strings.ToLower(format)

			var res importer.Result
			var importErr error
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening %s: %w", args[0], err)
				}
				res, importErr = im.Import(cmd.Context(), f, format, accountID, cats)
				f.Close()
			} else {
				res, importErr = im.ImportPending(cmd.Context(), a.dir, format, accountID, cats)
			}
			if res.Imported > 0 {
				a.commit(fmt.Sprintf("import: %d transactions into %s", res.Imported, accountID))
			}

			out := cmd.OutOrStdout()
			successColor.Fprintf(out, "Imported %d transactions", res.Imported)
			fmt.Fprintf(out, ", skipped %d already imported\n", res.Skipped)
			return importErr
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "account ID (required)")
	cmd.Flags().StringVar(&format, "format", "chase", "file format (chase or simple)")
	cmd.Flags().StringVar(&cats.Income, "income-category", cats.Income, "category for credits")
	cmd.Flags().StringVar(&cats.Expense, "expense-category", cats.Expense, "category for debits")
	cmd.Flags().StringVar(&cats.Transfer, "transfer-category", cats.Transfer, "category for transfers between own accounts")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}
