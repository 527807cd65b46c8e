package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fintrack-dev/fintrack/internal/dps"
	"github.com/fintrack-dev/fintrack/internal/server"
)

func newServeCommand(g *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and run scheduled DPS deposits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.open()
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			if spec := a.cfg.DPS.ContributionSchedule; spec != "" {
				sched, err := dps.NewScheduler(a.workflow, spec, a.log)
				if err != nil {
					return err
				}
				sched.Start()
				defer sched.Stop()
			}

			srv := server.New(server.Config{
				Addr:            addr,
				AllowedOrigins:  a.cfg.Server.AllowedOrigins,
				Store:           a.store,
				Workflow:        a.workflow,
				Classifier:      a.classifier,
				DefaultCurrency: a.cfg.Ledger.DefaultCurrency,
				Log:             a.log,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.log.Error().Err(err).Msg("Server forced to shutdown")
				return err
			}
			a.log.Info().Msg("Server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}
