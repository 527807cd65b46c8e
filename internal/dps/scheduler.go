package dps

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/fintrack-dev/fintrack/internal/model"
)

// Scheduler records the fixed deposit of every monthly DPS on a cron spec.
type Scheduler struct {
	cron     *cron.Cron
	workflow *Workflow
	log      zerolog.Logger
}

// NewScheduler registers the contribution job. schedule uses standard
// five-field cron syntax or descriptors such as "@monthly".
func NewScheduler(wf *Workflow, schedule string, log zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(),
		workflow: wf,
		log:      log.With().Str("component", "dps-scheduler").Logger(),
	}
	_, err := s.cron.AddFunc(schedule, func() {
		n, err := s.RunOnce(context.Background())
		if err != nil {
			s.log.Error().Err(err).Int("recorded", n).Msg("DPS contributions failed")
			return
		}
		s.log.Debug().Int("recorded", n).Msg("DPS contributions recorded")
	})
	if err != nil {
		return nil, fmt.Errorf("parsing schedule %q: %w", schedule, err)
	}
	s.log.Info().Str("schedule", schedule).Msg("DPS contribution job registered")
	return s, nil
}

// Start starts the cron loop in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the cron loop and waits for a running job.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// Due reports whether a records an automatic deposit.
func Due(a model.Account) bool {
	return a.IsActive &&
		a.DPS.Linked() &&
		a.DPS.Type == model.DPSTypeMonthly &&
		a.DPS.AmountType == model.DPSAmountFixed &&
		a.DPS.FixedAmount != nil
}

// RunOnce contributes for every due account and returns how many deposits
// were recorded. One account failing does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	accts, err := s.workflow.store.FetchAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching accounts: %w", err)
	}

	var errs []error
	n := 0
	for _, a := range accts {
		if !Due(a) {
			continue
		}
		if _, _, err := s.workflow.Contribute(ctx, a.ID, *a.DPS.FixedAmount, s.workflow.now()); err != nil {
			errs = append(errs, fmt.Errorf("account %s: %w", a.ID, err))
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}
