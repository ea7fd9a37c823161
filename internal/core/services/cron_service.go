package services

import (
	"context"
	"time"

	"bondledger/internal/core/domain"
	"bondledger/internal/directory"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService drives the periodic ledger jobs: the coupon cycle and the
// maturity scan run once per configured schedule for every Bank party.
type CronService struct {
	coupons  *CouponService
	dir      directory.Directory
	schedule string
	cron     *cron.Cron
	log      *logrus.Entry
}

// NewCronService creates a new cron service. schedule is a standard cron
// expression, e.g. "0 6 * * *" for a daily run.
func NewCronService(coupons *CouponService, dir directory.Directory, schedule string, log *logrus.Logger) *CronService {
	return &CronService{
		coupons:  coupons,
		dir:      dir,
		schedule: schedule,
		cron:     cron.New(),
		log:      log.WithField("component", "cron"),
	}
}

// Start registers the jobs and launches the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runDailyJobs); err != nil {
		return err
	}
	s.cron.Start()
	s.log.WithField("schedule", s.schedule).Info("ledger scheduler started")
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("ledger scheduler stopped")
}

// runDailyJobs runs the coupon cycle followed by the maturity scan for every
// active Bank party
func (s *CronService) runDailyJobs() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	today := time.Now()

	banks, err := s.dir.ByRole(ctx, domain.RoleBank)
	if err != nil {
		s.log.WithError(err).Error("failed to list bank parties")
		return
	}

	for _, bank := range banks {
		if summary, err := s.coupons.RunCycle(ctx, bank.Name, today); err != nil {
			s.log.WithError(err).WithField("issuer", bank.Name).Error("coupon cycle failed")
		} else if summary.BondsPaid > 0 || summary.Failed > 0 {
			s.log.WithFields(logrus.Fields{
				"issuer": bank.Name,
				"paid":   summary.BondsPaid,
				"failed": summary.Failed,
			}).Info("scheduled coupon cycle done")
		}

		if summary, err := s.coupons.RunMaturityScan(ctx, bank.Name, today); err != nil {
			s.log.WithError(err).WithField("issuer", bank.Name).Error("maturity scan failed")
		} else if summary.BondsRedeemed > 0 || summary.Failed > 0 {
			s.log.WithFields(logrus.Fields{
				"issuer":   bank.Name,
				"redeemed": summary.BondsRedeemed,
				"failed":   summary.Failed,
			}).Info("scheduled maturity scan done")
		}
	}
}
