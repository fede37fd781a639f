package processor

import (
	"context"
	"log"

	"bramblemart/internal/app/worker/service"

	"github.com/robfig/cron/v3"
)

type CronScheduler struct {
	cron        *cron.Cron
	trendingSvc service.TrendingServiceInterface
}

func NewCronScheduler(trendingSvc service.TrendingServiceInterface) *CronScheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(log.Default())))

	return &CronScheduler{
		cron:        c,
		trendingSvc: trendingSvc,
	}
}

func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	log.Printf("Starting cron scheduler with schedule: %s", schedule)

	_, err := s.cron.AddFunc(schedule, func() {
		log.Println("Cron job triggered: recomputing trending scores")

		if err := s.trendingSvc.RecomputeTrendingScores(ctx); err != nil {
			log.Printf("ERROR: Failed to recompute trending scores: %v", err)
		} else {
			log.Println("Cron job completed: trending scores recomputed")
		}
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	log.Println("Cron scheduler started")

	log.Println("Performing initial trending scores recomputation...")
	if err := s.trendingSvc.RecomputeTrendingScores(ctx); err != nil {
		log.Printf("WARNING: Failed initial trending recomputation: %v", err)
	}

	return nil
}

func (s *CronScheduler) Stop() {
	log.Println("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
