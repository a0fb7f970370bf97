package main

import (
	"github.com/GoCodeAlone/matchqueue/queue"
	"github.com/robfig/cron/v3"
)

// StatsSource is the subset of *queue.Coordinator the reporter samples.
type StatsSource interface {
	RecentMatches(limit int) []queue.Match
}

// StatsReporter periodically logs how many matches the Coordinator's
// recent-match history holds (at most 100). It runs independent of the
// Coordinator's own retry timer.
type StatsReporter struct {
	cron   *cron.Cron
	source StatsSource
	logger queue.Logger
}

// NewStatsReporter builds a StatsReporter that logs on the given cron
// schedule (e.g. "@every 1m").
func NewStatsReporter(schedule string, source StatsSource, logger queue.Logger) (*StatsReporter, error) {
	r := &StatsReporter{
		cron:   cron.New(),
		source: source,
		logger: logger,
	}
	if _, err := r.cron.AddFunc(schedule, r.report); err != nil {
		return nil, err
	}
	return r, nil
}

// Start begins running the reporter on its schedule.
func (r *StatsReporter) Start() { r.cron.Start() }

// Stop halts the reporter, waiting for any in-flight run to finish.
func (r *StatsReporter) Stop() { r.cron.Stop() }

func (r *StatsReporter) report() {
	matches := r.source.RecentMatches(100)
	if r.logger != nil {
		r.logger.Info("matchmaking stats", "recentMatchCount", len(matches))
	}
}
