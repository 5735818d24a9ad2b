// Package scheduler refreshes the dashboard snapshot on a cron schedule.
package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"incidentflow/internal/dashboard"
	"incidentflow/internal/notify"
)

// Start parses the 5-field cron expression and launches the refresh loop.
// An empty schedule disables the scheduler; an invalid one disables it with
// a log line rather than taking the process down.
func Start(schedule string, db *sql.DB, agg *dashboard.Aggregator, exportDir string, notifier *notify.Notifier, defaultFilter dashboard.Filter) bool {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		log.Println("Dashboard refresh disabled (dashboard_refresh_schedule not set)")
		return false
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid dashboard_refresh_schedule '%s': %v (refresh disabled)", schedule, err)
		return false
	}
	log.Printf("Dashboard refresh scheduled (cron: %s)", schedule)

	go func() {
		for {
			now := time.Now()
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next dashboard refresh at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)
			Refresh(context.Background(), db, agg, exportDir, notifier, defaultFilter)
		}
	}()
	return true
}

// Refresh runs one snapshot cycle with the saved filter selections.
func Refresh(ctx context.Context, db *sql.DB, agg *dashboard.Aggregator, exportDir string, notifier *notify.Notifier, defaultFilter dashboard.Filter) {
	filter := dashboard.LoadFilter(db, defaultFilter)
	result := agg.Fetch(ctx, filter)

	path, err := dashboard.WriteSnapshot(db, exportDir, result, time.Now())
	if err != nil {
		log.Printf("Dashboard refresh error: %v", err)
		return
	}
	log.Printf("Dashboard refresh complete file=%s failed_metrics=%d", path, len(result.FailedMetrics))

	msg := fmt.Sprintf("Dashboard snapshot for %s written to %s", filter.Year, path)
	if len(result.FailedMetrics) > 0 {
		msg += fmt.Sprintf(" (%d metrics unavailable)", len(result.FailedMetrics))
	}
	notifier.Post(msg)
}
