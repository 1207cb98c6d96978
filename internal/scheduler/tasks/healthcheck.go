package tasks

import (
	"context"
	"errors"

	"github.com/reelvault/reelvault/internal/health"
	"github.com/reelvault/reelvault/internal/scheduler"
)

const HealthCheckTaskID = "health-check"

// RegisterHealthCheckTask registers a periodic run of the health checks so
// that status changes reach WebSocket clients without a request.
func RegisterHealthCheckTask(sched *scheduler.Scheduler, healthService *health.Service) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          HealthCheckTaskID,
		Name:        "Health Check",
		Description: "Verifies the download directory is writable and the database is reachable",
		Cron:        "*/15 * * * *",
		RunOnStart:  true,
		Func: func(ctx context.Context) error {
			report := healthService.Check(ctx)
			if !report.OK {
				return errors.New("one or more health checks failed")
			}
			return nil
		},
	})
}
