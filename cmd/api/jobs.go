package main

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// startJobs schedules housekeeping: expired OTP rows and, for the in-memory
// backend, stale sessions and bridge claims.
func startJobs(ctx context.Context, a *app) (*cron.Cron, error) {
	c := cron.New()

	if _, err := c.AddFunc("@every 15m", func() {
		jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		n, err := a.codes.Purge(jobCtx)
		if err != nil {
			a.log.Error("otp purge failed", "err", err)
			return
		}
		if n > 0 {
			a.log.Info("otp purge", "removed", n)
		}
	}); err != nil {
		return nil, err
	}

	if a.memory != nil {
		if _, err := c.AddFunc("@every 1m", func() {
			sessions := a.memory.Sweep(time.Now())
			claims := a.ledger.Sweep()
			if sessions > 0 || claims > 0 {
				a.log.Debug("session sweep", "sessions", sessions, "claims", claims)
			}
		}); err != nil {
			return nil, err
		}
	}

	c.Start()
	return c, nil
}
