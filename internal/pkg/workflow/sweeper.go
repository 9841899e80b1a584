package workflow

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// SweepSummary reports what one auto-resolve pass did.
type SweepSummary struct {
	Found    int               `json:"found"`
	Resolved int               `json:"resolved"`
	Skipped  int               `json:"skipped"`
	Failed   int               `json:"failed"`
	Failures map[string]string `json:"failures,omitempty"`
	Duration time.Duration     `json:"duration"`
}

// Sweeper force-resolves reports whose reporter did not answer within the
// engine's auto-resolve window.
type Sweeper struct {
	engine *Engine
}

func NewSweeper(engine *Engine) *Sweeper {
	return &Sweeper{engine: engine}
}

// RunOnce processes every overdue report independently. A report another
// writer already moved counts as skipped. Other failures are logged and
// counted without stopping the pass.
func (s *Sweeper) RunOnce(ctx context.Context) (SweepSummary, error) {
	start := time.Now()
	summary := SweepSummary{}

	cutoff := s.engine.now().Add(-s.engine.cfg.AutoResolveWindow)
	candidates, err := s.engine.reports.ListAwaitingConfirmation(ctx, cutoff)
	if err != nil {
		log.Errorf("[AutoResolve] Candidate query failed: %v", err)
		return summary, err
	}
	summary.Found = len(candidates)

	for _, c := range candidates {
		if ctx.Err() != nil {
			log.Warnf("[AutoResolve] Sweep interrupted after %d of %d reports", summary.Resolved+summary.Skipped+summary.Failed, summary.Found)
			break
		}
		_, err := s.engine.AutoResolve(ctx, c.ID)
		switch {
		case err == nil:
			summary.Resolved++
		case IsStateConflict(err), IsNotFound(err):
			log.Debugf("[AutoResolve] Report %s skipped: %v", c.ID, err)
			summary.Skipped++
		default:
			log.Errorf("[AutoResolve] Report %s failed: %v", c.ID, err)
			summary.Failed++
			if summary.Failures == nil {
				summary.Failures = map[string]string{}
			}
			summary.Failures[c.ID] = err.Error()
		}
	}

	summary.Duration = time.Since(start)
	log.Infof("[AutoResolve] Sweep done: found=%d resolved=%d skipped=%d failed=%d in %s",
		summary.Found, summary.Resolved, summary.Skipped, summary.Failed, summary.Duration.Round(time.Millisecond))
	return summary, nil
}
