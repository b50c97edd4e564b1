package reconcile

import (
	"context"
	"fmt"

	"talenttrack/pkg/domain"
)

// SweepSummary reports one batch pass over the unprocessed backlog.
type SweepSummary struct {
	Scanned   int `json:"scanned"`
	Succeeded int `json:"succeeded"`
	Blocked   int `json:"blocked"`
}

// Sweep re-runs reconciliation over every unprocessed response in the cycle
// submitted after the configured cutoff. Iteration is deliberately
// sequential: the candidate email set is the shared resource under
// contention, and a parallel sweep would reintroduce the duplicate-creation
// race the storage constraint exists to catch. One blocked response never
// stops the pass.
func (e *Engine) Sweep(ctx context.Context, cycleID domain.CycleID) (SweepSummary, error) {
	pending, err := e.responses.ListUnprocessed(ctx, cycleID, e.reprocessAfter)
	if err != nil {
		return SweepSummary{}, fmt.Errorf("list unprocessed responses: %w", err)
	}

	summary := SweepSummary{Scanned: len(pending)}
	for _, r := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		out := e.ProcessBestEffort(ctx, r.ID)
		if out.Succeeded {
			summary.Succeeded++
		} else {
			summary.Blocked++
		}
	}
	e.logger.InfoContext(ctx, "sweep finished",
		"cycle_id", cycleID,
		"scanned", summary.Scanned,
		"succeeded", summary.Succeeded,
		"blocked", summary.Blocked)
	return summary, nil
}
