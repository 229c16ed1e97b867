package alerts

import (
	"fmt"
	"time"

	"github.com/agentstation/rfreconcile/pkg/reconcile"
)

// maxDetails caps the detail lines listed under one alert.
const maxDetails = 10

// FromResult derives the alerts of a reconciliation run. files lists the
// outputs that were written.
func FromResult(r *reconcile.Result, at time.Time, files ...string) []*Alert {
	var out []*Alert

	if n := len(r.Errors); n > 0 {
		details := make([]string, 0, min(n, maxDetails))
		for _, err := range r.Errors[:min(n, maxDetails)] {
			details = append(details, err.Error())
		}
		out = append(out, New(LevelError, fmt.Sprintf("%d sites failed", n), at).WithDetails(capped(details, n)...))
	}

	if n := len(r.Warnings); n > 0 {
		details := append([]string(nil), r.Warnings[:min(n, maxDetails)]...)
		out = append(out, New(LevelWarning, fmt.Sprintf("%d warnings", n), at).WithDetails(capped(details, n)...))
	}

	if n := len(r.ManualReview); n > 0 {
		details := make([]string, 0, min(n, maxDetails))
		for _, m := range r.ManualReview[:min(n, maxDetails)] {
			details = append(details, fmt.Sprintf("%s (score %.2f)", m.StationID, m.Score))
		}
		out = append(out, New(LevelWarning, fmt.Sprintf("%d stations require manual review", n), at).WithDetails(capped(details, n)...))
	}

	if n := len(r.ExtendedCells); n > 0 {
		out = append(out, New(LevelInfo, fmt.Sprintf("%d extended cells marked", n), at))
	}

	if r.IsSuccess() {
		out = append(out, New(LevelSuccess, "Reconciliation complete", at).WithDetails(files...))
	}
	return out
}

func capped(details []string, total int) []string {
	if total > len(details) {
		details = append(details, fmt.Sprintf("... and %d more", total-len(details)))
	}
	return details
}
