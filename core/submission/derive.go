package submission

import (
	"math"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
)

// DeriveOnSubmit stamps sub with its submit-time derivations the first time it
// enters the submitted status: SubmittedAt, IsLate, LateByDays and
// PenaltyApplied. It is a no-op once SubmittedAt is set, so retried writes
// never re-derive or double-penalize.
func DeriveOnSubmit(sub *Submission, asg assignment.Assignment, now time.Time) {
	if sub.Status != StatusSubmitted || sub.SubmittedAt != nil {
		return
	}

	now = now.UTC()
	sub.SubmittedAt = &now
	sub.IsLate = now.After(asg.DueDate)
	if !sub.IsLate {
		return
	}

	// ceiling of the calendar-day gap: 1 minute late counts as 1 day.
	sub.LateByDays = int(math.Ceil(now.Sub(asg.DueDate).Hours() / 24))
	if asg.LateSubmissionPenalty > 0 {
		// deliberately uncapped; FinalGrade clamps the outcome at zero.
		sub.PenaltyApplied = asg.LateSubmissionPenalty * float64(sub.LateByDays)
	}
}

// FinalGrade is the raw grade minus the accumulated late penalty, floored at
// zero and rounded to 2 decimals.
func FinalGrade(grade, penalty float64) float64 {
	return core.Round2(math.Max(0, grade-penalty))
}

// GradePercentage expresses final over totalPoints as a rounded percentage.
// A zero-point assignment yields 0.
func GradePercentage(final, totalPoints float64) float64 {
	if totalPoints <= 0 {
		return 0
	}
	return math.Round(final / totalPoints * 100)
}
