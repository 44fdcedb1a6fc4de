package submission

import (
	"testing"
	"time"

	"github.com/trezcool/darasa/core/assignment"
)

func TestDeriveOnSubmit(t *testing.T) {
	due := time.Date(2021, 3, 1, 23, 59, 0, 0, time.UTC)
	asg := assignment.Assignment{
		DueDate:               due,
		TotalPoints:           100,
		AllowLateSubmission:   true,
		LateSubmissionPenalty: 5,
	}

	tests := []struct {
		name        string
		status      string
		now         time.Time
		wantLate    bool
		wantDays    int
		wantPenalty float64
		wantStamped bool
	}{
		{name: "draft is untouched", status: StatusDraft, now: due.Add(time.Hour)},
		{name: "on time", status: StatusSubmitted, now: due.Add(-time.Hour), wantStamped: true},
		{name: "exactly on the due date", status: StatusSubmitted, now: due, wantStamped: true},
		{
			name: "1 minute late counts as 1 day", status: StatusSubmitted, now: due.Add(time.Minute),
			wantStamped: true, wantLate: true, wantDays: 1, wantPenalty: 5,
		},
		{
			name: "25 hours late counts as 2 days", status: StatusSubmitted, now: due.Add(25 * time.Hour),
			wantStamped: true, wantLate: true, wantDays: 2, wantPenalty: 10,
		},
		{
			name: "3 days late", status: StatusSubmitted, now: due.Add(3 * 24 * time.Hour),
			wantStamped: true, wantLate: true, wantDays: 3, wantPenalty: 15,
		},
		{
			name: "penalty accumulates past 100", status: StatusSubmitted, now: due.Add(30 * 24 * time.Hour),
			wantStamped: true, wantLate: true, wantDays: 30, wantPenalty: 150,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := Submission{Status: tt.status}
			DeriveOnSubmit(&sub, asg, tt.now)

			if tt.wantStamped {
				if sub.SubmittedAt == nil {
					t.Fatal("SubmittedAt not set")
				}
				if !sub.SubmittedAt.Equal(tt.now) {
					t.Errorf("SubmittedAt = %v; want %v", sub.SubmittedAt, tt.now)
				}
			} else if sub.SubmittedAt != nil {
				t.Errorf("SubmittedAt = %v; want nil", sub.SubmittedAt)
			}
			if sub.IsLate != tt.wantLate {
				t.Errorf("IsLate = %v; want %v", sub.IsLate, tt.wantLate)
			}
			if sub.LateByDays != tt.wantDays {
				t.Errorf("LateByDays = %v; want %v", sub.LateByDays, tt.wantDays)
			}
			if sub.PenaltyApplied != tt.wantPenalty {
				t.Errorf("PenaltyApplied = %v; want %v", sub.PenaltyApplied, tt.wantPenalty)
			}
		})
	}
}

func TestDeriveOnSubmit_isIdempotent(t *testing.T) {
	due := time.Date(2021, 3, 1, 23, 59, 0, 0, time.UTC)
	asg := assignment.Assignment{DueDate: due, LateSubmissionPenalty: 10}

	sub := Submission{Status: StatusSubmitted}
	firstNow := due.Add(2 * 24 * time.Hour)
	DeriveOnSubmit(&sub, asg, firstNow)

	// a retried write much later must not re-derive
	DeriveOnSubmit(&sub, asg, due.Add(10*24*time.Hour))

	if !sub.SubmittedAt.Equal(firstNow) {
		t.Errorf("SubmittedAt = %v; want %v", sub.SubmittedAt, firstNow)
	}
	if sub.LateByDays != 2 {
		t.Errorf("LateByDays = %v; want 2", sub.LateByDays)
	}
	if sub.PenaltyApplied != 20 {
		t.Errorf("PenaltyApplied = %v; want 20", sub.PenaltyApplied)
	}
}

func TestFinalGrade(t *testing.T) {
	tests := []struct {
		name    string
		grade   float64
		penalty float64
		want    float64
	}{
		{name: "no penalty", grade: 80, want: 80},
		{name: "penalty deducted", grade: 80, penalty: 15, want: 65},
		{name: "floored at zero", grade: 10, penalty: 50, want: 0},
		{name: "rounded to 2 decimals", grade: 80.555, penalty: 0.01, want: 80.55},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FinalGrade(tt.grade, tt.penalty); got != tt.want {
				t.Errorf("FinalGrade() = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestGradePercentage(t *testing.T) {
	tests := []struct {
		name        string
		final       float64
		totalPoints float64
		want        float64
	}{
		{name: "out of 100", final: 65, totalPoints: 100, want: 65},
		{name: "out of 20", final: 13, totalPoints: 20, want: 65},
		{name: "rounded", final: 2, totalPoints: 3, want: 67},
		{name: "zero total points", final: 10, totalPoints: 0, want: 0},
		{name: "negative total points", final: 10, totalPoints: -5, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GradePercentage(tt.final, tt.totalPoints); got != tt.want {
				t.Errorf("GradePercentage() = %v; want %v", got, tt.want)
			}
		})
	}
}
