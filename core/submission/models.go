package submission

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/user"
)

const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusGraded    = "graded"
	StatusReturned  = "returned"
)

// Attachment is opaque file metadata returned by the upload service. No
// integrity verification happens here.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

type Submission struct {
	ID           string `json:"id"`
	AssignmentID string `json:"assignment_id"`
	StudentID    string `json:"student_id"`
	// ClassroomID is denormalized from the assignment for access-control queries.
	ClassroomID    string       `json:"classroom_id"`
	Content        string       `json:"content"`
	Attachments    []Attachment `json:"attachments"`
	Status         string       `json:"status"`
	SubmittedAt    *time.Time   `json:"submitted_at"`
	Grade          *float64     `json:"grade"`
	Feedback       string       `json:"feedback"`
	GradedBy       string       `json:"graded_by"`
	GradedAt       *time.Time   `json:"graded_at"`
	IsLate         bool         `json:"is_late"`
	LateByDays     int          `json:"late_by_days"`
	PenaltyApplied float64      `json:"penalty_applied"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// IsOwnedBy reports whether usr is the student who owns this submission.
func (s Submission) IsOwnedBy(usr user.User) bool {
	return s.StudentID == usr.ID
}

// IsLocked reports whether the owning student may no longer modify or
// delete this submission.
func (s Submission) IsLocked() bool {
	return s.Status == StatusGraded || s.Status == StatusReturned
}

// UpsertSubmission contains what a student may provide when creating or
// updating their submission. Omitted fields are retained on update.
type UpsertSubmission struct {
	Content     string       `json:"content" validate:"omitempty,max=20000"`
	Attachments []Attachment `json:"attachments" validate:"omitempty,dive"`
	Status      string       `json:"status" validate:"omitempty,oneof=draft submitted"`
}

func (us *UpsertSubmission) Validate(validate *validator.Validate) error {
	us.Content = core.CleanString(us.Content)
	us.Status = core.CleanString(us.Status, true)
	return validate.Struct(us)
}

// GradeSubmission contains what a teacher may provide when grading.
type GradeSubmission struct {
	Grade    *float64 `json:"grade" validate:"omitempty,gte=0"`
	Feedback string   `json:"feedback" validate:"omitempty,max=10000"`
}

func (gs *GradeSubmission) Validate(validate *validator.Validate) error {
	gs.Feedback = core.CleanString(gs.Feedback)
	return validate.Struct(gs)
}

// Graded is a submission enriched with its derived grade figures.
type Graded struct {
	Submission
	FinalGrade      *float64 `json:"final_grade"`
	GradePercentage *float64 `json:"grade_percentage"`
}

// Enriched is a submission projection for teacher listings, carrying the
// student's identity and the assignment attributes graders need at a glance.
type Enriched struct {
	Graded
	Student         user.User `json:"student"`
	AssignmentTitle string    `json:"assignment_title"`
	DueDate         time.Time `json:"due_date"`
	TotalPoints     float64   `json:"total_points"`
}

// NewGraded projects sub with FinalGrade and GradePercentage computed
// against asg. The figures are never persisted.
func NewGraded(sub Submission, asg assignment.Assignment) Graded {
	g := Graded{Submission: sub}
	if sub.Grade != nil {
		final := FinalGrade(*sub.Grade, sub.PenaltyApplied)
		g.FinalGrade = &final
		pct := GradePercentage(final, asg.TotalPoints)
		g.GradePercentage = &pct
	}
	return g
}

// NewEnriched projects sub for a teacher listing.
func NewEnriched(sub Submission, asg assignment.Assignment, student user.User) Enriched {
	return Enriched{
		Graded:          NewGraded(sub, asg),
		Student:         student,
		AssignmentTitle: asg.Title,
		DueDate:         asg.DueDate,
		TotalPoints:     asg.TotalPoints,
	}
}
