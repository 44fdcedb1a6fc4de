package assignment

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusClosed    = "closed"

	DefaultTotalPoints = 100
)

type Assignment struct {
	ID                    string     `json:"id"`
	ClassroomID           string     `json:"classroom_id"`
	TeacherID             string     `json:"teacher_id"`
	Title                 string     `json:"title"`
	Description           string     `json:"description"`
	Instructions          string     `json:"instructions"`
	DueDate               time.Time  `json:"due_date"` // UTC
	TotalPoints           float64    `json:"total_points"`
	AllowLateSubmission   bool       `json:"allow_late_submission"`
	LateSubmissionPenalty float64    `json:"late_submission_penalty"` // percentage points per day late
	Status                string     `json:"status"`
	PublishedAt           *time.Time `json:"published_at"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// IsOwnedBy reports whether usr is the teacher who created this assignment.
func (a Assignment) IsOwnedBy(usr user.User) bool {
	return a.TeacherID == usr.ID
}

// IsOverdue reports whether the due date has passed as of now.
func (a Assignment) IsOverdue(now time.Time) bool {
	return now.After(a.DueDate)
}

// DaysUntilDue returns the number of whole days until the due date,
// negative when overdue.
func (a Assignment) DaysUntilDue(now time.Time) int {
	return int(math.Ceil(a.DueDate.Sub(now).Hours() / 24))
}

// NewAssignment contains information needed to create a new Assignment.
type NewAssignment struct {
	Title                 string    `json:"title" validate:"required,max=200"`
	Description           string    `json:"description" validate:"omitempty,max=2000"`
	Instructions          string    `json:"instructions" validate:"omitempty,max=10000"`
	DueDate               time.Time `json:"due_date" validate:"required"`
	TotalPoints           *float64  `json:"total_points" validate:"omitempty,gte=0"`
	AllowLateSubmission   bool      `json:"allow_late_submission"`
	LateSubmissionPenalty float64   `json:"late_submission_penalty" validate:"gte=0,lte=100"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.Instructions = core.CleanString(na.Instructions)
	return validate.Struct(na)
}

// UpdateAssignment defines what information may be provided to modify an
// existing Assignment. Empty fields are retained.
type UpdateAssignment struct {
	Title                 string     `json:"title" validate:"omitempty,max=200"`
	Description           string     `json:"description" validate:"omitempty,max=2000"`
	Instructions          string     `json:"instructions" validate:"omitempty,max=10000"`
	DueDate               *time.Time `json:"due_date"`
	TotalPoints           *float64   `json:"total_points" validate:"omitempty,gte=0"`
	AllowLateSubmission   *bool      `json:"allow_late_submission"`
	LateSubmissionPenalty *float64   `json:"late_submission_penalty" validate:"omitempty,gte=0,lte=100"`
}

func (ua *UpdateAssignment) Validate(validate *validator.Validate) error {
	ua.Title = core.CleanString(ua.Title)
	ua.Description = core.CleanString(ua.Description)
	ua.Instructions = core.CleanString(ua.Instructions)
	return validate.Struct(ua)
}

// Merge applies the provided fields onto asg.
func (ua UpdateAssignment) Merge(asg *Assignment) {
	if ua.Title != "" {
		asg.Title = ua.Title
	}
	if ua.Description != "" {
		asg.Description = ua.Description
	}
	if ua.Instructions != "" {
		asg.Instructions = ua.Instructions
	}
	if ua.DueDate != nil {
		asg.DueDate = ua.DueDate.UTC()
	}
	if ua.TotalPoints != nil {
		asg.TotalPoints = *ua.TotalPoints
	}
	if ua.AllowLateSubmission != nil {
		asg.AllowLateSubmission = *ua.AllowLateSubmission
	}
	if ua.LateSubmissionPenalty != nil {
		asg.LateSubmissionPenalty = *ua.LateSubmissionPenalty
	}
}
