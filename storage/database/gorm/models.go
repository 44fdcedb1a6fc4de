// Package gormdb provides the production repository implementations on top of
// GORM and PostgreSQL.
package gormdb

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"gorm.io/datatypes"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
)

// Models returns every model registered for migration.
func Models() []interface{} {
	return []interface{}{
		&userModel{},
		&classroomModel{},
		&enrollmentModel{},
		&assignmentModel{},
		&submissionModel{},
	}
}

func pqArray(ss []string) pq.StringArray { return pq.StringArray(ss) }

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

type userModel struct {
	ID           string         `gorm:"primaryKey"`
	Name         string         `gorm:"size:120"`
	Username     string         `gorm:"size:100;uniqueIndex"`
	Email        string         `gorm:"size:254;uniqueIndex"`
	IsActive     *bool          `gorm:"default:true"`
	Roles        pq.StringArray `gorm:"type:text[]"`
	PasswordHash []byte
	LastLogin    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

func newUserModel(usr user.User) userModel {
	return userModel{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		IsActive:     usr.IsActive,
		Roles:        pq.StringArray(usr.Roles),
		PasswordHash: usr.PasswordHash,
		LastLogin:    usr.LastLogin,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
	}
}

func (m userModel) toUser() user.User {
	return user.User{
		ID:           m.ID,
		Name:         m.Name,
		Username:     m.Username,
		Email:        m.Email,
		IsActive:     m.IsActive,
		Roles:        []string(m.Roles),
		PasswordHash: m.PasswordHash,
		LastLogin:    m.LastLogin,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type classroomModel struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"size:120"`
	Description string `gorm:"size:2000"`
	Subject     string `gorm:"size:120"`
	TeacherID   string `gorm:"index"`
	JoinCode    string `gorm:"size:6;uniqueIndex"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (classroomModel) TableName() string { return "classrooms" }

func newClassroomModel(room classroom.Classroom) classroomModel {
	return classroomModel{
		ID:          room.ID,
		Name:        room.Name,
		Description: room.Description,
		Subject:     room.Subject,
		TeacherID:   room.TeacherID,
		JoinCode:    room.JoinCode,
		CreatedAt:   room.CreatedAt,
		UpdatedAt:   room.UpdatedAt,
	}
}

func (m classroomModel) toClassroom() classroom.Classroom {
	return classroom.Classroom{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Subject:     m.Subject,
		TeacherID:   m.TeacherID,
		JoinCode:    m.JoinCode,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// enrollmentModel is a classroom-student membership row. The auto-increment
// primary key preserves enrollment order for roster listings.
type enrollmentModel struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	ClassroomID string `gorm:"uniqueIndex:idx_enrollment_room_student"`
	StudentID   string `gorm:"uniqueIndex:idx_enrollment_room_student"`
	CreatedAt   time.Time
}

func (enrollmentModel) TableName() string { return "enrollments" }

type assignmentModel struct {
	ID                    string `gorm:"primaryKey"`
	ClassroomID           string `gorm:"index"`
	TeacherID             string `gorm:"index"`
	Title                 string `gorm:"size:200"`
	Description           string `gorm:"size:2000"`
	Instructions          string `gorm:"size:10000"`
	DueDate               time.Time
	TotalPoints           float64
	AllowLateSubmission   bool
	LateSubmissionPenalty float64
	Status                string `gorm:"size:20;index"`
	PublishedAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (assignmentModel) TableName() string { return "assignments" }

func newAssignmentModel(asg assignment.Assignment) assignmentModel {
	return assignmentModel{
		ID:                    asg.ID,
		ClassroomID:           asg.ClassroomID,
		TeacherID:             asg.TeacherID,
		Title:                 asg.Title,
		Description:           asg.Description,
		Instructions:          asg.Instructions,
		DueDate:               asg.DueDate,
		TotalPoints:           asg.TotalPoints,
		AllowLateSubmission:   asg.AllowLateSubmission,
		LateSubmissionPenalty: asg.LateSubmissionPenalty,
		Status:                asg.Status,
		PublishedAt:           asg.PublishedAt,
		CreatedAt:             asg.CreatedAt,
		UpdatedAt:             asg.UpdatedAt,
	}
}

func (m assignmentModel) toAssignment() assignment.Assignment {
	return assignment.Assignment{
		ID:                    m.ID,
		ClassroomID:           m.ClassroomID,
		TeacherID:             m.TeacherID,
		Title:                 m.Title,
		Description:           m.Description,
		Instructions:          m.Instructions,
		DueDate:               m.DueDate,
		TotalPoints:           m.TotalPoints,
		AllowLateSubmission:   m.AllowLateSubmission,
		LateSubmissionPenalty: m.LateSubmissionPenalty,
		Status:                m.Status,
		PublishedAt:           m.PublishedAt,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

type submissionModel struct {
	ID             string `gorm:"primaryKey"`
	AssignmentID   string `gorm:"uniqueIndex:idx_submission_assignment_student"`
	StudentID      string `gorm:"uniqueIndex:idx_submission_assignment_student"`
	ClassroomID    string `gorm:"index"`
	Content        string `gorm:"size:20000"`
	Attachments    datatypes.JSON
	Status         string `gorm:"size:20;index"`
	SubmittedAt    *time.Time
	Grade          *float64
	Feedback       string `gorm:"size:10000"`
	GradedBy       string
	GradedAt       *time.Time
	IsLate         bool
	LateByDays     int
	PenaltyApplied float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (submissionModel) TableName() string { return "submissions" }

func newSubmissionModel(sub submission.Submission) (submissionModel, error) {
	var attachments datatypes.JSON
	if sub.Attachments != nil {
		raw, err := json.Marshal(sub.Attachments)
		if err != nil {
			return submissionModel{}, errors.Wrap(err, "encoding attachments")
		}
		attachments = raw
	}
	return submissionModel{
		ID:             sub.ID,
		AssignmentID:   sub.AssignmentID,
		StudentID:      sub.StudentID,
		ClassroomID:    sub.ClassroomID,
		Content:        sub.Content,
		Attachments:    attachments,
		Status:         sub.Status,
		SubmittedAt:    sub.SubmittedAt,
		Grade:          sub.Grade,
		Feedback:       sub.Feedback,
		GradedBy:       sub.GradedBy,
		GradedAt:       sub.GradedAt,
		IsLate:         sub.IsLate,
		LateByDays:     sub.LateByDays,
		PenaltyApplied: sub.PenaltyApplied,
		CreatedAt:      sub.CreatedAt,
		UpdatedAt:      sub.UpdatedAt,
	}, nil
}

func (m submissionModel) toSubmission() (submission.Submission, error) {
	var attachments []submission.Attachment
	if len(m.Attachments) > 0 {
		if err := json.Unmarshal(m.Attachments, &attachments); err != nil {
			return submission.Submission{}, errors.Wrap(err, "decoding attachments")
		}
	}
	return submission.Submission{
		ID:             m.ID,
		AssignmentID:   m.AssignmentID,
		StudentID:      m.StudentID,
		ClassroomID:    m.ClassroomID,
		Content:        m.Content,
		Attachments:    attachments,
		Status:         m.Status,
		SubmittedAt:    m.SubmittedAt,
		Grade:          m.Grade,
		Feedback:       m.Feedback,
		GradedBy:       m.GradedBy,
		GradedAt:       m.GradedAt,
		IsLate:         m.IsLate,
		LateByDays:     m.LateByDays,
		PenaltyApplied: m.PenaltyApplied,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}, nil
}
