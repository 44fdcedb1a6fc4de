package classroom

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type Classroom struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Subject     string    `json:"subject"`
	TeacherID   string    `json:"teacher_id"`
	JoinCode    string    `json:"join_code"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// IsTaughtBy reports whether usr owns this classroom.
func (c Classroom) IsTaughtBy(usr user.User) bool {
	return c.TeacherID == usr.ID
}

// NewClassroom contains information needed to create a new Classroom.
type NewClassroom struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Subject     string `json:"subject" validate:"omitempty,max=120"`
}

func (nc *NewClassroom) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	nc.Subject = core.CleanString(nc.Subject)
	return validate.Struct(nc)
}

// UpdateClassroom defines what information may be provided to modify an existing Classroom.
// Empty fields are retained.
type UpdateClassroom struct {
	Name        string `json:"name" validate:"omitempty,max=120"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Subject     string `json:"subject" validate:"omitempty,max=120"`
}

func (uc *UpdateClassroom) Validate(validate *validator.Validate) error {
	uc.Name = core.CleanString(uc.Name)
	uc.Description = core.CleanString(uc.Description)
	uc.Subject = core.CleanString(uc.Subject)
	return validate.Struct(uc)
}

// Merge applies the non-empty fields onto room.
func (uc UpdateClassroom) Merge(room *Classroom) {
	if uc.Name != "" {
		room.Name = uc.Name
	}
	if uc.Description != "" {
		room.Description = uc.Description
	}
	if uc.Subject != "" {
		room.Subject = uc.Subject
	}
}

// GetFilter looks a single Classroom up by one of its unique attributes,
// checked in field order.
type GetFilter struct {
	ID       string
	JoinCode string
}
