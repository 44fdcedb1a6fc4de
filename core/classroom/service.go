package classroom

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("classroom not found")
	ErrCodeTaken       = errors.New("join code already taken")
	ErrAlreadyEnrolled = errors.New("already enrolled in this classroom")
	ErrNotEnrolled     = errors.New("not enrolled in this classroom")

	errTeachersOnly = "only teachers can perform this action"
	errStudentsOnly = "only students can join classrooms"
	errNotYourRoom  = "you do not have access to this classroom"
)

type (
	Repository interface {
		CreateClassroom(ctx context.Context, room Classroom) (Classroom, error)
		GetClassroom(ctx context.Context, filter GetFilter) (Classroom, error)
		// QueryClassroomsForUser returns classrooms the user teaches or is enrolled in.
		QueryClassroomsForUser(ctx context.Context, userID string) ([]Classroom, error)
		UpdateClassroom(ctx context.Context, room Classroom) (Classroom, error)
		// DeleteClassroom removes the classroom and its memberships. Assignments
		// and submissions are left in place.
		DeleteClassroom(ctx context.Context, id string) error
		AddStudent(ctx context.Context, classroomID, studentID string) error
		RemoveStudent(ctx context.Context, classroomID, studentID string) error
		IsEnrolled(ctx context.Context, classroomID, studentID string) (bool, error)
		// ListStudents returns the roster in enrollment order.
		ListStudents(ctx context.Context, classroomID string) ([]user.User, error)
	}

	Service interface {
		Create(ctx context.Context, actor user.User, nc NewClassroom) (Classroom, error)
		GetByID(ctx context.Context, actor user.User, id string) (Classroom, error)
		QueryForUser(ctx context.Context, actor user.User) ([]Classroom, error)
		Update(ctx context.Context, actor user.User, id string, uc UpdateClassroom) (Classroom, error)
		Delete(ctx context.Context, actor user.User, id string) error
		Join(ctx context.Context, actor user.User, code string) (Classroom, error)
		Leave(ctx context.Context, actor user.User, id string) error
		Students(ctx context.Context, actor user.User, id string) ([]user.User, error)
		RemoveStudent(ctx context.Context, actor user.User, id, studentID string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// get fetches the classroom and checks the actor may see it (teaches it or is
// enrolled). Existence is always checked before authorization.
func (svc *service) get(ctx context.Context, actor user.User, id string) (Classroom, error) {
	room, err := svc.repo.GetClassroom(ctx, GetFilter{ID: id})
	if err != nil {
		return Classroom{}, err
	}
	if room.IsTaughtBy(actor) {
		return room, nil
	}
	enrolled, err := svc.repo.IsEnrolled(ctx, room.ID, actor.ID)
	if err != nil {
		return Classroom{}, errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return Classroom{}, core.NewPermissionError(errNotYourRoom)
	}
	return room, nil
}

func (svc *service) Create(ctx context.Context, actor user.User, nc NewClassroom) (Classroom, error) {
	if !actor.IsTeacher() {
		return Classroom{}, core.NewPermissionError(errTeachersOnly)
	}

	now := time.Now().UTC()
	room := Classroom{
		Name:        nc.Name,
		Description: nc.Description,
		Subject:     nc.Subject,
		TeacherID:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// generate candidate codes until one sticks; the unique index backstops
	// concurrent creations racing on the same candidate.
	for attempt := 0; attempt < maxJoinCodeAttempts; attempt++ {
		code, err := generateJoinCode()
		if err != nil {
			return Classroom{}, err
		}
		room.JoinCode = code

		created, err := svc.repo.CreateClassroom(ctx, room)
		if err == nil {
			return created, nil
		}
		if errors.Cause(err) != ErrCodeTaken {
			return Classroom{}, err
		}
	}
	return Classroom{}, errors.New("could not generate a unique join code")
}

func (svc *service) GetByID(ctx context.Context, actor user.User, id string) (Classroom, error) {
	return svc.get(ctx, actor, id)
}

func (svc *service) QueryForUser(ctx context.Context, actor user.User) ([]Classroom, error) {
	return svc.repo.QueryClassroomsForUser(ctx, actor.ID)
}

func (svc *service) Update(ctx context.Context, actor user.User, id string, uc UpdateClassroom) (Classroom, error) {
	room, err := svc.repo.GetClassroom(ctx, GetFilter{ID: id})
	if err != nil {
		return Classroom{}, err
	}
	if !room.IsTaughtBy(actor) {
		return Classroom{}, core.NewPermissionError(errNotYourRoom)
	}

	uc.Merge(&room)
	room.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClassroom(ctx, room)
}

func (svc *service) Delete(ctx context.Context, actor user.User, id string) error {
	room, err := svc.repo.GetClassroom(ctx, GetFilter{ID: id})
	if err != nil {
		return err
	}
	if !room.IsTaughtBy(actor) {
		return core.NewPermissionError(errNotYourRoom)
	}
	return svc.repo.DeleteClassroom(ctx, id)
}

func (svc *service) Join(ctx context.Context, actor user.User, code string) (Classroom, error) {
	if !actor.IsStudent() {
		return Classroom{}, core.NewPermissionError(errStudentsOnly)
	}

	room, err := svc.repo.GetClassroom(ctx, GetFilter{JoinCode: strings.ToUpper(core.CleanString(code))})
	if err != nil {
		return Classroom{}, err
	}
	if err = svc.repo.AddStudent(ctx, room.ID, actor.ID); err != nil {
		if errors.Cause(err) == ErrAlreadyEnrolled {
			return Classroom{}, core.NewValidationError(ErrAlreadyEnrolled)
		}
		return Classroom{}, errors.Wrap(err, "adding student")
	}
	return room, nil
}

func (svc *service) Leave(ctx context.Context, actor user.User, id string) error {
	room, err := svc.repo.GetClassroom(ctx, GetFilter{ID: id})
	if err != nil {
		return err
	}
	enrolled, err := svc.repo.IsEnrolled(ctx, room.ID, actor.ID)
	if err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return core.NewValidationError(ErrNotEnrolled)
	}
	return svc.repo.RemoveStudent(ctx, room.ID, actor.ID)
}

func (svc *service) Students(ctx context.Context, actor user.User, id string) ([]user.User, error) {
	room, err := svc.get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return svc.repo.ListStudents(ctx, room.ID)
}

func (svc *service) RemoveStudent(ctx context.Context, actor user.User, id, studentID string) error {
	room, err := svc.repo.GetClassroom(ctx, GetFilter{ID: id})
	if err != nil {
		return err
	}
	if !room.IsTaughtBy(actor) {
		return core.NewPermissionError(errNotYourRoom)
	}
	enrolled, err := svc.repo.IsEnrolled(ctx, room.ID, studentID)
	if err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return core.NewValidationError(ErrNotEnrolled)
	}
	return svc.repo.RemoveStudent(ctx, room.ID, studentID)
}
