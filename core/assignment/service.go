package assignment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("assignment not found")

	errNotYourAssignment = "you do not have access to this assignment"
	errNotYourClassroom  = "you do not have access to this classroom"
	errAlreadyPublished  = errors.New("assignment is already published")
	errAlreadyClosed     = errors.New("assignment is closed")
	errCloseUnpublished  = errors.New("cannot close an unpublished assignment")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		// QueryAssignmentsByClassroom returns assignments ordered by due date ascending.
		QueryAssignmentsByClassroom(ctx context.Context, classroomID string) ([]Assignment, error)
		UpdateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		// DeleteAssignment removes the assignment only; its submissions are left
		// orphaned.
		DeleteAssignment(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, actor user.User, classroomID string, na NewAssignment) (Assignment, error)
		GetByID(ctx context.Context, actor user.User, id string) (Assignment, error)
		QueryByClassroom(ctx context.Context, actor user.User, classroomID string) ([]Assignment, error)
		Update(ctx context.Context, actor user.User, id string, ua UpdateAssignment) (Assignment, error)
		Publish(ctx context.Context, actor user.User, id string) (Assignment, error)
		Close(ctx context.Context, actor user.User, id string) (Assignment, error)
		Delete(ctx context.Context, actor user.User, id string) error
	}

	service struct {
		repo     Repository
		roomRepo classroom.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, roomRepo classroom.Repository) Service {
	return &service{
		repo:     repo,
		roomRepo: roomRepo,
	}
}

// canView checks the actor teaches or is enrolled in the assignment's classroom.
// The assignment is already known to exist at this point.
func (svc *service) canView(ctx context.Context, actor user.User, asg Assignment) error {
	if asg.IsOwnedBy(actor) {
		return nil
	}
	enrolled, err := svc.roomRepo.IsEnrolled(ctx, asg.ClassroomID, actor.ID)
	if err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return core.NewPermissionError(errNotYourAssignment)
	}
	return nil
}

// getOwned fetches the assignment and checks the actor owns it.
func (svc *service) getOwned(ctx context.Context, actor user.User, id string) (Assignment, error) {
	asg, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if !asg.IsOwnedBy(actor) {
		return Assignment{}, core.NewPermissionError(errNotYourAssignment)
	}
	return asg, nil
}

func (svc *service) Create(ctx context.Context, actor user.User, classroomID string, na NewAssignment) (Assignment, error) {
	room, err := svc.roomRepo.GetClassroom(ctx, classroom.GetFilter{ID: classroomID})
	if err != nil {
		return Assignment{}, err
	}
	if !room.IsTaughtBy(actor) {
		return Assignment{}, core.NewPermissionError(errNotYourClassroom)
	}

	now := time.Now().UTC()
	asg := Assignment{
		ClassroomID:           room.ID,
		TeacherID:             actor.ID,
		Title:                 na.Title,
		Description:           na.Description,
		Instructions:          na.Instructions,
		DueDate:               na.DueDate.UTC(),
		TotalPoints:           DefaultTotalPoints,
		AllowLateSubmission:   na.AllowLateSubmission,
		LateSubmissionPenalty: na.LateSubmissionPenalty,
		Status:                StatusDraft,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if na.TotalPoints != nil {
		asg.TotalPoints = *na.TotalPoints
	}
	return svc.repo.CreateAssignment(ctx, asg)
}

func (svc *service) GetByID(ctx context.Context, actor user.User, id string) (Assignment, error) {
	asg, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if err = svc.canView(ctx, actor, asg); err != nil {
		return Assignment{}, err
	}
	return asg, nil
}

func (svc *service) QueryByClassroom(ctx context.Context, actor user.User, classroomID string) ([]Assignment, error) {
	room, err := svc.roomRepo.GetClassroom(ctx, classroom.GetFilter{ID: classroomID})
	if err != nil {
		return nil, err
	}
	if !room.IsTaughtBy(actor) {
		enrolled, err := svc.roomRepo.IsEnrolled(ctx, room.ID, actor.ID)
		if err != nil {
			return nil, errors.Wrap(err, "checking enrollment")
		}
		if !enrolled {
			return nil, core.NewPermissionError(errNotYourClassroom)
		}
	}
	return svc.repo.QueryAssignmentsByClassroom(ctx, room.ID)
}

func (svc *service) Update(ctx context.Context, actor user.User, id string, ua UpdateAssignment) (Assignment, error) {
	asg, err := svc.getOwned(ctx, actor, id)
	if err != nil {
		return Assignment{}, err
	}
	if asg.Status == StatusClosed {
		return Assignment{}, core.NewValidationError(errAlreadyClosed)
	}

	ua.Merge(&asg)
	asg.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAssignment(ctx, asg)
}

func (svc *service) Publish(ctx context.Context, actor user.User, id string) (Assignment, error) {
	asg, err := svc.getOwned(ctx, actor, id)
	if err != nil {
		return Assignment{}, err
	}
	switch asg.Status {
	case StatusPublished:
		return Assignment{}, core.NewValidationError(errAlreadyPublished)
	case StatusClosed:
		return Assignment{}, core.NewValidationError(errAlreadyClosed)
	}

	now := time.Now().UTC()
	asg.Status = StatusPublished
	if asg.PublishedAt == nil {
		asg.PublishedAt = &now
	}
	asg.UpdatedAt = now
	return svc.repo.UpdateAssignment(ctx, asg)
}

func (svc *service) Close(ctx context.Context, actor user.User, id string) (Assignment, error) {
	asg, err := svc.getOwned(ctx, actor, id)
	if err != nil {
		return Assignment{}, err
	}
	switch asg.Status {
	case StatusDraft:
		return Assignment{}, core.NewValidationError(errCloseUnpublished)
	case StatusClosed:
		return Assignment{}, core.NewValidationError(errAlreadyClosed)
	}

	asg.Status = StatusClosed
	asg.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAssignment(ctx, asg)
}

func (svc *service) Delete(ctx context.Context, actor user.User, id string) error {
	if _, err := svc.getOwned(ctx, actor, id); err != nil {
		return err
	}
	return svc.repo.DeleteAssignment(ctx, id)
}
