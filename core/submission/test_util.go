package submission

import (
	"context"
	"fmt"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/user"
)

type serviceMock struct {
	service
}

func NewServiceMock(
	repo Repository,
	asgRepo assignment.Repository,
	roomRepo classroom.Repository,
	usrRepo user.Repository,
	mailSvc core.EmailService,
) Service {
	return &serviceMock{
		service: service{
			repo:     repo,
			asgRepo:  asgRepo,
			roomRepo: roomRepo,
			usrRepo:  usrRepo,
			mailSvc:  mailSvc,
		},
	}
}

func (svc *serviceMock) Grade(ctx context.Context, actor user.User, id string, gs GradeSubmission) (Graded, error) {
	sub, err := svc.repo.GetSubmission(ctx, id)
	if err != nil {
		return Graded{}, err
	}
	asg, err := svc.asgRepo.GetAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return Graded{}, err
	}
	if !asg.IsOwnedBy(actor) {
		return Graded{}, core.NewPermissionError(errNotGradingOwner)
	}
	if gs.Grade != nil && (*gs.Grade < 0 || *gs.Grade > asg.TotalPoints) {
		return Graded{}, core.NewValidationError(
			fmt.Errorf("grade must be between 0 and %v", asg.TotalPoints),
			core.FieldError{Field: "grade", Error: fmt.Sprintf("must be between 0 and %v", asg.TotalPoints)},
		)
	}

	now := NowFunc().UTC()
	sub.Grade = gs.Grade
	sub.Feedback = gs.Feedback
	sub.GradedBy = actor.ID
	sub.Status = StatusGraded
	if sub.GradedAt == nil {
		sub.GradedAt = &now
	}
	sub.UpdatedAt = now

	sub, err = svc.repo.UpdateSubmission(ctx, sub)
	if err != nil {
		return Graded{}, err
	}

	// run synchronously
	svc.sendGradedMail(sub, asg)
	return NewGraded(sub, asg), nil
}
