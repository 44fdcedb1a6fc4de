package submission

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/user"
)

// NowFunc returns the current time. It is a variable for tests.
var NowFunc = time.Now

var (
	// errors
	ErrNotFound = errors.New("submission not found")

	errNotPublished    = errors.New("cannot submit to unpublished assignment")
	errClosed          = errors.New("assignment is closed to submissions")
	errPastDueDate     = errors.New("past due date: late submissions are not allowed")
	errGradingLocked   = errors.New("cannot modify a submission after grading")
	errDeleteLocked    = errors.New("cannot delete a submission after grading")
	errNotGraded       = errors.New("only a graded submission can be returned")
	errNotEnrolled     = "you are not enrolled in this classroom"
	errNotYourClass    = "you do not have access to this classroom"
	errNotOwner        = "you do not own this submission"
	errNotGradingOwner = "only the assignment's teacher can grade its submissions"
)

type (
	Repository interface {
		// UpsertSubmission atomically creates or updates the row keyed by
		// (assignment_id, student_id). The store's uniqueness constraint, not an
		// application-level existence check, guarantees at most one row per pair.
		UpsertSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmission(ctx context.Context, id string) (Submission, error)
		GetSubmissionForStudent(ctx context.Context, assignmentID, studentID string) (Submission, error)
		// QuerySubmissionsByAssignment orders by submitted_at descending,
		// still-draft rows last.
		QuerySubmissionsByAssignment(ctx context.Context, assignmentID string) ([]Submission, error)
		QuerySubmissionsByClassroomStudent(ctx context.Context, classroomID, studentID string) ([]Submission, error)
		UpdateSubmission(ctx context.Context, sub Submission) (Submission, error)
		DeleteSubmission(ctx context.Context, id string) error
	}

	Service interface {
		Upsert(ctx context.Context, actor user.User, assignmentID string, us UpsertSubmission) (Graded, error)
		Grade(ctx context.Context, actor user.User, id string, gs GradeSubmission) (Graded, error)
		Return(ctx context.Context, actor user.User, id string) (Graded, error)
		Delete(ctx context.Context, actor user.User, id string) error
		GetOwn(ctx context.Context, actor user.User, assignmentID string) (Graded, error)
		QueryByAssignment(ctx context.Context, actor user.User, assignmentID string) ([]Enriched, error)
		QueryByClassroomStudent(ctx context.Context, actor user.User, classroomID, studentID string) ([]Graded, error)
	}

	service struct {
		repo     Repository
		asgRepo  assignment.Repository
		roomRepo classroom.Repository
		usrRepo  user.Repository
		mailSvc  core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	asgRepo assignment.Repository,
	roomRepo classroom.Repository,
	usrRepo user.Repository,
	mailSvc core.EmailService,
) Service {
	return &service{
		repo:     repo,
		asgRepo:  asgRepo,
		roomRepo: roomRepo,
		usrRepo:  usrRepo,
		mailSvc:  mailSvc,
	}
}

// Upsert creates or updates the acting student's submission for an assignment.
// Preconditions run in a fixed order, first failure wins: the assignment must
// exist, be published and not closed; the student must be enrolled; the due
// date policy must allow the write; a graded or returned submission is locked.
func (svc *service) Upsert(ctx context.Context, actor user.User, assignmentID string, us UpsertSubmission) (Graded, error) {
	asg, err := svc.asgRepo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Graded{}, err
	}
	switch asg.Status {
	case assignment.StatusPublished:
	case assignment.StatusClosed:
		return Graded{}, core.NewValidationError(errClosed)
	default:
		return Graded{}, core.NewValidationError(errNotPublished)
	}
	enrolled, err := svc.roomRepo.IsEnrolled(ctx, asg.ClassroomID, actor.ID)
	if err != nil {
		return Graded{}, errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return Graded{}, core.NewPermissionError(errNotEnrolled)
	}

	now := NowFunc().UTC()
	if asg.IsOverdue(now) && !asg.AllowLateSubmission {
		return Graded{}, core.NewValidationError(errPastDueDate)
	}

	sub, err := svc.repo.GetSubmissionForStudent(ctx, asg.ID, actor.ID)
	switch errors.Cause(err) {
	case nil:
		if sub.IsLocked() {
			return Graded{}, core.NewValidationError(errGradingLocked)
		}
		us.merge(&sub)
	case ErrNotFound:
		sub = Submission{
			AssignmentID: asg.ID,
			StudentID:    actor.ID,
			ClassroomID:  asg.ClassroomID,
			Content:      us.Content,
			Attachments:  us.Attachments,
			Status:       StatusDraft,
			CreatedAt:    now,
		}
		if us.Status != "" {
			sub.Status = us.Status
		}
	default:
		return Graded{}, errors.Wrap(err, "finding existing submission")
	}

	DeriveOnSubmit(&sub, asg, now)
	sub.UpdatedAt = now

	sub, err = svc.repo.UpsertSubmission(ctx, sub)
	if err != nil {
		return Graded{}, err
	}
	return NewGraded(sub, asg), nil
}

// merge applies the provided fields onto sub, retaining the rest.
func (us UpsertSubmission) merge(sub *Submission) {
	if us.Content != "" {
		sub.Content = us.Content
	}
	if us.Attachments != nil {
		sub.Attachments = us.Attachments
	}
	if us.Status != "" {
		sub.Status = us.Status
	}
}

// Grade records a grade and feedback. Only the assignment's teacher may
// grade; regrading is allowed but GradedAt sticks to the first call.
func (svc *service) Grade(ctx context.Context, actor user.User, id string, gs GradeSubmission) (Graded, error) {
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

	go svc.sendGradedMail(sub, asg)
	return NewGraded(sub, asg), nil
}

func (svc *service) sendGradedMail(sub Submission, asg assignment.Assignment) {
	student, err := svc.usrRepo.GetUser(context.Background(), user.GetFilter{ID: sub.StudentID})
	if err != nil {
		return
	}
	graded := NewGraded(sub, asg)
	svc.mailSvc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: student.Name, Address: student.Email}},
			Subject:      fmt.Sprintf("Your submission for %q has been graded", asg.Title),
			TemplateName: "submission-graded",
			TemplateData: struct {
				Student    user.User
				Assignment assignment.Assignment
				Submission Graded
			}{student, asg, graded},
		},
	)
}

// Return hands a graded submission back to the student.
func (svc *service) Return(ctx context.Context, actor user.User, id string) (Graded, error) {
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
	if sub.Status != StatusGraded {
		return Graded{}, core.NewValidationError(errNotGraded)
	}

	sub.Status = StatusReturned
	sub.UpdatedAt = NowFunc().UTC()
	sub, err = svc.repo.UpdateSubmission(ctx, sub)
	if err != nil {
		return Graded{}, err
	}
	return NewGraded(sub, asg), nil
}

// Delete removes the acting student's own submission while it is still
// modifiable.
func (svc *service) Delete(ctx context.Context, actor user.User, id string) error {
	sub, err := svc.repo.GetSubmission(ctx, id)
	if err != nil {
		return err
	}
	if !sub.IsOwnedBy(actor) {
		return core.NewPermissionError(errNotOwner)
	}
	if sub.IsLocked() {
		return core.NewValidationError(errDeleteLocked)
	}
	return svc.repo.DeleteSubmission(ctx, id)
}

// GetOwn returns the acting student's submission for an assignment. The query
// is keyed by the caller's own id, so no cross-student access is possible.
func (svc *service) GetOwn(ctx context.Context, actor user.User, assignmentID string) (Graded, error) {
	asg, err := svc.asgRepo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Graded{}, err
	}
	sub, err := svc.repo.GetSubmissionForStudent(ctx, asg.ID, actor.ID)
	if err != nil {
		return Graded{}, err
	}
	return NewGraded(sub, asg), nil
}

// QueryByAssignment lists all submissions for an assignment, enriched with
// each student's identity. Restricted to the assignment's teacher.
func (svc *service) QueryByAssignment(ctx context.Context, actor user.User, assignmentID string) ([]Enriched, error) {
	asg, err := svc.asgRepo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !asg.IsOwnedBy(actor) {
		return nil, core.NewPermissionError(errNotGradingOwner)
	}

	subs, err := svc.repo.QuerySubmissionsByAssignment(ctx, asg.ID)
	if err != nil {
		return nil, err
	}
	res := make([]Enriched, 0, len(subs))
	for _, sub := range subs {
		student, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: sub.StudentID})
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("finding student %s", sub.StudentID))
		}
		res = append(res, NewEnriched(sub, asg, student))
	}
	return res, nil
}

// QueryByClassroomStudent lists a student's submissions within a classroom.
// Allowed for the classroom's teacher or the student themself.
func (svc *service) QueryByClassroomStudent(ctx context.Context, actor user.User, classroomID, studentID string) ([]Graded, error) {
	room, err := svc.roomRepo.GetClassroom(ctx, classroom.GetFilter{ID: classroomID})
	if err != nil {
		return nil, err
	}
	if !room.IsTaughtBy(actor) && actor.ID != studentID {
		return nil, core.NewPermissionError(errNotYourClass)
	}

	subs, err := svc.repo.QuerySubmissionsByClassroomStudent(ctx, room.ID, studentID)
	if err != nil {
		return nil, err
	}
	asgCache := make(map[string]assignment.Assignment)
	res := make([]Graded, 0, len(subs))
	for _, sub := range subs {
		asg, ok := asgCache[sub.AssignmentID]
		if !ok {
			if asg, err = svc.asgRepo.GetAssignment(ctx, sub.AssignmentID); err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("finding assignment %s", sub.AssignmentID))
			}
			asgCache[sub.AssignmentID] = asg
		}
		res = append(res, NewGraded(sub, asg))
	}
	return res, nil
}
