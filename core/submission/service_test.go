package submission_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

func TestMain(m *testing.M) {
	_ = os.Setenv("ENV", "TEST")
	core.NewConfig()
	os.Exit(m.Run())
}

type testEnv struct {
	svc      submission.Service
	repo     submission.Repository
	asgRepo  assignment.Repository
	roomRepo classroom.Repository
	usrRepo  user.Repository

	teacher  user.User
	student  user.User
	outsider user.User
	room     classroom.Classroom
}

func setup(t *testing.T) *testEnv {
	db := inmemdb.NewDB()
	env := &testEnv{
		repo:     inmemdb.NewSubmissionRepository(db),
		asgRepo:  inmemdb.NewAssignmentRepository(db),
		roomRepo: inmemdb.NewClassroomRepository(db),
		usrRepo:  inmemdb.NewUserRepository(db),
	}
	env.svc = submission.NewServiceMock(env.repo, env.asgRepo, env.roomRepo, env.usrRepo, emailsvc.NewConsoleServiceMock())

	env.teacher = testutil.CreateUser(t, env.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	env.student = testutil.CreateUser(t, env.usrRepo, "Student", "student", "student@test.cd", "", []string{user.RoleStudent}, true)
	env.outsider = testutil.CreateUser(t, env.usrRepo, "Outsider", "outsider", "outsider@test.cd", "", []string{user.RoleStudent}, true)
	env.room = testutil.CreateClassroom(t, env.roomRepo, env.teacher, "Biology", "BIO101")
	testutil.Enroll(t, env.roomRepo, env.room, env.student)
	return env
}

func (env *testEnv) createAssignment(t *testing.T, due time.Time, allowLate bool, penalty float64, status string) assignment.Assignment {
	t.Helper()
	return testutil.CreateAssignment(t, env.asgRepo, env.room, "Homework", due, 100, allowLate, penalty, status)
}

func mockNow(t *testing.T, now time.Time) {
	t.Helper()
	submission.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { submission.NowFunc = time.Now })
}

func fPtr(f float64) *float64 { return &f }

func assertValidationError(t *testing.T, err error, wantMsg string) {
	t.Helper()
	vErr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("error = %v (%T); want *core.ValidationError", err, err)
	}
	if wantMsg != "" && vErr.Error() != wantMsg {
		t.Errorf("error = %q; want %q", vErr.Error(), wantMsg)
	}
}

func Test_service_Upsert_preconditions(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	future := time.Now().UTC().Add(7 * 24 * time.Hour)
	past := time.Now().UTC().Add(-24 * time.Hour)

	draft := env.createAssignment(t, future, false, 0, assignment.StatusDraft)
	closed := env.createAssignment(t, future, false, 0, assignment.StatusClosed)
	published := env.createAssignment(t, future, false, 0, assignment.StatusPublished)
	overdue := env.createAssignment(t, past, false, 0, assignment.StatusPublished)
	overdueLateOK := env.createAssignment(t, past, true, 5, assignment.StatusPublished)

	us := submission.UpsertSubmission{Content: "my answer", Status: submission.StatusSubmitted}

	t.Run("assignment not found", func(t *testing.T) {
		if _, err := env.svc.Upsert(ctx, env.student, "nope", us); err != assignment.ErrNotFound {
			t.Errorf("error = %v; want %v", err, assignment.ErrNotFound)
		}
	})
	t.Run("unpublished assignment", func(t *testing.T) {
		_, err := env.svc.Upsert(ctx, env.student, draft.ID, us)
		assertValidationError(t, err, "cannot submit to unpublished assignment")
	})
	t.Run("closed assignment", func(t *testing.T) {
		_, err := env.svc.Upsert(ctx, env.student, closed.ID, us)
		assertValidationError(t, err, "assignment is closed to submissions")
	})
	t.Run("not enrolled", func(t *testing.T) {
		_, err := env.svc.Upsert(ctx, env.outsider, published.ID, us)
		if !core.IsPermissionError(err) {
			t.Errorf("error = %v; want a permission error", err)
		}
	})
	t.Run("past due date, late not allowed", func(t *testing.T) {
		_, err := env.svc.Upsert(ctx, env.student, overdue.ID, us)
		assertValidationError(t, err, "past due date: late submissions are not allowed")
	})
	t.Run("past due date, late allowed", func(t *testing.T) {
		sub, err := env.svc.Upsert(ctx, env.student, overdueLateOK.ID, us)
		if err != nil {
			t.Fatalf("Upsert() failed: %v", err)
		}
		if !sub.IsLate {
			t.Error("IsLate = false; want true")
		}
	})
}

func Test_service_Upsert_createAndUpdate(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	asg := env.createAssignment(t, time.Now().UTC().Add(7*24*time.Hour), false, 0, assignment.StatusPublished)

	// a first draft
	sub, err := env.svc.Upsert(ctx, env.student, asg.ID, submission.UpsertSubmission{Content: "work in progress"})
	if err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if sub.Status != submission.StatusDraft {
		t.Errorf("Status = %q; want %q", sub.Status, submission.StatusDraft)
	}
	if sub.SubmittedAt != nil {
		t.Errorf("SubmittedAt = %v; want nil", sub.SubmittedAt)
	}
	if sub.ClassroomID != env.room.ID {
		t.Errorf("ClassroomID = %q; want %q", sub.ClassroomID, env.room.ID)
	}

	// redrafting updates the same record
	sub2, err := env.svc.Upsert(ctx, env.student, asg.ID, submission.UpsertSubmission{Content: "more work"})
	if err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if sub2.ID != sub.ID {
		t.Errorf("ID = %q; want %q", sub2.ID, sub.ID)
	}
	if sub2.Content != "more work" {
		t.Errorf("Content = %q; want %q", sub2.Content, "more work")
	}

	// submitting retains the content when omitted
	sub3, err := env.svc.Upsert(ctx, env.student, asg.ID, submission.UpsertSubmission{Status: submission.StatusSubmitted})
	if err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if sub3.ID != sub.ID {
		t.Errorf("ID = %q; want %q", sub3.ID, sub.ID)
	}
	if sub3.Content != "more work" {
		t.Errorf("Content = %q; want %q", sub3.Content, "more work")
	}
	if sub3.Status != submission.StatusSubmitted {
		t.Errorf("Status = %q; want %q", sub3.Status, submission.StatusSubmitted)
	}
	if sub3.SubmittedAt == nil {
		t.Error("SubmittedAt not set")
	}
	if sub3.IsLate {
		t.Error("IsLate = true; want false")
	}

	// at most one record per (assignment, student)
	subs, err := env.repo.QuerySubmissionsByAssignment(ctx, asg.ID)
	if err != nil {
		t.Fatalf("QuerySubmissionsByAssignment() failed: %v", err)
	}
	if len(subs) != 1 {
		t.Errorf("len(subs) = %d; want 1", len(subs))
	}
}

func Test_service_Upsert_lateDerivation(t *testing.T) {
	env := setup(t)
	ctx := context.Background()

	due := time.Date(2021, 3, 1, 23, 59, 0, 0, time.UTC)
	asg := env.createAssignment(t, due, true, 5, assignment.StatusPublished)
	mockNow(t, due.Add(3*24*time.Hour)) // 3 days late

	sub, err := env.svc.Upsert(ctx, env.student, asg.ID, submission.UpsertSubmission{
		Content: "sorry I'm late",
		Status:  submission.StatusSubmitted,
	})
	if err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if !sub.IsLate {
		t.Error("IsLate = false; want true")
	}
	if sub.LateByDays != 3 {
		t.Errorf("LateByDays = %d; want 3", sub.LateByDays)
	}
	if sub.PenaltyApplied != 15 {
		t.Errorf("PenaltyApplied = %v; want 15", sub.PenaltyApplied)
	}

	// grading carries the penalty into the final grade
	graded, err := env.svc.Grade(ctx, env.teacher, sub.ID, submission.GradeSubmission{Grade: fPtr(80)})
	if err != nil {
		t.Fatalf("Grade() failed: %v", err)
	}
	if graded.FinalGrade == nil || *graded.FinalGrade != 65 {
		t.Errorf("FinalGrade = %v; want 65", graded.FinalGrade)
	}
	if graded.GradePercentage == nil || *graded.GradePercentage != 65 {
		t.Errorf("GradePercentage = %v; want 65", graded.GradePercentage)
	}
}

func Test_service_Grade(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	asg := env.createAssignment(t, time.Now().UTC().Add(24*time.Hour), false, 0, assignment.StatusPublished)

	sub, err := env.svc.Upsert(ctx, env.student, asg.ID, submission.UpsertSubmission{
		Content: "done",
		Status:  submission.StatusSubmitted,
	})
	if err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	t.Run("not found", func(t *testing.T) {
		if _, err := env.svc.Grade(ctx, env.teacher, "nope", submission.GradeSubmission{Grade: fPtr(50)}); err != submission.ErrNotFound {
			t.Errorf("error = %v; want %v", err, submission.ErrNotFound)
		}
	})
	t.Run("not the assignment's teacher", func(t *testing.T) {
		_, err := env.svc.Grade(ctx, env.student, sub.ID, submission.GradeSubmission{Grade: fPtr(50)})
		if !core.IsPermissionError(err) {
			t.Errorf("error = %v; want a permission error", err)
		}
	})
	t.Run("grade above total points", func(t *testing.T) {
		_, err := env.svc.Grade(ctx, env.teacher, sub.ID, submission.GradeSubmission{Grade: fPtr(101)})
		assertValidationError(t, err, "grade must be between 0 and 100")

		// record is unchanged
		refreshed, err := env.repo.GetSubmission(ctx, sub.ID)
		if err != nil {
			t.Fatalf("GetSubmission() failed: %v", err)
		}
		if refreshed.Grade != nil {
			t.Errorf("Grade = %v; want nil", refreshed.Grade)
		}
		if refreshed.Status != submission.StatusSubmitted {
			t.Errorf("Status = %q; want %q", refreshed.Status, submission.StatusSubmitted)
		}
	})
	t.Run("happy grading", func(t *testing.T) {
		graded, err := env.svc.Grade(ctx, env.teacher, sub.ID, submission.GradeSubmission{Grade: fPtr(85), Feedback: "good job"})
		if err != nil {
			t.Fatalf("Grade() failed: %v", err)
		}
		if graded.Status != submission.StatusGraded {
			t.Errorf("Status = %q; want %q", graded.Status, submission.StatusGraded)
		}
		if graded.GradedAt == nil {
			t.Error("GradedAt not set")
		}
		if graded.GradedBy != env.teacher.ID {
			t.Errorf("GradedBy = %q; want %q", graded.GradedBy, env.teacher.ID)
		}
		if graded.FinalGrade == nil || *graded.FinalGrade != 85 {
			t.Errorf("FinalGrade = %v; want 85", graded.FinalGrade)
		}

		// the student is notified
		var found bool
		for _, msg := range emailsvc.SentMessages {
			if len(msg.To) > 0 && msg.To[0].Address == env.student.Email && msg.TemplateName == "submission-graded" {
				found = true
				break
			}
		}
		if !found {
			t.Error("graded email not sent")
		}

		// regrading is allowed; GradedAt sticks to the first grading
		regraded, err := env.svc.Grade(ctx, env.teacher, sub.ID, submission.GradeSubmission{Grade: fPtr(90)})
		if err != nil {
			t.Fatalf("Grade() failed: %v", err)
		}
		if !regraded.GradedAt.Equal(*graded.GradedAt) {
			t.Errorf("GradedAt = %v; want %v", regraded.GradedAt, graded.GradedAt)
		}
		if regraded.FinalGrade == nil || *regraded.FinalGrade != 90 {
			t.Errorf("FinalGrade = %v; want 90", regraded.FinalGrade)
		}
	})
	t.Run("grading locks the submission", func(t *testing.T) {
		_, err := env.svc.Upsert(ctx, env.student, asg.ID, submission.UpsertSubmission{Content: "redo"})
		assertValidationError(t, err, "cannot modify a submission after grading")

		err = env.svc.Delete(ctx, env.student, sub.ID)
		assertValidationError(t, err, "cannot delete a submission after grading")
	})
}

func Test_service_Return(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	asg := env.createAssignment(t, time.Now().UTC().Add(24*time.Hour), false, 0, assignment.StatusPublished)

	sub, err := env.svc.Upsert(ctx, env.student, asg.ID, submission.UpsertSubmission{
		Content: "done",
		Status:  submission.StatusSubmitted,
	})
	if err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	t.Run("ungraded submission", func(t *testing.T) {
		_, err := env.svc.Return(ctx, env.teacher, sub.ID)
		assertValidationError(t, err, "only a graded submission can be returned")
	})

	if _, err = env.svc.Grade(ctx, env.teacher, sub.ID, submission.GradeSubmission{Grade: fPtr(70)}); err != nil {
		t.Fatalf("Grade() failed: %v", err)
	}

	t.Run("not the assignment's teacher", func(t *testing.T) {
		_, err := env.svc.Return(ctx, env.student, sub.ID)
		if !core.IsPermissionError(err) {
			t.Errorf("error = %v; want a permission error", err)
		}
	})
	t.Run("graded submission", func(t *testing.T) {
		returned, err := env.svc.Return(ctx, env.teacher, sub.ID)
		if err != nil {
			t.Fatalf("Return() failed: %v", err)
		}
		if returned.Status != submission.StatusReturned {
			t.Errorf("Status = %q; want %q", returned.Status, submission.StatusReturned)
		}
		if returned.FinalGrade == nil || *returned.FinalGrade != 70 {
			t.Errorf("FinalGrade = %v; want 70", returned.FinalGrade)
		}
	})
}

func Test_service_Delete(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	asg := env.createAssignment(t, time.Now().UTC().Add(24*time.Hour), false, 0, assignment.StatusPublished)

	sub, err := env.svc.Upsert(ctx, env.student, asg.ID, submission.UpsertSubmission{Content: "draft"})
	if err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	t.Run("not the owner", func(t *testing.T) {
		if err := env.svc.Delete(ctx, env.outsider, sub.ID); !core.IsPermissionError(err) {
			t.Errorf("error = %v; want a permission error", err)
		}
	})
	t.Run("owner deletes own draft", func(t *testing.T) {
		if err := env.svc.Delete(ctx, env.student, sub.ID); err != nil {
			t.Fatalf("Delete() failed: %v", err)
		}
		if _, err := env.repo.GetSubmission(ctx, sub.ID); err != submission.ErrNotFound {
			t.Errorf("error = %v; want %v", err, submission.ErrNotFound)
		}
	})
}

func Test_service_queries(t *testing.T) {
	env := setup(t)
	ctx := context.Background()
	asg := env.createAssignment(t, time.Now().UTC().Add(24*time.Hour), false, 0, assignment.StatusPublished)

	student2 := testutil.CreateUser(t, env.usrRepo, "Student 2", "student2", "student2@test.cd", "", []string{user.RoleStudent}, true)
	testutil.Enroll(t, env.roomRepo, env.room, student2)

	if _, err := env.svc.Upsert(ctx, env.student, asg.ID, submission.UpsertSubmission{
		Content: "first", Status: submission.StatusSubmitted,
	}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if _, err := env.svc.Upsert(ctx, student2, asg.ID, submission.UpsertSubmission{Content: "still drafting"}); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	t.Run("GetOwn only sees the caller's submission", func(t *testing.T) {
		own, err := env.svc.GetOwn(ctx, env.student, asg.ID)
		if err != nil {
			t.Fatalf("GetOwn() failed: %v", err)
		}
		if own.StudentID != env.student.ID {
			t.Errorf("StudentID = %q; want %q", own.StudentID, env.student.ID)
		}
		if _, err = env.svc.GetOwn(ctx, env.outsider, asg.ID); err != submission.ErrNotFound {
			t.Errorf("error = %v; want %v", err, submission.ErrNotFound)
		}
	})
	t.Run("QueryByAssignment is teacher only", func(t *testing.T) {
		if _, err := env.svc.QueryByAssignment(ctx, env.student, asg.ID); !core.IsPermissionError(err) {
			t.Errorf("error = %v; want a permission error", err)
		}

		subs, err := env.svc.QueryByAssignment(ctx, env.teacher, asg.ID)
		if err != nil {
			t.Fatalf("QueryByAssignment() failed: %v", err)
		}
		if len(subs) != 2 {
			t.Fatalf("len(subs) = %d; want 2", len(subs))
		}
		// submitted first, drafts last
		if subs[0].StudentID != env.student.ID {
			t.Errorf("subs[0].StudentID = %q; want %q", subs[0].StudentID, env.student.ID)
		}
		if subs[0].Student.ID != env.student.ID {
			t.Errorf("subs[0].Student.ID = %q; want %q", subs[0].Student.ID, env.student.ID)
		}
		if subs[0].AssignmentTitle != asg.Title {
			t.Errorf("subs[0].AssignmentTitle = %q; want %q", subs[0].AssignmentTitle, asg.Title)
		}
	})
	t.Run("QueryByClassroomStudent access", func(t *testing.T) {
		if _, err := env.svc.QueryByClassroomStudent(ctx, student2, env.room.ID, env.student.ID); !core.IsPermissionError(err) {
			t.Errorf("error = %v; want a permission error", err)
		}

		// the student themself
		subs, err := env.svc.QueryByClassroomStudent(ctx, env.student, env.room.ID, env.student.ID)
		if err != nil {
			t.Fatalf("QueryByClassroomStudent() failed: %v", err)
		}
		if len(subs) != 1 {
			t.Errorf("len(subs) = %d; want 1", len(subs))
		}

		// the classroom's teacher
		if _, err = env.svc.QueryByClassroomStudent(ctx, env.teacher, env.room.ID, env.student.ID); err != nil {
			t.Fatalf("QueryByClassroomStudent() failed: %v", err)
		}
	})
}
