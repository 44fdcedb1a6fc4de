package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateClassroom(
	t *testing.T,
	repo classroom.Repository,
	teacher user.User,
	name, joinCode string,
) classroom.Classroom {
	t.Helper()

	now := time.Now().UTC()
	room, err := repo.CreateClassroom(context.Background(), classroom.Classroom{
		Name:      name,
		Subject:   "Testing",
		TeacherID: teacher.ID,
		JoinCode:  joinCode,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateClassroom() failed: %v", err)
	}
	return room
}

func Enroll(t *testing.T, repo classroom.Repository, room classroom.Classroom, students ...user.User) {
	t.Helper()

	for _, student := range students {
		if err := repo.AddStudent(context.Background(), room.ID, student.ID); err != nil {
			t.Fatalf("Enroll() failed: %v", err)
		}
	}
}

func CreateAssignment(
	t *testing.T,
	repo assignment.Repository,
	room classroom.Classroom,
	title string,
	dueDate time.Time,
	totalPoints float64,
	allowLate bool,
	penalty float64,
	status string,
) assignment.Assignment {
	t.Helper()

	now := time.Now().UTC()
	asg := assignment.Assignment{
		ClassroomID:           room.ID,
		TeacherID:             room.TeacherID,
		Title:                 title,
		DueDate:               dueDate.UTC(),
		TotalPoints:           totalPoints,
		AllowLateSubmission:   allowLate,
		LateSubmissionPenalty: penalty,
		Status:                status,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if status == assignment.StatusPublished || status == assignment.StatusClosed {
		asg.PublishedAt = &now
	}
	asg, err := repo.CreateAssignment(context.Background(), asg)
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return asg
}
