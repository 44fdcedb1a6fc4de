// Package inmemdb provides in-memory repository implementations backed by
// plain maps. They exist for tests and local hacking, not production.
package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
)

type DB struct {
	user       *userTable
	classroom  *classroomTable
	assignment *assignmentTable
	submission *submissionTable
}

func NewDB() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		classroom: &classroomTable{
			table:   make(map[string]*classroom.Classroom),
			rosters: make(map[string][]string),
		},
		assignment: &assignmentTable{table: make(map[string]*assignment.Assignment)},
		submission: &submissionTable{table: make(map[string]*submission.Submission)},
	}
}

type userTable struct {
	mutex sync.RWMutex
	table map[string]*user.User
}

type classroomTable struct {
	mutex sync.RWMutex
	table map[string]*classroom.Classroom
	// rosters keeps enrolled student ids per classroom in enrollment order.
	rosters map[string][]string
}

type assignmentTable struct {
	mutex sync.RWMutex
	table map[string]*assignment.Assignment
}

type submissionTable struct {
	mutex sync.RWMutex
	table map[string]*submission.Submission
}
