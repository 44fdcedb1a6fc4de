package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/user"
)

type classroomRepository struct {
	db    *classroomTable
	users *userTable
}

func NewClassroomRepository(db *DB) classroom.Repository {
	return &classroomRepository{db: db.classroom, users: db.user}
}

func (repo *classroomRepository) CreateClassroom(_ context.Context, room classroom.Classroom) (classroom.Classroom, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, r := range repo.db.table {
		if r.JoinCode == room.JoinCode {
			return classroom.Classroom{}, classroom.ErrCodeTaken
		}
	}
	room.ID = uuid.NewString()
	repo.db.table[room.ID] = &room
	return room, nil
}

func (repo *classroomRepository) GetClassroom(_ context.Context, filter classroom.GetFilter) (classroom.Classroom, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if room, ok := repo.db.table[filter.ID]; ok {
			return *room, nil
		}
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	if filter.JoinCode != "" {
		for _, room := range repo.db.table {
			if room.JoinCode == filter.JoinCode {
				return *room, nil
			}
		}
	}
	return classroom.Classroom{}, classroom.ErrNotFound
}

func (repo *classroomRepository) QueryClassroomsForUser(_ context.Context, userID string) ([]classroom.Classroom, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rooms := make([]classroom.Classroom, 0)
	for _, room := range repo.db.table {
		if room.TeacherID == userID || contains(repo.db.rosters[room.ID], userID) {
			rooms = append(rooms, *room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].CreatedAt.Before(rooms[j].CreatedAt) })
	return rooms, nil
}

func (repo *classroomRepository) UpdateClassroom(_ context.Context, room classroom.Classroom) (classroom.Classroom, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[room.ID]; !ok {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	repo.db.table[room.ID] = &room
	return room, nil
}

func (repo *classroomRepository) DeleteClassroom(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.table, id)
	delete(repo.db.rosters, id)
	return nil
}

func (repo *classroomRepository) AddStudent(_ context.Context, classroomID, studentID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if contains(repo.db.rosters[classroomID], studentID) {
		return classroom.ErrAlreadyEnrolled
	}
	repo.db.rosters[classroomID] = append(repo.db.rosters[classroomID], studentID)
	return nil
}

func (repo *classroomRepository) RemoveStudent(_ context.Context, classroomID, studentID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	roster := repo.db.rosters[classroomID]
	for i, id := range roster {
		if id == studentID {
			repo.db.rosters[classroomID] = append(roster[:i], roster[i+1:]...)
			return nil
		}
	}
	return nil
}

func (repo *classroomRepository) IsEnrolled(_ context.Context, classroomID, studentID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return contains(repo.db.rosters[classroomID], studentID), nil
}

func (repo *classroomRepository) ListStudents(_ context.Context, classroomID string) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	repo.users.mutex.RLock()
	defer repo.users.mutex.RUnlock()

	students := make([]user.User, 0, len(repo.db.rosters[classroomID]))
	for _, id := range repo.db.rosters[classroomID] {
		if usr, ok := repo.users.table[id]; ok {
			students = append(students, *usr)
		}
	}
	return students, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
