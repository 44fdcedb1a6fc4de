package gormdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/user"
)

type classroomRepository struct {
	db *gorm.DB
}

func NewClassroomRepository(db *gorm.DB) classroom.Repository {
	return &classroomRepository{db: db}
}

func (repo *classroomRepository) CreateClassroom(ctx context.Context, room classroom.Classroom) (classroom.Classroom, error) {
	room.ID = uuid.NewString()
	m := newClassroomModel(room)
	if err := repo.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return classroom.Classroom{}, classroom.ErrCodeTaken
		}
		return classroom.Classroom{}, errors.Wrap(err, "creating classroom")
	}
	return m.toClassroom(), nil
}

func (repo *classroomRepository) GetClassroom(ctx context.Context, filter classroom.GetFilter) (classroom.Classroom, error) {
	q := repo.db.WithContext(ctx)
	switch {
	case filter.ID != "":
		q = q.Where("id = ?", filter.ID)
	case filter.JoinCode != "":
		q = q.Where("join_code = ?", filter.JoinCode)
	default:
		return classroom.Classroom{}, classroom.ErrNotFound
	}

	var m classroomModel
	if err := q.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return classroom.Classroom{}, classroom.ErrNotFound
		}
		return classroom.Classroom{}, errors.Wrap(err, "getting classroom")
	}
	return m.toClassroom(), nil
}

func (repo *classroomRepository) QueryClassroomsForUser(ctx context.Context, userID string) ([]classroom.Classroom, error) {
	var ms []classroomModel
	err := repo.db.WithContext(ctx).
		Where("teacher_id = ? OR id IN (?)",
			userID,
			repo.db.Model(&enrollmentModel{}).Select("classroom_id").Where("student_id = ?", userID),
		).
		Order("created_at").
		Find(&ms).Error
	if err != nil {
		return nil, errors.Wrap(err, "querying classrooms")
	}

	rooms := make([]classroom.Classroom, 0, len(ms))
	for _, m := range ms {
		rooms = append(rooms, m.toClassroom())
	}
	return rooms, nil
}

func (repo *classroomRepository) UpdateClassroom(ctx context.Context, room classroom.Classroom) (classroom.Classroom, error) {
	m := newClassroomModel(room)
	res := repo.db.WithContext(ctx).Model(&classroomModel{}).Where("id = ?", room.ID).Updates(&m)
	if res.Error != nil {
		return classroom.Classroom{}, errors.Wrap(res.Error, "updating classroom")
	}
	if res.RowsAffected == 0 {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	return repo.GetClassroom(ctx, classroom.GetFilter{ID: room.ID})
}

func (repo *classroomRepository) DeleteClassroom(ctx context.Context, id string) error {
	// memberships go with the classroom; assignments and submissions stay.
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("classroom_id = ?", id).Delete(&enrollmentModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&classroomModel{}).Error
	})
	return errors.Wrap(err, "deleting classroom")
}

func (repo *classroomRepository) AddStudent(ctx context.Context, classroomID, studentID string) error {
	m := enrollmentModel{
		ClassroomID: classroomID,
		StudentID:   studentID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := repo.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return classroom.ErrAlreadyEnrolled
		}
		return errors.Wrap(err, "adding student")
	}
	return nil
}

func (repo *classroomRepository) RemoveStudent(ctx context.Context, classroomID, studentID string) error {
	err := repo.db.WithContext(ctx).
		Where("classroom_id = ? AND student_id = ?", classroomID, studentID).
		Delete(&enrollmentModel{}).Error
	return errors.Wrap(err, "removing student")
}

func (repo *classroomRepository) IsEnrolled(ctx context.Context, classroomID, studentID string) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&enrollmentModel{}).
		Where("classroom_id = ? AND student_id = ?", classroomID, studentID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return count > 0, nil
}

func (repo *classroomRepository) ListStudents(ctx context.Context, classroomID string) ([]user.User, error) {
	var ms []userModel
	err := repo.db.WithContext(ctx).Model(&userModel{}).
		Joins("JOIN enrollments ON enrollments.student_id = users.id").
		Where("enrollments.classroom_id = ?", classroomID).
		Order("enrollments.id").
		Find(&ms).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing students")
	}

	students := make([]user.User, 0, len(ms))
	for _, m := range ms {
		students = append(students, m.toUser())
	}
	return students, nil
}
