package gormdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/trezcool/darasa/core/assignment"
)

type assignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	asg.ID = uuid.NewString()
	m := newAssignmentModel(asg)
	if err := repo.db.WithContext(ctx).Create(&m).Error; err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "creating assignment")
	}
	return m.toAssignment(), nil
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	var m assignmentModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	return m.toAssignment(), nil
}

func (repo *assignmentRepository) QueryAssignmentsByClassroom(ctx context.Context, classroomID string) ([]assignment.Assignment, error) {
	var ms []assignmentModel
	err := repo.db.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		Order("due_date").
		Find(&ms).Error
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}

	asgs := make([]assignment.Assignment, 0, len(ms))
	for _, m := range ms {
		asgs = append(asgs, m.toAssignment())
	}
	return asgs, nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	m := newAssignmentModel(asg)
	// Select("*") so zero values like AllowLateSubmission=false are written.
	res := repo.db.WithContext(ctx).Model(&assignmentModel{}).
		Where("id = ?", asg.ID).
		Select("*").Omit("id", "created_at").
		Updates(&m)
	if res.Error != nil {
		return assignment.Assignment{}, errors.Wrap(res.Error, "updating assignment")
	}
	if res.RowsAffected == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	return repo.GetAssignment(ctx, asg.ID)
}

func (repo *assignmentRepository) DeleteAssignment(ctx context.Context, id string) error {
	err := repo.db.WithContext(ctx).Where("id = ?", id).Delete(&assignmentModel{}).Error
	return errors.Wrap(err, "deleting assignment")
}
