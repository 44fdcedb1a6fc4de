package gormdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trezcool/darasa/core/submission"
)

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) submission.Repository {
	return &submissionRepository{db: db}
}

// UpsertSubmission relies on the composite unique index over
// (assignment_id, student_id): concurrent creates for the same pair collapse
// into a single row instead of racing past an existence check.
func (repo *submissionRepository) UpsertSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	m, err := newSubmissionModel(sub)
	if err != nil {
		return submission.Submission{}, err
	}

	err = repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "assignment_id"}, {Name: "student_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"content", "attachments", "status", "submitted_at",
				"is_late", "late_by_days", "penalty_applied", "updated_at",
			}),
		}).
		Create(&m).Error
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "upserting submission")
	}
	return repo.GetSubmissionForStudent(ctx, sub.AssignmentID, sub.StudentID)
}

func (repo *submissionRepository) GetSubmission(ctx context.Context, id string) (submission.Submission, error) {
	var m submissionModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, errors.Wrap(err, "getting submission")
	}
	return m.toSubmission()
}

func (repo *submissionRepository) GetSubmissionForStudent(ctx context.Context, assignmentID, studentID string) (submission.Submission, error) {
	var m submissionModel
	err := repo.db.WithContext(ctx).
		Where("assignment_id = ? AND student_id = ?", assignmentID, studentID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, errors.Wrap(err, "getting submission")
	}
	return m.toSubmission()
}

func (repo *submissionRepository) QuerySubmissionsByAssignment(ctx context.Context, assignmentID string) ([]submission.Submission, error) {
	var ms []submissionModel
	err := repo.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("submitted_at DESC NULLS LAST").
		Find(&ms).Error
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	return toSubmissions(ms)
}

func (repo *submissionRepository) QuerySubmissionsByClassroomStudent(ctx context.Context, classroomID, studentID string) ([]submission.Submission, error) {
	var ms []submissionModel
	err := repo.db.WithContext(ctx).
		Where("classroom_id = ? AND student_id = ?", classroomID, studentID).
		Order("submitted_at DESC NULLS LAST").
		Find(&ms).Error
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	return toSubmissions(ms)
}

func toSubmissions(ms []submissionModel) ([]submission.Submission, error) {
	subs := make([]submission.Submission, 0, len(ms))
	for _, m := range ms {
		sub, err := m.toSubmission()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (repo *submissionRepository) UpdateSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	m, err := newSubmissionModel(sub)
	if err != nil {
		return submission.Submission{}, err
	}

	res := repo.db.WithContext(ctx).Model(&submissionModel{}).
		Where("id = ?", sub.ID).
		Select("*").Omit("id", "assignment_id", "student_id", "classroom_id", "created_at").
		Updates(&m)
	if res.Error != nil {
		return submission.Submission{}, errors.Wrap(res.Error, "updating submission")
	}
	if res.RowsAffected == 0 {
		return submission.Submission{}, submission.ErrNotFound
	}
	return repo.GetSubmission(ctx, sub.ID)
}

func (repo *submissionRepository) DeleteSubmission(ctx context.Context, id string) error {
	err := repo.db.WithContext(ctx).Where("id = ?", id).Delete(&submissionModel{}).Error
	return errors.Wrap(err, "deleting submission")
}
