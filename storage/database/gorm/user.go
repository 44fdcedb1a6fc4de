package gormdb

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	exclIDs := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}

	q := repo.db.WithContext(ctx).Model(&userModel{})
	if len(exclIDs) > 0 {
		q = q.Where("id NOT IN ?", exclIDs)
	}

	var m userModel
	err := q.Where("username = ? OR email = ?", username, email).First(&m).Error
	switch {
	case err == nil:
		if m.Username == username {
			return user.ErrUsernameExists
		}
		return user.ErrEmailExists
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return errors.Wrap(err, "checking username uniqueness")
	}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.NewString()
	m := newUserModel(usr)
	if err := repo.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return m.toUser(), nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	q := repo.db.WithContext(ctx).Model(&userModel{})
	if filter != nil && !filter.IsEmpty() {
		if filter.Search != "" {
			s := "%" + strings.ToLower(filter.Search) + "%"
			q = q.Where("LOWER(name) LIKE ? OR LOWER(username) LIKE ? OR LOWER(email) LIKE ?", s, s, s)
		}
		if filter.Roles != nil {
			q = q.Where("roles && ?", pqArray(filter.Roles))
		}
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
		if !filter.CreatedFrom.IsZero() {
			q = q.Where("created_at >= ?", filter.CreatedFrom)
		}
		if !filter.CreatedTo.IsZero() {
			q = q.Where("created_at <= ?", filter.CreatedTo)
		}
	}
	if len(ordering) == 0 {
		q = q.Order("created_at")
	}
	for _, ord := range ordering {
		q = q.Order(ord.String())
	}

	var ms []userModel
	if err := q.Find(&ms).Error; err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(ms))
	for _, m := range ms {
		users = append(users, m.toUser())
	}
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	q := repo.db.WithContext(ctx)
	switch {
	case filter.ID != "":
		q = q.Where("id = ?", filter.ID)
	case filter.Username != "":
		q = q.Where("username = ?", filter.Username)
	case filter.Email != "":
		q = q.Where("email = ?", filter.Email)
	case len(filter.UsernameOrEmail) == 2:
		q = q.Where("username = ? OR email = ?", filter.UsernameOrEmail[0], filter.UsernameOrEmail[1])
	default:
		return user.User{}, user.ErrNotFound
	}

	var m userModel
	if err := q.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return m.toUser(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	// only save set fields
	updates := make(map[string]interface{})
	if usr.Name != "" {
		updates["name"] = usr.Name
	}
	if usr.Username != "" {
		updates["username"] = usr.Username
	}
	if usr.Email != "" {
		updates["email"] = usr.Email
	}
	if usr.Roles != nil {
		updates["roles"] = pqArray(usr.Roles)
	}
	if usr.PasswordHash != nil {
		updates["password_hash"] = usr.PasswordHash
	}
	if usr.IsActive != nil {
		updates["is_active"] = *usr.IsActive
	}
	if !usr.LastLogin.IsZero() {
		updates["last_login"] = usr.LastLogin
	}
	if !usr.UpdatedAt.IsZero() {
		updates["updated_at"] = usr.UpdatedAt
	}

	res := repo.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", usr.ID).Updates(updates)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, errors.Wrap(res.Error, "updating user")
	}
	if res.RowsAffected == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID != "" {
		if updated, err := repo.UpdateUser(ctx, usr); err == nil {
			return updated, nil
		} else if errors.Cause(err) != user.ErrNotFound {
			return user.User{}, err
		}
	}
	return repo.CreateUser(ctx, usr)
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if err := repo.db.WithContext(ctx).Where("id IN ?", ids).Delete(&userModel{}).Error; err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
