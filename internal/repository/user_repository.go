package repository

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/putraaxzy/be-artemis/internal/models"
)

// UserRepository provides access to user accounts and the student roster.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	Update(user *models.User) error
	ListStudents() ([]models.User, error)
	CountStudentsByIDs(ids []uint) (int64, error)
	// FindStudentsByClassMajor matches students whose trimmed, uppercased
	// class and major equal the already-normalized arguments.
	FindStudentsByClassMajor(classNorm, majorNorm string) ([]models.User, error)
	Search(query string, limit int) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

func (r *userRepository) ListStudents() ([]models.User, error) {
	var students []models.User
	err := r.db.Where("role = ?", models.RoleStudent).
		Order("class").Order("major").Order("name").
		Find(&students).Error
	return students, err
}

func (r *userRepository) CountStudentsByIDs(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.User{}).
		Where("id IN ?", ids).
		Where("role = ?", models.RoleStudent).
		Count(&count).Error
	return count, errors.Wrap(err, "count students")
}

func (r *userRepository) FindStudentsByClassMajor(classNorm, majorNorm string) ([]models.User, error) {
	var students []models.User
	err := r.db.Where("role = ?", models.RoleStudent).
		Where("UPPER(TRIM(class)) = ? AND UPPER(TRIM(major)) = ?", classNorm, majorNorm).
		Find(&students).Error
	return students, errors.Wrap(err, "find students by class")
}

func (r *userRepository) Search(query string, limit int) ([]models.User, error) {
	var users []models.User
	pattern := "%" + query + "%"
	err := r.db.Where("name LIKE ? OR username LIKE ?", pattern, pattern).
		Limit(limit).
		Find(&users).Error
	return users, err
}
