package repository

import (
	"gorm.io/gorm"

	"github.com/putraaxzy/be-artemis/internal/models"
)

// MajorRepository provides access to the class/major enrollment catalog.
type MajorRepository interface {
	Create(major *models.Major) error
	List() ([]models.Major, error)
	Exists(class, name string) (bool, error)
	ListClasses() ([]string, error)
}

type majorRepository struct {
	db *gorm.DB
}

func NewMajorRepository(db *gorm.DB) MajorRepository {
	return &majorRepository{db: db}
}

func (r *majorRepository) Create(major *models.Major) error {
	return r.db.Create(major).Error
}

func (r *majorRepository) List() ([]models.Major, error) {
	var majors []models.Major
	err := r.db.Order("class").Order("major").Find(&majors).Error
	return majors, err
}

func (r *majorRepository) Exists(class, name string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Major{}).
		Where("class = ? AND major = ?", class, name).
		Count(&count).Error
	return count > 0, err
}

func (r *majorRepository) ListClasses() ([]string, error) {
	var classes []string
	err := r.db.Model(&models.Major{}).
		Distinct("class").
		Order("class").
		Pluck("class", &classes).Error
	return classes, err
}
