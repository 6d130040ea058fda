package repository

import (
	"time"

	"kitchen-backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileRepository interface {
	FindByEmail(email string) (*model.Profile, error)
	FindByID(id uuid.UUID) (*model.Profile, error)
	FindAll() ([]model.Profile, error)
	FindActive() ([]model.Profile, error)
	Create(profile *model.Profile) error
	Update(profile *model.Profile) error
	UpdatePassword(id uuid.UUID, hashedPassword string) error
	UpdateTokenVersion(id uuid.UUID, version string) error
	UpdateLastSeen(id uuid.UUID, at time.Time) error
}

type profileRepo struct {
	db *gorm.DB
}

func NewProfileRepo(db *gorm.DB) ProfileRepository {
	return &profileRepo{db}
}

func (r *profileRepo) FindByEmail(email string) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.Where("email = ?", email).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepo) FindByID(id uuid.UUID) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepo) FindAll() ([]model.Profile, error) {
	var profiles []model.Profile
	err := r.db.Order("created_at ASC").Find(&profiles).Error
	return profiles, err
}

func (r *profileRepo) FindActive() ([]model.Profile, error) {
	var profiles []model.Profile
	err := r.db.Where("is_active = ?", true).Find(&profiles).Error
	return profiles, err
}

func (r *profileRepo) Create(profile *model.Profile) error {
	return r.db.Create(profile).Error
}

func (r *profileRepo) Update(profile *model.Profile) error {
	return r.db.Save(profile).Error
}

func (r *profileRepo) UpdatePassword(id uuid.UUID, hashedPassword string) error {
	return r.db.Model(&model.Profile{}).Where("id = ?", id).Update("password", hashedPassword).Error
}

func (r *profileRepo) UpdateTokenVersion(id uuid.UUID, version string) error {
	return r.db.Model(&model.Profile{}).Where("id = ?", id).Update("token_version", version).Error
}

func (r *profileRepo) UpdateLastSeen(id uuid.UUID, at time.Time) error {
	return r.db.Model(&model.Profile{}).Where("id = ?", id).Update("last_seen_at", at).Error
}
