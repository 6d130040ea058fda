package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Profile represents an authenticated kitchen user
type Profile struct {
	BaseModel
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email"`
	Password     string     `gorm:"type:varchar(255);not null" json:"-"`
	DisplayName  string     `gorm:"type:varchar(255)" json:"display_name" validate:"required"`
	StoreName    string     `gorm:"type:varchar(255)" json:"store_name"`
	Role         Role       `gorm:"type:varchar(20);default:'user'" json:"role" validate:"omitempty,oneof=admin user"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	TokenVersion string     `gorm:"type:varchar(255);default:''" json:"-"`
	LastSeenAt   *time.Time `json:"last_seen_at,omitempty"`
}

func (Profile) TableName() string {
	return "profiles"
}

// SetPassword hashes and sets the profile's password
func (p *Profile) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (p *Profile) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(p.Password), []byte(password))
	return err == nil
}

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// ProfileResponse is used for API responses (without sensitive data)
type ProfileResponse struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	StoreName   string     `json:"store_name"`
	Role        Role       `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastSeenAt  *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (p *Profile) ToResponse() ProfileResponse {
	return ProfileResponse{
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		StoreName:   p.StoreName,
		Role:        p.Role,
		IsActive:    p.IsActive,
		LastSeenAt:  p.LastSeenAt,
		CreatedAt:   p.CreatedAt,
	}
}
