package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole is the dashboard role of a user.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

type User struct {
	ID          string   `json:"id" gorm:"type:uuid;primaryKey"`
	FirstName   string   `json:"first_name" gorm:"size:50;not null"`
	LastName    string   `json:"last_name" gorm:"size:50;not null"`
	Email       string   `json:"email" gorm:"uniqueIndex;not null"`
	Role        UserRole `json:"role" gorm:"size:20;default:student;index"`
	Password    string   `json:"-"` // bcrypt hash, never serialized
	FirebaseUID string   `json:"firebase_uid,omitempty" gorm:"index"`
	IsActive    bool     `json:"is_active" gorm:"default:true"`

	// Deleting a user cascades to all of their notifications.
	Notifications []Notification `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key when none is set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// DisplayName returns the user's full name for email greetings.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type SignupRequest struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=50"`
	LastName  string `json:"last_name" validate:"required,min=1,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"omitempty,oneof=admin teacher student"`
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
